// Package catalog lists committed items and resolves a user-chosen display
// index back to the full stored row.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/YouBrin/BotChina/internal/money"
	"github.com/YouBrin/BotChina/internal/store"
)

const (
	// firstItemRow is the first sheet row holding item data; the rows above
	// it are headers and the parameter block.
	firstItemRow = 7

	listRange = "A7:B"

	// PageSize caps how many items go into one list message.
	PageSize = 50
)

// ErrInvalidIndex is returned for an out-of-range item number.
var ErrInvalidIndex = errors.New("catalog: item number out of range")

// Entry is one listed item. Row is its sheet row number, the record's only
// identity.
type Entry struct {
	Row   int
	Name  string
	Track string
}

// Detail is a fully resolved item. HasCosts is false when the stored row is
// too short to carry the cost columns.
type Detail struct {
	Index int
	Name  string
	Track string

	HasCosts         bool
	PriceCNY         decimal.Decimal
	PriceLocal       decimal.Decimal
	Weight           decimal.Decimal
	ShippingPerKg    decimal.Decimal
	ShippingTotalUSD decimal.Decimal
	TotalLocal       decimal.Decimal
	TotalForeign     decimal.Decimal
	PackageCost      decimal.Decimal
	Status           string
}

type Browser struct {
	store store.Driver
}

func New(d store.Driver) *Browser {
	return &Browser{store: d}
}

// List scans the item rows in sheet order, skipping rows whose fields are
// all empty. Display indices are 1-based positions in the returned slice.
func (b *Browser) List(ctx context.Context) ([]Entry, error) {
	rows, err := b.store.ReadRange(ctx, listRange)
	if err != nil {
		return nil, fmt.Errorf("catalog: list items: %w", err)
	}

	var entries []Entry
	for i, row := range rows {
		if emptyRow(row) {
			continue
		}
		entries = append(entries, Entry{
			Row:   firstItemRow + i,
			Name:  field(row, 0),
			Track: field(row, 1),
		})
	}
	return entries, nil
}

// Detail re-reads the full row behind display index n (1-based) from the
// entries returned by a previous List. Short rows are tolerated: fields
// beyond the row's length simply stay unset.
func (b *Browser) Detail(ctx context.Context, entries []Entry, n int) (Detail, error) {
	if n < 1 || n > len(entries) {
		return Detail{}, ErrInvalidIndex
	}
	e := entries[n-1]

	row, err := b.store.ReadRow(ctx, e.Row)
	if err != nil {
		return Detail{}, fmt.Errorf("catalog: read item row %d: %w", e.Row, err)
	}

	d := Detail{Index: n, Name: e.Name, Track: e.Track}
	if len(row) > 2 {
		d.HasCosts = true
		d.PriceCNY = money.ParseLoose(field(row, 2))
		d.PriceLocal = money.ParseLoose(field(row, 3))
		d.Weight = money.ParseLoose(field(row, 4))
		d.ShippingPerKg = money.ParseLoose(field(row, 5))
		d.ShippingTotalUSD = money.ParseLoose(field(row, 6))
		d.TotalLocal = money.ParseLoose(field(row, 7))
		d.TotalForeign = money.ParseLoose(field(row, 8))
		d.PackageCost = money.ParseLoose(field(row, 9))
		d.Status = field(row, 10)
	}
	return d, nil
}

// Pages splits entries into display chunks of PageSize.
func Pages(entries []Entry) [][]Entry {
	var pages [][]Entry
	for len(entries) > PageSize {
		pages = append(pages, entries[:PageSize])
		entries = entries[PageSize:]
	}
	if len(entries) > 0 {
		pages = append(pages, entries)
	}
	return pages
}

func emptyRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
