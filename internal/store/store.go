package store

import (
	"context"
	"errors"
)

// ErrTransport marks any failure talking to the backing sheet. Callers
// match it with errors.Is and decide whether to retry or fall back.
var ErrTransport = errors.New("store: transport failure")

// Cell is a single A1-style cell write.
type Cell struct {
	Ref   string
	Value string
}

// Driver is the spreadsheet-shaped system of record. Rows are positional:
// a row's index in the sheet is its only identity. Implementations return
// "" for absent cells and a possibly short slice for ReadRow.
type Driver interface {
	// ReadCells reads the given A1 refs, one value per ref, in order.
	ReadCells(ctx context.Context, refs []string) ([]string, error)

	// WriteCells writes all cells as one batched update.
	WriteCells(ctx context.Context, cells []Cell) error

	// AppendRow appends values as the next row after the existing data.
	AppendRow(ctx context.Context, values []string) error

	// ReadRow reads a full row by its 1-based sheet row number.
	ReadRow(ctx context.Context, rowIndex int) ([]string, error)

	// ReadRange reads a rectangular A1 range, e.g. "A7:B".
	ReadRange(ctx context.Context, a1 string) ([][]string, error)

	Close()
}
