package flow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/YouBrin/BotChina/internal/catalog"
	"github.com/YouBrin/BotChina/internal/money"
)

func (d *Dispatcher) startBrowse(ctx context.Context, key ConvKey, c *conversation) {
	entries, err := d.browser.List(ctx)
	if err != nil {
		log.Printf("flow: list items failed: %v", err)
		d.send(ctx, key, "Failed to load the item list.")
		d.sendMainMenu(ctx, key, "Main menu:")
		return
	}
	if len(entries) == 0 {
		d.send(ctx, key, "The item list is empty.")
		d.sendMainMenu(ctx, key, "Main menu:")
		return
	}

	offset := 0
	for _, page := range catalog.Pages(entries) {
		var sb strings.Builder
		sb.WriteString("Items:\n\n")
		for i, e := range page {
			fmt.Fprintf(&sb, "%d. %s — track: %s\n", offset+i+1, e.Name, e.Track)
		}
		d.send(ctx, key, sb.String())
		offset += len(page)
	}
	d.send(ctx, key, fmt.Sprintf("Total items: %d\nEnter an item number for details, or go back with %q.", len(entries), TriggerMainMenu))

	c.reset()
	c.entries = entries
	c.step = stepBrowseIndex
}

func (d *Dispatcher) handleBrowseIndex(ctx context.Context, key ConvKey, c *conversation, text string) {
	n, err := strconv.Atoi(text)
	if err != nil {
		// Not an integer; the index mapping stays so the user can retry.
		d.send(ctx, key, "Enter the item number in digits.")
		return
	}

	det, err := d.browser.Detail(ctx, c.entries, n)
	switch {
	case errors.Is(err, catalog.ErrInvalidIndex):
		d.send(ctx, key, "No item with that number. Try again.")
		return
	case err != nil:
		log.Printf("flow: item detail failed: %v", err)
		c.reset()
		d.send(ctx, key, "Failed to load the item details.")
		d.sendMainMenu(ctx, key, "Main menu:")
		return
	}

	c.reset()
	d.send(ctx, key, formatDetail(det))
	d.sendMainMenu(ctx, key, "Main menu:")
}

func formatDetail(det catalog.Detail) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Item #%d\n", det.Index)
	fmt.Fprintf(&sb, "Name: %s\n", det.Name)
	fmt.Fprintf(&sb, "Track: %s\n", det.Track)
	if !det.HasCosts {
		sb.WriteString("No cost data for this item.")
		return sb.String()
	}
	fmt.Fprintf(&sb, "Price: %s ¥\n", money.Format(det.PriceCNY))
	fmt.Fprintf(&sb, "Price local: %s\n", money.Format(det.PriceLocal))
	fmt.Fprintf(&sb, "Weight: %s kg\n", money.Format(det.Weight))
	fmt.Fprintf(&sb, "Shipping per kg: %s $\n", money.Format(det.ShippingPerKg))
	fmt.Fprintf(&sb, "Shipping total: %s $\n", money.Format(det.ShippingTotalUSD))
	fmt.Fprintf(&sb, "Total: %s\n", money.Format(det.TotalLocal))
	fmt.Fprintf(&sb, "Total: %s $\n", money.Format(det.TotalForeign))
	fmt.Fprintf(&sb, "Packaging: %s $\n", money.Format(det.PackageCost))
	status := det.Status
	if status == "" {
		status = "no data"
	}
	fmt.Fprintf(&sb, "Status: %s", status)
	return sb.String()
}
