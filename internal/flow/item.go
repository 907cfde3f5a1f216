package flow

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/YouBrin/BotChina/internal/calc"
	"github.com/YouBrin/BotChina/internal/money"
	"github.com/YouBrin/BotChina/internal/params"
)

func (d *Dispatcher) startItemEntry(ctx context.Context, key ConvKey, c *conversation) {
	c.reset()
	c.draft = &itemDraft{}
	c.step = stepName
	d.send(ctx, key, "Enter the item name:")
}

func (d *Dispatcher) handleItemStep(ctx context.Context, key ConvKey, c *conversation, text string) {
	switch c.step {
	case stepName:
		c.draft.name = text
		c.step = stepTrack
		d.send(ctx, key, "Enter the tracking number:")

	case stepTrack:
		c.draft.track = text
		c.step = stepPriceCNY
		d.send(ctx, key, "Enter the price in ¥:")

	case stepPriceCNY:
		v, err := money.ParseDecimal(text)
		if err != nil {
			d.send(ctx, key, "Enter a number.")
			return
		}
		p := d.cache.Get(ctx)
		c.draft.priceCNY = v
		c.draft.priceLocal = calc.PriceLocal(p, v)
		c.step = stepWeight
		d.send(ctx, key, "Enter the weight (kg):")

	case stepWeight:
		v, err := money.ParseDecimal(text)
		if err != nil {
			d.send(ctx, key, "Enter a number.")
			return
		}
		c.draft.weight = v
		c.step = stepShipping
		d.send(ctx, key, "Enter the shipping cost per kg in $:")

	case stepShipping:
		v, err := money.ParseDecimal(text)
		if err != nil {
			d.send(ctx, key, "Enter a number.")
			return
		}
		p := d.cache.Get(ctx)
		c.draft.shippingPerKg = v
		c.draft.shippingTotalUSD = calc.ShippingTotalUSD(p, v, c.draft.weight)
		c.step = stepPackage
		d.send(ctx, key, "Enter the packaging cost:")

	case stepPackage:
		v, err := money.ParseDecimal(text)
		if err != nil {
			d.send(ctx, key, "Enter a number.")
			return
		}
		c.draft.packageCost = v

		p := d.cache.Get(ctx)
		b, err := calc.Aggregate(p, c.draft.priceLocal, c.draft.shippingTotalUSD, v)
		if err != nil {
			// A zero USD rate is a configuration fault, not a user mistake.
			if errors.Is(err, params.ErrZeroUSDRate) && d.reporter != nil {
				d.reporter.ReportFault(ctx, key, err)
			}
			log.Printf("flow: cost calculation failed: %v", err)
			c.reset()
			d.send(ctx, key, "Cost calculation failed. The operator has been notified.")
			d.sendMainMenu(ctx, key, "Main menu:")
			return
		}
		c.draft.breakdown = b
		c.step = stepStatus
		d.sendStatusPrompt(ctx, key)
	}
}

func (d *Dispatcher) sendStatusPrompt(ctx context.Context, key ConvKey) {
	d.sendChoice(ctx, key, "Choose a status:", []Choice{
		{ID: choiceReceived, Label: "Received ✅"},
		{ID: choiceNotReceived, Label: "Not received ❌"},
		{ID: TriggerMainMenu, Label: TriggerMainMenu},
	})
}

// commitItem appends the finished record. The append is a single attempt:
// on failure the draft is discarded and the user is told, nothing is
// retried.
func (d *Dispatcher) commitItem(ctx context.Context, key ConvKey, c *conversation, choiceID string) {
	status := statusReceived
	if choiceID == choiceNotReceived {
		status = statusNotReceived
	}

	dr := c.draft
	row := []string{
		dr.name,
		dr.track,
		dr.priceCNY.String(),
		dr.priceLocal.String(),
		dr.weight.String(),
		dr.shippingPerKg.String(),
		dr.breakdown.ShippingTotalUSD.String(),
		dr.breakdown.TotalLocal.String(),
		dr.breakdown.TotalForeign.String(),
		dr.packageCost.String(),
		status,
	}

	c.reset()
	if err := d.store.AppendRow(ctx, row); err != nil {
		log.Printf("flow: append item row failed: %v", err)
		d.send(ctx, key, "Failed to save the item.")
	} else {
		d.send(ctx, key, fmt.Sprintf("Item %q added!", dr.name))
	}
	d.sendMainMenu(ctx, key, "Main menu:")
}
