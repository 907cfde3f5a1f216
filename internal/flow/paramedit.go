package flow

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/YouBrin/BotChina/internal/money"
	"github.com/YouBrin/BotChina/internal/params"
)

func (d *Dispatcher) showParameters(ctx context.Context, key ConvKey) {
	p := d.cache.Get(ctx)
	refreshed := "never"
	if at := d.cache.FetchedAt(); !at.IsZero() {
		refreshed = at.Format("15:04:05")
	}
	d.send(ctx, key, fmt.Sprintf(
		"Current parameters:\n\n• CNY rate: %s\n• USD rate: %s\n• JPY/USD ratio: %s\n• Delivery rate: %s $/kg\n\nLast refreshed: %s",
		p.CNYRate, p.USDRate, p.JPYToUSDRatio, p.DeliveryRate, refreshed))
	d.sendParametersMenu(ctx, key)
}

func (d *Dispatcher) sendParamSelection(ctx context.Context, key ConvKey) {
	p := d.cache.Get(ctx)
	d.sendChoice(ctx, key, "Choose a parameter to change:", []Choice{
		{ID: choiceSetCNY, Label: fmt.Sprintf("CNY rate (%s)", p.CNYRate)},
		{ID: choiceSetUSD, Label: fmt.Sprintf("USD rate (%s)", p.USDRate)},
		{ID: choiceSetRatio, Label: fmt.Sprintf("JPY/USD ratio (%s)", p.JPYToUSDRatio)},
		{ID: choiceSetDelivery, Label: fmt.Sprintf("Delivery rate (%s $)", p.DeliveryRate)},
		{ID: TriggerBack, Label: TriggerBack},
	})
}

func (d *Dispatcher) startParamValue(ctx context.Context, key ConvKey, c *conversation, choiceID string) {
	if !d.isAdmin(key) {
		return
	}

	p := d.cache.Get(ctx)
	var current string
	switch choiceID {
	case choiceSetCNY:
		c.field = paramCNY
		current = fmt.Sprintf("Current CNY rate: %s", p.CNYRate)
	case choiceSetUSD:
		c.field = paramUSD
		current = fmt.Sprintf("Current USD rate: %s", p.USDRate)
	case choiceSetRatio:
		c.field = paramRatio
		current = fmt.Sprintf("Current JPY/USD ratio: %s", p.JPYToUSDRatio)
	case choiceSetDelivery:
		c.field = paramDelivery
		current = fmt.Sprintf("Current delivery rate: %s $", p.DeliveryRate)
	}
	c.step = stepParamValue
	d.send(ctx, key, current+"\nEnter a new value:")
}

func (d *Dispatcher) handleParamValue(ctx context.Context, key ConvKey, c *conversation, text string) {
	v, err := money.ParseDecimal(text)
	if err != nil {
		d.send(ctx, key, "Enter a number (for example 123.45 or 123,45).")
		return
	}

	// The other three parameters keep their last-known values; only the
	// selected one is overwritten.
	p := d.cache.Get(ctx)
	switch c.field {
	case paramCNY:
		p.CNYRate = v
	case paramUSD:
		p.USDRate = v
	case paramRatio:
		p.JPYToUSDRatio = v
	case paramDelivery:
		p.DeliveryRate = v
	}

	if err := d.cache.Save(ctx, p); err != nil {
		if errors.Is(err, params.ErrZeroUSDRate) {
			d.send(ctx, key, "The USD rate cannot be zero. Enter a new value:")
			return
		}
		log.Printf("flow: save parameters failed: %v", err)
		c.reset()
		d.send(ctx, key, "Failed to save the parameters.")
		d.sendParametersMenu(ctx, key)
		return
	}

	c.reset()
	d.send(ctx, key, "Parameters updated.")
	d.sendParametersMenu(ctx, key)
}
