// Package flow drives the conversations: item entry, catalog browsing and
// parameter editing. It talks to the chat transport only through the Chat
// interface, so the state machines are testable without a live session.
package flow

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/YouBrin/BotChina/internal/calc"
	"github.com/YouBrin/BotChina/internal/catalog"
)

// ConvKey identifies one conversation. Two users in the same channel get
// independent state.
type ConvKey struct {
	ChannelID string
	UserID    string
}

// Choice is one selectable option in a prompt.
type Choice struct {
	ID    string
	Label string
}

// Chat is the outbound half of the transport.
type Chat interface {
	SendText(ctx context.Context, conv ConvKey, text string) error
	SendChoice(ctx context.Context, conv ConvKey, text string, options []Choice) error
}

// Reporter delivers uncaught flow faults to the operator channel.
type Reporter interface {
	ReportFault(ctx context.Context, conv ConvKey, err error)
}

// Menu trigger phrases. Buttons send these as choice IDs; typed text works
// the same way.
const (
	TriggerStart         = "/start"
	TriggerAddItem       = "Add item"
	TriggerMyItems       = "My items"
	TriggerParameters    = "Parameters"
	TriggerCurrentParams = "Current parameters"
	TriggerEditParams    = "Edit parameters"
	TriggerBack          = "Back"
	TriggerMainMenu      = "Main menu"
	TriggerCancel        = "Cancel"
)

// Choice IDs used inside flows.
const (
	choiceReceived    = "received"
	choiceNotReceived = "not_received"
	choiceSetCNY      = "set_cny"
	choiceSetUSD      = "set_usd"
	choiceSetRatio    = "set_ratio"
	choiceSetDelivery = "set_delivery"
)

// Statuses persisted with an item.
const (
	statusReceived    = "Received"
	statusNotReceived = "Not received"
)

type step int

const (
	stepIdle step = iota

	// item entry, strictly in order
	stepName
	stepTrack
	stepPriceCNY
	stepWeight
	stepShipping
	stepPackage
	stepStatus

	// catalog browsing
	stepBrowseIndex

	// parameter editing
	stepParamValue
)

type paramField int

const (
	paramNone paramField = iota
	paramCNY
	paramUSD
	paramRatio
	paramDelivery
)

// itemDraft accumulates one item's fields during entry. Discarded on
// commit, cancellation or fault.
type itemDraft struct {
	name             string
	track            string
	priceCNY         decimal.Decimal
	priceLocal       decimal.Decimal
	weight           decimal.Decimal
	shippingPerKg    decimal.Decimal
	shippingTotalUSD decimal.Decimal
	packageCost      decimal.Decimal
	breakdown        calc.Breakdown
}

// conversation is the per-user state. Guarded by its own mutex so flows run
// to completion before the next event for the same user is handled.
type conversation struct {
	mu sync.Mutex

	step  step
	draft *itemDraft

	// browse: display-index → sheet-row mapping from the last List
	entries []catalog.Entry

	// parameter edit: which field the next value applies to
	field paramField
}

func (c *conversation) reset() {
	c.step = stepIdle
	c.draft = nil
	c.entries = nil
	c.field = paramNone
}
