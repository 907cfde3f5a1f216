package flow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/YouBrin/BotChina/internal/catalog"
	"github.com/YouBrin/BotChina/internal/params"
	"github.com/YouBrin/BotChina/internal/store"
)

// Dispatcher routes incoming events to the owning flow based on each
// conversation's current state. Idle events matching a trigger phrase start
// a new flow; anything else while idle is a no-op.
type Dispatcher struct {
	chat     Chat
	cache    *params.Cache
	browser  *catalog.Browser
	store    store.Driver
	reporter Reporter
	adminID  string // empty allows everyone into the parameters menu

	mu    sync.Mutex
	convs map[ConvKey]*conversation
}

func New(chat Chat, cache *params.Cache, browser *catalog.Browser, st store.Driver, reporter Reporter, adminID string) *Dispatcher {
	return &Dispatcher{
		chat:     chat,
		cache:    cache,
		browser:  browser,
		store:    st,
		reporter: reporter,
		adminID:  adminID,
		convs:    make(map[ConvKey]*conversation),
	}
}

func (d *Dispatcher) conversation(key ConvKey) *conversation {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.convs[key]
	if !ok {
		c = &conversation{}
		d.convs[key] = c
	}
	return c
}

// HandleText processes one text message from the user.
func (d *Dispatcher) HandleText(ctx context.Context, key ConvKey, text string) {
	defer d.recoverFault(ctx, key)

	c := d.conversation(key)
	c.mu.Lock()
	defer c.mu.Unlock()

	text = strings.TrimSpace(text)

	// Cancellation and the way back to the menu work from every state.
	switch text {
	case TriggerCancel:
		d.cancel(ctx, key, c)
		return
	case TriggerMainMenu:
		c.reset()
		d.sendMainMenu(ctx, key, "Main menu:")
		return
	}

	switch c.step {
	case stepIdle:
		d.handleIdle(ctx, key, c, text)
	case stepName, stepTrack, stepPriceCNY, stepWeight, stepShipping, stepPackage:
		d.handleItemStep(ctx, key, c, text)
	case stepStatus:
		// Status is a button choice, not free text.
		d.sendStatusPrompt(ctx, key)
	case stepBrowseIndex:
		d.handleBrowseIndex(ctx, key, c, text)
	case stepParamValue:
		d.handleParamValue(ctx, key, c, text)
	}
}

// HandleChoice processes one pressed button. Unrecognized IDs are treated
// as trigger text so menu buttons and typed phrases behave identically.
func (d *Dispatcher) HandleChoice(ctx context.Context, key ConvKey, choiceID string) {
	defer d.recoverFault(ctx, key)

	if d.handleFlowChoice(ctx, key, choiceID) {
		return
	}
	d.HandleText(ctx, key, choiceID)
}

func (d *Dispatcher) handleFlowChoice(ctx context.Context, key ConvKey, choiceID string) bool {
	c := d.conversation(key)
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.step == stepStatus && (choiceID == choiceReceived || choiceID == choiceNotReceived):
		d.commitItem(ctx, key, c, choiceID)
		return true
	case choiceID == choiceSetCNY || choiceID == choiceSetUSD ||
		choiceID == choiceSetRatio || choiceID == choiceSetDelivery:
		d.startParamValue(ctx, key, c, choiceID)
		return true
	}
	return false
}

func (d *Dispatcher) handleIdle(ctx context.Context, key ConvKey, c *conversation, text string) {
	switch text {
	case TriggerStart:
		d.sendMainMenu(ctx, key, "Welcome to China Moto!")
	case TriggerAddItem:
		d.startItemEntry(ctx, key, c)
	case TriggerMyItems:
		d.startBrowse(ctx, key, c)
	case TriggerParameters:
		if !d.isAdmin(key) {
			d.send(ctx, key, "The parameters menu is available to the operator only.")
			return
		}
		d.sendParametersMenu(ctx, key)
	case TriggerCurrentParams:
		if !d.isAdmin(key) {
			return
		}
		d.showParameters(ctx, key)
	case TriggerEditParams:
		if !d.isAdmin(key) {
			return
		}
		d.sendParamSelection(ctx, key)
	case TriggerBack:
		d.sendMainMenu(ctx, key, "Main menu:")
	default:
		// Unknown idle input is deliberately a no-op.
	}
}

func (d *Dispatcher) isAdmin(key ConvKey) bool {
	return d.adminID == "" || key.UserID == d.adminID
}

func (d *Dispatcher) cancel(ctx context.Context, key ConvKey, c *conversation) {
	c.reset()
	d.send(ctx, key, "Action cancelled.")
	d.sendMainMenu(ctx, key, "Main menu:")
}

func (d *Dispatcher) sendMainMenu(ctx context.Context, key ConvKey, text string) {
	d.sendChoice(ctx, key, text, []Choice{
		{ID: TriggerAddItem, Label: TriggerAddItem},
		{ID: TriggerMyItems, Label: TriggerMyItems},
		{ID: TriggerParameters, Label: TriggerParameters},
	})
}

func (d *Dispatcher) sendParametersMenu(ctx context.Context, key ConvKey) {
	d.sendChoice(ctx, key, "Parameters menu:", []Choice{
		{ID: TriggerCurrentParams, Label: TriggerCurrentParams},
		{ID: TriggerEditParams, Label: TriggerEditParams},
		{ID: TriggerBack, Label: TriggerBack},
	})
}

func (d *Dispatcher) send(ctx context.Context, key ConvKey, text string) {
	if err := d.chat.SendText(ctx, key, text); err != nil {
		log.Printf("flow: send to %s/%s failed: %v", key.ChannelID, key.UserID, err)
	}
}

func (d *Dispatcher) sendChoice(ctx context.Context, key ConvKey, text string, options []Choice) {
	if err := d.chat.SendChoice(ctx, key, text, options); err != nil {
		log.Printf("flow: send choice to %s/%s failed: %v", key.ChannelID, key.UserID, err)
	}
}

// recoverFault is the last line of defense at the dispatch boundary: the
// fault goes to the operator, the user gets an apology and a clean menu,
// and the conversation is never left stuck.
func (d *Dispatcher) recoverFault(ctx context.Context, key ConvKey) {
	r := recover()
	if r == nil {
		return
	}
	err := fmt.Errorf("conversation %s/%s: %v", key.ChannelID, key.UserID, r)
	log.Printf("flow: fault: %v", err)
	if d.reporter != nil {
		d.reporter.ReportFault(ctx, key, err)
	}

	c := d.conversation(key)
	c.mu.Lock()
	c.reset()
	c.mu.Unlock()

	d.send(ctx, key, "Something went wrong. The operator has been notified.")
	d.sendMainMenu(ctx, key, "Main menu:")
}
