package flow

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/YouBrin/BotChina/internal/catalog"
	"github.com/YouBrin/BotChina/internal/params"
	"github.com/YouBrin/BotChina/internal/store"
)

// fakeDriver backs both the parameter cache and the item store in tests.
type fakeDriver struct {
	cells       map[string]string
	rangeRows   [][]string
	rows        map[int][]string
	appended    [][]string
	appendErr   error
	appendTries int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		cells: map[string]string{
			"B2": "0.5", // CNY rate
			"B3": "3",   // USD rate
			"B4": "0.05",
			"B5": "1", // delivery rate
		},
		rows: map[int][]string{},
	}
}

func (f *fakeDriver) ReadCells(_ context.Context, refs []string) ([]string, error) {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = f.cells[r]
	}
	return out, nil
}

func (f *fakeDriver) WriteCells(_ context.Context, cells []store.Cell) error {
	for _, c := range cells {
		f.cells[c.Ref] = c.Value
	}
	return nil
}

func (f *fakeDriver) AppendRow(_ context.Context, values []string) error {
	f.appendTries++
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, values)
	return nil
}

func (f *fakeDriver) ReadRow(_ context.Context, idx int) ([]string, error) {
	return f.rows[idx], nil
}

func (f *fakeDriver) ReadRange(context.Context, string) ([][]string, error) {
	return f.rangeRows, nil
}

func (f *fakeDriver) Close() {}

// fakeChat records everything the flows send.
type fakeChat struct {
	texts   []string
	choices []string // prompt texts of choice messages
}

func (f *fakeChat) SendText(_ context.Context, _ ConvKey, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeChat) SendChoice(_ context.Context, _ ConvKey, text string, _ []Choice) error {
	f.choices = append(f.choices, text)
	return nil
}

func (f *fakeChat) lastText() string {
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

type fakeReporter struct {
	faults []error
}

func (f *fakeReporter) ReportFault(_ context.Context, _ ConvKey, err error) {
	f.faults = append(f.faults, err)
}

func newTestDispatcher(f *fakeDriver) (*Dispatcher, *fakeChat, *fakeReporter) {
	cache := params.NewCache(f)
	cache.Sleep = func(time.Duration) {}
	chat := &fakeChat{}
	rep := &fakeReporter{}
	d := New(chat, cache, catalog.New(f), f, rep, "")
	return d, chat, rep
}

var key = ConvKey{ChannelID: "chan", UserID: "user"}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requireRowValue(t *testing.T, row []string, i int, want string) {
	t.Helper()
	got, err := decimal.NewFromString(row[i])
	require.NoError(t, err, "row[%d] = %q", i, row[i])
	require.True(t, got.Equal(dec(want)), "row[%d] = %v, want %v", i, got, want)
}

func TestItemEntryFullFlow(t *testing.T) {
	f := newFakeDriver()
	d, chat, _ := newTestDispatcher(f)
	ctx := context.Background()

	d.HandleText(ctx, key, TriggerAddItem)
	require.Equal(t, "Enter the item name:", chat.lastText())

	d.HandleText(ctx, key, "Helmet")
	d.HandleText(ctx, key, "TRK123")
	d.HandleText(ctx, key, "100")
	d.HandleText(ctx, key, "2")
	d.HandleText(ctx, key, "2")
	d.HandleText(ctx, key, "10")
	require.Contains(t, chat.choices, "Choose a status:")

	d.HandleChoice(ctx, key, "received")

	require.Len(t, f.appended, 1)
	row := f.appended[0]
	require.Len(t, row, 11)
	require.Equal(t, "Helmet", row[0])
	require.Equal(t, "TRK123", row[1])
	requireRowValue(t, row, 2, "100") // price CNY
	requireRowValue(t, row, 3, "50")  // price local
	requireRowValue(t, row, 4, "2")   // weight
	requireRowValue(t, row, 5, "2")   // shipping per kg
	requireRowValue(t, row, 6, "6")   // shipping total USD
	requireRowValue(t, row, 7, "78")  // total local
	requireRowValue(t, row, 8, "26")  // total foreign
	requireRowValue(t, row, 9, "10")  // packaging
	require.Equal(t, "Received", row[10])

	// Conversation is back to idle: a new entry starts cleanly.
	d.HandleText(ctx, key, TriggerAddItem)
	require.Equal(t, "Enter the item name:", chat.lastText())
}

func TestItemEntryCancelFromEveryStep(t *testing.T) {
	inputs := []string{"Helmet", "TRK123", "100", "2", "2", "10"}
	for steps := 0; steps <= len(inputs); steps++ {
		f := newFakeDriver()
		d, chat, _ := newTestDispatcher(f)
		ctx := context.Background()

		d.HandleText(ctx, key, TriggerAddItem)
		for i := 0; i < steps; i++ {
			d.HandleText(ctx, key, inputs[i])
		}
		d.HandleText(ctx, key, TriggerCancel)

		require.Contains(t, chat.texts, "Action cancelled.", "cancel after %d steps", steps)
		require.Empty(t, f.appended, "cancel after %d steps must not write a record", steps)

		c := d.conversation(key)
		require.Equal(t, stepIdle, c.step)
		require.Nil(t, c.draft)
	}
}

func TestItemEntryNumericReprompt(t *testing.T) {
	f := newFakeDriver()
	d, chat, _ := newTestDispatcher(f)
	ctx := context.Background()

	d.HandleText(ctx, key, TriggerAddItem)
	d.HandleText(ctx, key, "Helmet")
	d.HandleText(ctx, key, "TRK123")

	d.HandleText(ctx, key, "lots")
	require.Equal(t, "Enter a number.", chat.lastText())
	require.Equal(t, stepPriceCNY, d.conversation(key).step, "parse failure must not advance")

	d.HandleText(ctx, key, "12,5")
	require.Equal(t, "Enter the weight (kg):", chat.lastText())
	require.True(t, d.conversation(key).draft.priceCNY.Equal(dec("12.5")))
}

func TestStatusMainMenuDiscardsDraft(t *testing.T) {
	f := newFakeDriver()
	d, _, _ := newTestDispatcher(f)
	ctx := context.Background()

	for _, in := range []string{TriggerAddItem, "Helmet", "TRK123", "100", "2", "2", "10"} {
		d.HandleText(ctx, key, in)
	}
	d.HandleChoice(ctx, key, TriggerMainMenu)

	require.Empty(t, f.appended)
	require.Equal(t, stepIdle, d.conversation(key).step)
}

func TestAppendFailureIsSingleAttempt(t *testing.T) {
	f := newFakeDriver()
	f.appendErr = store.ErrTransport
	d, chat, _ := newTestDispatcher(f)
	ctx := context.Background()

	for _, in := range []string{TriggerAddItem, "Helmet", "TRK123", "100", "2", "2", "10"} {
		d.HandleText(ctx, key, in)
	}
	d.HandleChoice(ctx, key, "received")

	require.Equal(t, 1, f.appendTries, "the append path must not retry")
	require.Contains(t, chat.texts, "Failed to save the item.")
	require.Equal(t, stepIdle, d.conversation(key).step)
}

func TestZeroUSDRateIsReported(t *testing.T) {
	f := newFakeDriver()
	f.cells["B3"] = "0"
	d, chat, rep := newTestDispatcher(f)
	ctx := context.Background()

	for _, in := range []string{TriggerAddItem, "Helmet", "TRK123", "100", "2", "2", "10"} {
		d.HandleText(ctx, key, in)
	}

	require.Len(t, rep.faults, 1)
	require.Contains(t, chat.texts, "Cost calculation failed. The operator has been notified.")
	require.Empty(t, f.appended)
	require.Equal(t, stepIdle, d.conversation(key).step)
}

func TestBrowseFlow(t *testing.T) {
	f := newFakeDriver()
	f.rangeRows = [][]string{
		{"Helmet", "TRK1"},
		{"", ""},
		{"Mirror", "TRK3"},
	}
	f.rows[9] = []string{"Mirror", "TRK3", "40", "20", "1", "2", "3", "31", "10.333", "2", "Not received"}
	d, chat, _ := newTestDispatcher(f)
	ctx := context.Background()

	d.HandleText(ctx, key, TriggerMyItems)
	require.Contains(t, chat.lastText(), "Total items: 2")
	require.Equal(t, stepBrowseIndex, d.conversation(key).step)

	d.HandleText(ctx, key, "three")
	require.Equal(t, "Enter the item number in digits.", chat.lastText())

	d.HandleText(ctx, key, "3")
	require.Equal(t, "No item with that number. Try again.", chat.lastText())
	require.Equal(t, stepBrowseIndex, d.conversation(key).step, "index mapping survives a bad index")

	d.HandleText(ctx, key, "2")
	detail := chat.lastText()
	require.Contains(t, detail, "Item #2")
	require.Contains(t, detail, "Mirror")
	require.Contains(t, detail, "Status: Not received")
	require.Equal(t, stepIdle, d.conversation(key).step)
}

func TestBrowseEmptyList(t *testing.T) {
	f := newFakeDriver()
	d, chat, _ := newTestDispatcher(f)

	d.HandleText(context.Background(), key, TriggerMyItems)
	require.Contains(t, chat.texts, "The item list is empty.")
	require.Equal(t, stepIdle, d.conversation(key).step)
}

func TestParamEditFlow(t *testing.T) {
	f := newFakeDriver()
	d, chat, _ := newTestDispatcher(f)
	ctx := context.Background()

	d.HandleChoice(ctx, key, "set_usd")
	require.Contains(t, chat.lastText(), "Current USD rate: 3")

	d.HandleText(ctx, key, "bogus")
	require.Contains(t, chat.lastText(), "Enter a number")

	d.HandleText(ctx, key, "3,5")
	require.Contains(t, chat.texts, "Parameters updated.")
	require.Equal(t, "3.5", f.cells["B3"])
	require.Equal(t, "0.5", f.cells["B2"], "unselected parameters keep their values")
	require.Equal(t, stepIdle, d.conversation(key).step)
}

func TestParamEditRejectsZeroUSDRate(t *testing.T) {
	f := newFakeDriver()
	d, chat, _ := newTestDispatcher(f)
	ctx := context.Background()

	d.HandleChoice(ctx, key, "set_usd")
	d.HandleText(ctx, key, "0")
	require.Contains(t, chat.lastText(), "cannot be zero")
	require.Equal(t, "3", f.cells["B3"])
	require.Equal(t, stepParamValue, d.conversation(key).step, "value entry re-prompts")
}

func TestParametersAdminGate(t *testing.T) {
	f := newFakeDriver()
	cache := params.NewCache(f)
	cache.Sleep = func(time.Duration) {}
	chat := &fakeChat{}
	d := New(chat, cache, catalog.New(f), f, nil, "admin-1")
	ctx := context.Background()

	other := ConvKey{ChannelID: "chan", UserID: "someone-else"}
	d.HandleText(ctx, other, TriggerParameters)
	require.Contains(t, chat.lastText(), "operator only")

	d.HandleChoice(ctx, other, "set_usd")
	d.HandleText(ctx, other, "9")
	require.Equal(t, "3", f.cells["B3"], "non-admin must not reach the value step")

	admin := ConvKey{ChannelID: "chan", UserID: "admin-1"}
	d.HandleText(ctx, admin, TriggerParameters)
	require.Contains(t, chat.choices, "Parameters menu:")
}

func TestIdleUnknownTextIsNoop(t *testing.T) {
	f := newFakeDriver()
	d, chat, _ := newTestDispatcher(f)

	d.HandleText(context.Background(), key, "hello there")
	require.Empty(t, chat.texts)
	require.Empty(t, chat.choices)
}

func TestDispatchFaultIsContained(t *testing.T) {
	f := newFakeDriver()
	cache := params.NewCache(f)
	cache.Sleep = func(time.Duration) {}
	chat := &fakeChat{}
	rep := &fakeReporter{}
	d := New(chat, cache, nil, f, rep, "") // nil browser makes "My items" panic

	d.HandleText(context.Background(), key, TriggerMyItems)

	require.Len(t, rep.faults, 1)
	require.Contains(t, fmt.Sprint(rep.faults[0]), "chan/user")
	require.True(t, strings.Contains(chat.lastTextOrChoice(), "Main menu"), "user gets a path back to idle")
	require.Equal(t, stepIdle, d.conversation(key).step)
}

func (f *fakeChat) lastTextOrChoice() string {
	if len(f.choices) > 0 {
		return f.choices[len(f.choices)-1]
	}
	return f.lastText()
}
