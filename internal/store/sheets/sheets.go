// Package sheets backs the store with a Google spreadsheet, the shared
// system of record the rest of the team works in.
package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/YouBrin/BotChina/internal/store"
)

type Client struct {
	values        *sheetsapi.SpreadsheetsValuesService
	spreadsheetID string
	worksheet     string
}

func New(ctx context.Context, credentialsFile, spreadsheetID, worksheet string) (*Client, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &Client{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
	}, nil
}

func (c *Client) ReadCells(ctx context.Context, refs []string) ([]string, error) {
	ranges := make([]string, len(refs))
	for i, r := range refs {
		ranges[i] = c.ref(r)
	}

	resp, err := c.values.BatchGet(c.spreadsheetID).Ranges(ranges...).Context(ctx).Do()
	if err != nil {
		return nil, transportErr("batch get", err)
	}

	out := make([]string, len(refs))
	for i, vr := range resp.ValueRanges {
		if i >= len(out) {
			break
		}
		if len(vr.Values) > 0 && len(vr.Values[0]) > 0 {
			out[i] = cellString(vr.Values[0][0])
		}
	}
	return out, nil
}

func (c *Client) WriteCells(ctx context.Context, cells []store.Cell) error {
	data := make([]*sheetsapi.ValueRange, len(cells))
	for i, cell := range cells {
		data[i] = &sheetsapi.ValueRange{
			Range:  c.ref(cell.Ref),
			Values: [][]interface{}{{cell.Value}},
		}
	}

	req := &sheetsapi.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}
	if _, err := c.values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return transportErr("batch update", err)
	}
	return nil
}

func (c *Client) AppendRow(ctx context.Context, values []string) error {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}

	vr := &sheetsapi.ValueRange{Values: [][]interface{}{row}}
	_, err := c.values.Append(c.spreadsheetID, c.worksheet, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return transportErr("append", err)
	}
	return nil
}

func (c *Client) ReadRow(ctx context.Context, rowIndex int) ([]string, error) {
	rng := fmt.Sprintf("%s!%d:%d", c.worksheet, rowIndex, rowIndex)
	resp, err := c.values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, transportErr("get row", err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return rowStrings(resp.Values[0]), nil
}

func (c *Client) ReadRange(ctx context.Context, a1 string) ([][]string, error) {
	resp, err := c.values.Get(c.spreadsheetID, c.ref(a1)).Context(ctx).Do()
	if err != nil {
		return nil, transportErr("get range", err)
	}
	rows := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		rows[i] = rowStrings(r)
	}
	return rows, nil
}

func (c *Client) Close() {}

func (c *Client) ref(a1 string) string {
	return c.worksheet + "!" + a1
}

func rowStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = cellString(v)
	}
	return out
}

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func transportErr(op string, err error) error {
	return fmt.Errorf("%w: sheets %s: %v", store.ErrTransport, op, err)
}
