// Package postgres emulates the spreadsheet store on a Postgres database:
// a cells table for the parameter block and a rows table keyed by sheet row
// number. It lets deployments and integration setups run without a Google
// spreadsheet behind them.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YouBrin/BotChina/internal/store"
)

// firstDataRow mirrors the spreadsheet layout: rows above it hold headers
// and parameters, appended records start here.
const firstDataRow = 7

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// RunMigrations creates the sheet emulation tables.
func (s *Store) RunMigrations(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sheet_cells (
			ref TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS sheet_rows (
			idx BIGINT PRIMARY KEY,
			cols TEXT[] NOT NULL
		);
	`)
	return err
}

func (s *Store) ReadCells(ctx context.Context, refs []string) ([]string, error) {
	out := make([]string, len(refs))
	for i, ref := range refs {
		var value string
		err := s.pool.QueryRow(ctx,
			"SELECT value FROM sheet_cells WHERE ref = $1", ref,
		).Scan(&value)
		if err == pgx.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, transportErr("read cells", err)
		}
		out[i] = value
	}
	return out, nil
}

func (s *Store) WriteCells(ctx context.Context, cells []store.Cell) error {
	batch := &pgx.Batch{}
	for _, c := range cells {
		batch.Queue(
			"INSERT INTO sheet_cells (ref, value) VALUES ($1, $2) ON CONFLICT (ref) DO UPDATE SET value = EXCLUDED.value",
			c.Ref, c.Value,
		)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return transportErr("write cells", err)
	}
	return nil
}

func (s *Store) AppendRow(ctx context.Context, values []string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sheet_rows (idx, cols)
		SELECT GREATEST(COALESCE(MAX(idx), 0) + 1, $1), $2 FROM sheet_rows
	`, firstDataRow, values)
	if err != nil {
		return transportErr("append row", err)
	}
	return nil
}

func (s *Store) ReadRow(ctx context.Context, rowIndex int) ([]string, error) {
	var cols []string
	err := s.pool.QueryRow(ctx,
		"SELECT cols FROM sheet_rows WHERE idx = $1", rowIndex,
	).Scan(&cols)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, transportErr("read row", err)
	}
	return cols, nil
}

// ReadRange serves ranges of the "A7:B" shape: a start cell and an open
// column bound. Like a spreadsheet, the result is positional from the start
// row through the last stored row, with empty slots for missing rows.
func (s *Store) ReadRange(ctx context.Context, a1 string) ([][]string, error) {
	startRow, numCols, err := parseRange(a1)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		"SELECT idx, cols FROM sheet_rows WHERE idx >= $1 ORDER BY idx", startRow,
	)
	if err != nil {
		return nil, transportErr("read range", err)
	}
	defer rows.Close()

	byIdx := map[int][]string{}
	maxIdx := startRow - 1
	for rows.Next() {
		var idx int
		var cols []string
		if err := rows.Scan(&idx, &cols); err != nil {
			return nil, transportErr("read range", err)
		}
		if len(cols) > numCols {
			cols = cols[:numCols]
		}
		byIdx[idx] = cols
		if idx > maxIdx {
			maxIdx = idx
		}
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr("read range", err)
	}

	out := make([][]string, 0, maxIdx-startRow+1)
	for i := startRow; i <= maxIdx; i++ {
		out = append(out, byIdx[i])
	}
	return out, nil
}

// parseRange understands single-letter column ranges like "A7:B" or
// "A7:B100"; that is the only shape this system reads.
func parseRange(a1 string) (startRow, numCols int, err error) {
	parts := strings.SplitN(a1, ":", 2)
	if len(parts) != 2 || len(parts[0]) < 2 || len(parts[1]) < 1 {
		return 0, 0, fmt.Errorf("postgres: unsupported range %q", a1)
	}
	startCol := parts[0][0]
	endCol := parts[1][0]
	if startCol < 'A' || startCol > 'Z' || endCol < startCol || endCol > 'Z' {
		return 0, 0, fmt.Errorf("postgres: unsupported range %q", a1)
	}
	row, err := strconv.Atoi(parts[0][1:])
	if err != nil {
		return 0, 0, fmt.Errorf("postgres: unsupported range %q", a1)
	}
	return row, int(endCol-startCol) + 1, nil
}

func transportErr(op string, err error) error {
	return fmt.Errorf("%w: postgres %s: %v", store.ErrTransport, op, err)
}
