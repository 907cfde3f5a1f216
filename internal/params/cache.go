package params

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/YouBrin/BotChina/internal/money"
	"github.com/YouBrin/BotChina/internal/store"
)

const (
	// cacheTimeout is how long a fetched value satisfies non-forced refreshes.
	cacheTimeout = 300 * time.Second

	saveAttempts   = 3
	saveRetryDelay = 5 * time.Second
)

// paramCells are the sheet cells holding the four rates, in Params field order.
var paramCells = []string{"B2", "B3", "B4", "B5"}

// RefreshResult reports what a refresh did.
type RefreshResult int

const (
	Unchanged RefreshResult = iota
	Changed
	Failed
)

func (r RefreshResult) String() string {
	switch r {
	case Changed:
		return "changed"
	case Failed:
		return "failed"
	default:
		return "unchanged"
	}
}

// Cache holds the last-known parameters and mediates all access to the
// sheet cells behind them. Refresh failures degrade to the stale cached
// value; saves retry a bounded number of times.
type Cache struct {
	// Now and Sleep exist so tests can run without real waiting. Set them
	// before the cache is shared between goroutines.
	Now   func() time.Time
	Sleep func(time.Duration)

	store store.Driver

	mu        sync.Mutex
	value     Params
	fetchedAt time.Time // zero until the first successful changed refresh
}

func NewCache(d store.Driver) *Cache {
	return &Cache{
		Now:   time.Now,
		Sleep: time.Sleep,
		store: d,
	}
}

// Refresh re-reads the parameter cells. Non-forced refreshes inside the
// cache timeout are a no-op. A transport failure keeps the previous value.
func (c *Cache) Refresh(ctx context.Context, force bool) RefreshResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx, force)
}

func (c *Cache) refreshLocked(ctx context.Context, force bool) RefreshResult {
	if !force && !c.fetchedAt.IsZero() && c.Now().Sub(c.fetchedAt) < cacheTimeout {
		return Unchanged
	}

	values, err := c.store.ReadCells(ctx, paramCells)
	if err != nil {
		log.Printf("params: refresh failed, keeping cached values: %v", err)
		return Failed
	}

	next := Params{
		CNYRate:       money.ParseLoose(values[0]),
		USDRate:       money.ParseLoose(values[1]),
		JPYToUSDRatio: money.ParseLoose(values[2]),
		DeliveryRate:  money.ParseLoose(values[3]),
		LastModified:  c.Now(),
	}
	if next.Equal(c.value) {
		return Unchanged
	}

	log.Println("params: cache updated from the sheet")
	c.value = next
	c.fetchedAt = next.LastModified
	return Changed
}

// Get forces a refresh and returns a copy of the current parameters, so a
// caller about to write never works from a value older than one round-trip.
// On transport failure the stale cached value is returned.
func (c *Cache) Get(ctx context.Context) Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked(ctx, true)
	return c.value
}

// FetchedAt reports when the cached value last changed. Zero means the
// parameters have never been read successfully.
func (c *Cache) FetchedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchedAt
}

// Save persists p to the sheet. Saving a value identical to the current
// remote state is a no-op. Writes are retried with a fixed delay; after the
// attempts are exhausted the sheet and the cache are left as they were.
func (c *Cache) Save(ctx context.Context, p Params) error {
	if p.USDRate.IsZero() {
		return ErrZeroUSDRate
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.refreshLocked(ctx, true)
	if p.Equal(c.value) {
		return nil
	}

	cells := []store.Cell{
		{Ref: paramCells[0], Value: p.CNYRate.String()},
		{Ref: paramCells[1], Value: p.USDRate.String()},
		{Ref: paramCells[2], Value: p.JPYToUSDRatio.String()},
		{Ref: paramCells[3], Value: p.DeliveryRate.String()},
	}

	var lastErr error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		err := c.store.WriteCells(ctx, cells)
		if err == nil {
			c.refreshLocked(ctx, true)
			return nil
		}
		lastErr = err
		log.Printf("params: save attempt %d/%d failed: %v", attempt, saveAttempts, err)
		if attempt < saveAttempts {
			c.Sleep(saveRetryDelay)
		}
	}
	return fmt.Errorf("params: save failed after %d attempts: %w", saveAttempts, lastErr)
}
