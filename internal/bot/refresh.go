package bot

import (
	"context"
	"log"
	"time"

	"github.com/YouBrin/BotChina/internal/params"
)

// refreshWorker periodically refreshes the parameter cache so edits made
// directly in the sheet show up without anyone touching the bot.
type refreshWorker struct {
	cache    *params.Cache
	stopChan chan struct{}
	ticker   *time.Ticker
	interval time.Duration
}

func newRefreshWorker(cache *params.Cache) *refreshWorker {
	return &refreshWorker{
		cache:    cache,
		stopChan: make(chan struct{}),
		interval: 300 * time.Second,
	}
}

func (w *refreshWorker) start() {
	if w == nil {
		return
	}
	w.ticker = time.NewTicker(w.interval)
	go w.loop()
}

func (w *refreshWorker) stop() {
	if w == nil {
		return
	}
	close(w.stopChan)
	if w.ticker != nil {
		w.ticker.Stop()
	}
}

func (w *refreshWorker) loop() {
	ctx := context.Background()
	for {
		select {
		case <-w.ticker.C:
			if w.cache.Refresh(ctx, false) == params.Changed {
				log.Println("refresh: parameters updated from the sheet")
			}
		case <-w.stopChan:
			return
		}
	}
}
