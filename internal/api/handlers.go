package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/YouBrin/BotChina/internal/params"
)

type paramsPayload struct {
	CNYRate       decimal.Decimal `json:"cny_rate"`
	USDRate       decimal.Decimal `json:"usd_rate"`
	JPYToUSDRatio decimal.Decimal `json:"jpy_to_usd_ratio"`
	DeliveryRate  decimal.Decimal `json:"delivery_rate"`
	LastRefreshed string          `json:"last_refreshed,omitempty"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (a *API) handleGetParams(w http.ResponseWriter, r *http.Request) {
	p := a.cache.Get(r.Context())

	resp := paramsPayload{
		CNYRate:       p.CNYRate,
		USDRate:       p.USDRate,
		JPYToUSDRatio: p.JPYToUSDRatio,
		DeliveryRate:  p.DeliveryRate,
	}
	if at := a.cache.FetchedAt(); !at.IsZero() {
		resp.LastRefreshed = at.Format("2006-01-02T15:04:05Z07:00")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (a *API) handlePutParams(w http.ResponseWriter, r *http.Request) {
	var req paramsPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p := params.Params{
		CNYRate:       req.CNYRate,
		USDRate:       req.USDRate,
		JPYToUSDRatio: req.JPYToUSDRatio,
		DeliveryRate:  req.DeliveryRate,
	}

	if err := a.cache.Save(r.Context(), p); err != nil {
		if errors.Is(err, params.ErrZeroUSDRate) {
			http.Error(w, "usd_rate must not be zero", http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to save parameters", http.StatusBadGateway)
		return
	}

	a.handleGetParams(w, r)
}

func (a *API) handleRefreshParams(w http.ResponseWriter, r *http.Request) {
	result := a.cache.Refresh(r.Context(), true)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"result": result.String()})
}

func (a *API) handleListItems(w http.ResponseWriter, r *http.Request) {
	entries, err := a.browser.List(r.Context())
	if err != nil {
		http.Error(w, "failed to list items", http.StatusBadGateway)
		return
	}

	type item struct {
		Index int    `json:"index"`
		Row   int    `json:"row"`
		Name  string `json:"name"`
		Track string `json:"track"`
	}
	items := make([]item, len(entries))
	for i, e := range entries {
		items[i] = item{Index: i + 1, Row: e.Row, Name: e.Name, Track: e.Track}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}
