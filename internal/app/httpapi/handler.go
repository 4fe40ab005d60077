package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	app "github.com/gaiaquest/economy/internal/app"
	"github.com/gaiaquest/economy/internal/app/metrics"
	"github.com/gaiaquest/economy/internal/app/services/purchase"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a mux exposing the economy REST API with HTTP metrics
// collection attached.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/leaderboard", h.leaderboard)
	mux.HandleFunc("/shop/items", h.shopItems)
	mux.HandleFunc("/shop/purchase", h.shopPurchase)
	mux.HandleFunc("/healthz", h.health)
	mux.Handle("/metrics", metrics.Handler())
	return metrics.InstrumentHandler(mux)
}

func (h *handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	entries, err := h.app.Leaderboard.Leaderboard(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) shopItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	items, err := h.app.Shop.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handler) shopPurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		UserID string `json:"userId"`
		ItemID string `json:"itemId"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	receipt, err := h.app.Purchases.Purchase(r.Context(), payload.UserID, payload.ItemID)
	if err != nil {
		writeError(w, purchaseStatus(err), err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		OK   bool             `json:"ok"`
		User purchase.Receipt `json:"user"`
	}{OK: true, User: receipt})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// purchaseStatus maps purchase failures onto HTTP statuses.
func purchaseStatus(err error) int {
	switch {
	case errors.Is(err, purchase.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, purchase.ErrUserNotFound), errors.Is(err, purchase.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, purchase.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, purchase.ErrAlreadyOwned):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
