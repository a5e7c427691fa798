package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"thaipool/internal/models"
)

type Handler struct {
	Store *Store
	Log   *zap.Logger
}

func NewHandler(store *Store, log *zap.Logger) *Handler {
	return &Handler{Store: store, Log: log}
}

type seedOrderRequest struct {
	UserID string            `json:"userId"`
	PoolID string            `json:"poolId"`
	Items  []seedItemRequest `json:"items"`
}

type seedItemRequest struct {
	AnimalOrder int             `json:"animalOrder"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.Store.Get(orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "get order failed")
		return
	}
	writeJSON(w, http.StatusOK, models.EncodeOrder(order))
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	err := h.Store.Cancel(orderID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": string(models.OrderCancelled)})
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, ErrNotPending):
		writeError(w, http.StatusConflict, "order is not pending")
	default:
		writeError(w, http.StatusInternalServerError, "cancel failed")
	}
}

// StreamOrderStatus pushes the order's status as newline-delimited
// "data: {...}" frames: the current status immediately, then one frame per
// change, until the client goes away.
func (h *Handler) StreamOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	current, updates, unsubscribe, err := h.Store.Subscribe(orderID)
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	writeFrame(w, flusher, current)
	for {
		select {
		case <-r.Context().Done():
			return
		case status := <-updates:
			writeFrame(w, flusher, status)
			if status.Terminal() {
				return
			}
		}
	}
}

func writeFrame(w http.ResponseWriter, flusher http.Flusher, status models.OrderStatus) {
	fmt.Fprintf(w, "data: {\"status\":%q}\n\n", string(status))
	flusher.Flush()
}

func (h *Handler) SeedOrder(w http.ResponseWriter, r *http.Request) {
	var req seedOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items are required")
		return
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "quantity must be positive")
			return
		}
		items = append(items, models.OrderItem{
			AnimalOrder: it.AnimalOrder,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}

	order := h.Store.Create(req.UserID, req.PoolID, items)
	writeJSON(w, http.StatusOK, models.EncodeOrder(order))
}

func (h *Handler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	err := h.Store.SetStatus(orderID, models.OrderStatus(req.Status))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, ErrBadStatus):
		writeError(w, http.StatusBadRequest, "unknown status")
	default:
		writeError(w, http.StatusInternalServerError, "set status failed")
	}
}
