package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tienda/internal/domain"
	"tienda/internal/messaging"
)

// Checkouter is what the handler needs from the engine.
type Checkouter interface {
	Checkout(ctx context.Context, userID, shipAddress, paymentToken string) (*domain.Order, error)
}

type Handler struct {
	engine   Checkouter
	producer *messaging.Producer
	logger   *slog.Logger
}

func NewHandler(engine Checkouter, producer *messaging.Producer, logger *slog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		producer: producer,
		logger:   logger,
	}
}

type checkoutRequest struct {
	ShipAddress  string `json:"ship_address"`
	PaymentToken string `json:"payment_token"`
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.engine.Checkout(r.Context(), userID, req.ShipAddress, req.PaymentToken)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if h.producer != nil {
		event := domain.OrderPlacedEvent{
			OrderID:   order.ID,
			UserID:    order.UserID,
			Total:     order.Total,
			LineCount: len(order.Lines),
			Timestamp: order.CreatedAt,
		}
		if err := h.producer.Publish(r.Context(), order.ID, event); err != nil {
			// The order is already committed; a lost event must not fail
			// the checkout.
			h.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order placed", "order_id", order.ID, "user_id", order.UserID, "total", order.Total)
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var stockErr *domain.InsufficientStockError
	var validationErr *domain.ValidationError

	switch {
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidState),
		errors.As(err, &stockErr),
		errors.As(err, &validationErr):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("checkout failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
