package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"tienda/internal/domain"
	"tienda/internal/pricing"
)

// CartStore is what the handler needs from the repository.
type CartStore interface {
	AddLine(ctx context.Context, userID, productID string, quantity int) error
	RemoveLine(ctx context.Context, userID, productID string) error
	Lines(ctx context.Context, userID string) ([]LineDetail, error)
}

type Handler struct {
	store   CartStore
	pricing pricing.Config
	logger  *slog.Logger
}

func NewHandler(store CartStore, cfg pricing.Config, logger *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		pricing: cfg,
		logger:  logger,
	}
}

type addLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) HandleAddLine(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req addLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product_id")
		return
	}

	if err := h.store.AddLine(r.Context(), userID, req.ProductID, req.Quantity); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("cart line added", "user_id", userID, "product_id", req.ProductID, "quantity", req.Quantity)
	h.respondWithView(w, r, userID)
}

func (h *Handler) HandleRemoveLine(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	if err := h.store.RemoveLine(r.Context(), userID, productID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("cart line removed", "user_id", userID, "product_id", productID)
	h.respondWithView(w, r, userID)
}

func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	h.respondWithView(w, r, userID)
}

func (h *Handler) respondWithView(w http.ResponseWriter, r *http.Request, userID string) {
	lines, err := h.store.Lines(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, buildView(h.pricing, lines))
}

// buildView joins cart lines with the price quote for the cart as it stands.
func buildView(cfg pricing.Config, lines []LineDetail) domain.CartView {
	viewLines := make([]domain.CartViewLine, 0, len(lines))
	items := make([]pricing.Item, 0, len(lines))

	for _, line := range lines {
		items = append(items, pricing.Item{
			UnitPrice: line.UnitPrice,
			Category:  line.Category,
			Quantity:  line.Quantity,
		})
		viewLines = append(viewLines, domain.CartViewLine{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			LineTotal:   line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}

	quote := pricing.Calculate(cfg, items)

	return domain.CartView{
		Lines:    viewLines,
		Subtotal: quote.Subtotal,
		Tax:      quote.Tax,
		Shipping: quote.Shipping,
		Total:    quote.Total,
	}
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var stockErr *domain.InsufficientStockError
	var validationErr *domain.ValidationError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &stockErr), errors.As(err, &validationErr):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("cart operation failed", "error", err)
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
