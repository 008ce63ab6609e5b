package cart

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"tienda/internal/domain"
	"tienda/internal/pricing"
)

type stubStore struct {
	addErr    error
	removeErr error
	lines     []LineDetail
	linesErr  error

	addedUser    string
	addedProduct string
	addedQty     int
}

func (s *stubStore) AddLine(_ context.Context, userID, productID string, quantity int) error {
	s.addedUser = userID
	s.addedProduct = productID
	s.addedQty = quantity
	return s.addErr
}

func (s *stubStore) RemoveLine(_ context.Context, _, _ string) error {
	return s.removeErr
}

func (s *stubStore) Lines(_ context.Context, _ string) ([]LineDetail, error) {
	return s.lines, s.linesErr
}

func newTestHandler(store CartStore) *Handler {
	return NewHandler(store, pricing.DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleAddLine(t *testing.T) {
	t.Run("adds line and returns priced view", func(t *testing.T) {
		store := &stubStore{
			lines: []LineDetail{
				{
					ProductID:   "prod-1",
					ProductName: "Teclado",
					Category:    "general",
					UnitPrice:   decimal.NewFromInt(100),
					Quantity:    2,
				},
			},
		}
		handler := newTestHandler(store)

		req := httptest.NewRequest(http.MethodPost, "/cart/lines", strings.NewReader(`{"product_id":"prod-1","quantity":2}`))
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()

		handler.HandleAddLine(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if store.addedUser != "user-1" || store.addedProduct != "prod-1" || store.addedQty != 2 {
			t.Errorf("unexpected store call: %+v", store)
		}

		var view domain.CartView
		if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
			t.Fatalf("failed to decode view: %v", err)
		}
		if !view.Subtotal.Equal(decimal.NewFromInt(200)) {
			t.Errorf("expected subtotal 200, got %s", view.Subtotal)
		}
		if !view.Tax.Equal(decimal.NewFromInt(42)) {
			t.Errorf("expected tax 42, got %s", view.Tax)
		}
		if !view.Total.Equal(decimal.NewFromInt(292)) {
			t.Errorf("expected total 292, got %s", view.Total)
		}
	})

	t.Run("rejects missing user identity", func(t *testing.T) {
		handler := newTestHandler(&stubStore{})

		req := httptest.NewRequest(http.MethodPost, "/cart/lines", strings.NewReader(`{"product_id":"prod-1","quantity":1}`))
		rec := httptest.NewRecorder()

		handler.HandleAddLine(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("maps unknown product to 404", func(t *testing.T) {
		handler := newTestHandler(&stubStore{addErr: domain.ErrNotFound})

		req := httptest.NewRequest(http.MethodPost, "/cart/lines", strings.NewReader(`{"product_id":"ghost","quantity":1}`))
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()

		handler.HandleAddLine(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("maps insufficient stock to 400 naming the product", func(t *testing.T) {
		handler := newTestHandler(&stubStore{addErr: &domain.InsufficientStockError{
			ProductID: "prod-1",
			Requested: 5,
			Available: 3,
		}})

		req := httptest.NewRequest(http.MethodPost, "/cart/lines", strings.NewReader(`{"product_id":"prod-1","quantity":5}`))
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()

		handler.HandleAddLine(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "prod-1") {
			t.Errorf("expected error to name the product: %s", rec.Body.String())
		}
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		handler := newTestHandler(&stubStore{})

		req := httptest.NewRequest(http.MethodPost, "/cart/lines", strings.NewReader(`{`))
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()

		handler.HandleAddLine(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandleRemoveLine(t *testing.T) {
	t.Run("maps finalized cart to 400", func(t *testing.T) {
		handler := newTestHandler(&stubStore{removeErr: domain.ErrInvalidState})

		req := httptest.NewRequest(http.MethodDelete, "/cart/lines/prod-1", nil)
		req.SetPathValue("productId", "prod-1")
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()

		handler.HandleRemoveLine(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("maps missing line to 404", func(t *testing.T) {
		handler := newTestHandler(&stubStore{removeErr: domain.ErrNotFound})

		req := httptest.NewRequest(http.MethodDelete, "/cart/lines/prod-9", nil)
		req.SetPathValue("productId", "prod-9")
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()

		handler.HandleRemoveLine(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandleView(t *testing.T) {
	t.Run("empty cart still quotes flat shipping", func(t *testing.T) {
		handler := newTestHandler(&stubStore{})

		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()

		handler.HandleView(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var view domain.CartView
		if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
			t.Fatalf("failed to decode view: %v", err)
		}
		if len(view.Lines) != 0 {
			t.Errorf("expected no lines, got %d", len(view.Lines))
		}
		if !view.Shipping.Equal(decimal.NewFromInt(50)) {
			t.Errorf("expected shipping 50, got %s", view.Shipping)
		}
	})

	t.Run("view is read only and repeatable", func(t *testing.T) {
		store := &stubStore{
			lines: []LineDetail{
				{ProductID: "prod-1", ProductName: "Teclado", Category: "general", UnitPrice: decimal.NewFromInt(100), Quantity: 1},
			},
		}
		handler := newTestHandler(store)

		var bodies []string
		for range 2 {
			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			req.Header.Set("X-User-ID", "user-1")
			rec := httptest.NewRecorder()
			handler.HandleView(rec, req)
			bodies = append(bodies, rec.Body.String())
		}

		if bodies[0] != bodies[1] {
			t.Errorf("expected identical views, got %q and %q", bodies[0], bodies[1])
		}
	})
}
