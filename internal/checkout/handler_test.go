package checkout

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tienda/internal/domain"
)

type stubEngine struct {
	order *domain.Order
	err   error

	gotUser    string
	gotAddress string
	gotToken   string
}

func (s *stubEngine) Checkout(_ context.Context, userID, shipAddress, paymentToken string) (*domain.Order, error) {
	s.gotUser = userID
	s.gotAddress = shipAddress
	s.gotToken = paymentToken
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func newTestHandler(engine Checkouter) *Handler {
	return NewHandler(engine, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleCheckout(t *testing.T) {
	t.Run("returns created order", func(t *testing.T) {
		engine := &stubEngine{order: &domain.Order{
			ID:            "order-1",
			UserID:        "user-1",
			ShipAddress:   "Calle Falsa 123",
			PaymentMasked: "**** **** **** 1111",
			Subtotal:      decimal.NewFromInt(200),
			Tax:           decimal.NewFromInt(42),
			Shipping:      decimal.NewFromInt(50),
			Total:         decimal.NewFromInt(292),
			CreatedAt:     time.Now().UTC(),
		}}
		handler := newTestHandler(engine)

		body := `{"ship_address":"Calle Falsa 123","payment_token":"4111111111111111"}`
		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()

		handler.HandleCheckout(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if engine.gotUser != "user-1" || engine.gotAddress != "Calle Falsa 123" {
			t.Errorf("unexpected engine call: user=%s address=%s", engine.gotUser, engine.gotAddress)
		}

		var order domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&order); err != nil {
			t.Fatalf("failed to decode order: %v", err)
		}
		if !order.Total.Equal(order.Subtotal.Add(order.Tax).Add(order.Shipping)) {
			t.Errorf("total %s does not equal subtotal+tax+shipping", order.Total)
		}
	})

	t.Run("rejects missing user identity", func(t *testing.T) {
		handler := newTestHandler(&stubEngine{})

		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		handler.HandleCheckout(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("maps empty cart to 400", func(t *testing.T) {
		handler := newTestHandler(&stubEngine{err: domain.ErrEmptyCart})

		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"ship_address":"a","payment_token":"4111111111111111"}`))
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()

		handler.HandleCheckout(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("maps insufficient stock to 400 naming the product", func(t *testing.T) {
		handler := newTestHandler(&stubEngine{err: &domain.InsufficientStockError{
			ProductID: "prod-7",
			Requested: 2,
			Available: 1,
		}})

		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"ship_address":"a","payment_token":"4111111111111111"}`))
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()

		handler.HandleCheckout(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "prod-7") {
			t.Errorf("expected error to name the product: %s", rec.Body.String())
		}
	})

	t.Run("maps validation error to 400", func(t *testing.T) {
		handler := newTestHandler(&stubEngine{err: &domain.ValidationError{
			Field:  "payment_token",
			Reason: "must contain 13 to 19 digits",
		}})

		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"ship_address":"a","payment_token":"123"}`))
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()

		handler.HandleCheckout(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("maps infrastructure failure to 500", func(t *testing.T) {
		handler := newTestHandler(&stubEngine{err: io.ErrUnexpectedEOF})

		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"ship_address":"a","payment_token":"4111111111111111"}`))
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()

		handler.HandleCheckout(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
	})
}
