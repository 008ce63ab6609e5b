package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"tienda/internal/domain"
)

type stubProducts struct {
	products []domain.Product
}

func (s *stubProducts) List(_ context.Context) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func newTestHandler(store ProductStore) *Handler {
	return NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleList(t *testing.T) {
	handler := newTestHandler(&stubProducts{products: []domain.Product{
		{ID: "prod-1", Name: "Teclado", Category: "general", Price: decimal.NewFromInt(100), Stock: 10},
	}})

	req := httptest.NewRequest(http.MethodGet, "/catalog/products", nil)
	rec := httptest.NewRecorder()

	handler.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var products []domain.Product
	if err := json.NewDecoder(rec.Body).Decode(&products); err != nil {
		t.Fatalf("failed to decode products: %v", err)
	}
	if len(products) != 1 || products[0].ID != "prod-1" {
		t.Errorf("unexpected products: %+v", products)
	}
}

func TestHandleGet(t *testing.T) {
	handler := newTestHandler(&stubProducts{products: []domain.Product{
		{ID: "prod-1", Name: "Teclado", Category: "general", Price: decimal.NewFromInt(100), Stock: 10},
	}})

	t.Run("returns product", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/catalog/products/prod-1", nil)
		req.SetPathValue("id", "prod-1")
		rec := httptest.NewRecorder()

		handler.HandleGet(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("unknown product is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/catalog/products/ghost", nil)
		req.SetPathValue("id", "ghost")
		rec := httptest.NewRecorder()

		handler.HandleGet(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}
