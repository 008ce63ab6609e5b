package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleStore(t *testing.T) {
	t.Run("forwards request with identity header", func(t *testing.T) {
		storeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/cart" {
				t.Errorf("expected /cart, got %s", r.URL.Path)
			}
			if r.Header.Get("X-User-ID") != "user-1" {
				t.Errorf("expected X-User-ID to be forwarded, got %q", r.Header.Get("X-User-ID"))
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"lines":[]}`))
		}))
		defer storeServer.Close()

		handler := NewHandler(NewServiceProxy(storeServer.URL, storeServer.Client()), discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()

		handler.HandleStore(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
		if rec.Body.String() != `{"lines":[]}` {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("forwards POST body", func(t *testing.T) {
		storeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"product_id":"prod-1","quantity":2}` {
				t.Errorf("unexpected body: %s", body)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer storeServer.Close()

		handler := NewHandler(NewServiceProxy(storeServer.URL, storeServer.Client()), discardLogger())

		req := httptest.NewRequest(http.MethodPost, "/cart/lines", strings.NewReader(`{"product_id":"prod-1","quantity":2}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()

		handler.HandleStore(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("preserves downstream error status", func(t *testing.T) {
		storeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"product not found"}`))
		}))
		defer storeServer.Close()

		handler := NewHandler(NewServiceProxy(storeServer.URL, storeServer.Client()), discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/catalog/products/ghost", nil)
		rec := httptest.NewRecorder()

		handler.HandleStore(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("returns 502 when store service unavailable", func(t *testing.T) {
		handler := NewHandler(NewServiceProxy("http://localhost:99999", &http.Client{}), discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		rec := httptest.NewRecorder()

		handler.HandleStore(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rec.Code)
		}

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["error"] != "service unavailable" {
			t.Errorf("expected 'service unavailable', got %s", resp["error"])
		}
	})
}
