package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"pharma-stock/internal/database/dbtest"
	"pharma-stock/internal/domain"
	"pharma-stock/internal/middleware"
	"pharma-stock/internal/repository"
	"pharma-stock/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var today = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store := repository.NewStore(dbtest.NewSQLite(t))
	inventory := service.NewInventoryService(store, zap.NewNop(), service.WithClock(func() time.Time { return today }))
	history := service.NewHistoryService(store)

	router := chi.NewRouter()
	NewProductHandler(inventory, zap.NewNop()).RegisterRoutes(router)
	NewHistoryHandler(history, zap.NewNop()).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	return decode[middleware.ErrorResponse](t, w).Error.Message
}

func TestProductHandler_CreateListAndGet(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/products", map[string]interface{}{
		"name": "Paracetamol 500mg", "quantity": 12, "expiry_date": "2025-07-15",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[CreateProductResponse](t, w)
	assert.Equal(t, int64(1), created.ID)

	// Quantity as text merges into the same product
	w = doJSON(t, router, http.MethodPost, "/api/products", map[string]interface{}{
		"name": "Paracetamol 500mg", "quantity": "3", "expiry_date": "2025-07-15",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, int64(1), decode[CreateProductResponse](t, w).ID)

	w = doJSON(t, router, http.MethodGet, "/api/products?search=paracetamol", nil)
	require.Equal(t, http.StatusOK, w.Code)
	products := decode[[]ProductResponse](t, w)
	require.Len(t, products, 1)
	assert.Equal(t, "Paracetamol 500mg", products[0].Name)
	assert.Equal(t, 15, products[0].Quantity)
	assert.Equal(t, domain.Date("2025-07-15"), products[0].ExpiryDate)
	assert.Equal(t, 44, products[0].DaysLeft)
	assert.Equal(t, domain.ExpiryStatusWarning, products[0].ExpiryStatus)

	w = doJSON(t, router, http.MethodGet, "/api/products/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[ProductResponse](t, w).ID)

	w = doJSON(t, router, http.MethodGet, "/api/products?search=ibuprofene", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestProductHandler_CreateRejectsInvalidPayloads(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name  string
		body  interface{}
		field string
	}{
		{name: "missing name", body: map[string]interface{}{"quantity": 1, "expiry_date": "2030-01-01"}, field: "name"},
		{name: "missing quantity", body: map[string]interface{}{"name": "A", "expiry_date": "2030-01-01"}, field: "quantity"},
		{name: "bad date layout", body: map[string]interface{}{"name": "A", "quantity": 1, "expiry_date": "01/01/2030"}, field: "expiry_date"},
		{name: "zero quantity", body: map[string]interface{}{"name": "A", "quantity": 0, "expiry_date": "2030-01-01"}, field: "quantity"},
		{name: "fractional quantity", body: map[string]interface{}{"name": "A", "quantity": 1.5, "expiry_date": "2030-01-01"}, field: "quantity"},
		{name: "blank name", body: map[string]interface{}{"name": "   ", "quantity": 1, "expiry_date": "2030-01-01"}, field: "name"},
		{name: "expiry today", body: map[string]interface{}{"name": "A", "quantity": 1, "expiry_date": "2025-06-01"}, field: "expiry_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/products", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var response struct {
				Error struct {
					Details struct {
						ValidationErrors []middleware.ValidationError `json:"validation_errors"`
					} `json:"details"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			require.NotEmpty(t, response.Error.Details.ValidationErrors)
			assert.Equal(t, tt.field, response.Error.Details.ValidationErrors[0].Field)
		})
	}

	w := doJSON(t, router, http.MethodPost, "/api/products", "{broken")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", errorMessage(t, w))

	w = doJSON(t, router, http.MethodGet, "/api/products", nil)
	assert.Empty(t, decode[[]ProductResponse](t, w))
}

func TestProductHandler_UpdateAndDelete(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/products", map[string]interface{}{"name": "Smecta", "quantity": 2, "expiry_date": "2030-01-01"})
	doJSON(t, router, http.MethodPost, "/api/products", map[string]interface{}{"name": "Smecta", "quantity": 2, "expiry_date": "2031-01-01"})

	w := doJSON(t, router, http.MethodPut, "/api/products/1", map[string]interface{}{"name": "Smecta Fraise", "quantity": 9, "expiry_date": "2030-01-01"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[ProductResponse](t, w)
	assert.Equal(t, "Smecta Fraise", updated.Name)
	assert.Equal(t, 9, updated.Quantity)

	w = doJSON(t, router, http.MethodPut, "/api/products/2", map[string]interface{}{"name": "Smecta Fraise", "quantity": 2, "expiry_date": "2030-01-01"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/products/99", map[string]interface{}{"name": "Ghost", "quantity": 2, "expiry_date": "2030-01-01"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/products/2", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/products/2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/products/0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_StockOut(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/products", map[string]interface{}{"name": "Paracetamol 500mg", "quantity": 12, "expiry_date": "2025-06-02"})

	w := doJSON(t, router, http.MethodPost, "/api/products/1/stock-out", map[string]interface{}{"quantity": 13, "reason": "Vente"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, service.ErrInsufficientStock.Error(), errorMessage(t, w))

	for _, quantity := range []interface{}{0, -4, "-1"} {
		w = doJSON(t, router, http.MethodPost, "/api/products/1/stock-out", map[string]interface{}{"quantity": quantity})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, service.ErrInvalidQuantity.Error(), errorMessage(t, w))
	}

	w = doJSON(t, router, http.MethodPost, "/api/products/1/stock-out", map[string]interface{}{"quantity": 1.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation failed", errorMessage(t, w))

	w = doJSON(t, router, http.MethodPost, "/api/products/1/stock-out", map[string]interface{}{"quantity": "2", "reason": "Don", "comment": "Association locale"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, service.StockOutResult{ProductID: 1, Remaining: 10, Depleted: false}, decode[service.StockOutResult](t, w))

	w = doJSON(t, router, http.MethodPost, "/api/products/1/stock-out", map[string]interface{}{"quantity": 10, "reason": "Vente"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[service.StockOutResult](t, w).Depleted)

	w = doJSON(t, router, http.MethodGet, "/api/products/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/history?operation=sortie", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]domain.HistoryEntry](t, w)
	require.Len(t, entries, 2)
	assert.Equal(t, 0, *entries[0].NewQuantity)
	assert.Equal(t, "Sortie de stock: Paracetamol 500mg (-2) - Motif: Don - Association locale - Exp: 2025-06-02", entries[1].Details)

	w = doJSON(t, router, http.MethodGet, "/api/history?operation=SUPPRESSION", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]domain.HistoryEntry](t, w))
}

func TestStockOutReason(t *testing.T) {
	assert.Equal(t, "", stockOutReason("", ""))
	assert.Equal(t, "Vente", stockOutReason(" Vente ", ""))
	assert.Equal(t, "Cassé", stockOutReason("", "Cassé"))
	assert.Equal(t, "Autre - Cassé", stockOutReason("Autre", " Cassé"))
}

// failingInventory answers every call with a storage error
type failingInventory struct {
	service.InventoryService
}

func (failingInventory) ListProducts(ctx context.Context, search string) ([]*domain.Product, error) {
	return nil, errStorage()
}

func (failingInventory) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return nil, errStorage()
}

func errStorage() error {
	return fmt.Errorf("%w: failed to list products: %w", service.ErrStorage, errors.New("database is locked"))
}

func TestProductHandler_StorageErrorsAreHidden(t *testing.T) {
	router := chi.NewRouter()
	NewProductHandler(failingInventory{}, zap.NewNop()).RegisterRoutes(router)

	for _, path := range []string{"/api/products", "/api/products/1"} {
		w := doJSON(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", errorMessage(t, w))
		assert.NotContains(t, w.Body.String(), "locked")
	}
}

func TestProperty_CreatedProductsAreRetrievable(t *testing.T) {
	router := newTestRouter(t)

	properties := gopter.NewProperties(nil)

	properties.Property("a created product can be fetched with the same attributes", prop.ForAll(
		func(name string, quantity int, offsetDays int) bool {
			expiry := today.AddDate(0, 0, offsetDays).Format(domain.DateLayout)

			w := doJSON(t, router, http.MethodPost, "/api/products", map[string]interface{}{
				"name": name, "quantity": quantity, "expiry_date": expiry,
			})
			if w.Code != http.StatusCreated {
				t.Logf("FAIL: create returned %d: %s", w.Code, w.Body.String())
				return false
			}
			id := decode[CreateProductResponse](t, w).ID

			w = doJSON(t, router, http.MethodGet, "/api/products/"+strconv.FormatInt(id, 10), nil)
			if w.Code != http.StatusOK {
				return false
			}
			got := decode[ProductResponse](t, w)
			return got.Name == name &&
				got.Quantity >= quantity &&
				string(got.ExpiryDate) == expiry &&
				got.DaysLeft == offsetDays &&
				got.ExpiryStatus == domain.ExpiryStatusFor(offsetDays)
		},
		gen.RegexMatch(`[A-Z][a-z]{2,12} [0-9]{2,3}mg`),
		gen.IntRange(1, 500),
		gen.IntRange(1, 720),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

