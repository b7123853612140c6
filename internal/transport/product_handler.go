package transport

import (
	"net/http"
	"strconv"
	"strings"

	"pharma-stock/internal/domain"
	"pharma-stock/internal/middleware"
	"pharma-stock/internal/service"
	"pharma-stock/internal/validation"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductRequest is the payload for creating or updating a product.
// Quantity may be a JSON number or a numeric string.
type ProductRequest struct {
	Name       string      `json:"name" validate:"required,max=255"`
	Quantity   interface{} `json:"quantity" validate:"required"`
	ExpiryDate string      `json:"expiry_date" validate:"required,datetime=2006-01-02"`
}

// StockOutRequest is the payload for withdrawing stock
type StockOutRequest struct {
	Quantity interface{} `json:"quantity" validate:"required"`
	Reason   string      `json:"reason" validate:"max=100"`
	Comment  string      `json:"comment" validate:"max=500"`
}

// CreateProductResponse carries the ID of the created or merged product
type CreateProductResponse struct {
	ID int64 `json:"id"`
}

// ProductResponse is a product with its expiry band
type ProductResponse struct {
	*domain.Product
	DaysLeft     int                 `json:"days_left"`
	ExpiryStatus domain.ExpiryStatus `json:"expiry_status"`
}

// ProductHandler handles HTTP requests for inventory operations
type ProductHandler struct {
	inventory service.InventoryService
	logger    *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(inventory service.InventoryService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		inventory: inventory,
		logger:    logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetProduct)
			r.Put("/", h.UpdateProduct)
			r.Delete("/", h.DeleteProduct)
			r.Post("/stock-out", h.RemoveStock)
		})
	})
}

// ListProducts handles listing products, optionally filtered by ?search=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.inventory.ListProducts(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	response := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		view, err := h.productResponse(p)
		if err != nil {
			respondWithServiceError(w, h.logger, err)
			return
		}
		response = append(response, view)
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// CreateProduct handles adding stock, merging into an existing product when
// the name and expiry date match
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Create product validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	id, err := h.inventory.CreateProduct(r.Context(), service.ProductInput{
		Name:       req.Name,
		Quantity:   req.Quantity,
		ExpiryDate: req.ExpiryDate,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, CreateProductResponse{ID: id})
}

// GetProduct handles fetching a single product
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	product, err := h.inventory.GetProduct(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	view, err := h.productResponse(product)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// UpdateProduct handles overwriting a product
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Update product validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	err := h.inventory.UpdateProduct(r.Context(), id, service.ProductInput{
		Name:       req.Name,
		Quantity:   req.Quantity,
		ExpiryDate: req.ExpiryDate,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	product, err := h.inventory.GetProduct(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	view, err := h.productResponse(product)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// DeleteProduct handles removing a product
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := h.inventory.DeleteProduct(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveStock handles withdrawing stock. The optional comment is appended to the reason.
func (h *ProductHandler) RemoveStock(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req StockOutRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Stock-out validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	quantity, err := validation.ParseQuantity(req.Quantity)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	result, err := h.inventory.RemoveStock(r.Context(), id, quantity, stockOutReason(req.Reason, req.Comment))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) productResponse(p *domain.Product) (ProductResponse, error) {
	expiry, err := h.inventory.ExpiryStatus(p)
	if err != nil {
		return ProductResponse{}, err
	}
	return ProductResponse{
		Product:      p,
		DaysLeft:     expiry.DaysLeft,
		ExpiryStatus: expiry.Status,
	}, nil
}

func stockOutReason(reason, comment string) string {
	reason = strings.TrimSpace(reason)
	comment = strings.TrimSpace(comment)
	switch {
	case comment == "":
		return reason
	case reason == "":
		return comment
	default:
		return reason + " - " + comment
	}
}

// productID parses the {id} URL parameter, answering 400 when it is not a positive integer
func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: "id", Message: "product id must be a positive integer"},
		})
		return 0, false
	}
	return id, true
}
