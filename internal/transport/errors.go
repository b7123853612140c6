package transport

import (
	"errors"
	"net/http"

	"pharma-stock/internal/middleware"
	"pharma-stock/internal/service"
	"pharma-stock/internal/validation"

	"go.uber.org/zap"
)

// respondWithServiceError maps service errors onto HTTP statuses.
// Storage failures are logged and hidden behind a generic message.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var fieldErr *validation.FieldError

	switch {
	case errors.As(err, &fieldErr):
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: fieldErr.Field, Message: fieldErr.Message},
		})
	case errors.Is(err, service.ErrValidation):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidQuantity):
		middleware.RespondWithError(w, http.StatusBadRequest, service.ErrInvalidQuantity.Error())
	case errors.Is(err, service.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, service.ErrProductNotFound.Error())
	case errors.Is(err, service.ErrDuplicateProduct):
		middleware.RespondWithError(w, http.StatusConflict, service.ErrDuplicateProduct.Error())
	case errors.Is(err, service.ErrInsufficientStock):
		middleware.RespondWithError(w, http.StatusConflict, service.ErrInsufficientStock.Error())
	default:
		logger.Error("Request failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// respondWithDecodeError answers a body that could not be decoded or failed tag validation
func respondWithDecodeError(w http.ResponseWriter, err error) {
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}
