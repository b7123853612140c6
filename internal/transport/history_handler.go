package transport

import (
	"net/http"
	"strconv"
	"strings"

	"pharma-stock/internal/domain"
	"pharma-stock/internal/middleware"
	"pharma-stock/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HistoryHandler serves the audit log
type HistoryHandler struct {
	history service.HistoryService
	logger  *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(history service.HistoryService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		logger:  logger,
	}
}

// RegisterRoutes registers all history routes
func (h *HistoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/history", func(r chi.Router) {
		r.Get("/", h.ListHistory)
		r.Get("/stats", h.Stats)
	})
}

// ListHistory handles GET /api/history.
// ?limit=N bounds the result, ?operation= may be repeated or comma separated.
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
				{Field: "limit", Message: "limit must be an integer"},
			})
			return
		}
		limit = parsed
	}

	var operations []domain.Operation
	for _, value := range query["operation"] {
		for _, op := range strings.Split(value, ",") {
			if op = strings.TrimSpace(op); op != "" {
				operations = append(operations, domain.Operation(strings.ToUpper(op)))
			}
		}
	}

	var (
		entries []*domain.HistoryEntry
		err     error
	)
	switch len(operations) {
	case 0:
		entries, err = h.history.ListHistory(r.Context(), limit)
	case 1:
		entries, err = h.history.ListHistoryByOperation(r.Context(), operations[0], limit)
	default:
		entries, err = h.history.ListHistoryByOperations(r.Context(), operations, limit)
	}
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, entries)
}

// Stats handles GET /api/history/stats
func (h *HistoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.history.Stats(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}
