package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Status codes the inventory API answers with
var apiErrorCodes = []int{
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusServiceUnavailable,
}

func TestProperty_ErrorsHaveConsistentStructure(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("all error responses share the same envelope", prop.ForAll(
		func(codeIndex int, message string) bool {
			statusCode := apiErrorCodes[codeIndex]

			w := httptest.NewRecorder()
			RespondWithError(w, statusCode, message)

			if w.Code != statusCode {
				return false
			}
			if w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}

			if response.Error.Code != http.StatusText(statusCode) {
				return false
			}
			if response.Error.Message != message {
				return false
			}
			if response.Error.Details != nil {
				return false
			}

			_, err := time.Parse(time.RFC3339, response.Error.Timestamp)
			return err == nil
		},
		gen.IntRange(0, len(apiErrorCodes)-1),
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
	))

	properties.Property("details are carried in the envelope", prop.ForAll(
		func(key, value string) bool {
			w := httptest.NewRecorder()
			RespondWithErrorDetails(w, http.StatusConflict, "insufficient stock", map[string]interface{}{key: value})

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}
			got, ok := response.Error.Details[key]
			return ok && got == value
		},
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithValidationErrors(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithValidationErrors(w, []ValidationError{
		{Field: "quantity", Message: "quantity must be at least 1"},
		{Field: "expiry_date", Message: "expiry date must be after today"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response struct {
		Error struct {
			Message string `json:"message"`
			Details struct {
				ValidationErrors []ValidationError `json:"validation_errors"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "validation failed", response.Error.Message)
	require.Len(t, response.Error.Details.ValidationErrors, 2)
	assert.Equal(t, "quantity", response.Error.Details.ValidationErrors[0].Field)
	assert.Equal(t, "expiry_date", response.Error.Details.ValidationErrors[1].Field)
}

func TestErrorHandlingMiddleware_RecoversPanics(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("storage exploded")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "internal server error", response.Error.Message)
}

func TestProperty_JSONResponsesAreValid(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("JSON responses are valid and parseable", prop.ForAll(
		func(data map[string]string) bool {
			w := httptest.NewRecorder()
			RespondWithJSON(w, http.StatusOK, data)

			if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var result map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
				return false
			}
			for k, v := range data {
				if result[k] != v {
					return false
				}
			}
			return true
		},
		gen.MapOf(gen.AlphaString(), gen.AlphaString()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
