package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/graceworks/shelterops/internal/model"
)

// ErrorResponseBody is the unified API error response format, carrying
// the failure category and a suggested next step.
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse writes an HTTP error response in the unified
// format. Every API endpoint reports failures through this shape.
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError writes the generic 500 response. Details stay
// in the logs; the client only learns that something broke on our side.
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "Something went wrong on our side.",
		Category: "system",
		Action:   "Wait a moment and try again.",
	})
}
