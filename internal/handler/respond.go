// Package handler exposes the JSON API. Each handler declares the
// narrow service interface it needs; the router wires concrete services
// into them.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/graceworks/shelterops/internal/middleware"
	"github.com/graceworks/shelterops/internal/model"
)

// writeJSON writes v as a JSON response body.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body into dst. On failure it writes a
// 400 and reports false; the handler just returns.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("Request body is not valid JSON."))
		return false
	}
	return true
}

// handleServiceError converts a service-layer error to an HTTP
// response. APIError maps by code and category; anything else is a 500
// with the detail kept out of the response.
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, httpStatusFor(apiErr), apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// httpStatusFor maps an APIError to its HTTP status. Specific codes
// take precedence, then the category decides.
func httpStatusFor(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeShelterNotSelected:
		return http.StatusConflict
	case model.ErrCodeRequestNotFound, model.ErrCodeResidentNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	}

	switch apiErr.Category {
	case "auth":
		return http.StatusUnauthorized
	case "validation":
		return http.StatusBadRequest
	case "workflow":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
