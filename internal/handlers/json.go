package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fourneau/internal/catalog"
	"fourneau/internal/dbctx"
	applog "fourneau/internal/log"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps catalog error kinds onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, catalog.ErrValidation):
		writeJSONError(w, http.StatusUnprocessableEntity, lastLine(err))
	case errors.Is(err, catalog.ErrConflict):
		writeJSONError(w, http.StatusConflict, "a record with that name already exists")
	case errors.Is(err, catalog.ErrInUse):
		writeJSONError(w, http.StatusConflict, lastLine(err))
	default:
		applog.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// lastLine drops the error kind prefix added by errors.Join.
func lastLine(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, "\n"); i >= 0 {
		return msg[i+1:]
	}
	return msg
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		applog.Debug(r.Context(), "invalid request payload", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

func requestContext(r *http.Request) dbctx.Context {
	return dbctx.New(r.Context())
}

// resourcePath splits "/prefix/12/action" into 12 and "action". hasID is
// false for the collection itself; ok is false for a malformed identifier.
func resourcePath(path, prefix string) (id uint, action string, hasID, ok bool) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return 0, "", false, true
	}
	parts := strings.SplitN(rest, "/", 2)
	value, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || value == 0 {
		return 0, "", true, false
	}
	if len(parts) == 2 {
		action = parts[1]
	}
	return uint(value), action, true, true
}

// tenantOrAbort resolves the tenant of the session and the catalog service,
// answering the request itself when either is missing.
func tenantOrAbort(w http.ResponseWriter, r *http.Request) (uint, bool) {
	if service == nil {
		applog.Debug(r.Context(), "api request without database", "path", r.URL.Path)
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return 0, false
	}
	tenantID, ok := currentTenantID(r)
	if !ok {
		applog.Debug(r.Context(), "api request without authenticated tenant", "path", r.URL.Path)
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	return tenantID, true
}
