package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	applog "fourneau/internal/log"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	TenantID      uint   `json:"tenant_id,omitempty"`
	Email         string `json:"email,omitempty"`
}

// Login reports the session state on GET and signs a tenant in on POST. The
// credentials may be sent as JSON or as a form.
func Login(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "handling login request", "method", r.Method)

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		writeJSON(w, http.StatusOK, currentSession(r))
	case http.MethodPost:
		if sessionManager == nil || database == nil {
			applog.Debug(r.Context(), "authentication dependencies unavailable", "hasSession", sessionManager != nil, "hasDatabase", database != nil)
			writeJSONError(w, http.StatusServiceUnavailable, "authentication not available")
			return
		}

		creds, err := readCredentials(r)
		if err != nil {
			applog.Debug(r.Context(), "failed to parse login submission", "error", err)
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
		if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
			writeJSONError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		if _, err := authenticate(r, creds.Email, creds.Password); err != nil {
			if errors.Is(err, errInvalidCredentials) {
				applog.Debug(r.Context(), "authentication failed", "email", strings.ToLower(creds.Email))
				writeJSONError(w, http.StatusUnauthorized, "invalid email or password")
				return
			}
			applog.Error(r.Context(), "failed to authenticate", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to sign in")
			return
		}

		applog.Debug(r.Context(), "authentication succeeded", "email", strings.ToLower(creds.Email))
		writeJSON(w, http.StatusOK, currentSession(r))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func readCredentials(r *http.Request) (credentials, error) {
	var creds credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&creds)
		return creds, err
	}
	if err := r.ParseForm(); err != nil {
		return creds, err
	}
	creds.Email = r.PostFormValue("email")
	creds.Password = r.PostFormValue("password")
	return creds, nil
}

func currentSession(r *http.Request) sessionResponse {
	id, ok := currentTenantID(r)
	if !ok || !ActiveSession(r) {
		return sessionResponse{}
	}
	return sessionResponse{
		Authenticated: true,
		TenantID:      id,
		Email:         sessionManager.GetString(r.Context(), sessionTenantEmailKey),
	}
}
