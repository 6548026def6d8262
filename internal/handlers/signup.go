package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "fourneau/internal/log"
)

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Signup creates a tenant account and signs it in.
func Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if sessionManager == nil || database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "registration not available")
		return
	}

	var payload signupRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid signup payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	email := strings.TrimSpace(payload.Email)
	switch {
	case email == "" || !strings.Contains(email, "@"):
		writeJSONError(w, http.StatusBadRequest, "please provide a valid email address")
		return
	case len(payload.Password) < 8:
		writeJSONError(w, http.StatusBadRequest, "password must be at least 8 characters long")
		return
	case payload.Password != payload.ConfirmPassword:
		writeJSONError(w, http.StatusBadRequest, "passwords do not match")
		return
	}

	if _, err := findTenantByEmail(r, email); err == nil {
		applog.Debug(r.Context(), "signup attempted with existing email", "email", strings.ToLower(email))
		writeJSONError(w, http.StatusConflict, "an account with that email already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		applog.Error(r.Context(), "failed to check existing tenant", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create account")
		return
	}

	tenant, err := createTenant(r, email, payload.Name, payload.Password)
	if err != nil {
		applog.Error(r.Context(), "failed to create tenant", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create account")
		return
	}
	if err := establishSession(r, tenant); err != nil {
		applog.Error(r.Context(), "failed to establish session after signup", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to sign in")
		return
	}

	applog.Info(r.Context(), "tenant created via signup", "tenant_id", tenant.ID)
	writeJSON(w, http.StatusCreated, currentSession(r))
}
