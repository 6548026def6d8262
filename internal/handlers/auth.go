package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fourneau/internal/catalog"
	applog "fourneau/internal/log"
	"fourneau/models"
)

const (
	sessionAuthenticatedKey = "auth:authenticated"
	sessionTenantIDKey      = "auth:tenant:id"
	sessionTenantEmailKey   = "auth:tenant:email"
)

// DefaultMarkupCoefficient is given to tenants created through signup.
var DefaultMarkupCoefficient = decimal.RequireFromString("2.5")

var errInvalidCredentials = errors.New("invalid email or password")

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
	service        *catalog.Service
)

// Configure installs the shared dependencies used by the HTTP handlers. A nil
// svc is built on db when db is set.
func Configure(sm *scs.SessionManager, db *gorm.DB, svc *catalog.Service) {
	sessionManager = sm
	database = db
	service = svc
	if service == nil && db != nil {
		service = catalog.NewService(db)
	}
}

func createTenant(r *http.Request, email, name, password string) (*models.Tenant, error) {
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tenant := &models.Tenant{
		Email:             strings.ToLower(strings.TrimSpace(email)),
		Name:              strings.TrimSpace(name),
		PasswordHash:      string(hashed),
		MarkupCoefficient: decimal.NewNullDecimal(DefaultMarkupCoefficient),
	}

	if err := database.WithContext(r.Context()).Create(tenant).Error; err != nil {
		return nil, err
	}
	return tenant, nil
}

func findTenantByEmail(r *http.Request, email string) (*models.Tenant, error) {
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}

	tenant := &models.Tenant{}
	err := database.WithContext(r.Context()).Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(tenant).Error
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// authenticate verifies the credentials and populates the session.
func authenticate(r *http.Request, email, password string) (*models.Tenant, error) {
	tenant, err := findTenantByEmail(r, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(tenant.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}

	if err := establishSession(r, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func establishSession(r *http.Request, tenant *models.Tenant) error {
	if sessionManager == nil {
		return errors.New("session manager not configured")
	}
	if err := sessionManager.RenewToken(r.Context()); err != nil {
		return err
	}
	sessionManager.Put(r.Context(), sessionAuthenticatedKey, true)
	sessionManager.Put(r.Context(), sessionTenantIDKey, int(tenant.ID))
	sessionManager.Put(r.Context(), sessionTenantEmailKey, tenant.Email)
	return nil
}

// RequireAuthentication rejects requests without an authenticated session.
func RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ActiveSession(r) {
			applog.Debug(r.Context(), "rejecting unauthenticated request", "path", r.URL.Path)
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Logout destroys the current session.
func Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if sessionManager != nil {
		if err := sessionManager.Destroy(r.Context()); err != nil {
			applog.Error(r.Context(), "failed to destroy session", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to sign out")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// ActiveSession returns true when the current request has an authenticated session.
func ActiveSession(r *http.Request) bool {
	if sessionManager == nil {
		return false
	}
	return sessionManager.GetBool(r.Context(), sessionAuthenticatedKey) && sessionManager.GetInt(r.Context(), sessionTenantIDKey) > 0
}

func currentTenantID(r *http.Request) (uint, bool) {
	if sessionManager == nil {
		return 0, false
	}
	id := sessionManager.GetInt(r.Context(), sessionTenantIDKey)
	if id <= 0 {
		return 0, false
	}
	return uint(id), true
}
