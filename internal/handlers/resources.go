package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"fourneau/internal/catalog"
)

type nameRequest struct {
	Name string `json:"name"`
}

type traySizeRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// SupplierResource serves /app/api/suppliers. DELETE refuses suppliers that
// still have purchases unless force=true is given.
func SupplierResource(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantOrAbort(w, r)
	if !ok {
		return
	}
	ctx := requestContext(r)

	id, action, hasID, ok := resourcePath(r.URL.Path, "/app/api/suppliers")
	switch {
	case !ok:
		http.NotFound(w, r)
	case !hasID && r.Method == http.MethodPost:
		var payload nameRequest
		if !decodeJSON(w, r, &payload) {
			return
		}
		supplier, err := service.CreateSupplier(ctx, tenantID, payload.Name)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, supplier)
	case hasID && action == "" && r.Method == http.MethodPut:
		var payload nameRequest
		if !decodeJSON(w, r, &payload) {
			return
		}
		supplier, err := service.UpdateSupplier(ctx, tenantID, id, payload.Name)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, supplier)
	case hasID && action == "" && r.Method == http.MethodDelete:
		var err error
		if r.URL.Query().Get("force") == "true" {
			err = service.ForceDeleteSupplier(ctx, tenantID, id)
		} else {
			err = service.DeleteSupplier(ctx, tenantID, id)
		}
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case hasID && action == "deactivate" && r.Method == http.MethodPost:
		if err := service.DeactivateSupplier(ctx, tenantID, id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case hasID && action == "activate" && r.Method == http.MethodPost:
		if err := service.ActivateSupplier(ctx, tenantID, id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case hasID && action != "" && action != "deactivate" && action != "activate":
		http.NotFound(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// GoodResource serves /app/api/goods.
func GoodResource(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantOrAbort(w, r)
	if !ok {
		return
	}
	ctx := requestContext(r)

	id, action, hasID, ok := resourcePath(r.URL.Path, "/app/api/goods")
	switch {
	case !ok:
		http.NotFound(w, r)
	case !hasID && r.Method == http.MethodPost:
		var payload catalog.GoodInput
		if !decodeJSON(w, r, &payload) {
			return
		}
		good, err := service.CreateGood(ctx, tenantID, payload)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, good)
	case hasID && action == "" && r.Method == http.MethodPut:
		var payload catalog.GoodInput
		if !decodeJSON(w, r, &payload) {
			return
		}
		good, err := service.UpdateGood(ctx, tenantID, id, payload)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, good)
	case hasID && action == "" && r.Method == http.MethodDelete:
		if err := service.DeleteGood(ctx, tenantID, id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case hasID && action == "recalculate" && r.Method == http.MethodPost:
		good, err := service.RecalculateGood(ctx, tenantID, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, good)
	case hasID && action != "" && action != "recalculate":
		http.NotFound(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// TraySizeResource serves /app/api/tray-sizes.
func TraySizeResource(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantOrAbort(w, r)
	if !ok {
		return
	}
	ctx := requestContext(r)

	id, action, hasID, ok := resourcePath(r.URL.Path, "/app/api/tray-sizes")
	switch {
	case !ok || action != "":
		http.NotFound(w, r)
	case !hasID && r.Method == http.MethodPost:
		var payload traySizeRequest
		if !decodeJSON(w, r, &payload) {
			return
		}
		tray, err := service.CreateTraySize(ctx, tenantID, payload.Name, payload.Price)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, tray)
	case hasID && r.Method == http.MethodPut:
		var payload traySizeRequest
		if !decodeJSON(w, r, &payload) {
			return
		}
		tray, err := service.UpdateTraySize(ctx, tenantID, id, payload.Name, payload.Price)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tray)
	case hasID && r.Method == http.MethodDelete:
		if err := service.DeleteTraySize(ctx, tenantID, id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Settings reads and updates the tenant settings.
func Settings(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantOrAbort(w, r)
	if !ok {
		return
	}
	ctx := requestContext(r)

	switch r.Method {
	case http.MethodGet:
		tenant, err := service.Tenant(ctx, tenantID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tenant)
	case http.MethodPut:
		var payload catalog.SettingsInput
		if !decodeJSON(w, r, &payload) {
			return
		}
		tenant, err := service.UpdateSettings(ctx, tenantID, payload)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tenant)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
