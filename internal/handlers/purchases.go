package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"fourneau/internal/catalog"
)

// PurchaseResource serves /app/api/purchases.
func PurchaseResource(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantOrAbort(w, r)
	if !ok {
		return
	}

	id, action, hasID, ok := resourcePath(r.URL.Path, "/app/api/purchases")
	switch {
	case !ok:
		http.NotFound(w, r)
	case !hasID && r.Method == http.MethodGet:
		listPurchases(w, r, tenantID)
	case !hasID && r.Method == http.MethodPost:
		createPurchase(w, r, tenantID)
	case hasID && action == "" && r.Method == http.MethodPut:
		updatePurchase(w, r, tenantID, id)
	case hasID && action == "" && r.Method == http.MethodDelete:
		deletePurchase(w, r, tenantID, id)
	case hasID && action == "toggle" && r.Method == http.MethodPost:
		togglePurchase(w, r, tenantID, id)
	case hasID && action != "" && action != "toggle":
		http.NotFound(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listPurchases(w http.ResponseWriter, r *http.Request, tenantID uint) {
	var goodID uint
	if param := strings.TrimSpace(r.URL.Query().Get("good_id")); param != "" {
		value, err := strconv.ParseUint(param, 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid good_id")
			return
		}
		goodID = uint(value)
	}

	purchases, err := service.ListPurchases(requestContext(r), tenantID, goodID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purchases)
}

func createPurchase(w http.ResponseWriter, r *http.Request, tenantID uint) {
	var payload catalog.PurchaseInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	purchase, err := service.CreatePurchase(requestContext(r), tenantID, payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, purchase)
}

func updatePurchase(w http.ResponseWriter, r *http.Request, tenantID, id uint) {
	var payload catalog.PurchaseInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	purchase, err := service.UpdatePurchase(requestContext(r), tenantID, id, payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}

func deletePurchase(w http.ResponseWriter, r *http.Request, tenantID, id uint) {
	if err := service.DeletePurchase(requestContext(r), tenantID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func togglePurchase(w http.ResponseWriter, r *http.Request, tenantID, id uint) {
	purchase, err := service.TogglePurchase(requestContext(r), tenantID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}
