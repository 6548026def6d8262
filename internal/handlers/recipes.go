package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"fourneau/internal/catalog"
)

type componentUpdateRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
}

// RecipeResource serves /app/api/recipes.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantOrAbort(w, r)
	if !ok {
		return
	}
	ctx := requestContext(r)

	id, action, hasID, ok := resourcePath(r.URL.Path, "/app/api/recipes")
	switch {
	case !ok:
		http.NotFound(w, r)
	case !hasID && r.Method == http.MethodPost:
		var payload catalog.RecipeInput
		if !decodeJSON(w, r, &payload) {
			return
		}
		recipe, err := service.CreateRecipe(ctx, tenantID, payload)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, recipe)
	case hasID && (action == "" || action == "costs") && r.Method == http.MethodGet:
		sheet, err := service.RecipeCosts(ctx, tenantID, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sheet)
	case hasID && action == "" && r.Method == http.MethodPut:
		var payload catalog.RecipeInput
		if !decodeJSON(w, r, &payload) {
			return
		}
		recipe, err := service.UpdateRecipe(ctx, tenantID, id, payload)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, recipe)
	case hasID && action == "" && r.Method == http.MethodDelete:
		if err := service.DeleteRecipe(ctx, tenantID, id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case hasID && action == "duplicate" && r.Method == http.MethodPost:
		recipe, err := service.DuplicateRecipe(ctx, tenantID, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, recipe)
	case hasID && action != "" && action != "costs" && action != "duplicate":
		http.NotFound(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// RecipeComponentResource serves /app/api/recipe-components.
func RecipeComponentResource(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantOrAbort(w, r)
	if !ok {
		return
	}
	ctx := requestContext(r)

	id, action, hasID, ok := resourcePath(r.URL.Path, "/app/api/recipe-components")
	switch {
	case !ok || action != "":
		http.NotFound(w, r)
	case !hasID && r.Method == http.MethodPost:
		var payload catalog.ComponentInput
		if !decodeJSON(w, r, &payload) {
			return
		}
		component, err := service.AddComponent(ctx, tenantID, payload)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, component)
	case hasID && r.Method == http.MethodPut:
		var payload componentUpdateRequest
		if !decodeJSON(w, r, &payload) {
			return
		}
		component, err := service.UpdateComponent(ctx, tenantID, id, payload.Quantity, payload.Unit)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, component)
	case hasID && r.Method == http.MethodDelete:
		if err := service.RemoveComponent(ctx, tenantID, id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
