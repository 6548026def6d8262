package handlers

import (
	"net/http"

	"fourneau/internal/catalog"
	"fourneau/models"
)

type dailySpecialsResponse struct {
	Entries  []models.DailySpecial        `json:"entries"`
	Averages catalog.DailySpecialAverages `json:"averages"`
}

// DailySpecialResource serves /app/api/daily-specials. GET returns the
// entries, optionally filtered by ?category, with the averages of every
// category.
func DailySpecialResource(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantOrAbort(w, r)
	if !ok {
		return
	}
	ctx := requestContext(r)

	id, action, hasID, ok := resourcePath(r.URL.Path, "/app/api/daily-specials")
	switch {
	case !ok || action != "":
		http.NotFound(w, r)
	case !hasID && r.Method == http.MethodGet:
		entries, err := service.ListDailySpecials(ctx, tenantID, r.URL.Query().Get("category"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		averages, err := service.DailySpecialAverages(ctx, tenantID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, dailySpecialsResponse{Entries: entries, Averages: averages})
	case !hasID && r.Method == http.MethodPost:
		var payload catalog.DailySpecialInput
		if !decodeJSON(w, r, &payload) {
			return
		}
		special, err := service.CreateDailySpecial(ctx, tenantID, payload)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, special)
	case hasID && r.Method == http.MethodPut:
		var payload catalog.DailySpecialInput
		if !decodeJSON(w, r, &payload) {
			return
		}
		special, err := service.UpdateDailySpecial(ctx, tenantID, id, payload)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, special)
	case hasID && r.Method == http.MethodDelete:
		if err := service.DeleteDailySpecial(ctx, tenantID, id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
