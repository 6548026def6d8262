package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewRouterRegistersHealthRoute(t *testing.T) {
	router := newRouter()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected /healthz to return 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json content type, got %q", ct)
	}
}

func TestNewRouterProtectsAPIRoutes(t *testing.T) {
	router := newRouter()

	paths := []string{
		"/app/api/purchases",
		"/app/api/purchases/1/toggle",
		"/app/api/recipes/3/costs",
		"/app/api/recipe-components/2",
		"/app/api/suppliers/4",
		"/app/api/goods",
		"/app/api/tray-sizes/1",
		"/app/api/daily-specials",
		"/app/api/settings",
	}
	for _, path := range paths {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected %s to return 401 without a session, got %d", path, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/app/dashboard", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected unknown path to return 404, got %d", rr.Code)
	}
}
