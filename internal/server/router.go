package server

import (
	"context"
	"net/http"

	"fourneau/internal/handlers"
	applog "fourneau/internal/log"
)

type apiRoute struct {
	prefix  string
	handler http.HandlerFunc
}

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("/healthz", handlers.Health)
	applog.Debug(context.Background(), "route registered", "path", "/healthz")
	mux.HandleFunc("/login", handlers.Login)
	applog.Debug(context.Background(), "route registered", "path", "/login")
	mux.HandleFunc("/signup", handlers.Signup)
	applog.Debug(context.Background(), "route registered", "path", "/signup")
	mux.HandleFunc("/logout", handlers.Logout)
	applog.Debug(context.Background(), "route registered", "path", "/logout")

	routes := []apiRoute{
		{"/app/api/purchases", handlers.PurchaseResource},
		{"/app/api/recipes", handlers.RecipeResource},
		{"/app/api/recipe-components", handlers.RecipeComponentResource},
		{"/app/api/suppliers", handlers.SupplierResource},
		{"/app/api/goods", handlers.GoodResource},
		{"/app/api/tray-sizes", handlers.TraySizeResource},
		{"/app/api/daily-specials", handlers.DailySpecialResource},
	}
	for _, route := range routes {
		protected := handlers.RequireAuthentication(route.handler)
		mux.Handle(route.prefix, protected)
		mux.Handle(route.prefix+"/", protected)
		applog.Debug(context.Background(), "route registered", "path", route.prefix, "protected", true)
	}
	mux.Handle("/app/api/settings", handlers.RequireAuthentication(http.HandlerFunc(handlers.Settings)))
	applog.Debug(context.Background(), "route registered", "path", "/app/api/settings", "protected", true)
	return mux
}
