package routes

import (
	"net/http"

	"sessionauth/internal/handlers"
	"sessionauth/internal/middleware"

	"github.com/gorilla/mux"
)

func InitRoutes(
	router *mux.Router,
	authHandler *handlers.AuthHandler,
	sessions middleware.SessionResolver,
	metricsHandler http.Handler,
) {
	router.StrictSlash(true)
	router.Use(middleware.RequestID, middleware.Logging, middleware.Recoverer)

	router.HandleFunc("/", authHandler.Home).Methods(http.MethodGet)
	router.Handle("/metrics", metricsHandler).Methods(http.MethodGet)

	// --- Публичные маршруты ---
	router.HandleFunc("/users", authHandler.Register).Methods(http.MethodPost)
	router.HandleFunc("/sessions", authHandler.Login).Methods(http.MethodPost)
	router.HandleFunc("/sessions", authHandler.Logout).Methods(http.MethodDelete)
	router.HandleFunc("/reset_password", authHandler.RequestReset).Methods(http.MethodPost)
	router.HandleFunc("/reset_password", authHandler.ApplyReset).Methods(http.MethodPut)

	// --- По cookie сессии ---
	protected := router.PathPrefix("/profile").Subrouter()
	protected.Use(middleware.RequireSession(sessions))
	protected.HandleFunc("", authHandler.Profile).Methods(http.MethodGet)
}
