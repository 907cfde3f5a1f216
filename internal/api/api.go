package api

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/YouBrin/BotChina/internal/catalog"
	"github.com/YouBrin/BotChina/internal/config"
	"github.com/YouBrin/BotChina/internal/params"
)

// API is the operator-facing web surface: inspect and edit the pricing
// parameters, force a cache refresh, list committed items.
type API struct {
	router    *mux.Router
	cache     *params.Cache
	browser   *catalog.Browser
	config    *config.Config
	jwtSecret []byte
}

func New(cfg *config.Config, cache *params.Cache, browser *catalog.Browser) *API {
	api := &API{
		router:    mux.NewRouter(),
		cache:     cache,
		browser:   browser,
		config:    cfg,
		jwtSecret: []byte(cfg.JWTSecret),
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	// Public endpoints
	a.router.HandleFunc("/healthz", a.handleHealth).Methods("GET")
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("POST")

	// Protected endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/params", a.handleGetParams).Methods("GET")
	protected.HandleFunc("/params", a.handlePutParams).Methods("PUT")
	protected.HandleFunc("/params/refresh", a.handleRefreshParams).Methods("POST")
	protected.HandleFunc("/items", a.handleListItems).Methods("GET")
}

func (a *API) Start() error {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}

	handler := cors.New(corsOptions).Handler(a.router)

	log.Printf("API server listening on http://%s", a.config.WebBind)
	return http.ListenAndServe(a.config.WebBind, handler)
}
