package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	pkglog "github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/log"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/middleware"
	"github.com/rs/zerolog"
)

// RouterConfig controls the middleware wrapped around the routes.
type RouterConfig struct {
	Verifier       middleware.IdentityVerifier
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// NewRouter builds the complete HTTP handler: request logging, then CORS
// (so preflights never hit method matching), then identity resolution.
func NewRouter(h *HTTPHandler, cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.Identify(cfg.Verifier))
	h.RegisterRoutes(router)

	var handler http.Handler = router
	handler = middleware.CORS(cfg.AllowedOrigins, corsHeaders(cfg.Verifier)...)(handler)
	handler = pkglog.HTTPMiddleware(cfg.Logger)(handler)
	return handler
}

// corsHeaders lists the request headers a verifier reads, so browsers may
// send them cross-origin.
func corsHeaders(v middleware.IdentityVerifier) []string {
	if hv, ok := v.(interface{ Header() string }); ok {
		return []string{hv.Header()}
	}
	return nil
}
