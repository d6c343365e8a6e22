// Package api is the HTTP surface of the service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vortex-fintech/supvx2/logger"
)

type Options struct {
	// Debug exposes the interactive docs at /docs and /redoc.
	Debug          bool
	AllowedOrigins []string
	Logger         logger.LoggerInterface
}

// NewRouter builds the API handler.
//
//	GET /              liveness, {"status":"ok"}
//	GET /openapi.json  OpenAPI document
//	GET /docs          Swagger UI (debug only)
//	GET /redoc         ReDoc (debug only)
func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("http")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestContext)
	r.Use(accessLog(log))
	r.Use(CORS(opts.AllowedOrigins))
	r.Use(middleware.GetHead)

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/", healthCheck)
	r.Get(openAPIPath, openAPI(log))
	if opts.Debug {
		r.Get(docsPath, docsHandler(swaggerUI, log))
		r.Get(redocPath, docsHandler(redocUI, log))
	}

	return r
}
