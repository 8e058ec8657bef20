package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	appMiddleware "github.com/prasetyowira/certgen/api/middleware"
	"github.com/prasetyowira/certgen/constant"
	appLogger "github.com/prasetyowira/certgen/infrastructure/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CertificateHandler is the set of endpoints the router mounts
type CertificateHandler interface {
	GetCertificate(w http.ResponseWriter, r *http.Request)
	VerifyCertificate(w http.ResponseWriter, r *http.Request)
	RevokeCertificate(w http.ResponseWriter, r *http.Request)
}

// Router represents the application router
type Router struct {
	handler  CertificateHandler
	router   *chi.Mux
	gatherer prometheus.Gatherer
	username string
	password string
}

// NewRouter creates a new router. A nil gatherer serves the default registry.
func NewRouter(handler CertificateHandler, gatherer prometheus.Gatherer, username, password string) *Router {
	r := chi.NewRouter()

	// Middleware setup
	r.Use(middleware.RealIP)
	r.Use(appMiddleware.RequestLogger())
	r.Use(middleware.Recoverer)

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &Router{
		handler:  handler,
		router:   r,
		gatherer: gatherer,
		username: username,
		password: password,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() {
	appLogger.Info(constant.MsgSettingUpRoutes, appLogger.LoggerInfo{
		ContextFunction: constant.CtxRouter,
	})

	creds := map[string]string{
		r.username: r.password,
	}
	// Revocation requires Basic Auth
	r.router.With(
		middleware.BasicAuth("certgen", creds),
	).Delete(constant.RouteCertificate, r.handler.RevokeCertificate)

	// Public routes
	r.router.Get(constant.RouteCertificate, r.handler.GetCertificate)
	r.router.Post(constant.RouteVerify, r.handler.VerifyCertificate)
	r.router.Handle(constant.RouteMetrics, promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))

	// Healthcheck
	r.router.Get(constant.RouteHealthcheck, func(w http.ResponseWriter, r *http.Request) {
		appLogger.CtxDebug(r.Context(), constant.MsgHealthcheckRequest, appLogger.LoggerInfo{
			ContextFunction: constant.CtxRouter,
		})

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(constant.MsgHealthy))
	})
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
