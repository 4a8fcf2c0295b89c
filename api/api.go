package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/irsalhamdi/coinspace/api/middleware"
	"github.com/irsalhamdi/coinspace/api/web"
	"github.com/irsalhamdi/coinspace/api/weberr"
	"github.com/irsalhamdi/coinspace/core/catalog"
	"github.com/irsalhamdi/coinspace/core/content"
	"github.com/irsalhamdi/coinspace/core/newsletter"
	"github.com/irsalhamdi/coinspace/rate"
)

type APIConfig struct {
	CorsOrigin string
	Log        logrus.FieldLogger
	Limiter    *rate.Window
	TrustProxy bool
	// Registry enables /metrics when set.
	Registry *prometheus.Registry
	Catalog  []content.Record
	Now      func() time.Time
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	return newAPI(cfg).Router
}

func newAPI(cfg APIConfig) *api {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	if cfg.Registry != nil {
		a.mw = append(a.mw, middleware.NewMetrics(cfg.Registry).Middleware())
	}
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	if cfg.Limiter != nil {
		a.mw = append(a.mw, middleware.RateLimit(cfg.Limiter, cfg.TrustProxy))
	}

	a.Handle(http.MethodPost, "/api/newsletter/subscribe", newsletter.HandleSubscribe(cfg.Log, cfg.Now))
	a.Handle(http.MethodGet, "/api/health", newsletter.HandleHealth(cfg.Now))

	a.Handle(http.MethodGet, "/api/modules/categories", catalog.HandleCategories(cfg.Catalog))
	a.Handle(http.MethodGet, "/api/modules", catalog.HandleList(cfg.Catalog))

	if cfg.Registry != nil {
		a.Handle(http.MethodGet, "/metrics", web.FromHTTP(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	notFound := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return weberr.NotFound(fmt.Errorf("no route for %s %s", r.Method, r.URL.Path))
	}
	a.NotFoundHandler = a.wrap(notFound)
	a.MethodNotAllowedHandler = a.wrap(notFound)

	return a
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {
	handler = web.WrapMiddleware(mw, handler)
	a.Router.Handle(path, a.wrap(handler)).Methods(method)
}

// wrap applies the global middleware and adapts the result to net/http.
func (a *api) wrap(handler web.Handler) http.Handler {
	handler = web.WrapMiddleware(a.mw, handler)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})
}

