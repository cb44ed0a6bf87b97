package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/necs-cart/internal/pkg/telemetry"
	"github.com/jcmexdev/necs-cart/internal/storefront/infra/httpx/middlewares"
)

func NewRouter(handler *Handler, metrics *telemetry.ServerMetrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.Metrics(metrics))

	r.Get("/healthz", handler.Healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middlewares.Visitor)

		r.Get("/cart", handler.GetCart)
		r.Get("/cart/drawer", handler.GetDrawer)
		r.Post("/cart/items", handler.AddItem)
		r.Post("/cart/items/{name}/{action}", handler.AdjustItem)
		r.Post("/cart/lines/{index}/{action}", handler.AdjustLine)
		r.Post("/cart/checkout", handler.Checkout)
		r.Get("/notifications", handler.GetNotification)
	})

	return otelhttp.NewHandler(r, "storefront")
}
