package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"topoview/internal/metrics"
)

// RouterConfig carries what NewRouter wires besides the view handler
type RouterConfig struct {
	Events  http.Handler
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// NewRouter builds the HTTP API
func NewRouter(h *ViewHandler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(logger))
	if cfg.Metrics != nil {
		router.Use(Metrics(cfg.Metrics))
		router.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	router.Get("/health", h.Health)
	if cfg.Events != nil {
		router.Method(http.MethodGet, "/events", cfg.Events)
	}

	router.Route("/api", func(r chi.Router) {
		r.Get("/views", h.ListViews)
		r.Route("/views/{name}", func(r chi.Router) {
			r.Get("/", h.GetView)
			r.Delete("/", h.DeleteView)
			r.Post("/open", h.OpenView)
			r.Post("/close", h.CloseView)
			r.Get("/state", h.GetState)
			r.Get("/export", h.ExportView)
			r.Put("/import", h.ImportView)
			r.Post("/save", h.SaveView)
			r.Get("/render.png", h.RenderView)

			r.Post("/vertices", h.AddVertex)
			r.Delete("/vertices/{key}", h.RemoveVertex)
			r.Put("/vertices/{key}/location", h.MoveVertex)
			r.Put("/vertices/{key}/size", h.ResizeVertex)
			r.Put("/vertices/{key}/text", h.EditText)
			r.Get("/vertices/{key}/menu", h.ContextMenu)

			r.Post("/edges", h.Connect)
			r.Delete("/edges/{key}", h.RemoveEdge)
			r.Put("/edges/{key}/points", h.SetControlPoints)

			r.Put("/selection", h.Select)
			r.Get("/selection/object", h.SelectedObject)
		})

		r.Get("/objects", h.ListObjects)
		r.Post("/objects", h.StoreObjects)
		r.Post("/discover", h.Discover)
	})

	return router
}
