package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/nholding/esgroll/internal/esg/catalog"
	"github.com/nholding/esgroll/internal/esg/job"
	"github.com/nholding/esgroll/internal/esg/store"
)

// Dependencies bundles everything the handlers need to serve a request.
type Dependencies struct {
	Coordinator *job.Coordinator
	Store       store.Store
	Catalog     *catalog.Client
}

// NewRouter builds the chi mux with the full route table spec.md §6
// names, plus the ambient middleware stack (request ID, real IP,
// structured request logging, panic recovery, and CORS) carried from
// the teacher pack's own HTTP server conventions.
func NewRouter(deps Dependencies, log *logrus.Entry) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := NewHandlers(deps, log)

	r.Get("/health", h.Health)
	r.Post("/run-aggregation", h.RunAggregation)
	r.Post("/start-rollup", h.StartRollup)
	r.Get("/status/{job_id}", h.JobStatus)
	r.Get("/list-threads", h.ListThreads)

	r.Route("/api/rollup", func(api chi.Router) {
		api.Get("/data", h.RollupData)
		api.Get("/status", h.RollupStatus)
		api.Get("/sites/{company_id}", h.RollupSites)
	})

	return r
}

// requestLogger logs each request at Info with the fields the rest of
// the module tags its structured log lines with.
func requestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			}).Info("http request")
		})
	}
}

