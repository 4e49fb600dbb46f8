package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/ValueCharts/internal/relay"
	"github.com/MikeSquared-Agency/ValueCharts/internal/scoring"
	"github.com/MikeSquared-Agency/ValueCharts/internal/store"
)

// RouterOptions carries the settings the handlers need from config.
type RouterOptions struct {
	AdminToken     string
	AllowedOrigins []string
	HistoryDepth   int
	RateLimit      int
}

func NewRouter(s store.Store, hub *relay.Hub, opts RouterOptions, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	if opts.RateLimit <= 0 {
		opts.RateLimit = 120
	}

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(MetricsMiddleware)
	r.Use(RateLimitMiddleware(opts.RateLimit))

	editors := newEditorRegistry(opts.HistoryDepth)
	charts := NewChartsHandler(s, hub, editors, logger)
	users := NewUsersHandler(s, hub, editors, logger)
	prefs := NewPreferencesHandler(s, hub, editors, logger)
	scores := NewScoresHandler(s, hub, scoring.NewScorer(logger))
	host := NewHostHandler(s, hub, opts.AllowedOrigins, logger)

	r.Get("/host/{chart}", host.Serve)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/charts", charts.Create)
		r.Get("/charts", charts.List)
		r.Get("/charts/names/{name}", charts.NameAvailable)

		r.Route("/charts/{id}", func(r chi.Router) {
			r.Get("/", charts.Get)
			r.Put("/", charts.Update)
			r.Get("/structure", charts.GetStructure)
			r.Put("/structure", charts.PutStructure)

			r.Get("/scores", scores.Scores)
			r.Get("/alternatives/{name}/breakdown", scores.Breakdown)

			r.Post("/users", users.Add)
			r.Get("/users/{username}", users.Get)
			r.Put("/users/{username}", users.Update)
			r.Delete("/users/{username}", users.Remove)
			r.Put("/users/{username}/weights", prefs.SetWeights)
			r.Put("/users/{username}/scorefunctions/{objective}", prefs.SetElementScore)
			r.Post("/users/{username}/undo", prefs.Undo)
			r.Post("/users/{username}/redo", prefs.Redo)

			r.Group(func(r chi.Router) {
				r.Use(ChartAdminMiddleware(s, opts.AdminToken))
				r.Delete("/", charts.Delete)
				r.Put("/status", charts.SetStatus)
			})
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
