package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/repricer/api/controllers"
	"github.com/angelmondragon/repricer/api/middleware"
	"github.com/angelmondragon/repricer/pkg/config"
	"github.com/angelmondragon/repricer/pkg/logger"
)

// Deps are the collaborators the HTTP surface needs. Running and Ready
// entries may be nil.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Ready    map[string]controllers.Pinger
	Gatherer prometheus.Gatherer
	Runner   controllers.JobRunner
	Jobs     controllers.JobSwitch
	Running  controllers.RunningChecker
	Preview  controllers.Previewer
	History  controllers.HistoryReader
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Ready))
	})

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AdminToken(cfg.App.AdminToken, logg))

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", controllers.JobList(d.Jobs))
			r.Post("/{job}/trigger", controllers.JobTrigger(d.Runner, d.Jobs, d.Running, logg))
			r.Put("/{job}/enabled", controllers.JobSetEnabled(d.Jobs, logg))
		})

		r.Route("/products/{productId}", func(r chi.Router) {
			r.Get("/preview", controllers.ProductPreview(d.Preview, logg))
			r.Get("/decisions", controllers.ProductDecisions(d.History, logg))
		})
	})

	return r
}
