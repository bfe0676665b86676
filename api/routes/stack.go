package routes

import (
	"net/http"

	"github.com/angelmondragon/repricer/api/controllers"
	"github.com/angelmondragon/repricer/internal/app"
)

// NewStackRouter builds the router over a fully wired stack.
func NewStackRouter(s *app.Stack) http.Handler {
	ready := map[string]controllers.Pinger{
		"db":    s.DB,
		"redis": s.Redis,
	}
	if s.PubSub != nil {
		ready["pubsub"] = s.PubSub
	}
	if s.BigQuery != nil {
		ready["bigquery"] = s.BigQuery
	}
	return NewRouter(Deps{
		Config:   s.Config,
		Logger:   s.Logger,
		Ready:    ready,
		Gatherer: s.Registry,
		Runner:   s.Cron,
		Jobs:     s.Jobs,
		Running:  s.Guard,
		Preview:  s.Repricing,
		History:  s.Decisions,
	})
}
