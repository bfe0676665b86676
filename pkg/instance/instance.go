package instance

import (
	"os"

	"github.com/angelmondragon/repricer/pkg/env"
)

// ID identifies this process in logs. It prefers an explicit id, then the
// platform dyno name, then the hostname.
func ID() string {
	if id := env.Get("REPRICER_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
