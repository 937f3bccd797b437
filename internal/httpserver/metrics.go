package httpserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsHandler exposes the default Prometheus registry, which the
// metrics package registers its collectors into on first use.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}
