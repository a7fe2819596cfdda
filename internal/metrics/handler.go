package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPHandler returns the Prometheus metrics HTTP handler. It serves all
// promauto-registered metrics from the default registry.
func HTTPHandler() http.Handler {
	return promhttp.Handler()
}
