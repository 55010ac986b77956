package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_requests_total",
		Help: "Total API requests",
	}, []string{"endpoint"})

	requestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "api_request_duration_seconds",
		Help: "Request latency",
	})
)

// instrument counts requests per route template and observes latency.
func instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		requestCount.WithLabelValues(endpoint).Inc()

		timer := prometheus.NewTimer(requestLatency)
		defer timer.ObserveDuration()
		c.Next()
	}
}
