package api

import (
	"net/http"

	"orderstats/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the read-only statistics endpoints.
func NewRouter(mode string, log *logger.Logger, store StatsReader) *gin.Engine {
	gin.SetMode(mode)
	r := gin.New()
	r.Use(gin.Recovery(), instrument())

	h := NewStatsHandler(log, store)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/users/:user_id/stats", h.GetUserStats)
	r.GET("/stats/global", h.GetGlobalStats)
	r.GET("/stats/top/:n", h.GetTopSpenders)
	r.GET("/stats/monthly", h.GetMonthlyStats)

	return r
}
