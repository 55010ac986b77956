package api

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"orderstats/models"
	"orderstats/pkg/logger"

	"github.com/gin-gonic/gin"
)

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// StatsReader is the read-only slice of the Redis client the API needs.
// All endpoints are pure projections over already-aggregated state.
type StatsReader interface {
	UserStats(ctx context.Context, userID string) (*models.UserStats, error)
	GlobalStats(ctx context.Context) (*models.GlobalStats, error)
	TopSpenders(ctx context.Context, n int64) ([]models.Spender, error)
	MonthlyRange(ctx context.Context, start, end string) (map[string]models.MonthStats, error)
}

type StatsHandler struct {
	log   *logger.Logger
	store StatsReader
}

func NewStatsHandler(log *logger.Logger, store StatsReader) *StatsHandler {
	return &StatsHandler{
		log:   log.With("handler", "StatsHandler"),
		store: store,
	}
}

// GET /users/:user_id/stats
func (h *StatsHandler) GetUserStats(c *gin.Context) {
	userID := c.Param("user_id")

	stats, err := h.store.UserStats(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("user stats read failed", "user_id", userID, "error", err)
		RespondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}
	if stats == nil {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("user not found"))
		return
	}
	RespondOK(c, stats)
}

// GET /stats/global
func (h *StatsHandler) GetGlobalStats(c *gin.Context) {
	stats, err := h.store.GlobalStats(c.Request.Context())
	if err != nil {
		h.log.Error("global stats read failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}
	RespondOK(c, stats)
}

// GET /stats/top/:n
func (h *StatsHandler) GetTopSpenders(c *gin.Context) {
	n, err := strconv.ParseInt(c.Param("n"), 10, 64)
	if err != nil || n < 1 {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("n must be a positive integer"))
		return
	}

	top, err := h.store.TopSpenders(c.Request.Context(), n)
	if err != nil {
		h.log.Error("leaderboard read failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}
	RespondOK(c, top)
}

// GET /stats/monthly?start=YYYY-MM&end=YYYY-MM
func (h *StatsHandler) GetMonthlyStats(c *gin.Context) {
	start := c.DefaultQuery("start", "2024-01")
	end := c.DefaultQuery("end", "2024-12")
	if !monthPattern.MatchString(start) || !monthPattern.MatchString(end) {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("start and end must be YYYY-MM"))
		return
	}

	buckets, err := h.store.MonthlyRange(c.Request.Context(), start, end)
	if err != nil {
		h.log.Error("monthly stats read failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "store_error", err)
		return
	}
	RespondOK(c, buckets)
}
