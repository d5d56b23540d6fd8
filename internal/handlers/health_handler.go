package handlers

import (
	"net/http"

	"github.com/KOLIFAST/backend/internal/utils"
	"github.com/KOLIFAST/backend/pkg/cache"
	"github.com/KOLIFAST/backend/pkg/database"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	db    *database.MongoDB
	redis *cache.RedisCache
}

func NewHealthHandler(db *database.MongoDB, redis *cache.RedisCache) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
	}
}

// Health reports liveness
func (h *HealthHandler) Health(c *gin.Context) {
	utils.SuccessResponse(c, "OK", gin.H{
		"service": utils.AppName,
		"version": utils.AppVersion,
	})
}

// Ready reports readiness of the backing stores
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := gin.H{
		"mongodb": "ok",
		"redis":   "ok",
	}
	healthy := true

	if err := h.db.Ping(); err != nil {
		checks["mongodb"] = err.Error()
		healthy = false
	}
	if err := h.redis.Ping(c.Request.Context()); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	}

	if !healthy {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "NOT_READY", "One or more dependencies are unavailable")
		return
	}

	utils.SuccessResponse(c, "Ready", checks)
}
