package api

import (
	"net/http"

	"github.com/SlpAus/aom-parse-server/internal/platform/health"
	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "Attack on Moe - Private Server"
	serviceVersion = "1.0.0"
)

// Root 返回服务横幅
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":           serviceName,
		"version":        serviceVersion,
		"parse_endpoint": "/parse/",
		"application_id": h.parse.ApplicationID,
	})
}

func (h *Handler) ParseRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Health 探测数据库和缓存。只有数据库不可用时返回503。
func (h *Handler) Health(c *gin.Context) {
	state, report := h.svc.Health.Check(c.Request.Context())
	status := http.StatusOK
	if state == health.StateUnavailable {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

// GetConfig 返回启动时构造的客户端参数表
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"params": h.params})
}
