package api

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/namansh70747/quantum-brain/internal/core"
)

func rootHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "Quantum Brain is online",
		})
	}
}

func healthHandler(config *core.Config, history History) gin.HandlerFunc {
	version := "unknown"
	if config != nil {
		version = config.App.Version
	}
	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	return func(c *gin.Context) {
		body := gin.H{
			"status":      "healthy",
			"service":     "Quantum Brain API",
			"version":     version,
			"environment": environment,
			"timestamp":   timestamp(),
		}

		if history != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()

			if err := history.Health(ctx); err != nil {
				body["status"] = "unhealthy"
				body["database"] = "unreachable"
				body["error"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
			body["database"] = "healthy"
			body["pool"] = history.PoolStats()
		}

		c.JSON(http.StatusOK, body)
	}
}

func apiStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"api":    "Quantum Brain",
			"status": "operational",
			"endpoints": gin.H{
				"health":      "/health",
				"monitoring":  "/monitoring/ws",
				"remediation": "/remediation/actions",
				"metrics":     "/metrics",
			},
			"features": []string{
				"Entangled anomaly detection",
				"Probabilistic root-cause analysis",
				"Parallel cause investigation",
				"Utility-ranked remediation",
				"Real-time WebSocket Communication",
			},
		})
	}
}
