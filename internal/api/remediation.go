package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/namansh70747/quantum-brain/internal/core"
	"github.com/namansh70747/quantum-brain/internal/remediation"
)

// executeHandler always answers 200 once the request parses; failures are
// reported in the result status.
func executeHandler(dispatcher *remediation.Dispatcher, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req remediation.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, err.Error())
			return
		}

		log.Info("Received remediation request", zap.String("action", req.Action))
		result := dispatcher.Execute(c.Request.Context(), req)
		log.Info("Remediation action completed",
			zap.String("action", req.Action),
			zap.String("status", string(result.Status)))

		c.JSON(http.StatusOK, result)
	}
}

func actionsHandler(dispatcher *remediation.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		actions := dispatcher.Actions()
		c.JSON(http.StatusOK, gin.H{
			"available_actions": actions,
			"total_count":       len(actions),
			"timestamp":         timestamp(),
		})
	}
}

func remediationStatusHandler(config *core.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":    "operational",
			"service":   "remediation",
			"version":   "1.0.0",
			"timestamp": timestamp(),
			"features": []string{
				"Automated remediation execution",
				"Action parameter validation",
				"Execution result tracking",
				"Error handling and logging",
			},
		}
		if config != nil {
			body["version"] = config.App.Version
			body["dry_run"] = config.Remediation.DryRun
			body["kubernetes_enabled"] = config.Kubernetes.Enabled
		}
		c.JSON(http.StatusOK, body)
	}
}
