package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/namansh70747/quantum-brain/internal/broadcast"
)

func monitoringStatusHandler(hub *broadcast.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":             "operational",
			"active_connections": hub.Count(),
			"connection_info":    hub.Connections(),
			"timestamp":          timestamp(),
			"features": []string{
				"Real-time WebSocket communication",
				"Connection management",
				"Message broadcasting",
				"System status updates",
			},
		})
	}
}

func broadcastHandler(hub *broadcast.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var message map[string]any
		if err := c.ShouldBindJSON(&message); err != nil {
			errorJSON(c, http.StatusBadRequest, "request body must be a JSON object")
			return
		}

		err := hub.Publish(c.Request.Context(), gin.H{
			"type":      "admin_broadcast",
			"message":   message,
			"timestamp": timestamp(),
		})
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, fmt.Sprintf("Broadcast failed: %v", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "success",
			"message":    "Broadcast sent successfully",
			"recipients": hub.Count(),
			"timestamp":  timestamp(),
		})
	}
}

type systemStatusRequest struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details"`
}

// systemStatusHandler takes the status from ?status= or the JSON body.
func systemStatusHandler(hub *broadcast.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req systemStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			errorJSON(c, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if status := c.Query("status"); status != "" {
			req.Status = status
		}
		if req.Status == "" {
			errorJSON(c, http.StatusBadRequest, "status is required")
			return
		}

		if err := hub.BroadcastSystemStatus(c.Request.Context(), req.Status, req.Details); err != nil {
			errorJSON(c, http.StatusInternalServerError, fmt.Sprintf("Status update failed: %v", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "success",
			"message":    fmt.Sprintf("System status updated to: %s", req.Status),
			"recipients": hub.Count(),
			"timestamp":  timestamp(),
		})
	}
}
