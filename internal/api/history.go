package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const maxLimit = 500

func limitParam(c *gin.Context, def int) (int, bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		errorJSON(c, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, true
}

func durationParam(c *gin.Context, def string) (time.Duration, bool) {
	duration, err := time.ParseDuration(c.DefaultQuery("duration", def))
	if err != nil || duration <= 0 {
		errorJSON(c, http.StatusBadRequest, "Invalid duration format")
		return 0, false
	}
	return duration, true
}

func recentAnalysesHandler(history History) gin.HandlerFunc {
	return func(c *gin.Context) {
		if history == nil {
			storageDisabled(c)
			return
		}
		limit, ok := limitParam(c, 20)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		analyses, err := history.GetRecentAnalyses(ctx, limit)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"analyses": analyses,
			"count":    len(analyses),
		})
	}
}

func recentRemediationsHandler(history History) gin.HandlerFunc {
	return func(c *gin.Context) {
		if history == nil {
			storageDisabled(c)
			return
		}
		limit, ok := limitParam(c, 20)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		remediations, err := history.GetRecentRemediations(ctx, limit)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"remediations": remediations,
			"count":        len(remediations),
		})
	}
}

func remediationStatsHandler(history History) gin.HandlerFunc {
	return func(c *gin.Context) {
		if history == nil {
			storageDisabled(c)
			return
		}
		duration, ok := durationParam(c, "24h")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		stats, err := history.GetRemediationStats(ctx, duration)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

func metricStatsHandler(history History, defaultService string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if history == nil {
			storageDisabled(c)
			return
		}
		metricName := c.Param("metric")
		service := c.DefaultQuery("service", defaultService)
		duration, ok := durationParam(c, "1h")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		stats, err := history.GetMetricStatistics(ctx, service, metricName, duration)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

func metricSamplesHandler(history History, defaultService string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if history == nil {
			storageDisabled(c)
			return
		}
		metricName := c.Param("metric")
		service := c.DefaultQuery("service", defaultService)
		duration, ok := durationParam(c, "1h")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		samples, err := history.GetRecentMetrics(ctx, service, metricName, duration)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"service_name": service,
			"metric_name":  metricName,
			"samples":      samples,
			"count":        len(samples),
		})
	}
}
