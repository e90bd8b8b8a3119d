package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/namansh70747/quantum-brain/internal/entanglement"
	"github.com/namansh70747/quantum-brain/internal/optimizer"
)

func analyzeHandler(cycler Cycler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var snapshot entanglement.Snapshot
		if err := c.ShouldBindJSON(&snapshot); err != nil {
			errorJSON(c, http.StatusBadRequest, "body must map metric names to numbers")
			return
		}
		if len(snapshot) == 0 {
			errorJSON(c, http.StatusBadRequest, "snapshot cannot be empty")
			return
		}

		c.JSON(http.StatusOK, cycler.RunCycle(c.Request.Context(), snapshot))
	}
}

func knownCause(model *optimizer.Model, cause string) bool {
	for _, known := range model.Causes() {
		if known == cause {
			return true
		}
	}
	return false
}

func solutionsHandler(model *optimizer.Model) gin.HandlerFunc {
	return func(c *gin.Context) {
		cause := c.Param("cause")

		limit, err := strconv.Atoi(c.DefaultQuery("limit", "3"))
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "limit must be an integer")
			return
		}

		if !knownCause(model, cause) {
			errorJSON(c, http.StatusNotFound, "no solutions for cause: "+cause)
			return
		}

		solutions := model.SolutionAlternatives(cause, limit)
		c.JSON(http.StatusOK, gin.H{
			"cause":     cause,
			"solutions": solutions,
			"count":     len(solutions),
		})
	}
}

func optimalSolutionHandler(model *optimizer.Model) gin.HandlerFunc {
	return func(c *gin.Context) {
		cause := c.Param("cause")

		solution := model.FindOptimalSolution(cause)
		if solution == nil {
			errorJSON(c, http.StatusNotFound, "no solutions for cause: "+cause)
			return
		}

		c.JSON(http.StatusOK, solution)
	}
}
