package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) MarkOverdue(c *gin.Context) {
	if _, err := actorID(c); err != nil {
		AbortWithError(c, err)
		return
	}
	schoolID, err := schoolIDFromPath(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	marked, err := s.paymentSvc.MarkOverdueBatch(c.Request.Context(), schoolID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"marked_overdue": marked}})
}

func (s *Server) GetStatistics(c *gin.Context) {
	schoolID, err := schoolIDFromPath(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.statisticsSvc.Collect(c.Request.Context(), schoolID, strings.TrimSpace(c.Query("academic_year")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
