package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	bursarydomain "github.com/opencampus/tuition/internal/bursary/domain"
)

type createBursaryRequest struct {
	SchoolID string `json:"school_id" binding:"required"`
	Name     string `json:"name" binding:"required"`

	CoverageType      bursarydomain.CoverageType `json:"coverage_type" binding:"required"`
	CoverageValue     string                     `json:"coverage_value" binding:"required"`
	MaxCoverageAmount *string                    `json:"max_coverage_amount"`

	EligibleGrades      []int      `json:"eligible_grades"`
	MaxRecipients       *int       `json:"max_recipients"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
}

func (s *Server) CreateBursary(c *gin.Context) {
	var req createBursaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	actor, err := actorID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	schoolID, err := parseIDField("school_id", req.SchoolID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	coverageValue, err := parseAmount("coverage_value", req.CoverageValue)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	maxCoverage, err := parseOptionalAmount("max_coverage_amount", req.MaxCoverageAmount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.bursarySvc.Create(c.Request.Context(), bursarydomain.CreateRequest{
		SchoolID:            schoolID,
		ActorID:             actor,
		Name:                strings.TrimSpace(req.Name),
		CoverageType:        req.CoverageType,
		CoverageValue:       coverageValue,
		MaxCoverageAmount:   maxCoverage,
		EligibleGrades:      req.EligibleGrades,
		MaxRecipients:       req.MaxRecipients,
		ApplicationDeadline: req.ApplicationDeadline,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBursaries(c *gin.Context) {
	schoolID, err := schoolIDFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.bursarySvc.List(c.Request.Context(), schoolID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBursaryByID(c *gin.Context) {
	schoolID, err := schoolIDFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.bursarySvc.GetByID(c.Request.Context(), schoolID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteBursary(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	schoolID, err := schoolIDFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.bursarySvc.Delete(c.Request.Context(), schoolID, c.Param("id"), actor); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
