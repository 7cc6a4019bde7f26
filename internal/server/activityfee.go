package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	activityfeedomain "github.com/opencampus/tuition/internal/activityfee/domain"
)

type createActivityFeeRequest struct {
	SchoolID     string `json:"school_id" binding:"required"`
	ActivityID   string `json:"activity_id" binding:"required"`
	AcademicYear string `json:"academic_year" binding:"required"`
	Name         string `json:"name" binding:"required"`
	FeeAmount    string `json:"fee_amount" binding:"required"`
	Frequency    string `json:"frequency" binding:"required"`
	AllowProrate *bool  `json:"allow_prorate"`
}

func (s *Server) CreateActivityFee(c *gin.Context) {
	var req createActivityFeeRequest
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
	activityID, err := parseIDField("activity_id", req.ActivityID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	amount, err := parseAmount("fee_amount", req.FeeAmount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	allowProrate := true
	if req.AllowProrate != nil {
		allowProrate = *req.AllowProrate
	}

	resp, err := s.activityFeeSvc.Create(c.Request.Context(), activityfeedomain.CreateRequest{
		SchoolID:     schoolID,
		ActivityID:   activityID,
		AcademicYear: strings.TrimSpace(req.AcademicYear),
		Name:         strings.TrimSpace(req.Name),
		FeeAmount:    amount,
		Frequency:    activityfeedomain.FeeFrequency(strings.TrimSpace(req.Frequency)),
		AllowProrate: allowProrate,
		ActorID:      actor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListActivityFees(c *gin.Context) {
	schoolID, err := schoolIDFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filter := activityfeedomain.ListFilter{
		SchoolID:     schoolID,
		AcademicYear: strings.TrimSpace(c.Query("academic_year")),
		ActiveOnly:   c.Query("active") == "true",
	}
	if raw := strings.TrimSpace(c.Query("activity_id")); raw != "" {
		activityID, err := parseIDField("activity_id", raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		filter.ActivityID = &activityID
	}

	resp, err := s.activityFeeSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetActivityFeeByID(c *gin.Context) {
	resp, err := s.activityFeeSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateActivityFeeRequest struct {
	Name         *string `json:"name"`
	FeeAmount    *string `json:"fee_amount"`
	Frequency    *string `json:"frequency"`
	AllowProrate *bool   `json:"allow_prorate"`
	Active       *bool   `json:"active"`
}

func (s *Server) UpdateActivityFee(c *gin.Context) {
	var req updateActivityFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	actor, err := actorID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	amount, err := parseOptionalAmount("fee_amount", req.FeeAmount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	update := activityfeedomain.UpdateRequest{
		Name:         req.Name,
		FeeAmount:    amount,
		AllowProrate: req.AllowProrate,
		Active:       req.Active,
		ActorID:      actor,
	}
	if req.Frequency != nil {
		freq := activityfeedomain.FeeFrequency(strings.TrimSpace(*req.Frequency))
		update.Frequency = &freq
	}

	resp, err := s.activityFeeSvc.Update(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteActivityFee(c *gin.Context) {
	actor, err := actorID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.activityFeeSvc.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
