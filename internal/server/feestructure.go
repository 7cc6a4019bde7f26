package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	feestructuredomain "github.com/opencampus/tuition/internal/feestructure/domain"
	"github.com/shopspring/decimal"
)

type createFeeStructureRequest struct {
	SchoolID     string `json:"school_id" binding:"required"`
	GradeLevel   int    `json:"grade_level" binding:"required"`
	AcademicYear string `json:"academic_year" binding:"required"`

	YearlyAmount    string `json:"yearly_amount"`
	QuarterlyAmount string `json:"quarterly_amount"`
	MonthlyAmount   string `json:"monthly_amount"`

	YearlyDiscountPercent    string `json:"yearly_discount_percent"`
	QuarterlyDiscountPercent string `json:"quarterly_discount_percent"`
	MonthlyDiscountPercent   string `json:"monthly_discount_percent"`

	Sibling2DiscountPercent     string `json:"sibling2_discount_percent"`
	Sibling3DiscountPercent     string `json:"sibling3_discount_percent"`
	Sibling4PlusDiscountPercent string `json:"sibling4_plus_discount_percent"`

	ApplySiblingToAll bool `json:"apply_sibling_to_all"`
}

func (s *Server) CreateFeeStructure(c *gin.Context) {
	var req createFeeStructureRequest
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

	create := feestructuredomain.CreateRequest{
		SchoolID:          schoolID,
		ActorID:           actor,
		GradeLevel:        req.GradeLevel,
		AcademicYear:      strings.TrimSpace(req.AcademicYear),
		ApplySiblingToAll: req.ApplySiblingToAll,
	}

	amountFields := []struct {
		field string
		raw   string
		dst   *decimal.Decimal
	}{
		{"yearly_amount", req.YearlyAmount, &create.YearlyAmount},
		{"quarterly_amount", req.QuarterlyAmount, &create.QuarterlyAmount},
		{"monthly_amount", req.MonthlyAmount, &create.MonthlyAmount},
		{"yearly_discount_percent", req.YearlyDiscountPercent, &create.YearlyDiscountPercent},
		{"quarterly_discount_percent", req.QuarterlyDiscountPercent, &create.QuarterlyDiscountPercent},
		{"monthly_discount_percent", req.MonthlyDiscountPercent, &create.MonthlyDiscountPercent},
		{"sibling2_discount_percent", req.Sibling2DiscountPercent, &create.Sibling2DiscountPercent},
		{"sibling3_discount_percent", req.Sibling3DiscountPercent, &create.Sibling3DiscountPercent},
		{"sibling4_plus_discount_percent", req.Sibling4PlusDiscountPercent, &create.Sibling4PlusDiscountPercent},
	}
	for _, f := range amountFields {
		amount, err := parseAmount(f.field, f.raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		*f.dst = amount
	}

	resp, err := s.structureSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListFeeStructures(c *gin.Context) {
	schoolID, err := schoolIDFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.structureSvc.List(c.Request.Context(), schoolID, strings.TrimSpace(c.Query("academic_year")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetFeeStructureByID(c *gin.Context) {
	schoolID, err := schoolIDFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.structureSvc.GetByID(c.Request.Context(), schoolID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateFeeStructureRequest struct {
	SchoolID string `json:"school_id" binding:"required"`

	YearlyAmount    *string `json:"yearly_amount"`
	QuarterlyAmount *string `json:"quarterly_amount"`
	MonthlyAmount   *string `json:"monthly_amount"`

	YearlyDiscountPercent    *string `json:"yearly_discount_percent"`
	QuarterlyDiscountPercent *string `json:"quarterly_discount_percent"`
	MonthlyDiscountPercent   *string `json:"monthly_discount_percent"`

	Sibling2DiscountPercent     *string `json:"sibling2_discount_percent"`
	Sibling3DiscountPercent     *string `json:"sibling3_discount_percent"`
	Sibling4PlusDiscountPercent *string `json:"sibling4_plus_discount_percent"`

	ApplySiblingToAll *bool `json:"apply_sibling_to_all"`
	Active            *bool `json:"active"`
}

func (s *Server) UpdateFeeStructure(c *gin.Context) {
	var req updateFeeStructureRequest
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

	update := feestructuredomain.UpdateRequest{
		ID:                c.Param("id"),
		SchoolID:          schoolID,
		ActorID:           actor,
		ApplySiblingToAll: req.ApplySiblingToAll,
		Active:            req.Active,
	}

	optionalFields := []struct {
		field string
		raw   *string
		dst   **decimal.Decimal
	}{
		{"yearly_amount", req.YearlyAmount, &update.YearlyAmount},
		{"quarterly_amount", req.QuarterlyAmount, &update.QuarterlyAmount},
		{"monthly_amount", req.MonthlyAmount, &update.MonthlyAmount},
		{"yearly_discount_percent", req.YearlyDiscountPercent, &update.YearlyDiscountPercent},
		{"quarterly_discount_percent", req.QuarterlyDiscountPercent, &update.QuarterlyDiscountPercent},
		{"monthly_discount_percent", req.MonthlyDiscountPercent, &update.MonthlyDiscountPercent},
		{"sibling2_discount_percent", req.Sibling2DiscountPercent, &update.Sibling2DiscountPercent},
		{"sibling3_discount_percent", req.Sibling3DiscountPercent, &update.Sibling3DiscountPercent},
		{"sibling4_plus_discount_percent", req.Sibling4PlusDiscountPercent, &update.Sibling4PlusDiscountPercent},
	}
	for _, f := range optionalFields {
		amount, err := parseOptionalAmount(f.field, f.raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		*f.dst = amount
	}

	resp, err := s.structureSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteFeeStructure(c *gin.Context) {
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

	if err := s.structureSvc.Delete(c.Request.Context(), schoolID, c.Param("id"), actor); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
