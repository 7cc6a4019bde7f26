package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	feestructuredomain "github.com/opencampus/tuition/internal/feestructure/domain"
	studentfeedomain "github.com/opencampus/tuition/internal/studentfee/domain"
)

type createStudentFeeRequest struct {
	SchoolID     string `json:"school_id" binding:"required"`
	StudentID    string `json:"student_id" binding:"required"`
	AcademicYear string `json:"academic_year" binding:"required"`
	Frequency    string `json:"frequency" binding:"required"`

	BursaryID *string `json:"bursary_id"`

	MaterialFees string `json:"material_fees"`
	OtherFees    string `json:"other_fees"`

	// DueDate may be omitted for previews; Create rejects a zero value.
	DueDate *time.Time `json:"due_date"`
}

func (s *Server) buildStudentFeeRequest(c *gin.Context) (studentfeedomain.CreateRequest, error) {
	var req createStudentFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return studentfeedomain.CreateRequest{}, bindingError(err)
	}

	actor, err := actorID(c)
	if err != nil {
		return studentfeedomain.CreateRequest{}, err
	}
	schoolID, err := parseIDField("school_id", req.SchoolID)
	if err != nil {
		return studentfeedomain.CreateRequest{}, err
	}
	studentID, err := parseIDField("student_id", req.StudentID)
	if err != nil {
		return studentfeedomain.CreateRequest{}, err
	}
	materialFees, err := parseAmount("material_fees", req.MaterialFees)
	if err != nil {
		return studentfeedomain.CreateRequest{}, err
	}
	otherFees, err := parseAmount("other_fees", req.OtherFees)
	if err != nil {
		return studentfeedomain.CreateRequest{}, err
	}

	create := studentfeedomain.CreateRequest{
		SchoolID:     schoolID,
		StudentID:    studentID,
		AcademicYear: strings.TrimSpace(req.AcademicYear),
		Frequency:    feestructuredomain.PaymentFrequency(strings.TrimSpace(req.Frequency)),
		MaterialFees: materialFees,
		OtherFees:    otherFees,
		ActorID:      actor,
	}
	if req.DueDate != nil {
		create.DueDate = *req.DueDate
	}
	if req.BursaryID != nil {
		bursaryID, err := parseIDField("bursary_id", *req.BursaryID)
		if err != nil {
			return studentfeedomain.CreateRequest{}, err
		}
		create.BursaryID = &bursaryID
	}

	return create, nil
}

func (s *Server) PreviewStudentFee(c *gin.Context) {
	create, err := s.buildStudentFeeRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.studentFeeSvc.Preview(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateStudentFee(c *gin.Context) {
	create, err := s.buildStudentFeeRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.studentFeeSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListStudentFees(c *gin.Context) {
	schoolID, err := schoolIDFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.studentFeeSvc.List(c.Request.Context(), schoolID, strings.TrimSpace(c.Query("academic_year")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetStudentFeeByID(c *gin.Context) {
	schoolID, err := schoolIDFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.studentFeeSvc.GetByID(c.Request.Context(), schoolID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) WaiveStudentFee(c *gin.Context) {
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

	resp, err := s.studentFeeSvc.Waive(c.Request.Context(), schoolID, c.Param("id"), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveStudentFeeBursary(c *gin.Context) {
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

	resp, err := s.studentFeeSvc.RemoveBursary(c.Request.Context(), schoolID, c.Param("id"), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
