package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/opencampus/tuition/internal/payment/domain"
)

type recordPaymentRequest struct {
	SchoolID     string `json:"school_id" binding:"required"`
	StudentFeeID string `json:"student_fee_id" binding:"required"`
	Amount       string `json:"amount" binding:"required"`
	Method       string `json:"method" binding:"required"`

	// PaymentDate defaults to the current day when omitted.
	PaymentDate *time.Time `json:"payment_date"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	var req recordPaymentRequest
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
	feeID, err := parseIDField("student_fee_id", req.StudentFeeID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	record := paymentdomain.RecordRequest{
		SchoolID:     schoolID,
		StudentFeeID: feeID,
		Amount:       amount,
		Method:       paymentdomain.PaymentMethod(strings.TrimSpace(req.Method)),
		ActorID:      actor,
	}
	if req.PaymentDate != nil {
		record.PaymentDate = *req.PaymentDate
	}

	resp, err := s.paymentSvc.RecordPayment(c.Request.Context(), record)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type refundPaymentRequest struct {
	SchoolID string `json:"school_id" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

func (s *Server) RefundPayment(c *gin.Context) {
	var req refundPaymentRequest
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

	resp, err := s.paymentSvc.RefundPayment(c.Request.Context(), paymentdomain.RefundRequest{
		SchoolID:  schoolID,
		PaymentID: c.Param("id"),
		Reason:    strings.TrimSpace(req.Reason),
		ActorID:   actor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPaymentByID(c *gin.Context) {
	schoolID, err := schoolIDFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.GetByID(c.Request.Context(), schoolID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPaymentsByFee(c *gin.Context) {
	schoolID, err := schoolIDFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	feeID, err := parseIDField("id", c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.ListByFee(c.Request.Context(), schoolID, feeID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
