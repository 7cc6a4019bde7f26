package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	bursarydomain "github.com/opencampus/tuition/internal/bursary/domain"
	feecalcdomain "github.com/opencampus/tuition/internal/feecalc/domain"
	paymentdomain "github.com/opencampus/tuition/internal/payment/domain"
	studentfeedomain "github.com/opencampus/tuition/internal/studentfee/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStudentFeeService struct {
	createErr  error
	createResp *studentfeedomain.StudentFee
	lastCreate studentfeedomain.CreateRequest
}

func (f *fakeStudentFeeService) Preview(ctx context.Context, req studentfeedomain.CreateRequest) (*feecalcdomain.Computation, error) {
	_ = ctx
	f.lastCreate = req
	return &feecalcdomain.Computation{
		SchoolID:       req.SchoolID,
		StudentID:      req.StudentID,
		TotalAmountDue: decimal.RequireFromString("810.00"),
	}, nil
}

func (f *fakeStudentFeeService) Create(ctx context.Context, req studentfeedomain.CreateRequest) (*studentfeedomain.StudentFee, error) {
	_ = ctx
	f.lastCreate = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResp, nil
}

func (f *fakeStudentFeeService) GetByID(ctx context.Context, schoolID snowflake.ID, id string) (*studentfeedomain.StudentFee, error) {
	_ = ctx
	_ = schoolID
	_ = id
	return nil, studentfeedomain.ErrFeeNotFound
}

func (f *fakeStudentFeeService) List(ctx context.Context, schoolID snowflake.ID, academicYear string) ([]studentfeedomain.StudentFee, error) {
	_ = ctx
	_ = schoolID
	_ = academicYear
	return nil, nil
}

func (f *fakeStudentFeeService) Waive(ctx context.Context, schoolID snowflake.ID, id string, actorID snowflake.ID) (*studentfeedomain.StudentFee, error) {
	_ = ctx
	_ = schoolID
	_ = id
	_ = actorID
	return nil, studentfeedomain.ErrFeeNotFound
}

func (f *fakeStudentFeeService) RemoveBursary(ctx context.Context, schoolID snowflake.ID, id string, actorID snowflake.ID) (*studentfeedomain.StudentFee, error) {
	_ = ctx
	_ = schoolID
	_ = id
	_ = actorID
	return nil, studentfeedomain.ErrNoBursary
}

type fakePaymentService struct {
	recordErr  error
	recordResp *paymentdomain.Payment
	lastRecord paymentdomain.RecordRequest
	marked     int64
}

func (f *fakePaymentService) RecordPayment(ctx context.Context, req paymentdomain.RecordRequest) (*paymentdomain.Payment, error) {
	_ = ctx
	f.lastRecord = req
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	return f.recordResp, nil
}

func (f *fakePaymentService) RefundPayment(ctx context.Context, req paymentdomain.RefundRequest) (*paymentdomain.Payment, error) {
	_ = ctx
	_ = req
	return nil, paymentdomain.ErrNotRefundable
}

func (f *fakePaymentService) GetByID(ctx context.Context, schoolID snowflake.ID, id string) (*paymentdomain.Payment, error) {
	_ = ctx
	_ = schoolID
	_ = id
	return nil, paymentdomain.ErrPaymentNotFound
}

func (f *fakePaymentService) ListByFee(ctx context.Context, schoolID, studentFeeID snowflake.ID) ([]paymentdomain.Payment, error) {
	_ = ctx
	_ = schoolID
	_ = studentFeeID
	return nil, nil
}

func (f *fakePaymentService) MarkOverdueBatch(ctx context.Context, schoolID snowflake.ID) (int64, error) {
	_ = ctx
	_ = schoolID
	return f.marked, nil
}

func newTestServer(t *testing.T, fees studentfeedomain.Service, payments paymentdomain.Service) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	genID, err := snowflake.NewNode(9)
	require.NoError(t, err)

	svc := &Server{
		engine:        NewEngine(zap.NewNop()),
		genID:         genID,
		studentFeeSvc: fees,
		paymentSvc:    payments,
	}
	svc.registerAPIRoutes()
	return svc
}

func doJSON(t *testing.T, svc *Server, method, path string, body any, actor string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(actorHeader, actor)
	}
	rec := httptest.NewRecorder()
	svc.Engine().ServeHTTP(rec, req)
	return rec
}

func TestRecordPaymentRoute(t *testing.T) {
	payments := &fakePaymentService{
		recordResp: &paymentdomain.Payment{
			ID:            snowflake.ID(77),
			ReceiptNumber: "RCPT-2025-0001",
			Amount:        decimal.RequireFromString("510.00"),
			Status:        paymentdomain.StatusCompleted,
		},
	}
	svc := newTestServer(t, &fakeStudentFeeService{}, payments)

	rec := doJSON(t, svc, http.MethodPost, "/v1/payments", gin.H{
		"school_id":      "101",
		"student_fee_id": "202",
		"amount":         "510.00",
		"method":         "cash",
	}, "42")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "RCPT-2025-0001")
	assert.Contains(t, rec.Body.String(), `"510"`)
	assert.True(t, payments.lastRecord.Amount.Equal(decimal.RequireFromString("510.00")))
	assert.Equal(t, snowflake.ID(42), payments.lastRecord.ActorID)
	assert.True(t, payments.lastRecord.PaymentDate.IsZero())
}

func TestRecordPaymentRequiresActor(t *testing.T) {
	svc := newTestServer(t, &fakeStudentFeeService{}, &fakePaymentService{})

	rec := doJSON(t, svc, http.MethodPost, "/v1/payments", gin.H{
		"school_id":      "101",
		"student_fee_id": "202",
		"amount":         "510.00",
		"method":         "cash",
	}, "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_actor_id")
}

func TestRecordPaymentRejectsMalformedAmount(t *testing.T) {
	svc := newTestServer(t, &fakeStudentFeeService{}, &fakePaymentService{})

	rec := doJSON(t, svc, http.MethodPost, "/v1/payments", gin.H{
		"school_id":      "101",
		"student_fee_id": "202",
		"amount":         "ten dollars",
		"method":         "cash",
	}, "42")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_amount")
}

func TestCreateStudentFeeConflict(t *testing.T) {
	fees := &fakeStudentFeeService{createErr: studentfeedomain.ErrFeeExists}
	svc := newTestServer(t, fees, &fakePaymentService{})

	due := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	rec := doJSON(t, svc, http.MethodPost, "/v1/student-fees", gin.H{
		"school_id":     "101",
		"student_id":    "303",
		"academic_year": "2025-2026",
		"frequency":     "yearly",
		"due_date":      due.Format(time.RFC3339),
	}, "42")

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "student_fee_already_exists")
	assert.Equal(t, "2025-2026", fees.lastCreate.AcademicYear)
}

func TestCreateStudentFeeEligibilityReasonsItemized(t *testing.T) {
	fees := &fakeStudentFeeService{createErr: &bursarydomain.EligibilityError{
		Reasons: []string{
			bursarydomain.ReasonDeadlinePassed,
			bursarydomain.ReasonGradeNotEligible,
		},
	}}
	svc := newTestServer(t, fees, &fakePaymentService{})

	due := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	rec := doJSON(t, svc, http.MethodPost, "/v1/student-fees", gin.H{
		"school_id":     "101",
		"student_id":    "303",
		"academic_year": "2025-2026",
		"frequency":     "yearly",
		"bursary_id":    "404",
		"due_date":      due.Format(time.RFC3339),
	}, "42")

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error.Type)
	require.Len(t, resp.Error.Errors, 2)
	assert.Equal(t, bursarydomain.ReasonDeadlinePassed, resp.Error.Errors[0].Message)
	assert.Equal(t, bursarydomain.ReasonGradeNotEligible, resp.Error.Errors[1].Message)
}

func TestGetStudentFeeNotFound(t *testing.T) {
	svc := newTestServer(t, &fakeStudentFeeService{}, &fakePaymentService{})

	rec := doJSON(t, svc, http.MethodGet, "/v1/student-fees/123?school_id=101", nil, "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestMarkOverdueRoute(t *testing.T) {
	payments := &fakePaymentService{marked: 3}
	svc := newTestServer(t, &fakeStudentFeeService{}, payments)

	rec := doJSON(t, svc, http.MethodPost, "/v1/schools/101/mark-overdue", nil, "42")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"marked_overdue":3`)
}

func TestHealthz(t *testing.T) {
	svc := newTestServer(t, &fakeStudentFeeService{}, &fakePaymentService{})

	rec := doJSON(t, svc, http.MethodGet, "/healthz", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
