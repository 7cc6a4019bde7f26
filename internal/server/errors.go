package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	activityfeedomain "github.com/opencampus/tuition/internal/activityfee/domain"
	bursarydomain "github.com/opencampus/tuition/internal/bursary/domain"
	directorydomain "github.com/opencampus/tuition/internal/directory/domain"
	feecalcdomain "github.com/opencampus/tuition/internal/feecalc/domain"
	feestructuredomain "github.com/opencampus/tuition/internal/feestructure/domain"
	paymentdomain "github.com/opencampus/tuition/internal/payment/domain"
	studentfeedomain "github.com/opencampus/tuition/internal/studentfee/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

// ErrorHandlingMiddleware converts errors collected on the gin context into
// a single JSON error body after the handler chain finishes.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// bindingError translates a gin / validator binding failure into the
// itemized validation shape, one entry per failed field.
func bindingError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return invalidRequestError()
	}

	out := &ValidationErrors{}
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Code:    "invalid_" + field,
			Message: "field " + field + " failed validation rule " + fe.Tag(),
		})
	}
	return out
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if eErr := asEligibilityError(err); eErr != nil {
		payload := errorPayload{
			Type:    "validation_error",
			Message: "bursary eligibility check failed",
		}
		for _, reason := range eErr.Reasons {
			payload.Errors = append(payload.Errors, ValidationError{
				Field:   "bursary_id",
				Code:    "bursary_not_eligible",
				Message: reason,
			})
		}
		return http.StatusBadRequest, payload
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isStateError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "state_error",
			Message: err.Error(),
		}
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "invalid request",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) {
		return vErr
	}
	return nil
}

func asEligibilityError(err error) *bursarydomain.EligibilityError {
	var eErr *bursarydomain.EligibilityError
	if errors.As(err, &eErr) {
		return eErr
	}
	return nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, feestructuredomain.ErrStructureNotFound),
		errors.Is(err, bursarydomain.ErrBursaryNotFound),
		errors.Is(err, activityfeedomain.ErrActivityFeeNotFound),
		errors.Is(err, studentfeedomain.ErrFeeNotFound),
		errors.Is(err, paymentdomain.ErrPaymentNotFound),
		errors.Is(err, directorydomain.ErrStudentNotFound),
		errors.Is(err, ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, bursarydomain.ErrCapacityExhausted),
		errors.Is(err, studentfeedomain.ErrFeeExists),
		errors.Is(err, paymentdomain.ErrConflict),
		errors.Is(err, ErrConflict):
		return true
	default:
		return false
	}
}

func isStateError(err error) bool {
	switch {
	case errors.Is(err, paymentdomain.ErrNotRefundable),
		errors.Is(err, bursarydomain.ErrHasRecipients),
		errors.Is(err, studentfeedomain.ErrNoBursary):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	return isFeeStructureValidationError(err) ||
		isBursaryValidationError(err) ||
		isActivityFeeValidationError(err) ||
		isStudentFeeValidationError(err) ||
		isPaymentValidationError(err) ||
		errors.Is(err, feecalcdomain.ErrNegativeFees)
}

func isFeeStructureValidationError(err error) bool {
	switch {
	case errors.Is(err, feestructuredomain.ErrDuplicateStructure),
		errors.Is(err, feestructuredomain.ErrInvalidGradeLevel),
		errors.Is(err, feestructuredomain.ErrInvalidYear),
		errors.Is(err, feestructuredomain.ErrInvalidAmount),
		errors.Is(err, feestructuredomain.ErrInvalidDiscount),
		errors.Is(err, feestructuredomain.ErrInvalidFrequency),
		errors.Is(err, feestructuredomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isBursaryValidationError(err error) bool {
	switch {
	case errors.Is(err, bursarydomain.ErrInvalidCoverage),
		errors.Is(err, bursarydomain.ErrInvalidName),
		errors.Is(err, bursarydomain.ErrInvalidCapacity),
		errors.Is(err, bursarydomain.ErrInvalidGrades),
		errors.Is(err, bursarydomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isActivityFeeValidationError(err error) bool {
	switch {
	case errors.Is(err, activityfeedomain.ErrDuplicateActivityFee),
		errors.Is(err, activityfeedomain.ErrInvalidActivityFeeID),
		errors.Is(err, activityfeedomain.ErrInvalidAmount),
		errors.Is(err, activityfeedomain.ErrInvalidFrequency),
		errors.Is(err, activityfeedomain.ErrInvalidName):
		return true
	default:
		return false
	}
}

func isStudentFeeValidationError(err error) bool {
	switch {
	case errors.Is(err, studentfeedomain.ErrInvalidFeeID),
		errors.Is(err, studentfeedomain.ErrInvalidDueDate):
		return true
	default:
		return false
	}
}

func isPaymentValidationError(err error) bool {
	switch {
	case errors.Is(err, paymentdomain.ErrInvalidPaymentID),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrInvalidMethod):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "invalid_request"
	}
	return msg
}

func validationErrorField(code string) string {
	field := strings.TrimPrefix(code, "invalid_")
	field = strings.TrimPrefix(field, "duplicate_")
	if field == "" {
		return "request"
	}
	return field
}

func validationErrorMessage(code string) string {
	if msg, ok := validationMessages[code]; ok {
		return msg
	}
	return strings.ReplaceAll(code, "_", " ")
}

var validationMessages = map[string]string{
	"duplicate_fee_structure":     "an active fee structure already exists for this grade and academic year",
	"invalid_grade_level":         "grade level must be between 1 and 7",
	"invalid_academic_year":       "academic year must be two consecutive years formatted YYYY-YYYY",
	"invalid_amount":              "amounts must be zero or greater",
	"invalid_discount_percent":    "discount percentages must be between 0 and 100",
	"invalid_payment_frequency":   "payment frequency must be yearly, quarterly or monthly",
	"invalid_coverage":            "coverage must be a valid type with a value between 0 and 100 for percentages",
	"invalid_bursary_name":        "bursary name is required",
	"invalid_max_recipients":      "max recipients must be at least 1 when set",
	"invalid_eligible_grades":     "eligible grades must all be between 1 and 7",
	"activity_fee_already_exists": "an activity fee already exists for this activity and academic year",
	"invalid_fee_amount":          "fee amount must be zero or greater",
	"invalid_fee_frequency":       "fee frequency must be one_time, yearly, quarterly or monthly",
	"invalid_activity_fee_name":   "activity fee name is required",
	"invalid_due_date":            "due date is required",
	"invalid_payment_amount":      "payment amount must be greater than zero",
	"invalid_payment_method":      "payment method must be cash, bank_transfer, mobile_money, card or cheque",
	"negative_fee_component":      "material and other fees must be zero or greater",
}
