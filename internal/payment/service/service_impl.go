package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/opencampus/tuition/internal/audit/domain"
	"github.com/opencampus/tuition/internal/clock"
	"github.com/opencampus/tuition/internal/observability/metrics"
	paymentdomain "github.com/opencampus/tuition/internal/payment/domain"
	studentfeedomain "github.com/opencampus/tuition/internal/studentfee/domain"
	"github.com/opencampus/tuition/pkg/db"
	"github.com/opencampus/tuition/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	AuditSvc auditdomain.Service `optional:"true"`
	Metrics  *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	metrics *metrics.Metrics

	genID    *snowflake.Node
	repo     repository.Repository[paymentdomain.Payment]
	auditSvc auditdomain.Service
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("payment.service"),
		clock:   p.Clock,
		metrics: p.Metrics,

		genID:    p.GenID,
		repo:     repository.ProvideStore[paymentdomain.Payment](p.DB),
		auditSvc: p.AuditSvc,
	}
}

// RecordPayment appends a completed ledger entry and settles it against the
// fee in one transaction: the fee row stays locked for the full
// read-modify-write so concurrent payments never see a stale balance.
func (s *Service) RecordPayment(ctx context.Context, req paymentdomain.RecordRequest) (*paymentdomain.Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, paymentdomain.ErrInvalidAmount
	}
	if !req.Method.Valid() {
		return nil, paymentdomain.ErrInvalidMethod
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = clock.Today(s.clock)
	}

	var recorded *paymentdomain.Payment
	err := db.TransactionWithRetry(ctx, s.db, func(tx *gorm.DB) error {
		fee, err := s.loadFeeForUpdate(tx, req.SchoolID, req.StudentFeeID)
		if err != nil {
			return err
		}

		receipt, err := s.nextReceiptNumber(tx, req.SchoolID, paymentDate.Year())
		if err != nil {
			return err
		}

		now := s.clock.Now()
		payment := paymentdomain.Payment{
			ID:           s.genID.Generate(),
			SchoolID:     req.SchoolID,
			StudentFeeID: fee.ID,

			Amount:        req.Amount,
			Method:        req.Method,
			ReceiptNumber: receipt,
			Status:        paymentdomain.StatusCompleted,
			PaymentDate:   paymentDate,

			RecordedBy: req.ActorID,
			UpdatedBy:  req.ActorID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.Create(&payment).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				return paymentdomain.ErrConflict
			}
			return err
		}

		fee.TotalPaid = fee.TotalPaid.Add(req.Amount)
		fee.LastPaymentDate = &paymentDate
		fee.RecomputeBalance()
		fee.RecomputeStatus()
		fee.UpdatedBy = req.ActorID
		fee.UpdatedAt = now
		if err := tx.Save(fee).Error; err != nil {
			return err
		}

		recorded = &payment
		return nil
	})
	if err != nil {
		if db.IsRetryableTxErr(err) {
			return nil, paymentdomain.ErrConflict
		}
		return nil, err
	}

	s.metrics.RecordPayment()
	s.emitAudit(ctx, req.SchoolID, req.ActorID, "payment.recorded", recorded)
	return recorded, nil
}

// RefundPayment flips a completed payment to refunded and takes its amount
// back out of the fee's totals, recomputing balance and status.
func (s *Service) RefundPayment(ctx context.Context, req paymentdomain.RefundRequest) (*paymentdomain.Payment, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.PaymentID))
	if err != nil {
		return nil, paymentdomain.ErrInvalidPaymentID
	}

	var refunded *paymentdomain.Payment
	err = db.TransactionWithRetry(ctx, s.db, func(tx *gorm.DB) error {
		var payment paymentdomain.Payment
		err := db.ForUpdate(tx).
			Where("id = ? AND school_id = ?", id, req.SchoolID).
			First(&payment).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return paymentdomain.ErrPaymentNotFound
			}
			return err
		}
		if payment.Status != paymentdomain.StatusCompleted {
			return paymentdomain.ErrNotRefundable
		}

		fee, err := s.loadFeeForUpdate(tx, req.SchoolID, payment.StudentFeeID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		reason := strings.TrimSpace(req.Reason)
		payment.Status = paymentdomain.StatusRefunded
		payment.RefundReason = &reason
		payment.RefundedAt = &now
		payment.UpdatedBy = req.ActorID
		payment.UpdatedAt = now
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		fee.TotalPaid = fee.TotalPaid.Sub(payment.Amount)
		if fee.TotalPaid.IsNegative() {
			fee.TotalPaid = decimal.Zero
		}
		fee.RecomputeBalance()
		fee.RecomputeStatus()
		fee.UpdatedBy = req.ActorID
		fee.UpdatedAt = now
		if err := tx.Save(fee).Error; err != nil {
			return err
		}

		refunded = &payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRefund()
	s.emitAudit(ctx, req.SchoolID, req.ActorID, "payment.refunded", refunded)
	return refunded, nil
}

func (s *Service) GetByID(ctx context.Context, schoolID snowflake.ID, rawID string) (*paymentdomain.Payment, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil {
		return nil, paymentdomain.ErrInvalidPaymentID
	}
	payment, err := s.repo.FindOne(ctx, &paymentdomain.Payment{ID: id, SchoolID: schoolID})
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, paymentdomain.ErrPaymentNotFound
	}
	return payment, nil
}

func (s *Service) ListByFee(ctx context.Context, schoolID, studentFeeID snowflake.ID) ([]paymentdomain.Payment, error) {
	var payments []paymentdomain.Payment
	err := s.db.WithContext(ctx).
		Where("school_id = ? AND student_fee_id = ?", schoolID, studentFeeID).
		Order("payment_date asc, id asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// MarkOverdueBatch is a single guarded UPDATE, so repeated sweeps settle on
// the same outcome.
func (s *Service) MarkOverdueBatch(ctx context.Context, schoolID snowflake.ID) (int64, error) {
	today := clock.Today(s.clock)

	result := s.db.WithContext(ctx).
		Model(&studentfeedomain.StudentFee{}).
		Where("school_id = ? AND status IN ? AND due_date < ? AND balance_due > 0",
			schoolID,
			[]studentfeedomain.FeeStatus{studentfeedomain.StatusPending, studentfeedomain.StatusPartial},
			today,
		).
		Updates(map[string]any{
			"status":     studentfeedomain.StatusOverdue,
			"updated_at": s.clock.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		s.log.Info("overdue sweep",
			zap.String("school_id", schoolID.String()),
			zap.Int64("fees_marked", result.RowsAffected),
		)
	}
	s.metrics.RecordOverdue(int(result.RowsAffected))
	return result.RowsAffected, nil
}

func (s *Service) loadFeeForUpdate(tx *gorm.DB, schoolID, feeID snowflake.ID) (*studentfeedomain.StudentFee, error) {
	var fee studentfeedomain.StudentFee
	err := db.ForUpdate(tx).Where("id = ? AND school_id = ?", feeID, schoolID).First(&fee).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, studentfeedomain.ErrFeeNotFound
		}
		return nil, err
	}
	return &fee, nil
}

// nextReceiptNumber claims the next value of the school+year sequence under
// a row lock. The sequence row is created on first use; the idempotent
// insert keeps concurrent first payments from racing the bootstrap.
func (s *Service) nextReceiptNumber(tx *gorm.DB, schoolID snowflake.ID, year int) (string, error) {
	seed := paymentdomain.ReceiptSequence{
		SchoolID:  schoolID,
		Year:      year,
		NextValue: 1,
		UpdatedAt: s.clock.Now(),
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return "", err
	}

	var seq paymentdomain.ReceiptSequence
	err := db.ForUpdate(tx).
		Where("school_id = ? AND year = ?", schoolID, year).
		First(&seq).Error
	if err != nil {
		return "", err
	}

	err = tx.Model(&paymentdomain.ReceiptSequence{}).
		Where("school_id = ? AND year = ?", schoolID, year).
		Updates(map[string]any{
			"next_value": gorm.Expr("next_value + 1"),
			"updated_at": s.clock.Now(),
		}).Error
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("RCPT-%d-%04d", year, seq.NextValue), nil
}

func (s *Service) emitAudit(ctx context.Context, schoolID, actorID snowflake.ID, action string, payment *paymentdomain.Payment) {
	if s.auditSvc == nil || payment == nil {
		return
	}
	targetID := payment.ID.String()
	_ = s.auditSvc.AuditLog(ctx, &schoolID, actorID, action, "payment", &targetID, map[string]any{
		"student_fee_id": payment.StudentFeeID.String(),
		"amount":         payment.Amount.String(),
		"receipt_number": payment.ReceiptNumber,
		"status":         string(payment.Status),
	})
}
