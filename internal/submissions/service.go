package submissions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lucasferrin/directory-backend/internal/notifications"
	"github.com/lucasferrin/directory-backend/pkg/db/models"
	dbtypes "github.com/lucasferrin/directory-backend/pkg/db/types"
	"github.com/lucasferrin/directory-backend/pkg/enums"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
	"github.com/lucasferrin/directory-backend/pkg/logger"
)

// CompanyPromoter is the slice of the companies service the engine drives.
type CompanyPromoter interface {
	Promote(ctx context.Context, submissionID uuid.UUID) (uuid.UUID, error)
	SyncBilling(ctx context.Context, submission *models.Submission) error
}

// ServiceParams wires the status transition engine.
type ServiceParams struct {
	Repo      Repository
	Companies CompanyPromoter
	Notifier  notifications.Notifier
	Logger    *logger.Logger
}

// Service drives the submission lifecycle: intake, approval decisions, and
// payment-state reconciliation.
type Service struct {
	repo      Repository
	companies CompanyPromoter
	notifier  notifications.Notifier
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "submissions repo required")
	}
	if params.Companies == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "companies service required")
	}
	return &Service{
		repo:      params.Repo,
		companies: params.Companies,
		notifier:  params.Notifier,
		logg:      params.Logger,
	}, nil
}

// SubmitInput is the intake payload for a new application.
type SubmitInput struct {
	CompanyName  string
	Email        string
	Description  string
	Services     []string
	LogoURL      *string
	PlanType     enums.PlanType
	BillingCycle *enums.BillingCycle
}

// SubmitResult reports the created submission and whether the confirmation
// email went out.
type SubmitResult struct {
	ID        uuid.UUID `json:"id"`
	EmailSent bool      `json:"email_sent"`
}

// Submit creates a pending submission. Paid plans start with payment_status
// pending; free plans never carry a payment state.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	if input.CompanyName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name required")
	}
	if input.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if !input.PlanType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan type")
	}
	if input.PlanType.IsPaid() {
		if input.BillingCycle == nil || !input.BillingCycle.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing cycle required for paid plans")
		}
	} else if input.BillingCycle != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing cycle not allowed for free plans")
	}

	paymentStatus := enums.PaymentStatusNotApplicable
	if input.PlanType.IsPaid() {
		paymentStatus = enums.PaymentStatusPending
	}

	submission := &models.Submission{
		CompanyName:   input.CompanyName,
		Email:         input.Email,
		Description:   input.Description,
		Services:      dbtypes.StringList(input.Services),
		LogoURL:       input.LogoURL,
		PlanType:      input.PlanType,
		BillingCycle:  input.BillingCycle,
		Status:        enums.SubmissionStatusPending,
		PaymentStatus: paymentStatus,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, err
	}

	ctx = s.withSubmission(ctx, submission.ID)
	emailSent := s.notify(ctx, enums.NotificationKindSubmissionConfirmation, submission)

	return &SubmitResult{ID: submission.ID, EmailSent: emailSent}, nil
}

// StatusResult reports a decision write plus any promotion outcome.
type StatusResult struct {
	Status    enums.SubmissionStatus `json:"status"`
	CompanyID *uuid.UUID             `json:"company_id,omitempty"`
	EmailSent bool                   `json:"email_sent"`
	Message   string                 `json:"message,omitempty"`
}

// SetStatus persists an approval decision and promotes free-plan submissions
// synchronously. A promotion failure after a successful status write is
// reported in the result without rolling the status back.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status enums.SubmissionStatus) (*StatusResult, error) {
	if !status.IsDecision() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be approved or rejected")
	}

	submission, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = s.withSubmission(ctx, id)

	if submission.Status != status {
		if err := s.repo.Patch(ctx, id, map[string]any{"status": status}); err != nil {
			return nil, err
		}
		submission.Status = status
	}

	result := &StatusResult{Status: status}

	if status == enums.SubmissionStatusApproved {
		switch {
		case submission.ProcessedToCompany:
			result.CompanyID = submission.CompanyID
			result.Message = "submission already published"
		case submission.RequiresPayment():
			result.Message = "approved; awaiting payment before publication"
		default:
			companyID, promoteErr := s.companies.Promote(ctx, id)
			if promoteErr != nil {
				if s.logg != nil {
					s.logg.Error(ctx, "promotion failed after approval", promoteErr)
				}
				result.Message = "approved, but publishing failed; promotion will be retried"
			} else {
				result.CompanyID = &companyID
			}
		}
	}

	kind := enums.NotificationKindApproval
	if status == enums.SubmissionStatusRejected {
		kind = enums.NotificationKindRejection
	}
	result.EmailSent = s.notify(ctx, kind, submission)

	return result, nil
}

// PaymentResult reports a payment-state write plus any promotion outcome.
type PaymentResult struct {
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	CompanyID     *uuid.UUID          `json:"company_id,omitempty"`
	Promoted      bool                `json:"promoted"`
	Message       string              `json:"message,omitempty"`
}

// SetPaymentStatus persists a payment state and, when the submission is
// approved and paid, promotes it (or syncs billing fields onto the already
// published company). Repeated writes of the same state are idempotent.
func (s *Service) SetPaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (*PaymentResult, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	submission, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = s.withSubmission(ctx, id)

	if !submission.RequiresPayment() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "free-plan submissions do not take payment writes")
	}

	if submission.PaymentStatus != status {
		fields := map[string]any{"payment_status": status}
		if status == enums.PaymentStatusPaid {
			fields["last_payment_date"] = time.Now().UTC()
		}
		if err := s.repo.Patch(ctx, id, fields); err != nil {
			return nil, err
		}
		submission.PaymentStatus = status
	}

	result := &PaymentResult{PaymentStatus: status}

	if status != enums.PaymentStatusPaid {
		return result, nil
	}

	switch {
	case submission.ProcessedToCompany:
		result.CompanyID = submission.CompanyID
		if err := s.companies.SyncBilling(ctx, submission); err != nil && s.logg != nil {
			s.logg.Error(ctx, "billing sync onto company failed", err)
		}
	case submission.Status == enums.SubmissionStatusApproved:
		companyID, promoteErr := s.companies.Promote(ctx, id)
		if promoteErr != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "promotion failed after payment", promoteErr)
			}
			result.Message = "paid, but publishing failed; promotion will be retried"
		} else {
			result.CompanyID = &companyID
			result.Promoted = true
		}
	default:
		result.Message = fmt.Sprintf("paid while %s; publication waits for approval", submission.Status)
	}

	return result, nil
}

func (s *Service) notify(ctx context.Context, kind enums.NotificationKind, submission *models.Submission) bool {
	if s.notifier == nil {
		return false
	}
	err := s.notifier.Notify(ctx, kind, notifications.Recipient{
		CompanyName:  submission.CompanyName,
		Email:        submission.Email,
		PlanType:     submission.PlanType,
		BillingCycle: submission.BillingCycle,
		Services:     submission.Services,
		SubmittedAt:  submission.CreatedAt,
	})
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "notification_kind", string(kind)), "notification send failed")
		}
		return false
	}
	return true
}

func (s *Service) withSubmission(ctx context.Context, id uuid.UUID) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithSubmissionID(ctx, id.String())
}
