package companies

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/lucasferrin/directory-backend/pkg/db"
	"github.com/lucasferrin/directory-backend/pkg/db/models"
	"github.com/lucasferrin/directory-backend/pkg/enums"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
	"github.com/lucasferrin/directory-backend/pkg/logger"
	"github.com/lucasferrin/directory-backend/pkg/metrics"
)

const slugSuffixLength = 5

type submissionStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	Patch(ctx context.Context, id uuid.UUID, fields map[string]any) error
}

// ServiceParams wires the companies service.
type ServiceParams struct {
	Repo        Repository
	Submissions submissionStore
	Metrics     *metrics.WebhookMetrics
	Logger      *logger.Logger
}

// Service publishes approved submissions as directory companies and serves
// the public read surface.
type Service struct {
	repo        Repository
	submissions submissionStore
	metrics     *metrics.WebhookMetrics
	logg        *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "companies repo required")
	}
	if params.Submissions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "submissions store required")
	}
	return &Service{
		repo:        params.Repo,
		submissions: params.Submissions,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// Promote publishes the submission as a company exactly once. Safe to call
// from concurrent webhook deliveries: a processed guard, a reverse lookup by
// submission id, and the unique submission_id index each stop a duplicate.
func (s *Service) Promote(ctx context.Context, submissionID uuid.UUID) (uuid.UUID, error) {
	submission, err := s.submissions.Get(ctx, submissionID)
	if err != nil {
		return uuid.Nil, err
	}

	if submission.ProcessedToCompany && submission.CompanyID != nil {
		return *submission.CompanyID, nil
	}

	if !submission.ReadyForPromotion() {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeStateConflict, "submission not ready for publication")
	}

	// A crash between create and the submission patch leaves an orphaned
	// company row; the reverse lookup recovers it instead of creating twice.
	if existing, err := s.repo.FindBySubmissionID(ctx, submissionID); err != nil {
		return uuid.Nil, err
	} else if existing != nil {
		return existing.ID, s.markProcessed(ctx, submissionID, existing.ID)
	}

	companySlug, err := s.resolveSlug(ctx, submission.CompanyName)
	if err != nil {
		return uuid.Nil, err
	}

	company := buildCompany(submission, companySlug)
	if err := s.repo.Create(ctx, company); err != nil {
		if !db.IsUniqueViolation(err, "idx_companies_submission_id") {
			return uuid.Nil, err
		}
		// Lost the create race; the winner's row is the company.
		winner, lookupErr := s.repo.FindBySubmissionID(ctx, submissionID)
		if lookupErr != nil {
			return uuid.Nil, lookupErr
		}
		if winner == nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create company")
		}
		company = winner
	}

	if err := s.markProcessed(ctx, submissionID, company.ID); err != nil {
		return uuid.Nil, err
	}

	if s.metrics != nil {
		s.metrics.IncPromotion()
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "company_id", company.ID.String()), "submission published")
	}
	return company.ID, nil
}

// SyncBilling replays the submission's billing columns onto its published
// company so repeated webhook deliveries keep both rows aligned.
func (s *Service) SyncBilling(ctx context.Context, submission *models.Submission) error {
	if submission == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "submission required")
	}

	company, err := s.companyForSubmission(ctx, submission)
	if err != nil {
		return err
	}
	if company == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no company published for submission")
	}

	return s.repo.Patch(ctx, company.ID, map[string]any{
		"payment_status":         submission.PaymentStatus,
		"stripe_customer_id":     submission.StripeCustomerID,
		"stripe_subscription_id": submission.StripeSubscriptionID,
		"subscription_status":    submission.SubscriptionStatus,
		"current_period_end":     submission.CurrentPeriodEnd,
		"last_payment_date":      submission.LastPaymentDate,
	})
}

// List returns active listings, optionally only featured ones.
func (s *Service) List(ctx context.Context, featuredOnly bool) ([]models.Company, error) {
	return s.repo.List(ctx, featuredOnly)
}

func (s *Service) companyForSubmission(ctx context.Context, submission *models.Submission) (*models.Company, error) {
	if submission.CompanyID != nil {
		company, err := s.repo.Get(ctx, *submission.CompanyID)
		if err == nil {
			return company, nil
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
	}
	return s.repo.FindBySubmissionID(ctx, submission.ID)
}

func (s *Service) markProcessed(ctx context.Context, submissionID, companyID uuid.UUID) error {
	// processed flag and company reference travel in one patch
	return s.submissions.Patch(ctx, submissionID, map[string]any{
		"processed_to_company": true,
		"company_id":           companyID,
	})
}

func (s *Service) resolveSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "company"
	}

	existing, err := s.repo.FindBySlug(ctx, base)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return base, nil
	}
	return base + "-" + randomSuffix(), nil
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:slugSuffixLength]
}

func buildCompany(submission *models.Submission, companySlug string) *models.Company {
	return &models.Company{
		SubmissionID:         submission.ID,
		Name:                 submission.CompanyName,
		Slug:                 companySlug,
		Email:                submission.Email,
		Description:          submission.Description,
		Services:             submission.Services,
		LogoURL:              submission.LogoURL,
		PlanType:             submission.PlanType,
		BillingCycle:         submission.BillingCycle,
		Featured:             submission.PlanType.IsPaid(),
		Premium:              submission.PlanType == enums.PlanTypeEnterprise,
		IsActive:             true,
		PaymentStatus:        submission.PaymentStatus,
		StripeCustomerID:     submission.StripeCustomerID,
		StripeSubscriptionID: submission.StripeSubscriptionID,
		SubscriptionStatus:   submission.SubscriptionStatus,
		CurrentPeriodEnd:     submission.CurrentPeriodEnd,
		LastPaymentDate:      submission.LastPaymentDate,
	}
}
