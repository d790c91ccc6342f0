package submissions

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/lucasferrin/directory-backend/internal/notifications"
	"github.com/lucasferrin/directory-backend/pkg/db/models"
	"github.com/lucasferrin/directory-backend/pkg/enums"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
)

type stubRepo struct {
	submissions map[uuid.UUID]*models.Submission
	createErr   error
	patches     []map[string]any
}

func newStubRepo() *stubRepo {
	return &stubRepo{submissions: make(map[uuid.UUID]*models.Submission)}
}

func (r *stubRepo) Get(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	submission, ok := r.submissions[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
	}
	copied := *submission
	return &copied, nil
}

func (r *stubRepo) Create(ctx context.Context, submission *models.Submission) error {
	if r.createErr != nil {
		return r.createErr
	}
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	copied := *submission
	r.submissions[submission.ID] = &copied
	return nil
}

func (r *stubRepo) Patch(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	submission, ok := r.submissions[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
	}
	r.patches = append(r.patches, fields)
	if status, ok := fields["status"].(enums.SubmissionStatus); ok {
		submission.Status = status
	}
	if status, ok := fields["payment_status"].(enums.PaymentStatus); ok {
		submission.PaymentStatus = status
	}
	if processed, ok := fields["processed_to_company"].(bool); ok {
		submission.ProcessedToCompany = processed
	}
	if companyID, ok := fields["company_id"].(uuid.UUID); ok {
		submission.CompanyID = &companyID
	}
	return nil
}

func (r *stubRepo) FindByStripeCustomerID(ctx context.Context, customerID string) (*models.Submission, error) {
	for _, submission := range r.submissions {
		if submission.StripeCustomerID != nil && *submission.StripeCustomerID == customerID {
			copied := *submission
			return &copied, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found for customer")
}

type stubPromoter struct {
	companyID    uuid.UUID
	promoteErr   error
	promoteCalls int
	syncCalls    int
	syncErr      error
}

func (p *stubPromoter) Promote(ctx context.Context, submissionID uuid.UUID) (uuid.UUID, error) {
	p.promoteCalls++
	if p.promoteErr != nil {
		return uuid.Nil, p.promoteErr
	}
	return p.companyID, nil
}

func (p *stubPromoter) SyncBilling(ctx context.Context, submission *models.Submission) error {
	p.syncCalls++
	return p.syncErr
}

type stubNotifier struct {
	kinds []enums.NotificationKind
	err   error
}

func (n *stubNotifier) Notify(ctx context.Context, kind enums.NotificationKind, recipient notifications.Recipient) error {
	n.kinds = append(n.kinds, kind)
	return n.err
}

func newTestService(t *testing.T, repo *stubRepo, promoter *stubPromoter, notifier *stubNotifier) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Companies: promoter,
		Notifier:  notifier,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func monthly() *enums.BillingCycle {
	cycle := enums.BillingCycleMonthly
	return &cycle
}

func seed(repo *stubRepo, mutate func(*models.Submission)) uuid.UUID {
	submission := &models.Submission{
		ID:            uuid.New(),
		CompanyName:   "Acme Plumbing",
		Email:         "owner@acme.test",
		PlanType:      enums.PlanTypeFree,
		Status:        enums.SubmissionStatusPending,
		PaymentStatus: enums.PaymentStatusNotApplicable,
	}
	if mutate != nil {
		mutate(submission)
	}
	copied := *submission
	repo.submissions[submission.ID] = &copied
	return submission.ID
}

func TestSubmitCreatesPendingSubmission(t *testing.T) {
	repo := newStubRepo()
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, &stubPromoter{}, notifier)

	result, err := svc.Submit(context.Background(), SubmitInput{
		CompanyName: "Acme Plumbing",
		Email:       "owner@acme.test",
		PlanType:    enums.PlanTypeFree,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.EmailSent {
		t.Fatalf("expected confirmation email")
	}

	stored := repo.submissions[result.ID]
	if stored.Status != enums.SubmissionStatusPending {
		t.Fatalf("expected pending status, got %s", stored.Status)
	}
	if stored.PaymentStatus != enums.PaymentStatusNotApplicable {
		t.Fatalf("free plan should carry not_applicable, got %s", stored.PaymentStatus)
	}
	if len(notifier.kinds) != 1 || notifier.kinds[0] != enums.NotificationKindSubmissionConfirmation {
		t.Fatalf("expected submission confirmation, got %v", notifier.kinds)
	}
}

func TestSubmitPaidPlanStartsPaymentPending(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubPromoter{}, &stubNotifier{})

	result, err := svc.Submit(context.Background(), SubmitInput{
		CompanyName:  "Acme Plumbing",
		Email:        "owner@acme.test",
		PlanType:     enums.PlanTypeProfessional,
		BillingCycle: monthly(),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if repo.submissions[result.ID].PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("paid plan should start payment pending")
	}
}

func TestSubmitValidation(t *testing.T) {
	svc := newTestService(t, newStubRepo(), &stubPromoter{}, &stubNotifier{})
	ctx := context.Background()

	if _, err := svc.Submit(ctx, SubmitInput{Email: "x@y.test", PlanType: enums.PlanTypeFree}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing name, got %v", err)
	}
	if _, err := svc.Submit(ctx, SubmitInput{CompanyName: "Acme", Email: "x@y.test", PlanType: enums.PlanTypeEnterprise}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing billing cycle, got %v", err)
	}
	if _, err := svc.Submit(ctx, SubmitInput{CompanyName: "Acme", Email: "x@y.test", PlanType: enums.PlanTypeFree, BillingCycle: monthly()}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for cycle on free plan, got %v", err)
	}
}

func TestSetStatusNotifierFailureDoesNotBlock(t *testing.T) {
	repo := newStubRepo()
	notifier := &stubNotifier{err: errors.New("smtp down")}
	svc := newTestService(t, repo, &stubPromoter{companyID: uuid.New()}, notifier)

	id := seed(repo, nil)
	result, err := svc.SetStatus(context.Background(), id, enums.SubmissionStatusApproved)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if result.EmailSent {
		t.Fatalf("email should be reported unsent")
	}
	if result.CompanyID == nil {
		t.Fatalf("promotion should still happen")
	}
}

func TestSetStatusApprovedFreePlanPromotesSynchronously(t *testing.T) {
	repo := newStubRepo()
	promoter := &stubPromoter{companyID: uuid.New()}
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, promoter, notifier)

	id := seed(repo, nil)
	result, err := svc.SetStatus(context.Background(), id, enums.SubmissionStatusApproved)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if promoter.promoteCalls != 1 {
		t.Fatalf("expected one promotion, got %d", promoter.promoteCalls)
	}
	if result.CompanyID == nil || *result.CompanyID != promoter.companyID {
		t.Fatalf("expected company id in result")
	}
	if len(notifier.kinds) != 1 || notifier.kinds[0] != enums.NotificationKindApproval {
		t.Fatalf("expected approval notification, got %v", notifier.kinds)
	}
}

func TestSetStatusApprovedPaidPlanDefersPromotion(t *testing.T) {
	repo := newStubRepo()
	promoter := &stubPromoter{}
	svc := newTestService(t, repo, promoter, &stubNotifier{})

	id := seed(repo, func(s *models.Submission) {
		s.PlanType = enums.PlanTypeProfessional
		s.BillingCycle = monthly()
		s.PaymentStatus = enums.PaymentStatusPending
	})
	result, err := svc.SetStatus(context.Background(), id, enums.SubmissionStatusApproved)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if promoter.promoteCalls != 0 {
		t.Fatalf("paid plan must not promote before payment")
	}
	if result.Message == "" {
		t.Fatalf("expected awaiting-payment message")
	}
}

func TestSetStatusRejectionNeverPromotes(t *testing.T) {
	repo := newStubRepo()
	promoter := &stubPromoter{}
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, promoter, notifier)

	id := seed(repo, nil)
	result, err := svc.SetStatus(context.Background(), id, enums.SubmissionStatusRejected)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if promoter.promoteCalls != 0 {
		t.Fatalf("rejection must not promote")
	}
	if result.CompanyID != nil {
		t.Fatalf("rejection result should carry no company")
	}
	if len(notifier.kinds) != 1 || notifier.kinds[0] != enums.NotificationKindRejection {
		t.Fatalf("expected rejection notification, got %v", notifier.kinds)
	}
}

func TestSetStatusRejectsNonDecision(t *testing.T) {
	svc := newTestService(t, newStubRepo(), &stubPromoter{}, &stubNotifier{})
	if _, err := svc.SetStatus(context.Background(), uuid.New(), enums.SubmissionStatusPending); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetStatusPromotionFailureReportedNotRolledBack(t *testing.T) {
	repo := newStubRepo()
	promoter := &stubPromoter{promoteErr: errors.New("db down")}
	svc := newTestService(t, repo, promoter, &stubNotifier{})

	id := seed(repo, nil)
	result, err := svc.SetStatus(context.Background(), id, enums.SubmissionStatusApproved)
	if err != nil {
		t.Fatalf("status write must survive promotion failure, got %v", err)
	}
	if result.CompanyID != nil {
		t.Fatalf("failed promotion should not report a company")
	}
	if result.Message == "" {
		t.Fatalf("expected explanatory message")
	}
	if repo.submissions[id].Status != enums.SubmissionStatusApproved {
		t.Fatalf("approved status must persist")
	}
}

func TestSetStatusAlreadyProcessedReturnsExistingCompany(t *testing.T) {
	repo := newStubRepo()
	promoter := &stubPromoter{}
	svc := newTestService(t, repo, promoter, &stubNotifier{})

	companyID := uuid.New()
	id := seed(repo, func(s *models.Submission) {
		s.Status = enums.SubmissionStatusApproved
		s.ProcessedToCompany = true
		s.CompanyID = &companyID
	})

	result, err := svc.SetStatus(context.Background(), id, enums.SubmissionStatusApproved)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if promoter.promoteCalls != 0 {
		t.Fatalf("processed submission must not promote again")
	}
	if result.CompanyID == nil || *result.CompanyID != companyID {
		t.Fatalf("expected existing company id")
	}
}

func TestSetPaymentStatusFreePlanStateConflict(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubPromoter{}, &stubNotifier{})

	id := seed(repo, nil)
	_, err := svc.SetPaymentStatus(context.Background(), id, enums.PaymentStatusPaid)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestSetPaymentStatusPaidApprovedPromotes(t *testing.T) {
	repo := newStubRepo()
	promoter := &stubPromoter{companyID: uuid.New()}
	svc := newTestService(t, repo, promoter, &stubNotifier{})

	id := seed(repo, func(s *models.Submission) {
		s.PlanType = enums.PlanTypeProfessional
		s.BillingCycle = monthly()
		s.Status = enums.SubmissionStatusApproved
		s.PaymentStatus = enums.PaymentStatusPending
	})

	result, err := svc.SetPaymentStatus(context.Background(), id, enums.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("SetPaymentStatus: %v", err)
	}
	if !result.Promoted {
		t.Fatalf("expected promotion")
	}
	if repo.submissions[id].PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("paid status must persist")
	}
}

func TestSetPaymentStatusPaidBeforeApprovalWaits(t *testing.T) {
	repo := newStubRepo()
	promoter := &stubPromoter{}
	svc := newTestService(t, repo, promoter, &stubNotifier{})

	id := seed(repo, func(s *models.Submission) {
		s.PlanType = enums.PlanTypeProfessional
		s.BillingCycle = monthly()
		s.PaymentStatus = enums.PaymentStatusPending
	})

	result, err := svc.SetPaymentStatus(context.Background(), id, enums.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("SetPaymentStatus: %v", err)
	}
	if promoter.promoteCalls != 0 {
		t.Fatalf("unapproved submission must not promote")
	}
	if result.Message == "" {
		t.Fatalf("expected waiting-for-approval message")
	}
}

func TestSetPaymentStatusProcessedSyncsCompany(t *testing.T) {
	repo := newStubRepo()
	promoter := &stubPromoter{}
	svc := newTestService(t, repo, promoter, &stubNotifier{})

	companyID := uuid.New()
	id := seed(repo, func(s *models.Submission) {
		s.PlanType = enums.PlanTypeEnterprise
		s.BillingCycle = monthly()
		s.Status = enums.SubmissionStatusApproved
		s.PaymentStatus = enums.PaymentStatusPaid
		s.ProcessedToCompany = true
		s.CompanyID = &companyID
	})

	result, err := svc.SetPaymentStatus(context.Background(), id, enums.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("SetPaymentStatus: %v", err)
	}
	if promoter.promoteCalls != 0 {
		t.Fatalf("processed submission must not re-promote")
	}
	if promoter.syncCalls != 1 {
		t.Fatalf("expected billing sync onto company")
	}
	if result.CompanyID == nil || *result.CompanyID != companyID {
		t.Fatalf("expected existing company id")
	}
}

func TestSetPaymentStatusIdempotentRepeat(t *testing.T) {
	repo := newStubRepo()
	promoter := &stubPromoter{companyID: uuid.New()}
	svc := newTestService(t, repo, promoter, &stubNotifier{})

	id := seed(repo, func(s *models.Submission) {
		s.PlanType = enums.PlanTypeProfessional
		s.BillingCycle = monthly()
		s.Status = enums.SubmissionStatusApproved
		s.PaymentStatus = enums.PaymentStatusPending
	})

	if _, err := svc.SetPaymentStatus(context.Background(), id, enums.PaymentStatusFailed); err != nil {
		t.Fatalf("first write: %v", err)
	}
	patchesAfterFirst := len(repo.patches)
	if _, err := svc.SetPaymentStatus(context.Background(), id, enums.PaymentStatusFailed); err != nil {
		t.Fatalf("repeat write: %v", err)
	}
	if len(repo.patches) != patchesAfterFirst {
		t.Fatalf("repeat of same state should not patch again")
	}
}
