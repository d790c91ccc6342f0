package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/lucasferrin/directory-backend/pkg/config"
	"github.com/lucasferrin/directory-backend/pkg/db/models"
	"github.com/lucasferrin/directory-backend/pkg/enums"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
)

type stubSubmissionRepo struct {
	submissions map[uuid.UUID]*models.Submission
}

func (r *stubSubmissionRepo) Get(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	submission, ok := r.submissions[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
	}
	return submission, nil
}

func (r *stubSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	r.submissions[submission.ID] = submission
	return nil
}

func (r *stubSubmissionRepo) Patch(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return nil
}

func (r *stubSubmissionRepo) FindByStripeCustomerID(ctx context.Context, customerID string) (*models.Submission, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found for customer")
}

type stubStripeClient struct {
	existing       *stripe.Customer
	createdParams  *stripe.CustomerParams
	sessionParams  *stripe.CheckoutSessionParams
	createdCount   int
	sessionCreated *stripe.CheckoutSession
}

func (s *stubStripeClient) FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	return s.existing, nil
}

func (s *stubStripeClient) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	s.createdCount++
	s.createdParams = params
	return &stripe.Customer{ID: "cus_new"}, nil
}

func (s *stubStripeClient) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.sessionParams = params
	if s.sessionCreated != nil {
		return s.sessionCreated, nil
	}
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

func stripeCfg() config.StripeConfig {
	return config.StripeConfig{
		ProfessionalMonthlyPriceID: "price_pro_m",
		ProfessionalYearlyPriceID:  "price_pro_y",
		EnterpriseMonthlyPriceID:   "price_ent_m",
		EnterpriseYearlyPriceID:    "price_ent_y",
	}
}

func newCheckoutService(t *testing.T, repo *stubSubmissionRepo, client *stubStripeClient) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Stripe:    client,
		StripeCfg: stripeCfg(),
		BaseURL:   "https://directory.example.com",
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func paidSubmission(id uuid.UUID) *models.Submission {
	cycle := enums.BillingCycleMonthly
	return &models.Submission{
		ID:            id,
		CompanyName:   "Acme Plumbing",
		Email:         "owner@acme.test",
		PlanType:      enums.PlanTypeProfessional,
		BillingCycle:  &cycle,
		Status:        enums.SubmissionStatusApproved,
		PaymentStatus: enums.PaymentStatusPending,
	}
}

func TestCreateSessionBuildsSubscriptionCheckout(t *testing.T) {
	id := uuid.New()
	repo := &stubSubmissionRepo{submissions: map[uuid.UUID]*models.Submission{id: paidSubmission(id)}}
	client := &stubStripeClient{}
	svc := newCheckoutService(t, repo, client)

	result, err := svc.CreateSession(context.Background(), id)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if result.URL == "" || result.SessionID == "" {
		t.Fatalf("expected session redirect, got %+v", result)
	}

	params := client.sessionParams
	if params == nil {
		t.Fatalf("expected session params")
	}
	if got := stripe.StringValue(params.Mode); got != string(stripe.CheckoutSessionModeSubscription) {
		t.Fatalf("expected subscription mode, got %q", got)
	}
	if got := stripe.StringValue(params.LineItems[0].Price); got != "price_pro_m" {
		t.Fatalf("expected monthly professional price, got %q", got)
	}
	if params.Metadata[SubmissionMetadataKey] != id.String() {
		t.Fatalf("expected submission id in session metadata")
	}
	if params.SubscriptionData == nil || params.SubscriptionData.Metadata[SubmissionMetadataKey] != id.String() {
		t.Fatalf("expected submission id in subscription metadata")
	}
	if !stripe.BoolValue(params.AllowPromotionCodes) {
		t.Fatalf("expected promotion codes allowed")
	}
}

func TestCreateSessionReusesExistingCustomer(t *testing.T) {
	id := uuid.New()
	repo := &stubSubmissionRepo{submissions: map[uuid.UUID]*models.Submission{id: paidSubmission(id)}}
	client := &stubStripeClient{existing: &stripe.Customer{ID: "cus_existing"}}
	svc := newCheckoutService(t, repo, client)

	if _, err := svc.CreateSession(context.Background(), id); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if client.createdCount != 0 {
		t.Fatalf("existing customer must be reused")
	}
	if got := stripe.StringValue(client.sessionParams.Customer); got != "cus_existing" {
		t.Fatalf("expected existing customer on session, got %q", got)
	}
}

func TestCreateSessionRejectsFreePlan(t *testing.T) {
	id := uuid.New()
	submission := paidSubmission(id)
	submission.PlanType = enums.PlanTypeFree
	submission.BillingCycle = nil
	repo := &stubSubmissionRepo{submissions: map[uuid.UUID]*models.Submission{id: submission}}
	svc := newCheckoutService(t, repo, &stubStripeClient{})

	_, err := svc.CreateSession(context.Background(), id)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCreateSessionRejectsAlreadyPaid(t *testing.T) {
	id := uuid.New()
	submission := paidSubmission(id)
	submission.PaymentStatus = enums.PaymentStatusPaid
	repo := &stubSubmissionRepo{submissions: map[uuid.UUID]*models.Submission{id: submission}}
	svc := newCheckoutService(t, repo, &stubStripeClient{})

	_, err := svc.CreateSession(context.Background(), id)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCreateSessionUnknownSubmission(t *testing.T) {
	repo := &stubSubmissionRepo{submissions: map[uuid.UUID]*models.Submission{}}
	svc := newCheckoutService(t, repo, &stubStripeClient{})

	_, err := svc.CreateSession(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
