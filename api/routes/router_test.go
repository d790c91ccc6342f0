package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/lucasferrin/directory-backend/internal/checkout"
	"github.com/lucasferrin/directory-backend/internal/companies"
	"github.com/lucasferrin/directory-backend/internal/submissions"
	"github.com/lucasferrin/directory-backend/pkg/config"
	"github.com/lucasferrin/directory-backend/pkg/db/models"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
	"github.com/lucasferrin/directory-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSubmissionRepo struct{}

func (stubSubmissionRepo) Get(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
}

func (stubSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	submission.ID = uuid.New()
	return nil
}

func (stubSubmissionRepo) Patch(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return nil
}

func (stubSubmissionRepo) FindByStripeCustomerID(ctx context.Context, customerID string) (*models.Submission, error) {
	return nil, nil
}

type stubCompanyRepo struct{}

func (stubCompanyRepo) Get(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
}

func (stubCompanyRepo) Create(ctx context.Context, company *models.Company) error {
	return nil
}

func (stubCompanyRepo) Patch(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return nil
}

func (stubCompanyRepo) FindBySlug(ctx context.Context, slug string) (*models.Company, error) {
	return nil, nil
}

func (stubCompanyRepo) FindBySubmissionID(ctx context.Context, submissionID uuid.UUID) (*models.Company, error) {
	return nil, nil
}

func (stubCompanyRepo) List(ctx context.Context, featuredOnly bool) ([]models.Company, error) {
	return []models.Company{{Name: "Acme", Slug: "acme"}}, nil
}

type stubCheckoutClient struct{}

func (stubCheckoutClient) FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	return nil, nil
}

func (stubCheckoutClient) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	return &stripe.Customer{ID: "cus_stub"}, nil
}

func (stubCheckoutClient) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return &stripe.CheckoutSession{ID: "cs_stub", URL: "https://checkout.stripe.test/cs_stub"}, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "dev"
	cfg.App.BaseURL = "http://localhost:3000"
	cfg.Admin.Token = "operator-token"

	companyService, err := companies.NewService(companies.ServiceParams{
		Repo:        stubCompanyRepo{},
		Submissions: stubSubmissionRepo{},
	})
	if err != nil {
		t.Fatalf("companies service: %v", err)
	}

	submissionService, err := submissions.NewService(submissions.ServiceParams{
		Repo:      stubSubmissionRepo{},
		Companies: companyService,
	})
	if err != nil {
		t.Fatalf("submissions service: %v", err)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Repo:    stubSubmissionRepo{},
		Stripe:  stubCheckoutClient{},
		BaseURL: cfg.App.BaseURL,
	})
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}

	return NewRouter(RouterParams{
		Config:      cfg,
		DB:          stubPinger{},
		Redis:       stubPinger{},
		Submissions: submissionService,
		Companies:   companyService,
		Checkout:    checkoutService,
	})
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", rec.Code)
	}
}

func TestRouterServesPublicDirectory(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	listings, ok := body.Data.([]any)
	if !ok || len(listings) != 1 {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestRouterCreatesSubmission(t *testing.T) {
	router := testRouter(t)

	payload := `{"company_name":"Acme Corp","email":"owner@acme.test","plan_type":"free"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRouterAdminRequiresOperatorToken(t *testing.T) {
	router := testRouter(t)
	target := "/api/admin/v1/submissions/" + uuid.NewString() + "/status"

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(`{"status":"approved"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, target, strings.NewReader(`{"status":"approved"}`))
	req.Header.Set("Authorization", "Bearer operator-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	// The stub repo has no such submission, so the authorized request reaches
	// the service and comes back 404 rather than 401.
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with valid token, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRouterUnknownRouteIs404(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
