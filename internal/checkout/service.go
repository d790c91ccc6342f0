package checkout

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/lucasferrin/directory-backend/internal/submissions"
	"github.com/lucasferrin/directory-backend/pkg/config"
	"github.com/lucasferrin/directory-backend/pkg/enums"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
	"github.com/lucasferrin/directory-backend/pkg/logger"
)

// SubmissionMetadataKey carries the submission id through Stripe objects so
// webhook deliveries can resolve their submission.
const SubmissionMetadataKey = "submissionId"

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Repo      submissions.Repository
	Stripe    StripeCheckoutClient
	StripeCfg config.StripeConfig
	BaseURL   string
	Logger    *logger.Logger
}

// Service creates Stripe Checkout sessions for paid-plan submissions.
type Service struct {
	repo      submissions.Repository
	stripe    StripeCheckoutClient
	stripeCfg config.StripeConfig
	baseURL   string
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "submissions repo required")
	}
	if params.Stripe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.BaseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "base url required")
	}
	return &Service{
		repo:      params.Repo,
		stripe:    params.Stripe,
		stripeCfg: params.StripeCfg,
		baseURL:   strings.TrimRight(params.BaseURL, "/"),
		logg:      params.Logger,
	}, nil
}

// SessionResult carries the hosted checkout redirect.
type SessionResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CreateSession starts a subscription checkout for the submission. An
// existing Stripe customer with the submission's email is reused; otherwise
// one is created.
func (s *Service) CreateSession(ctx context.Context, submissionID uuid.UUID) (*SessionResult, error) {
	submission, err := s.repo.Get(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if !submission.PlanType.IsPaid() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "free-plan submissions do not check out")
	}
	if submission.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "submission is already paid")
	}
	if submission.BillingCycle == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "submission has no billing cycle")
	}

	priceID, err := s.stripeCfg.PriceID(submission.PlanType, *submission.BillingCycle)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve price")
	}

	customer, err := s.stripe.FindCustomerByEmail(ctx, submission.Email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup stripe customer")
	}
	if customer == nil {
		params := &stripe.CustomerParams{
			Email: stripe.String(submission.Email),
			Name:  stripe.String(submission.CompanyName),
		}
		params.AddMetadata(SubmissionMetadataKey, submissionID.String())
		customer, err = s.stripe.CreateCustomer(ctx, params)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe customer")
		}
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customer.ID),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(priceID),
			Quantity: stripe.Int64(1),
		}},
		AllowPromotionCodes: stripe.Bool(true),
		SuccessURL:          stripe.String(s.baseURL + "/submit/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:           stripe.String(s.baseURL + "/submit/cancelled"),
	}
	sessionParams.AddMetadata(SubmissionMetadataKey, submissionID.String())
	sessionParams.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
		Metadata: map[string]string{SubmissionMetadataKey: submissionID.String()},
	}

	session, err := s.stripe.CreateSession(ctx, sessionParams)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}

	if s.logg != nil {
		ctx = s.logg.WithSubmissionID(ctx, submissionID.String())
		s.logg.Info(s.logg.WithField(ctx, "session_id", session.ID), "checkout session created")
	}
	return &SessionResult{SessionID: session.ID, URL: session.URL}, nil
}
