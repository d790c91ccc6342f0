package stripewebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/lucasferrin/directory-backend/internal/checkout"
	"github.com/lucasferrin/directory-backend/internal/notifications"
	"github.com/lucasferrin/directory-backend/internal/submissions"
	"github.com/lucasferrin/directory-backend/pkg/db/models"
	"github.com/lucasferrin/directory-backend/pkg/enums"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
	"github.com/lucasferrin/directory-backend/pkg/logger"
)

type submissionStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	Patch(ctx context.Context, id uuid.UUID, fields map[string]any) error
	FindByStripeCustomerID(ctx context.Context, customerID string) (*models.Submission, error)
}

type paymentEngine interface {
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (*submissions.PaymentResult, error)
}

type companySyncer interface {
	SyncBilling(ctx context.Context, submission *models.Submission) error
}

type ServiceParams struct {
	Submissions submissionStore
	Engine      paymentEngine
	Companies   companySyncer
	StripeAPI   StripeSubscriptionClient
	Notifier    notifications.Notifier
	Logger      *logger.Logger
}

// Service reconciles Stripe billing events onto submissions. Handlers are
// idempotent and tolerate out-of-order delivery: business no-ops (missing
// metadata, unknown submission, linkage guard) ack the event, while store or
// Stripe outages surface as dependency errors so the provider redelivers.
type Service struct {
	submissions submissionStore
	engine      paymentEngine
	companies   companySyncer
	stripe      StripeSubscriptionClient
	notifier    notifications.Notifier
	logg        *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Submissions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "submissions store required")
	}
	if params.Engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment engine required")
	}
	if params.Companies == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "companies service required")
	}
	if params.StripeAPI == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	return &Service{
		submissions: params.Submissions,
		engine:      params.Engine,
		companies:   params.Companies,
		stripe:      params.StripeAPI,
		notifier:    params.Notifier,
		logg:        params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case stripe.EventTypePaymentIntentSucceeded:
		return s.handlePaymentIntentSucceeded(ctx, event)
	case stripe.EventTypeInvoicePaymentSucceeded:
		return s.handleInvoicePaymentSucceeded(ctx, event)
	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated:
		return s.handleSubscriptionUpserted(ctx, event)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event)
	default:
		// unrecognized kinds are acked so the provider stops redelivering
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session")
	}
	if session.Mode != stripe.CheckoutSessionModePayment && session.Mode != stripe.CheckoutSessionModeSubscription {
		return nil
	}

	submission, err := s.resolveByMetadata(ctx, session.Metadata)
	if submission == nil {
		return err
	}
	ctx = s.withSubmission(ctx, submission.ID)

	fields := map[string]any{}
	if submission.StripeCustomerID == nil && session.Customer != nil && session.Customer.ID != "" {
		// initial linkage: everything downstream resolves by this customer id
		fields["stripe_customer_id"] = session.Customer.ID
	}

	var periodEnd time.Time
	if session.Subscription != nil && session.Subscription.ID != "" {
		if submission.StripeSubscriptionID == nil {
			fields["stripe_subscription_id"] = session.Subscription.ID
		}
		sub, err := s.stripe.Get(ctx, session.Subscription.ID, &stripe.SubscriptionParams{})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe subscription")
		}
		if status, parseErr := enums.ParseSubscriptionStatus(string(sub.Status)); parseErr == nil {
			fields["subscription_status"] = status
		}
		periodEnd = periodEndFromSubscription(sub)
	}
	if periodEnd.IsZero() {
		periodEnd = fallbackPeriodEnd(submission.BillingCycle)
	}
	if !periodEnd.IsZero() {
		fields["current_period_end"] = periodEnd
	}
	// written on every delivery so a redelivered event refreshes the date
	fields["last_payment_date"] = time.Now().UTC()

	wasPaid := submission.PaymentStatus == enums.PaymentStatusPaid
	if err := s.applyUpdate(ctx, submission.ID, fields, true); err != nil {
		return err
	}
	if !wasPaid {
		s.notifyPaid(ctx, submission)
	}
	return nil
}

func (s *Service) handlePaymentIntentSucceeded(ctx context.Context, event *stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent")
	}

	submission, err := s.resolveByMetadata(ctx, intent.Metadata)
	if submission == nil {
		return err
	}
	ctx = s.withSubmission(ctx, submission.ID)

	// payment intents can race the checkout-completion event; without the
	// customer linkage the submission is not billing-ready yet
	if submission.StripeCustomerID == nil {
		s.logInfo(ctx, "ignoring payment_intent.succeeded before customer linkage")
		return nil
	}

	fields := map[string]any{"last_payment_date": time.Now().UTC()}
	if periodEnd := fallbackPeriodEnd(submission.BillingCycle); !periodEnd.IsZero() {
		fields["current_period_end"] = periodEnd
	}

	wasPaid := submission.PaymentStatus == enums.PaymentStatusPaid
	if err := s.applyUpdate(ctx, submission.ID, fields, true); err != nil {
		return err
	}
	if !wasPaid {
		s.notifyPaid(ctx, submission)
	}
	return nil
}

func (s *Service) handleInvoicePaymentSucceeded(ctx context.Context, event *stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode invoice")
	}

	customerID := ""
	if invoice.Customer != nil {
		customerID = invoice.Customer.ID
	}
	submission, err := s.resolveByCustomer(ctx, customerID)
	if submission == nil {
		return err
	}
	ctx = s.withSubmission(ctx, submission.ID)

	fields := map[string]any{"last_payment_date": time.Now().UTC()}
	periodEnd := time.Time{}
	if invoice.PeriodEnd > 0 {
		periodEnd = time.Unix(invoice.PeriodEnd, 0).UTC()
	}
	if periodEnd.IsZero() {
		periodEnd = fallbackPeriodEnd(submission.BillingCycle)
	}
	if !periodEnd.IsZero() {
		fields["current_period_end"] = periodEnd
	}

	wasPaid := submission.PaymentStatus == enums.PaymentStatusPaid
	if err := s.applyUpdate(ctx, submission.ID, fields, true); err != nil {
		return err
	}
	if !wasPaid {
		s.notifyPaid(ctx, submission)
	}
	return nil
}

func (s *Service) handleSubscriptionUpserted(ctx context.Context, event *stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription")
	}

	submission, err := s.resolveSubscriptionTarget(ctx, &sub)
	if submission == nil {
		return err
	}
	ctx = s.withSubmission(ctx, submission.ID)

	if submission.StripeCustomerID == nil {
		s.logInfo(ctx, "ignoring subscription event before customer linkage")
		return nil
	}

	fields := map[string]any{"stripe_subscription_id": sub.ID}
	if status, parseErr := enums.ParseSubscriptionStatus(string(sub.Status)); parseErr == nil {
		fields["subscription_status"] = status
	}
	periodEnd := periodEndFromSubscription(&sub)
	if periodEnd.IsZero() {
		periodEnd = fallbackPeriodEnd(submission.BillingCycle)
	}
	if !periodEnd.IsZero() {
		fields["current_period_end"] = periodEnd
	}

	markPaid := sub.Status == stripe.SubscriptionStatusActive && submission.PaymentStatus != enums.PaymentStatusPaid
	if err := s.applyUpdate(ctx, submission.ID, fields, markPaid); err != nil {
		return err
	}
	if markPaid {
		s.notifyPaid(ctx, submission)
	}
	return nil
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription")
	}

	submission, err := s.resolveSubscriptionTarget(ctx, &sub)
	if submission == nil {
		return err
	}
	ctx = s.withSubmission(ctx, submission.ID)

	// cancellation only flips the subscription status; the listing stays
	// published until the paid period lapses
	fields := map[string]any{"subscription_status": enums.SubscriptionStatusCanceled}
	return s.applyUpdate(ctx, submission.ID, fields, false)
}

// applyUpdate is the shared tail of every handler: mark paid first (which may
// promote), then patch the submission, then replay the billing columns onto
// the published company.
func (s *Service) applyUpdate(ctx context.Context, submissionID uuid.UUID, fields map[string]any, markPaid bool) error {
	if markPaid {
		if _, err := s.engine.SetPaymentStatus(ctx, submissionID, enums.PaymentStatusPaid); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				// free-plan submissions never reach here through linkage,
				// but a stale metadata reference could
				s.logInfo(ctx, "payment write rejected for non-payable submission")
				return nil
			}
			return err
		}
	}

	if len(fields) > 0 {
		if err := s.submissions.Patch(ctx, submissionID, fields); err != nil {
			return err
		}
	}

	refreshed, err := s.submissions.Get(ctx, submissionID)
	if err != nil {
		return err
	}
	if refreshed.ProcessedToCompany {
		if err := s.companies.SyncBilling(ctx, refreshed); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "company billing sync failed")
		}
	}
	return nil
}

func (s *Service) resolveByMetadata(ctx context.Context, metadata map[string]string) (*models.Submission, error) {
	raw, ok := metadata[checkout.SubmissionMetadataKey]
	if !ok || raw == "" {
		s.logInfo(ctx, "event carries no submission metadata; acking")
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		s.logInfo(ctx, "event carries malformed submission metadata; acking")
		return nil, nil
	}
	submission, err := s.submissions.Get(ctx, id)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.logInfo(ctx, "event references unknown submission; acking")
			return nil, nil
		}
		return nil, err
	}
	return submission, nil
}

func (s *Service) resolveByCustomer(ctx context.Context, customerID string) (*models.Submission, error) {
	if customerID == "" {
		s.logInfo(ctx, "event carries no customer reference; acking")
		return nil, nil
	}
	submission, err := s.submissions.FindByStripeCustomerID(ctx, customerID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.logInfo(ctx, "no submission linked to customer; acking")
			return nil, nil
		}
		return nil, err
	}
	return submission, nil
}

func (s *Service) resolveSubscriptionTarget(ctx context.Context, sub *stripe.Subscription) (*models.Submission, error) {
	if raw, ok := sub.Metadata[checkout.SubmissionMetadataKey]; ok && raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			submission, err := s.submissions.Get(ctx, id)
			if err == nil {
				return submission, nil
			}
			if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return nil, err
			}
		}
	}
	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}
	return s.resolveByCustomer(ctx, customerID)
}

func (s *Service) notifyPaid(ctx context.Context, submission *models.Submission) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Notify(ctx, enums.NotificationKindPaymentConfirmation, notifications.Recipient{
		CompanyName:  submission.CompanyName,
		Email:        submission.Email,
		PlanType:     submission.PlanType,
		BillingCycle: submission.BillingCycle,
		Services:     submission.Services,
		SubmittedAt:  submission.CreatedAt,
	})
	if err != nil && s.logg != nil {
		s.logg.Warn(ctx, "payment confirmation send failed")
	}
}

func periodEndFromSubscription(sub *stripe.Subscription) time.Time {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return time.Time{}
	}
	if end := sub.Items.Data[0].CurrentPeriodEnd; end > 0 {
		return time.Unix(end, 0).UTC()
	}
	return time.Time{}
}

func fallbackPeriodEnd(cycle *enums.BillingCycle) time.Time {
	if cycle == nil {
		return time.Time{}
	}
	days := cycle.PeriodDays()
	if days <= 0 {
		return time.Time{}
	}
	return time.Now().UTC().AddDate(0, 0, days)
}

func (s *Service) withSubmission(ctx context.Context, id uuid.UUID) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithSubmissionID(ctx, id.String())
}

func (s *Service) logInfo(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Info(ctx, msg)
	}
}
