package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/lucasferrin/directory-backend/pkg/enums"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
)

type stubSendClient struct {
	sent []*mail.SGMailV3
	resp *rest.Response
	err  error
}

func (s *stubSendClient) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	s.sent = append(s.sent, email)
	if s.resp != nil || s.err != nil {
		return s.resp, s.err
	}
	return &rest.Response{StatusCode: 202}, nil
}

func yearly() *enums.BillingCycle {
	cycle := enums.BillingCycleYearly
	return &cycle
}

func TestNotifySendsRenderedEmail(t *testing.T) {
	stub := &stubSendClient{}
	mailer := &Mailer{client: stub, fromEmail: "noreply@example.com", fromName: "Directory"}

	err := mailer.Notify(context.Background(), enums.NotificationKindApproval, Recipient{
		CompanyName:  "Acme Plumbing",
		Email:        "owner@acme.test",
		PlanType:     enums.PlanTypeProfessional,
		BillingCycle: yearly(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stub.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(stub.sent))
	}
	if got := stub.sent[0].Subject; !strings.Contains(got, "approved") {
		t.Fatalf("unexpected subject %q", got)
	}
}

func TestNotifyRequiresEmail(t *testing.T) {
	mailer := &Mailer{client: &stubSendClient{}, fromEmail: "noreply@example.com"}
	err := mailer.Notify(context.Background(), enums.NotificationKindApproval, Recipient{CompanyName: "Acme"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNotifyReportsProviderFailure(t *testing.T) {
	stub := &stubSendClient{err: errors.New("dial tcp: timeout")}
	mailer := &Mailer{client: stub, fromEmail: "noreply@example.com"}

	err := mailer.Notify(context.Background(), enums.NotificationKindRejection, Recipient{
		CompanyName: "Acme",
		Email:       "owner@acme.test",
		PlanType:    enums.PlanTypeFree,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNotifyReportsRejectedStatus(t *testing.T) {
	stub := &stubSendClient{resp: &rest.Response{StatusCode: 401}}
	mailer := &Mailer{client: stub, fromEmail: "noreply@example.com"}

	err := mailer.Notify(context.Background(), enums.NotificationKindPaymentConfirmation, Recipient{
		CompanyName: "Acme",
		Email:       "owner@acme.test",
		PlanType:    enums.PlanTypeEnterprise,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestBuildMessagePerKind(t *testing.T) {
	recipient := Recipient{
		CompanyName:  "Acme Plumbing",
		Email:        "owner@acme.test",
		PlanType:     enums.PlanTypeEnterprise,
		BillingCycle: yearly(),
		Services:     []string{"repairs", "installs"},
	}

	confirmation, err := BuildMessage(enums.NotificationKindSubmissionConfirmation, recipient)
	if err != nil {
		t.Fatalf("build confirmation: %v", err)
	}
	if !strings.Contains(confirmation.Text, "repairs, installs") {
		t.Fatalf("expected services in body, got %q", confirmation.Text)
	}
	if !strings.Contains(confirmation.Text, "2-3 business days") {
		t.Fatalf("expected review estimate in body")
	}

	approval, err := BuildMessage(enums.NotificationKindApproval, recipient)
	if err != nil {
		t.Fatalf("build approval: %v", err)
	}
	if !strings.Contains(approval.Text, "billed yearly") {
		t.Fatalf("expected billing cycle copy, got %q", approval.Text)
	}

	freeApproval, err := BuildMessage(enums.NotificationKindApproval, Recipient{
		CompanyName: "Acme",
		PlanType:    enums.PlanTypeFree,
	})
	if err != nil {
		t.Fatalf("build free approval: %v", err)
	}
	if !strings.Contains(freeApproval.Text, "now live") {
		t.Fatalf("free approval should announce the live listing, got %q", freeApproval.Text)
	}

	if _, err := BuildMessage(enums.NotificationKind("nope"), recipient); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
