package notifications

import (
	"context"
	"time"

	"github.com/lucasferrin/directory-backend/pkg/enums"
)

// Recipient carries the submission fields the email templates render.
type Recipient struct {
	CompanyName  string
	Email        string
	PlanType     enums.PlanType
	BillingCycle *enums.BillingCycle
	Services     []string
	SubmittedAt  time.Time
}

// Notifier delivers lifecycle emails. Callers treat every send as
// best-effort: a failed notification never blocks or reverses a state
// transition.
type Notifier interface {
	Notify(ctx context.Context, kind enums.NotificationKind, recipient Recipient) error
}
