package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/lucasferrin/directory-backend/pkg/config"
	"github.com/lucasferrin/directory-backend/pkg/enums"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
	"github.com/lucasferrin/directory-backend/pkg/logger"
)

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Mailer delivers notification emails through Sendgrid.
type Mailer struct {
	client    sendClient
	fromEmail string
	fromName  string
	logg      *logger.Logger
}

// NewMailer wires a Sendgrid-backed Notifier.
func NewMailer(cfg config.SendgridConfig, logg *logger.Logger) (*Mailer, error) {
	if cfg.APIKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sendgrid api key required")
	}
	if cfg.FromEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sender email required")
	}
	return &Mailer{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logg:      logg,
	}, nil
}

// Notify renders and sends the email for the given kind.
func (m *Mailer) Notify(ctx context.Context, kind enums.NotificationKind, recipient Recipient) error {
	if recipient.Email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient email required")
	}

	message, err := BuildMessage(kind, recipient)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "build notification")
	}

	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(recipient.CompanyName, recipient.Email)
	email := mail.NewSingleEmail(from, message.Subject, to, message.Text, message.HTML)

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send notification email")
	}
	if resp != nil && resp.StatusCode >= 400 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("sendgrid rejected %s email with status %d", kind, resp.StatusCode))
	}

	if m.logg != nil {
		m.logg.Info(m.logg.WithField(ctx, "notification_kind", string(kind)), "notification sent")
	}
	return nil
}
