package notifications

import (
	"fmt"
	"strings"

	"github.com/lucasferrin/directory-backend/pkg/enums"
)

const reviewEstimate = "2-3 business days"

// Message is a rendered email ready for delivery.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// BuildMessage renders the subject and body for a notification kind.
func BuildMessage(kind enums.NotificationKind, r Recipient) (Message, error) {
	switch kind {
	case enums.NotificationKindSubmissionConfirmation:
		return buildSubmissionConfirmation(r), nil
	case enums.NotificationKindApproval:
		return buildApproval(r), nil
	case enums.NotificationKindRejection:
		return buildRejection(r), nil
	case enums.NotificationKindPaymentConfirmation:
		return buildPaymentConfirmation(r), nil
	default:
		return Message{}, fmt.Errorf("unknown notification kind %q", kind)
	}
}

func buildSubmissionConfirmation(r Recipient) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", r.CompanyName)
	fmt.Fprintf(&b, "We received your %s listing application and our team is reviewing it now.\n", r.PlanType.DisplayName())
	if len(r.Services) > 0 {
		fmt.Fprintf(&b, "Services listed: %s.\n", strings.Join(r.Services, ", "))
	}
	fmt.Fprintf(&b, "You can expect a decision within %s.\n", reviewEstimate)
	return Message{
		Subject: "We received your directory application",
		Text:    b.String(),
		HTML:    textToHTML(b.String()),
	}
}

func buildApproval(r Recipient) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", r.CompanyName)
	b.WriteString("Great news — your application has been approved!\n")
	if r.PlanType.IsPaid() {
		fmt.Fprintf(&b, "To activate your %s listing, complete payment%s.\n",
			r.PlanType.DisplayName(), billingCycleText(r.BillingCycle))
		b.WriteString("Your listing goes live as soon as the payment is confirmed.\n")
	} else {
		b.WriteString("Your listing is now live in the directory.\n")
	}
	return Message{
		Subject: "Your directory application was approved",
		Text:    b.String(),
		HTML:    textToHTML(b.String()),
	}
}

func buildRejection(r Recipient) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", r.CompanyName)
	b.WriteString("Thank you for applying. After review we are unable to list your business at this time.\n")
	b.WriteString("You are welcome to apply again with updated details.\n")
	return Message{
		Subject: "An update on your directory application",
		Text:    b.String(),
		HTML:    textToHTML(b.String()),
	}
}

func buildPaymentConfirmation(r Recipient) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", r.CompanyName)
	fmt.Fprintf(&b, "Your payment for the %s plan%s is confirmed.\n",
		r.PlanType.DisplayName(), billingCycleText(r.BillingCycle))
	b.WriteString("Your listing is live in the directory.\n")
	return Message{
		Subject: "Payment confirmed — your listing is live",
		Text:    b.String(),
		HTML:    textToHTML(b.String()),
	}
}

func billingCycleText(cycle *enums.BillingCycle) string {
	if cycle == nil {
		return ""
	}
	switch *cycle {
	case enums.BillingCycleYearly:
		return " (billed yearly)"
	case enums.BillingCycleMonthly:
		return " (billed monthly)"
	default:
		return ""
	}
}

func textToHTML(text string) string {
	escaped := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(text)
	return "<p>" + strings.ReplaceAll(strings.TrimSpace(escaped), "\n", "<br>") + "</p>"
}
