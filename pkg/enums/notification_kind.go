package enums

import "fmt"

// NotificationKind identifies the outbound message templates.
type NotificationKind string

const (
	NotificationKindSubmissionConfirmation NotificationKind = "submission_confirmation"
	NotificationKindApproval               NotificationKind = "approval"
	NotificationKindRejection              NotificationKind = "rejection"
	NotificationKindPaymentConfirmation    NotificationKind = "payment_confirmation"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindSubmissionConfirmation,
	NotificationKindApproval,
	NotificationKindRejection,
	NotificationKindPaymentConfirmation,
}

// IsValid checks whether the given kind matches the canonical enum.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw strings into NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
