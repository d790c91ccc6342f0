package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/lucasferrin/directory-backend/pkg/db/types"
	"github.com/lucasferrin/directory-backend/pkg/enums"
)

// Submission is an application to join the directory. It carries the listing
// content plus the approval and payment state the lifecycle engine drives.
type Submission struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyName string             `gorm:"column:company_name;not null" json:"company_name"`
	Email       string             `gorm:"column:email;not null;index" json:"email"`
	Description string             `gorm:"column:description" json:"description"`
	Services    dbtypes.StringList `gorm:"column:services;type:json" json:"services"`
	LogoURL     *string            `gorm:"column:logo_url" json:"logo_url,omitempty"`

	PlanType     enums.PlanType      `gorm:"column:plan_type;not null" json:"plan_type"`
	BillingCycle *enums.BillingCycle `gorm:"column:billing_cycle" json:"billing_cycle,omitempty"`

	Status        enums.SubmissionStatus `gorm:"column:status;not null;default:'pending';index" json:"status"`
	PaymentStatus enums.PaymentStatus    `gorm:"column:payment_status;not null;default:'not_applicable'" json:"payment_status"`

	StripeCustomerID     *string                   `gorm:"column:stripe_customer_id;index" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string                   `gorm:"column:stripe_subscription_id" json:"stripe_subscription_id,omitempty"`
	SubscriptionStatus   *enums.SubscriptionStatus `gorm:"column:subscription_status" json:"subscription_status,omitempty"`
	CurrentPeriodEnd     *time.Time                `gorm:"column:current_period_end" json:"current_period_end,omitempty"`
	LastPaymentDate      *time.Time                `gorm:"column:last_payment_date" json:"last_payment_date,omitempty"`

	ProcessedToCompany bool       `gorm:"column:processed_to_company;not null;default:false" json:"processed_to_company"`
	CompanyID          *uuid.UUID `gorm:"column:company_id;type:uuid" json:"company_id,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// RequiresPayment reports whether the submission must collect payment before
// it can be promoted to a published company.
func (s *Submission) RequiresPayment() bool {
	return s.PlanType.IsPaid()
}

// ReadyForPromotion reports whether the approval and payment gates are both
// satisfied.
func (s *Submission) ReadyForPromotion() bool {
	if s.Status != enums.SubmissionStatusApproved {
		return false
	}
	if !s.RequiresPayment() {
		return true
	}
	return s.PaymentStatus == enums.PaymentStatusPaid
}
