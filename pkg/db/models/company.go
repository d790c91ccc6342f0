package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/lucasferrin/directory-backend/pkg/db/types"
	"github.com/lucasferrin/directory-backend/pkg/enums"
)

// Company is a published directory listing produced from an approved (and,
// for paid plans, paid) submission. The unique submission_id index enforces
// at most one company per submission at the storage layer.
type Company struct {
	ID           uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SubmissionID uuid.UUID          `gorm:"column:submission_id;type:uuid;not null;uniqueIndex:idx_companies_submission_id" json:"submission_id"`
	Name         string             `gorm:"column:name;not null" json:"name"`
	Slug         string             `gorm:"column:slug;not null;uniqueIndex:idx_companies_slug" json:"slug"`
	Email        string             `gorm:"column:email;not null" json:"email"`
	Description  string             `gorm:"column:description" json:"description"`
	Services     dbtypes.StringList `gorm:"column:services;type:json" json:"services"`
	LogoURL      *string            `gorm:"column:logo_url" json:"logo_url,omitempty"`

	PlanType     enums.PlanType      `gorm:"column:plan_type;not null" json:"plan_type"`
	BillingCycle *enums.BillingCycle `gorm:"column:billing_cycle" json:"billing_cycle,omitempty"`

	Featured bool `gorm:"column:featured;not null;default:false" json:"featured"`
	Premium  bool `gorm:"column:premium;not null;default:false" json:"premium"`
	IsActive bool `gorm:"column:is_active;not null;default:true" json:"is_active"`

	PaymentStatus        enums.PaymentStatus       `gorm:"column:payment_status;not null;default:'not_applicable'" json:"payment_status"`
	StripeCustomerID     *string                   `gorm:"column:stripe_customer_id" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string                   `gorm:"column:stripe_subscription_id" json:"stripe_subscription_id,omitempty"`
	SubscriptionStatus   *enums.SubscriptionStatus `gorm:"column:subscription_status" json:"subscription_status,omitempty"`
	CurrentPeriodEnd     *time.Time                `gorm:"column:current_period_end" json:"current_period_end,omitempty"`
	LastPaymentDate      *time.Time                `gorm:"column:last_payment_date" json:"last_payment_date,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
