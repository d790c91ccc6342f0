package enums

import "fmt"

// PlanType is the listing tier an applicant signs up for.
type PlanType string

const (
	PlanTypeFree         PlanType = "free"
	PlanTypeProfessional PlanType = "professional"
	PlanTypeEnterprise   PlanType = "enterprise"
)

var validPlanTypes = []PlanType{
	PlanTypeFree,
	PlanTypeProfessional,
	PlanTypeEnterprise,
}

// String implements fmt.Stringer.
func (p PlanType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PlanType.
func (p PlanType) IsValid() bool {
	for _, candidate := range validPlanTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsPaid reports whether the plan requires payment before publication.
func (p PlanType) IsPaid() bool {
	return p == PlanTypeProfessional || p == PlanTypeEnterprise
}

// DisplayName returns the customer-facing plan name.
func (p PlanType) DisplayName() string {
	switch p {
	case PlanTypeProfessional:
		return "Professional"
	case PlanTypeEnterprise:
		return "Enterprise"
	default:
		return "Free Starter"
	}
}

// ParsePlanType converts raw input into a PlanType.
func ParsePlanType(value string) (PlanType, error) {
	for _, candidate := range validPlanTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan type %q", value)
}
