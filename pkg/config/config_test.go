package config

import (
	"testing"

	"github.com/lucasferrin/directory-backend/pkg/enums"
)

func TestPriceIDSelection(t *testing.T) {
	cfg := StripeConfig{
		ProfessionalMonthlyPriceID: "price_pro_m",
		ProfessionalYearlyPriceID:  "price_pro_y",
		EnterpriseMonthlyPriceID:   "price_ent_m",
		EnterpriseYearlyPriceID:    "price_ent_y",
	}

	tests := []struct {
		plan  enums.PlanType
		cycle enums.BillingCycle
		want  string
	}{
		{enums.PlanTypeProfessional, enums.BillingCycleMonthly, "price_pro_m"},
		{enums.PlanTypeProfessional, enums.BillingCycleYearly, "price_pro_y"},
		{enums.PlanTypeEnterprise, enums.BillingCycleMonthly, "price_ent_m"},
		{enums.PlanTypeEnterprise, enums.BillingCycleYearly, "price_ent_y"},
	}
	for _, tt := range tests {
		got, err := cfg.PriceID(tt.plan, tt.cycle)
		if err != nil {
			t.Fatalf("PriceID(%s, %s): %v", tt.plan, tt.cycle, err)
		}
		if got != tt.want {
			t.Fatalf("PriceID(%s, %s) = %q, want %q", tt.plan, tt.cycle, got, tt.want)
		}
	}
}

func TestPriceIDRejectsFreePlan(t *testing.T) {
	cfg := StripeConfig{}
	if _, err := cfg.PriceID(enums.PlanTypeFree, enums.BillingCycleMonthly); err == nil {
		t.Fatalf("expected error for free plan")
	}
}

func TestPriceIDMissingConfiguration(t *testing.T) {
	cfg := StripeConfig{ProfessionalMonthlyPriceID: "price_pro_m"}
	if _, err := cfg.PriceID(enums.PlanTypeEnterprise, enums.BillingCycleYearly); err == nil {
		t.Fatalf("expected error for unconfigured price")
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	app := AppConfig{Env: "dev"}
	if !app.IsDev() || app.IsProd() {
		t.Fatalf("expected dev env detection")
	}
	app.Env = "PROD"
	if !app.IsProd() {
		t.Fatalf("expected case-insensitive prod detection")
	}
}
