package controllers

import (
	"net/http"

	"github.com/lucasferrin/directory-backend/api/responses"
	"github.com/lucasferrin/directory-backend/api/validators"
	"github.com/lucasferrin/directory-backend/internal/submissions"
	"github.com/lucasferrin/directory-backend/pkg/enums"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
	"github.com/lucasferrin/directory-backend/pkg/logger"
)

type submitRequest struct {
	CompanyName  string   `json:"company_name" validate:"required,max=200"`
	Email        string   `json:"email" validate:"required,email"`
	Description  string   `json:"description" validate:"max=2000"`
	Services     []string `json:"services" validate:"omitempty,max=20,dive,max=100"`
	LogoURL      *string  `json:"logo_url,omitempty" validate:"omitempty,url"`
	PlanType     string   `json:"plan_type" validate:"required,oneof=free professional enterprise"`
	BillingCycle *string  `json:"billing_cycle,omitempty" validate:"omitempty,oneof=monthly yearly"`
}

// CreateSubmission handles new directory applications.
func CreateSubmission(svc *submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submission service unavailable"))
			return
		}

		var payload submitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := submissions.SubmitInput{
			CompanyName: payload.CompanyName,
			Email:       payload.Email,
			Description: payload.Description,
			Services:    payload.Services,
			LogoURL:     payload.LogoURL,
			PlanType:    enums.PlanType(payload.PlanType),
		}
		if payload.BillingCycle != nil {
			cycle := enums.BillingCycle(*payload.BillingCycle)
			input.BillingCycle = &cycle
		}

		result, err := svc.Submit(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
