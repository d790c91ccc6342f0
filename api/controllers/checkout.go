package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lucasferrin/directory-backend/api/responses"
	"github.com/lucasferrin/directory-backend/api/validators"
	"github.com/lucasferrin/directory-backend/internal/checkout"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
	"github.com/lucasferrin/directory-backend/pkg/logger"
)

type checkoutSessionRequest struct {
	SubmissionID uuid.UUID `json:"submission_id" validate:"required,uuid4"`
}

// CreateCheckoutSession starts a hosted subscription checkout for a paid-plan
// submission.
func CreateCheckoutSession(svc *checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateSession(r.Context(), payload.SubmissionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
