package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lucasferrin/directory-backend/api/responses"
	"github.com/lucasferrin/directory-backend/api/validators"
	"github.com/lucasferrin/directory-backend/internal/submissions"
	"github.com/lucasferrin/directory-backend/pkg/enums"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
	"github.com/lucasferrin/directory-backend/pkg/logger"
)

type statusDecisionRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// AdminSetSubmissionStatus records an operator's approval or rejection.
func AdminSetSubmissionStatus(svc *submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submission service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "submissionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "submission id is not a uuid"))
			return
		}

		var payload statusDecisionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseSubmissionStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse status"))
			return
		}

		result, err := svc.SetStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
