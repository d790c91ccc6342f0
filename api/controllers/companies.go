package controllers

import (
	"net/http"

	"github.com/lucasferrin/directory-backend/api/responses"
	"github.com/lucasferrin/directory-backend/internal/companies"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
	"github.com/lucasferrin/directory-backend/pkg/logger"
)

// ListCompanies returns the published directory, optionally filtered to
// featured listings via ?featured=true.
func ListCompanies(svc *companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "company service unavailable"))
			return
		}

		featuredOnly := r.URL.Query().Get("featured") == "true"

		listings, err := svc.List(r.Context(), featuredOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listings)
	}
}
