package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/lucasferrin/directory-backend/api/responses"
	"github.com/lucasferrin/directory-backend/pkg/config"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
	"github.com/lucasferrin/directory-backend/pkg/logger"
)

// OperatorAuth guards the review endpoints behind the shared operator token,
// presented as "Authorization: Bearer <token>".
func OperatorAuth(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if cfg.Token == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "operator token not configured"))
				return
			}

			presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || presented == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator token required"))
				return
			}

			if subtle.ConstantTimeCompare([]byte(presented), []byte(cfg.Token)) != 1 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator token invalid"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
