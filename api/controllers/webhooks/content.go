package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/lucasferrin/directory-backend/api/responses"
	"github.com/lucasferrin/directory-backend/internal/submissions"
	contentwebhook "github.com/lucasferrin/directory-backend/internal/webhooks/content"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
	"github.com/lucasferrin/directory-backend/pkg/logger"
	"github.com/lucasferrin/directory-backend/pkg/metrics"
)

const (
	contentSource    = "content"
	contentEventType = "status_change"
)

type ContentWebhookService interface {
	HandleDelivery(ctx context.Context, body []byte, signatureHeader string) (*submissions.StatusResult, error)
}

// ContentWebhook handles status-change deliveries from the content store.
func ContentWebhook(svc ContentWebhookService, wm *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		wm.IncReceived(contentSource, contentEventType)

		result, err := svc.HandleDelivery(ctx, body, r.Header.Get(contentwebhook.SignatureHeader))
		if err != nil {
			wm.IncFailed(contentSource, contentEventType)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		wm.IncHandled(contentSource, contentEventType)
		responses.WriteSuccess(w, result)
	}
}
