package contentwebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lucasferrin/directory-backend/internal/submissions"
	"github.com/lucasferrin/directory-backend/pkg/enums"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
	"github.com/lucasferrin/directory-backend/pkg/logger"
)

type statusEngine interface {
	SetStatus(ctx context.Context, id uuid.UUID, status enums.SubmissionStatus) (*submissions.StatusResult, error)
}

// StatusChange is the content store's webhook payload.
type StatusChange struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ServiceParams struct {
	Engine    statusEngine
	Secret    string
	Tolerance time.Duration
	Logger    *logger.Logger
}

// Service feeds editor-made status changes into the transition engine after
// verifying the shared-secret signature.
type Service struct {
	engine    statusEngine
	secret    string
	tolerance time.Duration
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "status engine required")
	}
	if params.Secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "content webhook secret required")
	}
	tolerance := params.Tolerance
	if tolerance == 0 {
		tolerance = DefaultTolerance
	}
	return &Service{
		engine:    params.Engine,
		secret:    params.Secret,
		tolerance: tolerance,
		logg:      params.Logger,
	}, nil
}

// HandleDelivery verifies the signature, decodes the payload, and applies the
// status change.
func (s *Service) HandleDelivery(ctx context.Context, body []byte, signatureHeader string) (*submissions.StatusResult, error) {
	if err := VerifySignature(body, signatureHeader, s.secret, s.tolerance); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "verify content webhook signature")
	}

	var change StatusChange
	if err := json.Unmarshal(body, &change); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode status change")
	}

	id, err := uuid.Parse(change.ID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submission id is not a uuid")
	}
	status, err := enums.ParseSubmissionStatus(change.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse status")
	}

	if s.logg != nil {
		ctx = s.logg.WithSubmissionID(ctx, id.String())
	}
	return s.engine.SetStatus(ctx, id, status)
}
