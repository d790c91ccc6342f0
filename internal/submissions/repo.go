package submissions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasferrin/directory-backend/pkg/db/models"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
)

// Repository exposes persistence helpers for submissions. Patch applies a
// partial last-write-wins column update on a single row; lifecycle paths
// never span rows in one write.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Patch(ctx context.Context, id uuid.UUID, fields map[string]any) error
	FindByStripeCustomerID(ctx context.Context, customerID string) (*models.Submission, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a submissions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).First(&submission, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load submission")
	}
	return &submission, nil
}

func (r *repositoryImpl) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(submission).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create submission")
	}
	return nil
}

func (r *repositoryImpl) Patch(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "patch submission")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
	}
	return nil
}

func (r *repositoryImpl) FindByStripeCustomerID(ctx context.Context, customerID string) (*models.Submission, error) {
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe customer id required")
	}
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Where("stripe_customer_id = ?", customerID).
		Order("created_at DESC").
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found for customer")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup submission by customer")
	}
	return &submission, nil
}
