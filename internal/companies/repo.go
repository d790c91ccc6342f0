package companies

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lucasferrin/directory-backend/pkg/db/models"
	pkgerrors "github.com/lucasferrin/directory-backend/pkg/errors"
)

// Repository exposes persistence helpers for published companies.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Company, error)
	Create(ctx context.Context, company *models.Company) error
	Patch(ctx context.Context, id uuid.UUID, fields map[string]any) error
	FindBySlug(ctx context.Context, slug string) (*models.Company, error)
	FindBySubmissionID(ctx context.Context, submissionID uuid.UUID) (*models.Company, error)
	List(ctx context.Context, featuredOnly bool) ([]models.Company, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a companies repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}
	return &company, nil
}

func (r *repositoryImpl) Create(ctx context.Context, company *models.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(company).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create company")
	}
	return nil
}

func (r *repositoryImpl) Patch(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "patch company")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}
	return nil
}

func (r *repositoryImpl) FindBySlug(ctx context.Context, slug string) (*models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup company by slug")
	}
	return &company, nil
}

func (r *repositoryImpl) FindBySubmissionID(ctx context.Context, submissionID uuid.UUID) (*models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).Where("submission_id = ?", submissionID).First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup company by submission")
	}
	return &company, nil
}

func (r *repositoryImpl) List(ctx context.Context, featuredOnly bool) ([]models.Company, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if featuredOnly {
		query = query.Where("featured = ?", true)
	}
	var companies []models.Company
	if err := query.Order("created_at DESC").Find(&companies).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list companies")
	}
	return companies, nil
}
