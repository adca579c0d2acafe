package clinics

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caremesh/caremesh-backend/pkg/db/models"
	pkgerrors "github.com/caremesh/caremesh-backend/pkg/errors"
)

// Repository reads tenant configuration. Clinic rows are reference data
// owned by the out-of-scope admin surface; nothing here writes them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Clinic, error)
	FindBySlug(ctx context.Context, slug string) (*models.Clinic, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a clinic repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Clinic, error) {
	var clinic models.Clinic
	if err := r.db.WithContext(ctx).
		Preload("FeeTiers").
		First(&clinic, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "clinic not found")
		}
		return nil, err
	}
	return &clinic, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Clinic, error) {
	var clinic models.Clinic
	if err := r.db.WithContext(ctx).
		Preload("FeeTiers").
		First(&clinic, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "clinic not found")
		}
		return nil, err
	}
	return &clinic, nil
}
