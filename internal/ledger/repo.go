package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caremesh/caremesh-backend/pkg/db/models"
)

// Repository manages persistence for clinic balance entries. The ledger is
// append-only; no update or delete surface exists.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.ClinicBalance) error
	ListByClinicID(ctx context.Context, clinicID uuid.UUID) ([]models.ClinicBalance, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.ClinicBalance, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.ClinicBalance) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByClinicID(ctx context.Context, clinicID uuid.UUID) ([]models.ClinicBalance, error) {
	var entries []models.ClinicBalance
	if err := r.db.WithContext(ctx).
		Where("clinic_id = ?", clinicID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.ClinicBalance, error) {
	var entries []models.ClinicBalance
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
