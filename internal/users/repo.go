package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caremesh/caremesh-backend/pkg/db/models"
	"github.com/caremesh/caremesh-backend/pkg/enums"
	pkgerrors "github.com/caremesh/caremesh-backend/pkg/errors"
)

// Repository reads identity rows written by the upstream auth system.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindClinicAdmin(ctx context.Context, clinicID uuid.UUID) (*models.User, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a user repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindClinicAdmin returns the clinic's earliest admin user, the account
// orders attributed to the clinic are credited to.
func (r *repository) FindClinicAdmin(ctx context.Context, clinicID uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("clinic_id = ? AND role = ?", clinicID, enums.UserRoleClinicAdmin).
		Order("created_at ASC").
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "clinic admin not found")
		}
		return nil, err
	}
	return &user, nil
}
