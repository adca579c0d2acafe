package refunds

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caremesh/caremesh-backend/pkg/db/models"
	"github.com/caremesh/caremesh-backend/pkg/enums"
	pkgerrors "github.com/caremesh/caremesh-backend/pkg/errors"
)

// PendingOrderConstraint is the partial unique index backing the single
// pending request per order rule.
const PendingOrderConstraint = "ux_refund_requests_pending_order"

// Repository manages refund request persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.RefundRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RefundRequest, error)
	FindPendingByOrderID(ctx context.Context, orderID uuid.UUID) (*models.RefundRequest, error)
	List(ctx context.Context, status *enums.RefundRequestStatus, limit, offset int) ([]models.RefundRequest, error)
	MarkReviewed(ctx context.Context, id uuid.UUID, status enums.RefundRequestStatus, reviewerID uuid.UUID, notes *string, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a refund request repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.RefundRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RefundRequest, error) {
	var request models.RefundRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "refund request not found")
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindPendingByOrderID(ctx context.Context, orderID uuid.UUID) (*models.RefundRequest, error) {
	var request models.RefundRequest
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, enums.RefundRequestStatusPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) List(ctx context.Context, status *enums.RefundRequestStatus, limit, offset int) ([]models.RefundRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := r.db.WithContext(ctx).Model(&models.RefundRequest{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.RefundRequest
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}

// MarkReviewed transitions a pending request to its terminal state. The
// status predicate keeps concurrent reviewers from double-resolving.
func (r *repository) MarkReviewed(ctx context.Context, id uuid.UUID, status enums.RefundRequestStatus, reviewerID uuid.UUID, notes *string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.RefundRequest{}).
		Where("id = ? AND status = ?", id, enums.RefundRequestStatusPending).
		Updates(map[string]any{
			"status":         status,
			"reviewed_by_id": reviewerID,
			"review_notes":   notes,
			"reviewed_at":    at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidState, "refund request already resolved")
	}
	return nil
}
