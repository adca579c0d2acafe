package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caremesh/caremesh-backend/pkg/db/models"
	"github.com/caremesh/caremesh-backend/pkg/enums"
	"github.com/caremesh/caremesh-backend/pkg/logger"
)

// Recorder persists degraded-computation audit rows. Checkout must not fail
// because an audit write failed, so Record logs persistence errors instead
// of returning them.
type Recorder struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewRecorder builds an audit recorder.
func NewRecorder(db *gorm.DB, logg *logger.Logger) (*Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &Recorder{db: db, logg: logg}, nil
}

// Record writes one audit row, using tx when the caller is mid-transaction.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, kind enums.ComputationAuditKind, message string) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	row := &models.ComputationAudit{
		OrderID: orderID,
		Kind:    kind,
		Message: message,
	}
	if err := conn.WithContext(ctx).Create(row).Error; err != nil && r.logg != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"order_id":   orderID.String(),
			"audit_kind": string(kind),
		})
		r.logg.Error(logCtx, "failed to persist computation audit", err)
	}
}
