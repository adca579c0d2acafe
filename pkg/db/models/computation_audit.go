package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/caremesh/caremesh-backend/pkg/enums"
)

// ComputationAudit records a computation that degraded to a default value
// instead of blocking checkout, so affected orders stay discoverable.
type ComputationAudit struct {
	ID        uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID                  `gorm:"column:order_id;type:uuid;not null;index"`
	Kind      enums.ComputationAuditKind `gorm:"column:kind;type:computation_audit_kind;not null"`
	Message   string                     `gorm:"column:message;not null"`
	CreatedAt time.Time                  `gorm:"column:created_at;autoCreateTime"`
}
