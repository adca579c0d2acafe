package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caremesh/caremesh-backend/pkg/enums"
)

// RefundRequest asks to reverse one order's payment in full. Immutable once
// resolved. At most one pending request may exist per order, enforced by a
// partial unique index on (order_id) where status = 'pending'.
type RefundRequest struct {
	ID                  uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;index"`
	ClinicID            *uuid.UUID                `gorm:"column:clinic_id;type:uuid;index"`
	RequestedByID       uuid.UUID                 `gorm:"column:requested_by_id;type:uuid;not null"`
	Amount              decimal.Decimal           `gorm:"column:amount;type:numeric(12,2);not null"`
	BrandCoverageAmount decimal.Decimal           `gorm:"column:brand_coverage_amount;type:numeric(12,2);not null;default:0"`
	Reason              string                    `gorm:"column:reason;not null"`
	Status              enums.RefundRequestStatus `gorm:"column:status;type:refund_request_status;not null;default:'pending'"`
	ReviewedByID        *uuid.UUID                `gorm:"column:reviewed_by_id;type:uuid"`
	ReviewNotes         *string                   `gorm:"column:review_notes"`
	ReviewedAt          *time.Time                `gorm:"column:reviewed_at"`
	CreatedAt           time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
