package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caremesh/caremesh-backend/pkg/enums"
)

// ClinicBalance is one append-only ledger line of platform/tenant exposure.
// Positive amount with status paid means the clinic covered the refund
// instantly; negative amount with status pending means the platform fronted
// the money and collects out-of-band. Rows are never updated.
type ClinicBalance struct {
	ID               uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClinicID         uuid.UUID                 `gorm:"column:clinic_id;type:uuid;not null;index"`
	OrderID          uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;index"`
	Amount           decimal.Decimal           `gorm:"column:amount;type:numeric(12,2);not null"`
	Type             enums.ClinicBalanceType   `gorm:"column:type;type:clinic_balance_type;not null"`
	Status           enums.ClinicBalanceStatus `gorm:"column:status;type:clinic_balance_status;not null"`
	StripeTransferID *string                   `gorm:"column:stripe_transfer_id"`
	StripeRefundID   *string                   `gorm:"column:stripe_refund_id"`
	Description      string                    `gorm:"column:description;not null;default:''"`
	Notes            *string                   `gorm:"column:notes"`
	PaidAt           *time.Time                `gorm:"column:paid_at"`
	CreatedAt        time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
