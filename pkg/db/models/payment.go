package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caremesh/caremesh-backend/pkg/enums"
)

// Payment binds an order 1:1 to a gateway payment intent. The row exists
// only when the intent call succeeded, so its presence means money was
// authorized. Created by checkout; mutated only by the refund workflow and
// the capture webhook.
type Payment struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID               uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	StripePaymentIntentID string              `gorm:"column:stripe_payment_intent_id;not null;unique"`
	Status                enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	Amount                decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency              enums.Currency      `gorm:"column:currency;type:text;not null;default:'usd'"`
	RefundedAmount        decimal.Decimal     `gorm:"column:refunded_amount;type:numeric(12,2);not null;default:0"`
	RefundedAt            *time.Time          `gorm:"column:refunded_at"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
