package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caremesh/caremesh-backend/pkg/enums"
)

// Order is one checkout attempt. The fee breakdown is persisted before the
// gateway intent is created so a failed attempt still leaves an auditable
// row. All money fields are decimal major units.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber int64             `gorm:"column:order_number;not null;unique"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	ClinicID    *uuid.UUID        `gorm:"column:clinic_id;type:uuid;index"`
	AffiliateID *uuid.UUID        `gorm:"column:affiliate_id;type:uuid"`
	Status      enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	VisitType   enums.VisitType   `gorm:"column:visit_type;type:visit_type;not null;default:'none'"`

	SubtotalAmount decimal.Decimal `gorm:"column:subtotal_amount;type:numeric(12,2);not null"`
	VisitFeeAmount decimal.Decimal `gorm:"column:visit_fee_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`

	PlatformFeePercent      decimal.Decimal `gorm:"column:platform_fee_percent;type:numeric(5,2);not null;default:0"`
	PlatformFeeAmount       decimal.Decimal `gorm:"column:platform_fee_amount;type:numeric(12,2);not null;default:0"`
	StripeAmount            decimal.Decimal `gorm:"column:stripe_amount;type:numeric(12,2);not null;default:0"`
	DoctorAmount            decimal.Decimal `gorm:"column:doctor_amount;type:numeric(12,2);not null;default:0"`
	PharmacyWholesaleAmount decimal.Decimal `gorm:"column:pharmacy_wholesale_amount;type:numeric(12,2);not null;default:0"`
	BrandAmount             decimal.Decimal `gorm:"column:brand_amount;type:numeric(12,2);not null;default:0"`

	TelehealthCaseID *string `gorm:"column:telehealth_case_id"`

	Items           []OrderItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment         *Payment         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress *ShippingAddress `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
