package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Clinic is a tenant storefront. Fee configuration and the connected
// gateway sub-account are read-only reference data from this service's
// perspective.
type Clinic struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string          `gorm:"column:name;not null"`
	Slug            string          `gorm:"column:slug;not null;unique"`
	StripeAccountID *string         `gorm:"column:stripe_account_id"`
	DoctorFee       decimal.Decimal `gorm:"column:doctor_fee;type:numeric(12,2);not null;default:0"`
	SyncVisitFee    decimal.Decimal `gorm:"column:sync_visit_fee;type:numeric(12,2);not null;default:0"`
	AsyncVisitFee   decimal.Decimal `gorm:"column:async_visit_fee;type:numeric(12,2);not null;default:0"`
	Active          bool            `gorm:"column:active;not null;default:true"`
	FeeTiers        []ClinicFeeTier `gorm:"foreignKey:ClinicID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// HasConnectedAccount reports whether the clinic can receive direct gateway
// transfers.
func (c *Clinic) HasConnectedAccount() bool {
	return c != nil && c.StripeAccountID != nil && *c.StripeAccountID != ""
}

// ClinicFeeTier is one rung of a clinic's tiered platform fee. The resolver
// picks the highest tier whose MinOrders bound the clinic has reached.
type ClinicFeeTier struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClinicID           uuid.UUID       `gorm:"column:clinic_id;type:uuid;not null;index"`
	MinOrders          int             `gorm:"column:min_orders;not null;default:0"`
	PlatformFeePercent decimal.Decimal `gorm:"column:platform_fee_percent;type:numeric(5,2);not null"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
