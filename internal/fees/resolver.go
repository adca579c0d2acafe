package fees

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/caremesh/caremesh-backend/pkg/config"
	"github.com/caremesh/caremesh-backend/pkg/db/models"
)

// Defaults are the process-wide fee fallbacks parsed once at startup.
type Defaults struct {
	PlatformFeePercent  decimal.Decimal
	ProcessorFeePercent decimal.Decimal
	ClinicianFlatFee    decimal.Decimal
}

// ParseDefaults converts the raw config strings into decimal defaults.
func ParseDefaults(cfg config.FeesConfig) (Defaults, error) {
	platform, err := decimal.NewFromString(cfg.PlatformFeePercent)
	if err != nil {
		return Defaults{}, fmt.Errorf("parsing platform fee percent: %w", err)
	}
	processor, err := decimal.NewFromString(cfg.ProcessorFeePercent)
	if err != nil {
		return Defaults{}, fmt.Errorf("parsing processor fee percent: %w", err)
	}
	flat, err := decimal.NewFromString(cfg.ClinicianFlatFee)
	if err != nil {
		return Defaults{}, fmt.Errorf("parsing clinician flat fee: %w", err)
	}
	return Defaults{
		PlatformFeePercent:  platform,
		ProcessorFeePercent: processor,
		ClinicianFlatFee:    flat,
	}, nil
}

// Resolve builds the FeeConfig for one order. The platform percent comes
// from the highest clinic tier whose order-count bound is met, falling back
// to the global default; the clinician flat fee prefers the clinic's own
// doctor fee when configured.
func (d Defaults) Resolve(clinic *models.Clinic, completedOrders int) FeeConfig {
	cfg := FeeConfig{
		PlatformFeePercent:  d.PlatformFeePercent,
		ProcessorFeePercent: d.ProcessorFeePercent,
		ClinicianFlatFee:    d.ClinicianFlatFee,
	}
	if clinic == nil {
		return cfg
	}
	if clinic.DoctorFee.IsPositive() {
		cfg.ClinicianFlatFee = clinic.DoctorFee
	}

	bestMin := -1
	for _, tier := range clinic.FeeTiers {
		if tier.MinOrders <= completedOrders && tier.MinOrders > bestMin {
			bestMin = tier.MinOrders
			cfg.PlatformFeePercent = tier.PlatformFeePercent
		}
	}
	return cfg
}
