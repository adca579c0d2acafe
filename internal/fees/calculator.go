package fees

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	// amounts are stored at cent precision
	centPlaces int32 = 2
)

// LineItem carries the per-unit wholesale cost for one selected product.
type LineItem struct {
	ProductID            uuid.UUID
	Quantity             int
	WholesaleCostPerUnit decimal.Decimal
}

// FeeConfig is the fee configuration resolved once per request and threaded
// into the calculator, keeping the computation pure.
type FeeConfig struct {
	PlatformFeePercent  decimal.Decimal
	ProcessorFeePercent decimal.Decimal
	ClinicianFlatFee    decimal.Decimal
}

// Validate rejects configurations that cannot produce a meaningful split.
func (c FeeConfig) Validate() error {
	if c.PlatformFeePercent.IsNegative() || c.PlatformFeePercent.GreaterThan(hundred) {
		return fmt.Errorf("platform fee percent %s out of range", c.PlatformFeePercent)
	}
	if c.ProcessorFeePercent.IsNegative() || c.ProcessorFeePercent.GreaterThan(hundred) {
		return fmt.Errorf("processor fee percent %s out of range", c.ProcessorFeePercent)
	}
	if c.ClinicianFlatFee.IsNegative() {
		return fmt.Errorf("clinician flat fee %s is negative", c.ClinicianFlatFee)
	}
	return nil
}

// Split is the five-way decomposition of a paid order amount.
type Split struct {
	PlatformFeeAmount       decimal.Decimal
	StripeAmount            decimal.Decimal
	DoctorAmount            decimal.Decimal
	PharmacyWholesaleAmount decimal.Decimal
	BrandAmount             decimal.Decimal
}

// Total sums all five shares.
func (s Split) Total() decimal.Decimal {
	return s.PlatformFeeAmount.
		Add(s.StripeAmount).
		Add(s.DoctorAmount).
		Add(s.PharmacyWholesaleAmount).
		Add(s.BrandAmount)
}

// ComputeSplit decomposes totalPaid into platform, processor, clinician,
// pharmacy and brand shares. Wholesale cost accrues per unit actually
// ordered; zero-quantity items are skipped. The brand share is the residual,
// floored at zero: misconfigured per-unit costs must never produce a
// negative transfer.
func ComputeSplit(totalPaid decimal.Decimal, items []LineItem, cfg FeeConfig) (Split, error) {
	if totalPaid.IsNegative() {
		return Split{}, fmt.Errorf("total paid %s is negative", totalPaid)
	}
	if err := cfg.Validate(); err != nil {
		return Split{}, err
	}

	wholesale := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if item.WholesaleCostPerUnit.IsNegative() {
			return Split{}, fmt.Errorf("product %s has negative wholesale cost", item.ProductID)
		}
		wholesale = wholesale.Add(item.WholesaleCostPerUnit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	platform := totalPaid.Mul(cfg.PlatformFeePercent).Div(hundred).Round(centPlaces)
	processor := totalPaid.Mul(cfg.ProcessorFeePercent).Div(hundred).Round(centPlaces)
	doctor := cfg.ClinicianFlatFee.Round(centPlaces)
	wholesale = wholesale.Round(centPlaces)

	brand := totalPaid.Sub(platform).Sub(processor).Sub(doctor).Sub(wholesale)
	if brand.IsNegative() {
		brand = decimal.Zero
	}

	return Split{
		PlatformFeeAmount:       platform,
		StripeAmount:            processor,
		DoctorAmount:            doctor,
		PharmacyWholesaleAmount: wholesale,
		BrandAmount:             brand,
	}, nil
}
