package stripe

import "github.com/shopspring/decimal"

var centsPerUnit = decimal.NewFromInt(100)

// ToMinorUnits converts a decimal major-unit amount into integer cents,
// rounding half away from zero at the cent. This is the only place amounts
// cross from decimal storage to the gateway's integer representation.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(centsPerUnit).Round(0).IntPart()
}

// FromMinorUnits converts gateway cents back into a decimal major-unit
// amount.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
