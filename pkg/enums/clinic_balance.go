package enums

import "fmt"

// ClinicBalanceType classifies ledger entries. Today only refund debt
// coverage is recorded.
type ClinicBalanceType string

const (
	ClinicBalanceTypeRefundDebt ClinicBalanceType = "refund_debt"
)

var validClinicBalanceTypes = []ClinicBalanceType{
	ClinicBalanceTypeRefundDebt,
}

// IsValid reports whether the value is a known ClinicBalanceType.
func (t ClinicBalanceType) IsValid() bool {
	for _, candidate := range validClinicBalanceTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseClinicBalanceType converts raw input into a ClinicBalanceType.
func ParseClinicBalanceType(value string) (ClinicBalanceType, error) {
	for _, candidate := range validClinicBalanceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid clinic balance type %q", value)
}

// ClinicBalanceStatus marks whether the platform collected the covered
// amount instantly (paid) or is owed it out-of-band (pending).
type ClinicBalanceStatus string

const (
	ClinicBalanceStatusPending ClinicBalanceStatus = "pending"
	ClinicBalanceStatusPaid    ClinicBalanceStatus = "paid"
)

var validClinicBalanceStatuses = []ClinicBalanceStatus{
	ClinicBalanceStatusPending,
	ClinicBalanceStatusPaid,
}

// IsValid reports whether the value is a known ClinicBalanceStatus.
func (s ClinicBalanceStatus) IsValid() bool {
	for _, candidate := range validClinicBalanceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseClinicBalanceStatus converts raw input into a ClinicBalanceStatus.
func ParseClinicBalanceStatus(value string) (ClinicBalanceStatus, error) {
	for _, candidate := range validClinicBalanceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid clinic balance status %q", value)
}
