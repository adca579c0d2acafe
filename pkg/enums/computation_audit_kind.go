package enums

import "fmt"

// ComputationAuditKind names the computation that degraded to a default.
type ComputationAuditKind string

const (
	ComputationAuditKindFeeSplit ComputationAuditKind = "fee_split"
	ComputationAuditKindVisitFee ComputationAuditKind = "visit_fee"
)

var validComputationAuditKinds = []ComputationAuditKind{
	ComputationAuditKindFeeSplit,
	ComputationAuditKindVisitFee,
}

// IsValid reports whether the value is a known ComputationAuditKind.
func (k ComputationAuditKind) IsValid() bool {
	for _, candidate := range validComputationAuditKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseComputationAuditKind converts raw input into a ComputationAuditKind.
func ParseComputationAuditKind(value string) (ComputationAuditKind, error) {
	for _, candidate := range validComputationAuditKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid computation audit kind %q", value)
}
