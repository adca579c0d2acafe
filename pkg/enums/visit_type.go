package enums

import "fmt"

// VisitType is the telehealth visit mode a patient's state requires.
type VisitType string

const (
	VisitTypeSync  VisitType = "sync"
	VisitTypeAsync VisitType = "async"
	VisitTypeNone  VisitType = "none"
)

var validVisitTypes = []VisitType{
	VisitTypeSync,
	VisitTypeAsync,
	VisitTypeNone,
}

// String implements fmt.Stringer.
func (v VisitType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VisitType.
func (v VisitType) IsValid() bool {
	for _, candidate := range validVisitTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVisitType converts raw input into a VisitType.
func ParseVisitType(value string) (VisitType, error) {
	for _, candidate := range validVisitTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid visit type %q", value)
}
