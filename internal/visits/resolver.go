package visits

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/caremesh/caremesh-backend/pkg/db/models"
	"github.com/caremesh/caremesh-backend/pkg/enums"
)

// syncStates lists the states whose telehealth rules require a synchronous
// (live video) visit before prescribing. Everywhere else an asynchronous
// questionnaire review is sufficient.
var syncStates = map[string]struct{}{
	"AR": {}, "DC": {}, "DE": {}, "ID": {}, "KS": {},
	"LA": {}, "NM": {}, "RI": {}, "WV": {},
}

// Resolution is the visit mode and fee an order incurs.
type Resolution struct {
	Type enums.VisitType
	Fee  decimal.Decimal
}

// Resolve determines the visit type from the patient's state and prices it
// from the clinic's configuration. Callers treat an error as "fee unknown"
// and degrade to zero rather than blocking checkout.
func Resolve(patientState string, clinic *models.Clinic) (Resolution, error) {
	if patientState == "" {
		return Resolution{}, fmt.Errorf("patient state is required")
	}
	if clinic == nil {
		return Resolution{Type: enums.VisitTypeNone, Fee: decimal.Zero}, nil
	}

	if _, ok := syncStates[patientState]; ok {
		if clinic.SyncVisitFee.IsNegative() {
			return Resolution{}, fmt.Errorf("clinic %s sync visit fee misconfigured", clinic.ID)
		}
		return Resolution{Type: enums.VisitTypeSync, Fee: clinic.SyncVisitFee}, nil
	}

	if clinic.AsyncVisitFee.IsNegative() {
		return Resolution{}, fmt.Errorf("clinic %s async visit fee misconfigured", clinic.ID)
	}
	return Resolution{Type: enums.VisitTypeAsync, Fee: clinic.AsyncVisitFee}, nil
}
