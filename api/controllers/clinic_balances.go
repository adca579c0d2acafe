package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/caremesh/caremesh-backend/api/middleware"
	"github.com/caremesh/caremesh-backend/api/responses"
	ledgersvc "github.com/caremesh/caremesh-backend/internal/ledger"
	"github.com/caremesh/caremesh-backend/pkg/db/models"
	"github.com/caremesh/caremesh-backend/pkg/enums"
	pkgerrors "github.com/caremesh/caremesh-backend/pkg/errors"
	"github.com/caremesh/caremesh-backend/pkg/logger"
)

// ListClinicBalances returns a clinic's ledger entries, newest first.
// Clinic admins may only read their own clinic; platform admins may read
// any.
func ListClinicBalances(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		clinicID, err := uuid.Parse(chi.URLParam(r, "clinicID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid clinic id"))
			return
		}

		role := middleware.RoleFromContext(r.Context())
		if role != string(enums.UserRolePlatformAdmin) {
			if middleware.ClinicIDFromContext(r.Context()) != clinicID.String() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "cannot read another clinic's ledger"))
				return
			}
		}

		entries, err := svc.ListByClinic(r.Context(), clinicID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]clinicBalanceResponse, 0, len(entries))
		for i := range entries {
			out = append(out, newClinicBalanceResponse(&entries[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type clinicBalanceResponse struct {
	ID               uuid.UUID  `json:"id"`
	ClinicID         uuid.UUID  `json:"clinic_id"`
	OrderID          uuid.UUID  `json:"order_id"`
	Amount           string     `json:"amount"`
	Type             string     `json:"type"`
	Status           string     `json:"status"`
	StripeTransferID *string    `json:"stripe_transfer_id,omitempty"`
	StripeRefundID   *string    `json:"stripe_refund_id,omitempty"`
	Description      string     `json:"description"`
	Notes            *string    `json:"notes,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func newClinicBalanceResponse(entry *models.ClinicBalance) clinicBalanceResponse {
	return clinicBalanceResponse{
		ID:               entry.ID,
		ClinicID:         entry.ClinicID,
		OrderID:          entry.OrderID,
		Amount:           entry.Amount.StringFixed(2),
		Type:             string(entry.Type),
		Status:           string(entry.Status),
		StripeTransferID: entry.StripeTransferID,
		StripeRefundID:   entry.StripeRefundID,
		Description:      entry.Description,
		Notes:            entry.Notes,
		PaidAt:           entry.PaidAt,
		CreatedAt:        entry.CreatedAt,
	}
}
