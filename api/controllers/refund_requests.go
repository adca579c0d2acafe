package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/caremesh/caremesh-backend/api/middleware"
	"github.com/caremesh/caremesh-backend/api/responses"
	"github.com/caremesh/caremesh-backend/api/validators"
	refundsvc "github.com/caremesh/caremesh-backend/internal/refunds"
	"github.com/caremesh/caremesh-backend/pkg/db/models"
	pkgerrors "github.com/caremesh/caremesh-backend/pkg/errors"
	"github.com/caremesh/caremesh-backend/pkg/logger"
)

// CreateRefundRequest opens a refund request against a paid order. The
// request snapshots the brand coverage owed so later review is priced
// against the split captured at checkout.
func CreateRefundRequest(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable"))
			return
		}

		requesterID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user required"))
			return
		}

		var payload refundRequestCreate
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Create(r.Context(), payload.OrderID, requesterID, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newRefundRequestResponse(request))
	}
}

type refundRequestCreate struct {
	OrderID uuid.UUID `json:"order_id" validate:"required,uuid4"`
	Reason  string    `json:"reason" validate:"required,min=3,max=2000"`
}

type refundRequestResponse struct {
	ID                  uuid.UUID  `json:"id"`
	OrderID             uuid.UUID  `json:"order_id"`
	ClinicID            *uuid.UUID `json:"clinic_id,omitempty"`
	Amount              string     `json:"amount"`
	BrandCoverageAmount string     `json:"brand_coverage_amount"`
	Reason              string     `json:"reason"`
	Status              string     `json:"status"`
	ReviewedByID        *uuid.UUID `json:"reviewed_by_id,omitempty"`
	ReviewNotes         *string    `json:"review_notes,omitempty"`
	ReviewedAt          *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func newRefundRequestResponse(request *models.RefundRequest) refundRequestResponse {
	return refundRequestResponse{
		ID:                  request.ID,
		OrderID:             request.OrderID,
		ClinicID:            request.ClinicID,
		Amount:              request.Amount.StringFixed(2),
		BrandCoverageAmount: request.BrandCoverageAmount.StringFixed(2),
		Reason:              request.Reason,
		Status:              string(request.Status),
		ReviewedByID:        request.ReviewedByID,
		ReviewNotes:         request.ReviewNotes,
		ReviewedAt:          request.ReviewedAt,
		CreatedAt:           request.CreatedAt,
	}
}
