package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/caremesh/caremesh-backend/api/middleware"
	"github.com/caremesh/caremesh-backend/api/responses"
	"github.com/caremesh/caremesh-backend/api/validators"
	refundsvc "github.com/caremesh/caremesh-backend/internal/refunds"
	"github.com/caremesh/caremesh-backend/pkg/enums"
	pkgerrors "github.com/caremesh/caremesh-backend/pkg/errors"
	"github.com/caremesh/caremesh-backend/pkg/logger"
)

// ListRefundRequests returns the review queue, optionally filtered by status.
func ListRefundRequests(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.RefundRequestStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enums.ParseRefundRequestStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown refund request status"))
				return
			}
			status = &parsed
		}

		requests, err := svc.List(r.Context(), status, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]refundRequestResponse, 0, len(requests))
		for i := range requests {
			out = append(out, newRefundRequestResponse(&requests[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// ApproveRefundRequest issues the gateway refund, collects the clinic's
// coverage share, and resolves the request.
func ApproveRefundRequest(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return reviewRefundRequest(svc, logg, func(r *http.Request, id, reviewerID uuid.UUID, notes string) (any, error) {
		request, err := svc.Approve(r.Context(), id, reviewerID, notes)
		if err != nil {
			return nil, err
		}
		return newRefundRequestResponse(request), nil
	})
}

// DenyRefundRequest resolves the request without touching payment state.
func DenyRefundRequest(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return reviewRefundRequest(svc, logg, func(r *http.Request, id, reviewerID uuid.UUID, notes string) (any, error) {
		request, err := svc.Deny(r.Context(), id, reviewerID, notes)
		if err != nil {
			return nil, err
		}
		return newRefundRequestResponse(request), nil
	})
}

type refundReviewRequest struct {
	Notes string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func reviewRefundRequest(svc refundsvc.Service, logg *logger.Logger, decide func(r *http.Request, id, reviewerID uuid.UUID, notes string) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "requestID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid refund request id"))
			return
		}

		reviewerID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated reviewer required"))
			return
		}

		var payload refundReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := decide(r, id, reviewerID, payload.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
