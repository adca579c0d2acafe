package controllers

import (
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/caremesh/caremesh-backend/api/middleware"
	"github.com/caremesh/caremesh-backend/api/responses"
	"github.com/caremesh/caremesh-backend/api/validators"
	checkoutsvc "github.com/caremesh/caremesh-backend/internal/checkout"
	pkgerrors "github.com/caremesh/caremesh-backend/pkg/errors"
	"github.com/caremesh/caremesh-backend/pkg/logger"
)

// Checkout prices the submitted items, persists the order with its fee
// breakdown, and opens a payment intent for the browser SDK to confirm.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user required"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkoutsvc.Input{
			UserID:        userID,
			PatientState:  payload.PatientState,
			AffiliateSlug: payload.ClinicSlug,
			OriginHost:    originHost(r),
		}
		for _, item := range payload.Items {
			input.Items = append(input.Items, checkoutsvc.ItemInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}
		if payload.Shipping != nil {
			input.Shipping = &checkoutsvc.ShippingInput{
				Line1:      payload.Shipping.Line1,
				Line2:      payload.Shipping.Line2,
				City:       payload.Shipping.City,
				State:      payload.Shipping.State,
				PostalCode: payload.Shipping.PostalCode,
				Country:    payload.Shipping.Country,
			}
		}

		result, err := svc.CreateOrderAndIntent(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			OrderID:      result.OrderID,
			OrderNumber:  result.OrderNumber,
			ClientSecret: result.ClientSecret,
			TotalAmount:  result.TotalAmount,
			Currency:     result.Currency,
		})
	}
}

func originHost(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return parsed.Host
		}
	}
	return r.Host
}

type checkoutItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required,uuid4"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=50"`
}

type checkoutShippingRequest struct {
	Line1      string `json:"line1" validate:"omitempty,max=200"`
	Line2      string `json:"line2" validate:"omitempty,max=200"`
	City       string `json:"city" validate:"omitempty,max=100"`
	State      string `json:"state" validate:"omitempty,len=2"`
	PostalCode string `json:"postal_code" validate:"omitempty,max=12"`
	Country    string `json:"country" validate:"omitempty,len=2"`
}

type checkoutRequest struct {
	PatientState string                   `json:"patient_state" validate:"required,len=2"`
	Items        []checkoutItemRequest    `json:"items" validate:"required,min=1,max=50,dive"`
	Shipping     *checkoutShippingRequest `json:"shipping,omitempty"`
	ClinicSlug   string                   `json:"clinic_slug,omitempty" validate:"omitempty,max=100"`
}

type checkoutResponse struct {
	OrderID      uuid.UUID `json:"order_id"`
	OrderNumber  int64     `json:"order_number"`
	ClientSecret string    `json:"client_secret"`
	TotalAmount  string    `json:"total_amount"`
	Currency     string    `json:"currency"`
}
