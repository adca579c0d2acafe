package checkout

import (
	"github.com/google/uuid"
)

// ItemInput is one product/quantity pair selected at checkout.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// ShippingInput is the optional fulfillment address. An incomplete address
// is skipped rather than rejected; pharmacy fulfillment follows up out of
// band.
type ShippingInput struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// Complete reports whether enough of the address was supplied to persist.
func (s *ShippingInput) Complete() bool {
	if s == nil {
		return false
	}
	return s.Line1 != "" && s.City != "" && s.State != "" && s.PostalCode != ""
}

// Input is everything checkout needs to price and charge one order.
type Input struct {
	UserID       uuid.UUID
	PatientState string
	Items        []ItemInput
	Shipping     *ShippingInput

	// AffiliateSlug is an explicit attribution reference; OriginHost is the
	// request's host for subdomain inference when no slug was passed.
	AffiliateSlug string
	OriginHost    string
}

// Result is returned to the controller on success. The client secret is
// handed to the browser SDK to confirm the intent.
type Result struct {
	OrderID      uuid.UUID
	OrderNumber  int64
	ClientSecret string
	TotalAmount  string
	Currency     string
}
