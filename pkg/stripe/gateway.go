package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/refund"
	"github.com/stripe/stripe-go/v84/transfer"
)

// Gateway is the subset of Stripe operations the checkout and refund flows
// depend on. Amounts cross this boundary as integer minor units only.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*IntentResult, error)
	CreateRefund(ctx context.Context, params CreateRefundParams) (*RefundResult, error)
	CreateTransfer(ctx context.Context, params CreateTransferParams) (*TransferResult, error)
}

// CreateIntentParams describes a payment intent. When TransferDestination is
// set, the destination receives TransferAmountCents at capture time and the
// platform retains the remainder.
type CreateIntentParams struct {
	AmountCents         int64
	Currency            string
	Metadata            map[string]string
	TransferDestination *string
	TransferAmountCents int64
}

// CreateRefundParams targets the original payment intent. ReverseTransfer
// additionally pulls the destination's share back; it is mutually exclusive
// with a plain refund at the gateway.
type CreateRefundParams struct {
	PaymentIntentID string
	ReverseTransfer bool
}

// CreateTransferParams moves funds from a connected account back to the
// platform (negative direction is expressed by the source account).
type CreateTransferParams struct {
	AmountCents   int64
	Currency      string
	DestinationID string
	SourceAccount string
	Metadata      map[string]string
}

// IntentResult is the validated projection of a created payment intent.
type IntentResult struct {
	ID           string
	ClientSecret string
	AmountCents  int64
	Status       string
}

// RefundResult is the validated projection of a created refund.
type RefundResult struct {
	ID              string
	AmountCents     int64
	Status          string
	ReverseTransfer bool
}

// TransferResult is the validated projection of a created transfer.
type TransferResult struct {
	ID          string
	AmountCents int64
	Destination string
}

type gateway struct{}

// NewGateway returns the production Stripe gateway. The package-level Stripe
// key set by NewClient authenticates the underlying calls.
func NewGateway(client *Client) Gateway {
	if client == nil {
		return nil
	}
	return &gateway{}
}

func (g *gateway) CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*IntentResult, error) {
	if params.AmountCents <= 0 {
		return nil, fmt.Errorf("intent amount must be positive, got %d", params.AmountCents)
	}
	pi := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(params.AmountCents),
		Currency: stripe.String(params.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	pi.Context = ctx
	for k, v := range params.Metadata {
		pi.AddMetadata(k, v)
	}
	if params.TransferDestination != nil && *params.TransferDestination != "" {
		pi.TransferData = &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(*params.TransferDestination),
			Amount:      stripe.Int64(params.TransferAmountCents),
		}
	}

	created, err := paymentintent.New(pi)
	if err != nil {
		return nil, err
	}
	return intentResultFrom(created)
}

func (g *gateway) CreateRefund(ctx context.Context, params CreateRefundParams) (*RefundResult, error) {
	if params.PaymentIntentID == "" {
		return nil, errors.New("payment intent id is required")
	}
	rf := &stripe.RefundParams{
		PaymentIntent: stripe.String(params.PaymentIntentID),
	}
	rf.Context = ctx
	if params.ReverseTransfer {
		rf.ReverseTransfer = stripe.Bool(true)
	}

	created, err := refund.New(rf)
	if err != nil {
		return nil, err
	}
	return refundResultFrom(created, params.ReverseTransfer)
}

func (g *gateway) CreateTransfer(ctx context.Context, params CreateTransferParams) (*TransferResult, error) {
	if params.AmountCents <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive, got %d", params.AmountCents)
	}
	if params.DestinationID == "" {
		return nil, errors.New("transfer destination is required")
	}
	tr := &stripe.TransferParams{
		Amount:      stripe.Int64(params.AmountCents),
		Currency:    stripe.String(params.Currency),
		Destination: stripe.String(params.DestinationID),
	}
	tr.Context = ctx
	if params.SourceAccount != "" {
		tr.SetStripeAccount(params.SourceAccount)
	}
	for k, v := range params.Metadata {
		tr.AddMetadata(k, v)
	}

	created, err := transfer.New(tr)
	if err != nil {
		return nil, err
	}
	return transferResultFrom(created)
}

func intentResultFrom(pi *stripe.PaymentIntent) (*IntentResult, error) {
	if pi == nil || pi.ID == "" {
		return nil, errors.New("gateway returned intent without id")
	}
	if pi.ClientSecret == "" {
		return nil, fmt.Errorf("intent %s missing client secret", pi.ID)
	}
	return &IntentResult{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Status:       string(pi.Status),
	}, nil
}

func refundResultFrom(rf *stripe.Refund, reversed bool) (*RefundResult, error) {
	if rf == nil || rf.ID == "" {
		return nil, errors.New("gateway returned refund without id")
	}
	return &RefundResult{
		ID:              rf.ID,
		AmountCents:     rf.Amount,
		Status:          string(rf.Status),
		ReverseTransfer: reversed,
	}, nil
}

func transferResultFrom(tr *stripe.Transfer) (*TransferResult, error) {
	if tr == nil || tr.ID == "" {
		return nil, errors.New("gateway returned transfer without id")
	}
	result := &TransferResult{
		ID:          tr.ID,
		AmountCents: tr.Amount,
	}
	if tr.Destination != nil {
		result.Destination = tr.Destination.ID
	}
	return result, nil
}

// IsMissingTransfer reports whether a reverse-transfer refund failed because
// the underlying charge never had an associated transfer. The gateway does
// not expose a dedicated error code for this, so the refund flow uses this
// check to fall back to a plain refund.
func IsMissingTransfer(err error) bool {
	if err == nil {
		return false
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return strings.Contains(strings.ToLower(stripeErr.Msg), "does not have an associated transfer")
	}
	return false
}
