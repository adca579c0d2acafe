package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caremesh/caremesh-backend/pkg/enums"
)

// OrderCreatedEvent signals a paid-pending order with a live payment intent.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber int64           `json:"order_number"`
	UserID      uuid.UUID       `json:"user_id"`
	ClinicID    *uuid.UUID      `json:"clinic_id,omitempty"`
	VisitType   enums.VisitType `json:"visit_type"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
}

// OrderIntentFailedEvent is emitted when the gateway declined to create a
// payment intent and the order was marked failed.
type OrderIntentFailedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber int64           `json:"order_number"`
	UserID      uuid.UUID       `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Reason      string          `json:"reason,omitempty"`
}

// RefundRequestedEvent surfaces a new pending refund request for review.
type RefundRequestedEvent struct {
	RefundRequestID     uuid.UUID       `json:"refund_request_id"`
	OrderID             uuid.UUID       `json:"order_id"`
	RequestedByID       uuid.UUID       `json:"requested_by_id"`
	Amount              decimal.Decimal `json:"amount"`
	BrandCoverageAmount decimal.Decimal `json:"brand_coverage_amount"`
	Reason              string          `json:"reason,omitempty"`
}

// RefundDecisionEvent is emitted for both approvals and denials.
type RefundDecisionEvent struct {
	RefundRequestID uuid.UUID                 `json:"refund_request_id"`
	OrderID         uuid.UUID                 `json:"order_id"`
	Status          enums.RefundRequestStatus `json:"status"`
	ReviewedByID    uuid.UUID                 `json:"reviewed_by_id"`
	ReviewedAt      time.Time                 `json:"reviewed_at"`
	CoverageOwed    bool                      `json:"coverage_owed"`
}
