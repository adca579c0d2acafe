package enums

import "fmt"

// OutboxEventType enumerates the domain events this service emits.
type OutboxEventType string

const (
	EventOrderCreated      OutboxEventType = "order.created"
	EventOrderIntentFailed OutboxEventType = "order.intent_failed"
	EventRefundRequested   OutboxEventType = "refund.requested"
	EventRefundApproved    OutboxEventType = "refund.approved"
	EventRefundDenied      OutboxEventType = "refund.denied"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderIntentFailed,
	EventRefundRequested,
	EventRefundApproved,
	EventRefundDenied,
}

// IsValid reports whether the value is a known OutboxEventType.
func (t OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event is anchored to.
type OutboxAggregateType string

const (
	AggregateOrder         OutboxAggregateType = "order"
	AggregateRefundRequest OutboxAggregateType = "refund_request"
)

var validOutboxAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateRefundRequest,
}

// IsValid reports whether the value is a known OutboxAggregateType.
func (t OutboxAggregateType) IsValid() bool {
	for _, candidate := range validOutboxAggregateTypes {
		if candidate == t {
			return true
		}
	}
	return false
}
