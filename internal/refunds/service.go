package refunds

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/caremesh/caremesh-backend/internal/clinics"
	"github.com/caremesh/caremesh-backend/internal/ledger"
	"github.com/caremesh/caremesh-backend/internal/orders"
	"github.com/caremesh/caremesh-backend/pkg/db"
	"github.com/caremesh/caremesh-backend/pkg/db/models"
	"github.com/caremesh/caremesh-backend/pkg/enums"
	pkgerrors "github.com/caremesh/caremesh-backend/pkg/errors"
	"github.com/caremesh/caremesh-backend/pkg/logger"
	"github.com/caremesh/caremesh-backend/pkg/metrics"
	"github.com/caremesh/caremesh-backend/pkg/outbox"
	"github.com/caremesh/caremesh-backend/pkg/outbox/payloads"
	"github.com/caremesh/caremesh-backend/pkg/stripe"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service drives the refund request state machine.
type Service interface {
	Create(ctx context.Context, orderID, requestedByID uuid.UUID, reason string) (*models.RefundRequest, error)
	Approve(ctx context.Context, requestID, reviewerID uuid.UUID, notes string) (*models.RefundRequest, error)
	Deny(ctx context.Context, requestID, reviewerID uuid.UUID, notes string) (*models.RefundRequest, error)
	List(ctx context.Context, status *enums.RefundRequestStatus, limit, offset int) ([]models.RefundRequest, error)
}

type service struct {
	tx           txRunner
	repo         Repository
	ordersRepo   orders.Repository
	clinicsRepo  clinics.Repository
	ledger       ledger.Service
	gateway      stripe.Gateway
	currency     enums.Currency
	platformAcct string
	outbox       outboxPublisher
	metrics      *metrics.PaymentMetrics
	logg         *logger.Logger
}

// ServiceParams bundles refund workflow dependencies.
type ServiceParams struct {
	Tx          txRunner
	Repo        Repository
	OrdersRepo  orders.Repository
	ClinicsRepo clinics.Repository
	Ledger      ledger.Service
	Gateway     stripe.Gateway
	Currency    enums.Currency
	// PlatformAccountID receives instant coverage transfers pulled back
	// from clinic sub-accounts.
	PlatformAccountID string
	Outbox            outboxPublisher
	Metrics           *metrics.PaymentMetrics
	Logger            *logger.Logger
}

// NewService builds the refund service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("refund repository required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.ClinicsRepo == nil {
		return nil, fmt.Errorf("clinics repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	currency := params.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	return &service{
		tx:           params.Tx,
		repo:         params.Repo,
		ordersRepo:   params.OrdersRepo,
		clinicsRepo:  params.ClinicsRepo,
		ledger:       params.Ledger,
		gateway:      params.Gateway,
		currency:     currency,
		platformAcct: params.PlatformAccountID,
		outbox:       params.Outbox,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

// Create opens a pending refund request for the order. The in-transaction
// pending check is backed by a partial unique index, so a concurrent
// duplicate surfaces as the same invalid-state error either way.
func (s *service) Create(ctx context.Context, orderID, requestedByID uuid.UUID, reason string) (*models.RefundRequest, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if requestedByID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requester id required")
	}

	var request *models.RefundRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		order, err := ordersRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		payment, err := ordersRepo.FindPaymentByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if payment == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order has no payment")
		}
		if order.Status == enums.OrderStatusRefunded {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "order is already refunded")
		}
		existing, err := repo.FindPendingByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "a pending refund request already exists for this order")
		}

		request = &models.RefundRequest{
			OrderID:             order.ID,
			ClinicID:            order.ClinicID,
			RequestedByID:       requestedByID,
			Amount:              order.TotalAmount,
			BrandCoverageAmount: order.TotalAmount.Sub(order.BrandAmount),
			Reason:              reason,
			Status:              enums.RefundRequestStatusPending,
		}
		if err := repo.Create(ctx, request); err != nil {
			if db.IsUniqueViolation(err, PendingOrderConstraint) {
				return pkgerrors.New(pkgerrors.CodeInvalidState, "a pending refund request already exists for this order")
			}
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundRequested,
			AggregateType: enums.AggregateRefundRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: requestedByID},
			Version:       1,
			Data: payloads.RefundRequestedEvent{
				RefundRequestID:     request.ID,
				OrderID:             order.ID,
				RequestedByID:       requestedByID,
				Amount:              request.Amount,
				BrandCoverageAmount: request.BrandCoverageAmount,
				Reason:              reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Approve issues the gateway refund, attempts instant coverage collection,
// then commits the local state flip. The gateway refund strictly precedes
// any local mutation; a coverage shortfall books clinic debt but never rolls
// the refund back.
func (s *service) Approve(ctx context.Context, requestID, reviewerID uuid.UUID, notes string) (*models.RefundRequest, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund request id required")
	}
	if reviewerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reviewer id required")
	}

	request, order, payment, err := s.loadPending(ctx, requestID)
	if err != nil {
		return nil, err
	}

	refundAmount := payment.Amount

	// A payment already refunded at the gateway means a previous approval
	// crashed between the refund and the local flip; finish locally without
	// a second gateway call.
	var refundID string
	if payment.Status != enums.PaymentStatusRefunded {
		result, err := s.issueRefund(ctx, payment.StripePaymentIntentID)
		if err != nil {
			return nil, err
		}
		refundID = result.ID
	}

	coverage := refundAmount.Sub(order.BrandAmount)
	entry, coverageOwed := s.collectCoverage(ctx, order, coverage, refundID)

	now := time.Now().UTC()
	reviewNotes := optionalString(notes)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		if payment.Status != enums.PaymentStatusRefunded {
			if err := ordersRepo.MarkPaymentRefunded(ctx, payment.ID, refundAmount, now); err != nil {
				return err
			}
		}
		if err := ordersRepo.UpdateStatus(ctx, order.ID, enums.OrderStatusRefunded); err != nil {
			return err
		}
		if err := repo.MarkReviewed(ctx, request.ID, enums.RefundRequestStatusApproved, reviewerID, reviewNotes, now); err != nil {
			return err
		}
		if entry != nil {
			if _, err := s.writeLedgerEntry(ctx, tx, entry, coverageOwed); err != nil {
				return err
			}
		}
		// A re-run after a crash between the gateway refund and the local
		// flip must not queue the decision twice.
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundApproved,
			AggregateType: enums.AggregateRefundRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: reviewerID},
			Version:       1,
			Data: payloads.RefundDecisionEvent{
				RefundRequestID: request.ID,
				OrderID:         order.ID,
				Status:          enums.RefundRequestStatusApproved,
				ReviewedByID:    reviewerID,
				ReviewedAt:      now,
				CoverageOwed:    coverageOwed,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncRefundsApproved()
	request.Status = enums.RefundRequestStatusApproved
	request.ReviewedByID = &reviewerID
	request.ReviewNotes = reviewNotes
	request.ReviewedAt = &now
	return request, nil
}

// Deny resolves the request without touching the order or its payment.
func (s *service) Deny(ctx context.Context, requestID, reviewerID uuid.UUID, notes string) (*models.RefundRequest, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund request id required")
	}
	if reviewerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reviewer id required")
	}

	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != enums.RefundRequestStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "refund request already resolved")
	}

	now := time.Now().UTC()
	reviewNotes := optionalString(notes)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).MarkReviewed(ctx, request.ID, enums.RefundRequestStatusDenied, reviewerID, reviewNotes, now); err != nil {
			return err
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundDenied,
			AggregateType: enums.AggregateRefundRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: reviewerID},
			Version:       1,
			Data: payloads.RefundDecisionEvent{
				RefundRequestID: request.ID,
				OrderID:         request.OrderID,
				Status:          enums.RefundRequestStatusDenied,
				ReviewedByID:    reviewerID,
				ReviewedAt:      now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncRefundsDenied()
	request.Status = enums.RefundRequestStatusDenied
	request.ReviewedByID = &reviewerID
	request.ReviewNotes = reviewNotes
	request.ReviewedAt = &now
	return request, nil
}

func (s *service) List(ctx context.Context, status *enums.RefundRequestStatus, limit, offset int) ([]models.RefundRequest, error) {
	return s.repo.List(ctx, status, limit, offset)
}

func (s *service) loadPending(ctx context.Context, requestID uuid.UUID) (*models.RefundRequest, *models.Order, *models.Payment, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, nil, nil, err
	}
	if request.Status != enums.RefundRequestStatusPending {
		return nil, nil, nil, pkgerrors.New(pkgerrors.CodeInvalidState, "refund request already resolved")
	}
	order, err := s.ordersRepo.FindByID(ctx, request.OrderID)
	if err != nil {
		return nil, nil, nil, err
	}
	payment, err := s.ordersRepo.FindPaymentByOrderID(ctx, request.OrderID)
	if err != nil {
		return nil, nil, nil, err
	}
	if payment == nil {
		return nil, nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no payment")
	}
	return request, order, payment, nil
}

// issueRefund prefers reversing the destination transfer so the brand share
// comes back with the charge. Charges without an associated transfer get a
// plain refund instead.
func (s *service) issueRefund(ctx context.Context, paymentIntentID string) (*stripe.RefundResult, error) {
	result, err := s.gateway.CreateRefund(ctx, stripe.CreateRefundParams{
		PaymentIntentID: paymentIntentID,
		ReverseTransfer: true,
	})
	if err == nil {
		return result, nil
	}
	if !stripe.IsMissingTransfer(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "gateway refund failed")
	}
	result, err = s.gateway.CreateRefund(ctx, stripe.CreateRefundParams{
		PaymentIntentID: paymentIntentID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "gateway refund failed")
	}
	return result, nil
}

// collectCoverage tries to pull the platform's exposure back from the
// clinic's connected account. It returns the ledger entry to persist and
// whether the coverage is still owed. A nil entry means no coverage applies.
func (s *service) collectCoverage(ctx context.Context, order *models.Order, coverage decimal.Decimal, refundID string) (*ledger.CoverageInput, bool) {
	if !coverage.IsPositive() || order.ClinicID == nil {
		return nil, false
	}

	input := &ledger.CoverageInput{
		ClinicID:       *order.ClinicID,
		OrderID:        order.ID,
		Amount:         coverage,
		StripeRefundID: refundID,
		Description:    fmt.Sprintf("refund coverage for order %d", order.OrderNumber),
	}

	clinic, err := s.clinicsRepo.FindByID(ctx, *order.ClinicID)
	if err != nil {
		input.Notes = fmt.Sprintf("clinic lookup failed: %v", err)
		return input, true
	}
	if !clinic.HasConnectedAccount() {
		input.Notes = "clinic has no connected account"
		return input, true
	}

	transferResult, err := s.gateway.CreateTransfer(ctx, stripe.CreateTransferParams{
		AmountCents:   stripe.ToMinorUnits(coverage),
		Currency:      string(s.currency),
		DestinationID: s.platformAcct,
		SourceAccount: *clinic.StripeAccountID,
		Metadata: map[string]string{
			"order_id":  order.ID.String(),
			"refund_id": refundID,
		},
	})
	if err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithOrderID(ctx, order.ID.String())
			s.logg.Warn(s.logg.WithField(logCtx, "clinic_id", order.ClinicID.String()), "instant coverage transfer failed, booking clinic debt")
		}
		input.Notes = err.Error()
		return input, true
	}
	input.StripeTransferID = transferResult.ID
	return input, false
}

func (s *service) writeLedgerEntry(ctx context.Context, tx *gorm.DB, input *ledger.CoverageInput, owed bool) (*models.ClinicBalance, error) {
	svc := s.ledger.WithTx(tx)
	if owed {
		s.metrics.IncCoverageShortfall()
		return svc.RecordCoverageOwed(ctx, *input)
	}
	return svc.RecordCoverageCollected(ctx, *input)
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
