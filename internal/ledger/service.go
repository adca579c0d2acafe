package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/caremesh/caremesh-backend/pkg/db/models"
	"github.com/caremesh/caremesh-backend/pkg/enums"
)

// Service records refund coverage outcomes against a clinic's ledger.
type Service interface {
	WithTx(tx *gorm.DB) Service
	RecordCoverageCollected(ctx context.Context, input CoverageInput) (*models.ClinicBalance, error)
	RecordCoverageOwed(ctx context.Context, input CoverageInput) (*models.ClinicBalance, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]models.ClinicBalance, error)
}

type service struct {
	repo Repository
}

// CoverageInput captures the immutable data a ledger entry requires. Amount
// is the positive coverage value; the service applies the sign convention.
type CoverageInput struct {
	ClinicID         uuid.UUID
	OrderID          uuid.UUID
	Amount           decimal.Decimal
	StripeRefundID   string
	StripeTransferID string
	Description      string
	Notes            string
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

// WithTx rebinds the service to run inside the caller's transaction.
func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) validate(input CoverageInput) error {
	if input.ClinicID == uuid.Nil {
		return fmt.Errorf("clinic id is required")
	}
	if input.OrderID == uuid.Nil {
		return fmt.Errorf("order id is required")
	}
	if !input.Amount.IsPositive() {
		return fmt.Errorf("coverage amount must be positive, got %s", input.Amount)
	}
	return nil
}

// RecordCoverageCollected writes a paid entry after an instant transfer
// succeeded. The amount is stored positive: the clinic owed and has paid.
func (s *service) RecordCoverageCollected(ctx context.Context, input CoverageInput) (*models.ClinicBalance, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := &models.ClinicBalance{
		ClinicID:    input.ClinicID,
		OrderID:     input.OrderID,
		Amount:      input.Amount,
		Type:        enums.ClinicBalanceTypeRefundDebt,
		Status:      enums.ClinicBalanceStatusPaid,
		Description: input.Description,
		PaidAt:      &now,
	}
	setOptional(entry, input)

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// RecordCoverageOwed writes a pending entry when coverage could not be
// collected instantly. The amount is stored negative and settled
// out-of-band; nothing retries it automatically.
func (s *service) RecordCoverageOwed(ctx context.Context, input CoverageInput) (*models.ClinicBalance, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	entry := &models.ClinicBalance{
		ClinicID:    input.ClinicID,
		OrderID:     input.OrderID,
		Amount:      input.Amount.Neg(),
		Type:        enums.ClinicBalanceTypeRefundDebt,
		Status:      enums.ClinicBalanceStatusPending,
		Description: input.Description,
	}
	setOptional(entry, input)

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]models.ClinicBalance, error) {
	if clinicID == uuid.Nil {
		return nil, fmt.Errorf("clinic id is required")
	}
	return s.repo.ListByClinicID(ctx, clinicID)
}

func setOptional(entry *models.ClinicBalance, input CoverageInput) {
	if input.StripeRefundID != "" {
		refundID := input.StripeRefundID
		entry.StripeRefundID = &refundID
	}
	if input.StripeTransferID != "" {
		transferID := input.StripeTransferID
		entry.StripeTransferID = &transferID
	}
	if input.Notes != "" {
		notes := input.Notes
		entry.Notes = &notes
	}
}
