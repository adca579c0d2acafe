package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/caremesh/caremesh-backend/pkg/db/models"
	"github.com/caremesh/caremesh-backend/pkg/enums"
)

type fakeRepository struct {
	createFn func(ctx context.Context, entry *models.ClinicBalance) error
	created  []*models.ClinicBalance
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, entry *models.ClinicBalance) error {
	if f.createFn != nil {
		if err := f.createFn(ctx, entry); err != nil {
			return err
		}
	}
	f.created = append(f.created, entry)
	return nil
}

func (f *fakeRepository) ListByClinicID(ctx context.Context, clinicID uuid.UUID) ([]models.ClinicBalance, error) {
	return nil, nil
}

func (f *fakeRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.ClinicBalance, error) {
	return nil, nil
}

func TestRecordCoverageCollected(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	input := CoverageInput{
		ClinicID:         uuid.New(),
		OrderID:          uuid.New(),
		Amount:           decimal.RequireFromString("48.00"),
		StripeRefundID:   "re_1",
		StripeTransferID: "tr_1",
		Description:      "refund coverage for order 1001",
	}

	entry, err := svc.RecordCoverageCollected(context.Background(), input)
	if err != nil {
		t.Fatalf("RecordCoverageCollected error: %v", err)
	}
	if entry.Status != enums.ClinicBalanceStatusPaid {
		t.Fatalf("expected paid status, got %s", entry.Status)
	}
	if !entry.Amount.Equal(decimal.RequireFromString("48.00")) {
		t.Fatalf("collected amount should stay positive, got %s", entry.Amount)
	}
	if entry.PaidAt == nil {
		t.Fatal("expected paid_at timestamp")
	}
	if entry.StripeTransferID == nil || *entry.StripeTransferID != "tr_1" {
		t.Fatalf("transfer id not linked: %+v", entry)
	}
	if entry.StripeRefundID == nil || *entry.StripeRefundID != "re_1" {
		t.Fatalf("refund id not linked: %+v", entry)
	}
}

func TestRecordCoverageOwedStoresNegativeAmount(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo)

	input := CoverageInput{
		ClinicID:       uuid.New(),
		OrderID:        uuid.New(),
		Amount:         decimal.RequireFromString("48.00"),
		StripeRefundID: "re_1",
		Notes:          "insufficient connected balance",
	}

	entry, err := svc.RecordCoverageOwed(context.Background(), input)
	if err != nil {
		t.Fatalf("RecordCoverageOwed error: %v", err)
	}
	if entry.Status != enums.ClinicBalanceStatusPending {
		t.Fatalf("expected pending status, got %s", entry.Status)
	}
	if !entry.Amount.Equal(decimal.RequireFromString("-48.00")) {
		t.Fatalf("owed amount should be negative, got %s", entry.Amount)
	}
	if entry.PaidAt != nil {
		t.Fatal("pending entries must not carry paid_at")
	}
	if entry.Notes == nil || *entry.Notes != "insufficient connected balance" {
		t.Fatalf("failure notes not captured: %+v", entry)
	}
}

func TestRecordCoverageValidation(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo)

	tests := []struct {
		name  string
		input CoverageInput
	}{
		{
			name:  "missing clinic",
			input: CoverageInput{OrderID: uuid.New(), Amount: decimal.NewFromInt(1)},
		},
		{
			name:  "missing order",
			input: CoverageInput{ClinicID: uuid.New(), Amount: decimal.NewFromInt(1)},
		},
		{
			name:  "zero amount",
			input: CoverageInput{ClinicID: uuid.New(), OrderID: uuid.New()},
		},
		{
			name:  "negative amount",
			input: CoverageInput{ClinicID: uuid.New(), OrderID: uuid.New(), Amount: decimal.NewFromInt(-5)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.RecordCoverageCollected(context.Background(), tt.input); err == nil {
				t.Fatal("expected validation error")
			}
			if _, err := svc.RecordCoverageOwed(context.Background(), tt.input); err == nil {
				t.Fatal("expected validation error")
			}
			if len(repo.created) != 0 {
				t.Fatal("no rows may be written on validation failure")
			}
		})
	}
}

func TestRecordCoveragePropagatesRepoError(t *testing.T) {
	boom := errors.New("insert failed")
	repo := &fakeRepository{createFn: func(ctx context.Context, entry *models.ClinicBalance) error {
		return boom
	}}
	svc, _ := NewService(repo)

	_, err := svc.RecordCoverageOwed(context.Background(), CoverageInput{
		ClinicID: uuid.New(),
		OrderID:  uuid.New(),
		Amount:   decimal.NewFromInt(10),
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected repo error, got %v", err)
	}
}
