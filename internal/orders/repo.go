package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/caremesh/caremesh-backend/pkg/db/models"
	"github.com/caremesh/caremesh-backend/pkg/enums"
	pkgerrors "github.com/caremesh/caremesh-backend/pkg/errors"
)

const orderNumberBase = 1000

// Repository manages order, order item and payment persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	CreateShippingAddress(ctx context.Context, address *models.ShippingAddress) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	UpdateFeeBreakdown(ctx context.Context, order *models.Order) error
	NextOrderNumber(ctx context.Context) (int64, error)
	CountCompletedByClinic(ctx context.Context, clinicID uuid.UUID) (int, error)

	CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	MarkPaymentRefunded(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) CreateShippingAddress(ctx context.Context, address *models.ShippingAddress) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// UpdateFeeBreakdown persists the computed split and totals onto an
// existing order row.
func (r *repository) UpdateFeeBreakdown(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"visit_type":                order.VisitType,
			"visit_fee_amount":          order.VisitFeeAmount,
			"total_amount":              order.TotalAmount,
			"platform_fee_percent":      order.PlatformFeePercent,
			"platform_fee_amount":       order.PlatformFeeAmount,
			"stripe_amount":             order.StripeAmount,
			"doctor_amount":             order.DoctorAmount,
			"pharmacy_wholesale_amount": order.PharmacyWholesaleAmount,
			"brand_amount":              order.BrandAmount,
		}).Error
}

// NextOrderNumber allocates the next display order number. Callers run this
// inside the creation transaction; the unique constraint on order_number
// backstops concurrent allocation.
func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var current *int64
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("MAX(order_number)").
		Scan(&current).Error; err != nil {
		return 0, err
	}
	if current == nil {
		return orderNumberBase + 1, nil
	}
	return *current + 1, nil
}

func (r *repository) CountCompletedByClinic(ctx context.Context, clinicID uuid.UUID) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("clinic_id = ? AND status IN ?", clinicID, []enums.OrderStatus{
			enums.OrderStatusPaid,
			enums.OrderStatusShipped,
			enums.OrderStatusDelivered,
		}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) FindPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		First(&payment, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no payment")
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) MarkPaymentRefunded(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Updates(map[string]any{
			"status":          enums.PaymentStatusRefunded,
			"refunded_amount": amount,
			"refunded_at":     at,
		}).Error
}
