package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/caremesh/caremesh-backend/internal/clinics"
	"github.com/caremesh/caremesh-backend/internal/fees"
	"github.com/caremesh/caremesh-backend/internal/orders"
	"github.com/caremesh/caremesh-backend/internal/products"
	"github.com/caremesh/caremesh-backend/internal/users"
	"github.com/caremesh/caremesh-backend/internal/visits"
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
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, kind enums.ComputationAuditKind, message string)
}

// Service executes checkout orchestration: price, persist, charge.
type Service interface {
	CreateOrderAndIntent(ctx context.Context, input Input) (*Result, error)
}

type service struct {
	tx          txRunner
	ordersRepo  orders.Repository
	clinicsRepo clinics.Repository
	productRepo products.Repository
	usersRepo   users.Repository
	gateway     stripe.Gateway
	feeDefaults fees.Defaults
	currency    enums.Currency
	audit       auditRecorder
	outbox      outboxPublisher
	metrics     *metrics.PaymentMetrics
	logg        *logger.Logger
}

// ServiceParams bundles checkout dependencies.
type ServiceParams struct {
	Tx          txRunner
	OrdersRepo  orders.Repository
	ClinicsRepo clinics.Repository
	ProductRepo products.Repository
	UsersRepo   users.Repository
	Gateway     stripe.Gateway
	FeeDefaults fees.Defaults
	Currency    enums.Currency
	Audit       auditRecorder
	Outbox      outboxPublisher
	Metrics     *metrics.PaymentMetrics
	Logger      *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.ClinicsRepo == nil {
		return nil, fmt.Errorf("clinics repository required")
	}
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.UsersRepo == nil {
		return nil, fmt.Errorf("users repository required")
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
		tx:          params.Tx,
		ordersRepo:  params.OrdersRepo,
		clinicsRepo: params.ClinicsRepo,
		productRepo: params.ProductRepo,
		usersRepo:   params.UsersRepo,
		gateway:     params.Gateway,
		feeDefaults: params.FeeDefaults,
		currency:    currency,
		audit:       params.Audit,
		outbox:      params.Outbox,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// CreateOrderAndIntent persists the order with its full fee breakdown, then
// asks the gateway for a payment intent. The order row and breakdown are
// committed before the gateway call so a declined intent still leaves an
// auditable failed attempt; the payment row is created only when the
// gateway succeeded.
func (s *service) CreateOrderAndIntent(ctx context.Context, input Input) (*Result, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil || item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "every item needs a product id and positive quantity")
		}
	}

	clinic := s.resolveAffiliate(ctx, input)
	affiliateID := s.resolveAffiliateUser(ctx, clinic)

	var (
		order      *models.Order
		splitItems []fees.LineItem
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		catalog, err := s.loadCatalog(ctx, productRepo, input.Items)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		for _, item := range input.Items {
			product := catalog[item.ProductID]
			subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			splitItems = append(splitItems, fees.LineItem{
				ProductID:            product.ID,
				Quantity:             item.Quantity,
				WholesaleCostPerUnit: product.WholesaleCost,
			})
		}

		orderNumber, err := ordersRepo.NextOrderNumber(ctx)
		if err != nil {
			return err
		}

		order = &models.Order{
			OrderNumber:    orderNumber,
			UserID:         input.UserID,
			Status:         enums.OrderStatusPending,
			VisitType:      enums.VisitTypeNone,
			SubtotalAmount: subtotal,
			TotalAmount:    subtotal,
		}
		if clinic != nil {
			clinicID := clinic.ID
			order.ClinicID = &clinicID
			order.AffiliateID = affiliateID
		}
		if order, err = ordersRepo.Create(ctx, order); err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			product := catalog[item.ProductID]
			items = append(items, models.OrderItem{
				OrderID:       order.ID,
				ProductID:     product.ID,
				Name:          product.Name,
				Quantity:      item.Quantity,
				UnitPrice:     product.Price,
				WholesaleCost: product.WholesaleCost,
				TotalAmount:   product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
			})
		}
		if err := ordersRepo.CreateItems(ctx, items); err != nil {
			return err
		}

		if input.Shipping.Complete() {
			address := &models.ShippingAddress{
				OrderID:    order.ID,
				Line1:      input.Shipping.Line1,
				City:       input.Shipping.City,
				State:      input.Shipping.State,
				PostalCode: input.Shipping.PostalCode,
			}
			if input.Shipping.Line2 != "" {
				line2 := input.Shipping.Line2
				address.Line2 = &line2
			}
			if input.Shipping.Country != "" {
				address.Country = input.Shipping.Country
			}
			if err := ordersRepo.CreateShippingAddress(ctx, address); err != nil {
				return err
			}
		}

		s.applyVisitFee(ctx, tx, order, input.PatientState, clinic)
		s.applyFeeSplit(ctx, tx, ordersRepo, order, splitItems, clinic)

		return ordersRepo.UpdateFeeBreakdown(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	intent, gatewayErr := s.gateway.CreatePaymentIntent(ctx, s.intentParams(order, clinic))

	if gatewayErr != nil {
		s.metrics.IncIntentFailures()
		markErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.ordersRepo.WithTx(tx).UpdateStatus(ctx, order.ID, enums.OrderStatusFailed); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderIntentFailed,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         &outbox.ActorRef{UserID: input.UserID},
				Version:       1,
				Data: payloads.OrderIntentFailedEvent{
					OrderID:     order.ID,
					OrderNumber: order.OrderNumber,
					UserID:      order.UserID,
					TotalAmount: order.TotalAmount,
					Reason:      gatewayErr.Error(),
				},
			})
		})
		if markErr != nil && s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "failed to mark order after gateway decline", markErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, gatewayErr, "payment intent creation failed")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		if _, err := ordersRepo.CreatePayment(ctx, &models.Payment{
			OrderID:               order.ID,
			StripePaymentIntentID: intent.ID,
			Status:                enums.PaymentStatusPending,
			Amount:                order.TotalAmount,
			Currency:              s.currency,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			Version:       1,
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				ClinicID:    order.ClinicID,
				VisitType:   order.VisitType,
				TotalAmount: order.TotalAmount,
				Currency:    string(s.currency),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrdersCreated()
	return &Result{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		ClientSecret: intent.ClientSecret,
		TotalAmount:  order.TotalAmount.StringFixed(2),
		Currency:     string(s.currency),
	}, nil
}

// resolveAffiliate is best effort: a bad slug or unknown subdomain produces
// an unattributed order, never an error.
func (s *service) resolveAffiliate(ctx context.Context, input Input) *models.Clinic {
	slug := strings.TrimSpace(input.AffiliateSlug)
	if slug == "" {
		slug = subdomainOf(input.OriginHost)
	}
	if slug == "" {
		return nil
	}
	clinic, err := s.clinicsRepo.FindBySlug(ctx, slug)
	if err != nil {
		if s.logg != nil && !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			s.logg.Warn(s.logg.WithField(ctx, "affiliate_slug", slug), "affiliate lookup failed")
		}
		return nil
	}
	if !clinic.Active {
		return nil
	}
	return clinic
}

// resolveAffiliateUser credits the attributed order to the clinic's admin
// account. Same best-effort contract as the clinic resolution.
func (s *service) resolveAffiliateUser(ctx context.Context, clinic *models.Clinic) *uuid.UUID {
	if clinic == nil {
		return nil
	}
	admin, err := s.usersRepo.FindClinicAdmin(ctx, clinic.ID)
	if err != nil {
		if s.logg != nil && !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			s.logg.Warn(s.logg.WithField(ctx, "clinic_id", clinic.ID.String()), "affiliate user lookup failed")
		}
		return nil
	}
	id := admin.ID
	return &id
}

func (s *service) loadCatalog(ctx context.Context, repo products.Repository, items []ItemInput) (map[uuid.UUID]*models.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := map[uuid.UUID]struct{}{}
	for _, item := range items {
		if _, ok := seen[item.ProductID]; !ok {
			seen[item.ProductID] = struct{}{}
			ids = append(ids, item.ProductID)
		}
	}
	rows, err := repo.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	catalog := make(map[uuid.UUID]*models.Product, len(rows))
	for i := range rows {
		catalog[rows[i].ID] = &rows[i]
	}
	for _, id := range ids {
		if _, ok := catalog[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown or inactive product in selection")
		}
	}
	return catalog, nil
}

// applyVisitFee folds the telehealth visit fee into the total. A resolution
// failure defaults the fee to zero and records an audit row; checkout never
// blocks on visit pricing.
func (s *service) applyVisitFee(ctx context.Context, tx *gorm.DB, order *models.Order, patientState string, clinic *models.Clinic) {
	resolution, err := visits.Resolve(patientState, clinic)
	if err != nil {
		s.metrics.IncDegraded(string(enums.ComputationAuditKindVisitFee))
		if s.audit != nil {
			s.audit.Record(ctx, tx, order.ID, enums.ComputationAuditKindVisitFee, err.Error())
		}
		order.VisitType = enums.VisitTypeNone
		order.VisitFeeAmount = decimal.Zero
		return
	}
	order.VisitType = resolution.Type
	order.VisitFeeAmount = resolution.Fee
	order.TotalAmount = order.SubtotalAmount.Add(resolution.Fee)
}

// applyFeeSplit computes and stores the five-way breakdown. On failure the
// breakdown stays zero and an audit row is written; the order remains
// chargeable for its full total.
func (s *service) applyFeeSplit(ctx context.Context, tx *gorm.DB, ordersRepo orders.Repository, order *models.Order, items []fees.LineItem, clinic *models.Clinic) {
	completed := 0
	if clinic != nil {
		count, err := ordersRepo.CountCompletedByClinic(ctx, clinic.ID)
		if err == nil {
			completed = count
		}
	}
	cfg := s.feeDefaults.Resolve(clinic, completed)

	split, err := fees.ComputeSplit(order.TotalAmount, items, cfg)
	if err != nil {
		s.metrics.IncDegraded(string(enums.ComputationAuditKindFeeSplit))
		if s.audit != nil {
			s.audit.Record(ctx, tx, order.ID, enums.ComputationAuditKindFeeSplit, err.Error())
		}
		return
	}
	order.PlatformFeePercent = cfg.PlatformFeePercent
	order.PlatformFeeAmount = split.PlatformFeeAmount
	order.StripeAmount = split.StripeAmount
	order.DoctorAmount = split.DoctorAmount
	order.PharmacyWholesaleAmount = split.PharmacyWholesaleAmount
	order.BrandAmount = split.BrandAmount
}

func (s *service) intentParams(order *models.Order, clinic *models.Clinic) stripe.CreateIntentParams {
	params := stripe.CreateIntentParams{
		AmountCents: stripe.ToMinorUnits(order.TotalAmount),
		Currency:    string(s.currency),
		Metadata: map[string]string{
			"order_id":           order.ID.String(),
			"order_number":       fmt.Sprintf("%d", order.OrderNumber),
			"visit_type":         string(order.VisitType),
			"platform_fee":       order.PlatformFeeAmount.StringFixed(2),
			"stripe_fee":         order.StripeAmount.StringFixed(2),
			"doctor_amount":      order.DoctorAmount.StringFixed(2),
			"pharmacy_wholesale": order.PharmacyWholesaleAmount.StringFixed(2),
			"brand_amount":       order.BrandAmount.StringFixed(2),
		},
	}
	if clinic.HasConnectedAccount() && order.BrandAmount.IsPositive() {
		params.TransferDestination = clinic.StripeAccountID
		params.TransferAmountCents = stripe.ToMinorUnits(order.BrandAmount)
	}
	return params
}

// subdomainOf extracts the first label of a multi-label host. Bare domains
// and localhost yield no attribution.
func subdomainOf(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if host == "" {
		return ""
	}
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	sub := parts[0]
	if sub == "www" || sub == "app" || sub == "api" {
		return ""
	}
	return sub
}
