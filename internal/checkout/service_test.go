package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/caremesh/caremesh-backend/internal/clinics"
	"github.com/caremesh/caremesh-backend/internal/fees"
	"github.com/caremesh/caremesh-backend/internal/orders"
	"github.com/caremesh/caremesh-backend/internal/products"
	"github.com/caremesh/caremesh-backend/internal/users"
	"github.com/caremesh/caremesh-backend/pkg/db/models"
	"github.com/caremesh/caremesh-backend/pkg/enums"
	pkgerrors "github.com/caremesh/caremesh-backend/pkg/errors"
	"github.com/caremesh/caremesh-backend/pkg/outbox"
	"github.com/caremesh/caremesh-backend/pkg/stripe"
)

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOrdersRepo struct {
	nextNumber  int64
	created     *models.Order
	items       []models.OrderItem
	address     *models.ShippingAddress
	breakdown   *models.Order
	statusSet   map[uuid.UUID]enums.OrderStatus
	payment     *models.Payment
	completed   int
	completeErr error
}

func newFakeOrdersRepo() *fakeOrdersRepo {
	return &fakeOrdersRepo{nextNumber: 1001, statusSet: map[uuid.UUID]enums.OrderStatus{}}
}

func (f *fakeOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return f }

func (f *fakeOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	f.created = order
	return order, nil
}

func (f *fakeOrdersRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	f.items = items
	return nil
}

func (f *fakeOrdersRepo) CreateShippingAddress(ctx context.Context, address *models.ShippingAddress) error {
	f.address = address
	return nil
}

func (f *fakeOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.created, nil
}

func (f *fakeOrdersRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	f.statusSet[id] = status
	return nil
}

func (f *fakeOrdersRepo) UpdateFeeBreakdown(ctx context.Context, order *models.Order) error {
	copied := *order
	f.breakdown = &copied
	return nil
}

func (f *fakeOrdersRepo) NextOrderNumber(ctx context.Context) (int64, error) {
	return f.nextNumber, nil
}

func (f *fakeOrdersRepo) CountCompletedByClinic(ctx context.Context, clinicID uuid.UUID) (int, error) {
	return f.completed, f.completeErr
}

func (f *fakeOrdersRepo) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	f.payment = payment
	return payment, nil
}

func (f *fakeOrdersRepo) FindPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	return f.payment, nil
}

func (f *fakeOrdersRepo) MarkPaymentRefunded(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal, at time.Time) error {
	return nil
}

type fakeClinicsRepo struct {
	bySlug map[string]*models.Clinic
}

func (f *fakeClinicsRepo) WithTx(tx *gorm.DB) clinics.Repository { return f }

func (f *fakeClinicsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Clinic, error) {
	for _, clinic := range f.bySlug {
		if clinic.ID == id {
			return clinic, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "clinic not found")
}

func (f *fakeClinicsRepo) FindBySlug(ctx context.Context, slug string) (*models.Clinic, error) {
	if clinic, ok := f.bySlug[slug]; ok {
		return clinic, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "clinic not found")
}

type fakeProductRepo struct {
	rows []models.Product
}

func (f *fakeProductRepo) WithTx(tx *gorm.DB) products.Repository { return f }

func (f *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			return &f.rows[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (f *fakeProductRepo) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		for i := range f.rows {
			if f.rows[i].ID == id && f.rows[i].Active {
				out = append(out, f.rows[i])
			}
		}
	}
	return out, nil
}

type fakeGateway struct {
	intentParams *stripe.CreateIntentParams
	intentErr    error
	intent       *stripe.IntentResult
}

func (f *fakeGateway) CreatePaymentIntent(ctx context.Context, params stripe.CreateIntentParams) (*stripe.IntentResult, error) {
	f.intentParams = &params
	if f.intentErr != nil {
		return nil, f.intentErr
	}
	if f.intent != nil {
		return f.intent, nil
	}
	return &stripe.IntentResult{ID: "pi_test", ClientSecret: "pi_test_secret", AmountCents: params.AmountCents, Status: "requires_payment_method"}, nil
}

func (f *fakeGateway) CreateRefund(ctx context.Context, params stripe.CreateRefundParams) (*stripe.RefundResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) CreateTransfer(ctx context.Context, params stripe.CreateTransferParams) (*stripe.TransferResult, error) {
	return nil, errors.New("not implemented")
}

type fakeUsersRepo struct {
	admins  map[uuid.UUID]*models.User
	findErr error
}

func (f *fakeUsersRepo) WithTx(tx *gorm.DB) users.Repository { return f }

func (f *fakeUsersRepo) FindClinicAdmin(ctx context.Context, clinicID uuid.UUID) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if admin, ok := f.admins[clinicID]; ok {
		return admin, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "clinic admin not found")
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeAudit struct {
	records []string
}

func (f *fakeAudit) Record(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, kind enums.ComputationAuditKind, message string) {
	f.records = append(f.records, string(kind))
}

func testDefaults() fees.Defaults {
	return fees.Defaults{
		PlatformFeePercent:  decimal.RequireFromString("10"),
		ProcessorFeePercent: decimal.RequireFromString("3"),
		ClinicianFlatFee:    decimal.RequireFromString("15.00"),
	}
}

type checkoutFixture struct {
	svc      Service
	orders   *fakeOrdersRepo
	clinics  *fakeClinicsRepo
	users    *fakeUsersRepo
	gateway  *fakeGateway
	outbox   *fakeOutbox
	audit    *fakeAudit
	products *fakeProductRepo
}

func newFixture(t *testing.T, clinicRows map[string]*models.Clinic, productRows []models.Product) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		orders:   newFakeOrdersRepo(),
		clinics:  &fakeClinicsRepo{bySlug: clinicRows},
		users:    &fakeUsersRepo{admins: map[uuid.UUID]*models.User{}},
		gateway:  &fakeGateway{},
		outbox:   &fakeOutbox{},
		audit:    &fakeAudit{},
		products: &fakeProductRepo{rows: productRows},
	}
	svc, err := NewService(ServiceParams{
		Tx:          fakeTx{},
		OrdersRepo:  f.orders,
		ClinicsRepo: f.clinics,
		ProductRepo: f.products,
		UsersRepo:   f.users,
		Gateway:     f.gateway,
		FeeDefaults: testDefaults(),
		Audit:       f.audit,
		Outbox:      f.outbox,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func connectedClinic(slug string) *models.Clinic {
	account := "acct_clinic"
	return &models.Clinic{
		ID:              uuid.New(),
		Name:            "Coastal Health",
		Slug:            slug,
		StripeAccountID: &account,
		SyncVisitFee:    decimal.RequireFromString("49.00"),
		AsyncVisitFee:   decimal.RequireFromString("29.00"),
		Active:          true,
	}
}

func catalogProduct(price, wholesale string) models.Product {
	return models.Product{
		ID:            uuid.New(),
		Name:          "Semaglutide Kit",
		Price:         decimal.RequireFromString(price),
		WholesaleCost: decimal.RequireFromString(wholesale),
		Active:        true,
	}
}

func TestCreateOrderAndIntentSuccess(t *testing.T) {
	clinic := connectedClinic("coastal")
	product := catalogProduct("71.00", "20.00")
	f := newFixture(t, map[string]*models.Clinic{"coastal": clinic}, []models.Product{product})

	result, err := f.svc.CreateOrderAndIntent(context.Background(), Input{
		UserID:        uuid.New(),
		PatientState:  "CA",
		Items:         []ItemInput{{ProductID: product.ID, Quantity: 1}},
		AffiliateSlug: "coastal",
		Shipping: &ShippingInput{
			Line1:      "1 Shore Dr",
			City:       "San Diego",
			State:      "CA",
			PostalCode: "92101",
		},
	})
	if err != nil {
		t.Fatalf("CreateOrderAndIntent: %v", err)
	}

	if result.ClientSecret != "pi_test_secret" {
		t.Fatalf("client secret = %q", result.ClientSecret)
	}
	if result.OrderNumber != 1001 {
		t.Fatalf("order number = %d", result.OrderNumber)
	}
	// 71.00 subtotal + 29.00 async visit fee
	if result.TotalAmount != "100.00" {
		t.Fatalf("total = %s", result.TotalAmount)
	}

	breakdown := f.orders.breakdown
	if breakdown == nil {
		t.Fatal("fee breakdown never persisted")
	}
	if got := breakdown.PlatformFeeAmount.StringFixed(2); got != "10.00" {
		t.Fatalf("platform fee = %s", got)
	}
	if got := breakdown.StripeAmount.StringFixed(2); got != "3.00" {
		t.Fatalf("processor fee = %s", got)
	}
	if got := breakdown.DoctorAmount.StringFixed(2); got != "15.00" {
		t.Fatalf("doctor amount = %s", got)
	}
	if got := breakdown.PharmacyWholesaleAmount.StringFixed(2); got != "20.00" {
		t.Fatalf("pharmacy amount = %s", got)
	}
	if got := breakdown.BrandAmount.StringFixed(2); got != "52.00" {
		t.Fatalf("brand amount = %s", got)
	}

	if f.orders.payment == nil {
		t.Fatal("payment row missing after gateway success")
	}
	if f.orders.payment.StripePaymentIntentID != "pi_test" {
		t.Fatalf("payment intent id = %s", f.orders.payment.StripePaymentIntentID)
	}
	if f.orders.payment.Status != enums.PaymentStatusPending {
		t.Fatalf("payment status = %s", f.orders.payment.Status)
	}

	params := f.gateway.intentParams
	if params == nil {
		t.Fatal("gateway never called")
	}
	if params.AmountCents != 10000 {
		t.Fatalf("amount cents = %d", params.AmountCents)
	}
	if params.TransferDestination == nil || *params.TransferDestination != "acct_clinic" {
		t.Fatalf("destination transfer missing: %+v", params)
	}
	if params.TransferAmountCents != 5200 {
		t.Fatalf("transfer cents = %d", params.TransferAmountCents)
	}
	if params.Metadata["order_id"] != f.orders.created.ID.String() {
		t.Fatalf("metadata order id = %s", params.Metadata["order_id"])
	}

	if f.orders.address == nil || f.orders.address.City != "San Diego" {
		t.Fatalf("shipping address not persisted: %+v", f.orders.address)
	}

	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("events = %+v", f.outbox.events)
	}
	if len(f.audit.records) != 0 {
		t.Fatalf("unexpected audit rows: %v", f.audit.records)
	}
}

func TestCreateOrderAndIntentSyncStateUsesSyncFee(t *testing.T) {
	clinic := connectedClinic("coastal")
	product := catalogProduct("51.00", "10.00")
	f := newFixture(t, map[string]*models.Clinic{"coastal": clinic}, []models.Product{product})

	result, err := f.svc.CreateOrderAndIntent(context.Background(), Input{
		UserID:        uuid.New(),
		PatientState:  "AR",
		Items:         []ItemInput{{ProductID: product.ID, Quantity: 1}},
		AffiliateSlug: "coastal",
	})
	if err != nil {
		t.Fatalf("CreateOrderAndIntent: %v", err)
	}
	if result.TotalAmount != "100.00" {
		t.Fatalf("total = %s", result.TotalAmount)
	}
	if f.orders.created.VisitType != enums.VisitTypeSync {
		t.Fatalf("visit type = %s", f.orders.created.VisitType)
	}
}

func TestCreateOrderAndIntentGatewayFailure(t *testing.T) {
	product := catalogProduct("40.00", "10.00")
	f := newFixture(t, map[string]*models.Clinic{}, []models.Product{product})
	f.gateway.intentErr = errors.New("card network unavailable")

	_, err := f.svc.CreateOrderAndIntent(context.Background(), Input{
		UserID:       uuid.New(),
		PatientState: "NY",
		Items:        []ItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}

	order := f.orders.created
	if order == nil {
		t.Fatal("order row should exist before the gateway call")
	}
	if f.orders.statusSet[order.ID] != enums.OrderStatusFailed {
		t.Fatalf("order status = %s", f.orders.statusSet[order.ID])
	}
	if f.orders.payment != nil {
		t.Fatal("payment row must not exist after gateway failure")
	}
	if f.orders.breakdown == nil {
		t.Fatal("fee breakdown should persist for the failed attempt")
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderIntentFailed {
		t.Fatalf("events = %+v", f.outbox.events)
	}
}

func TestCreateOrderAndIntentVisitFeeDegrades(t *testing.T) {
	product := catalogProduct("60.00", "15.00")
	f := newFixture(t, map[string]*models.Clinic{}, []models.Product{product})

	result, err := f.svc.CreateOrderAndIntent(context.Background(), Input{
		UserID: uuid.New(),
		// no patient state: visit resolution fails and degrades to zero
		Items: []ItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrderAndIntent: %v", err)
	}
	if result.TotalAmount != "60.00" {
		t.Fatalf("total = %s", result.TotalAmount)
	}
	if f.orders.created.VisitType != enums.VisitTypeNone {
		t.Fatalf("visit type = %s", f.orders.created.VisitType)
	}
	if len(f.audit.records) != 1 || f.audit.records[0] != string(enums.ComputationAuditKindVisitFee) {
		t.Fatalf("audit records = %v", f.audit.records)
	}
}

func TestCreateOrderAndIntentValidation(t *testing.T) {
	product := catalogProduct("10.00", "2.00")
	f := newFixture(t, map[string]*models.Clinic{}, []models.Product{product})

	cases := []Input{
		{PatientState: "CA", Items: []ItemInput{{ProductID: product.ID, Quantity: 1}}},
		{UserID: uuid.New(), PatientState: "CA"},
		{UserID: uuid.New(), PatientState: "CA", Items: []ItemInput{{ProductID: product.ID, Quantity: 0}}},
		{UserID: uuid.New(), PatientState: "CA", Items: []ItemInput{{ProductID: uuid.New(), Quantity: 1}}},
	}
	for i, input := range cases {
		if _, err := f.svc.CreateOrderAndIntent(context.Background(), input); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if f.gateway.intentParams != nil {
		t.Fatal("gateway must not be called for invalid input")
	}
}

func TestCreateOrderAndIntentNoDestinationWithoutConnectedAccount(t *testing.T) {
	clinic := connectedClinic("coastal")
	clinic.StripeAccountID = nil
	product := catalogProduct("71.00", "20.00")
	f := newFixture(t, map[string]*models.Clinic{"coastal": clinic}, []models.Product{product})

	if _, err := f.svc.CreateOrderAndIntent(context.Background(), Input{
		UserID:        uuid.New(),
		PatientState:  "CA",
		Items:         []ItemInput{{ProductID: product.ID, Quantity: 1}},
		AffiliateSlug: "coastal",
	}); err != nil {
		t.Fatalf("CreateOrderAndIntent: %v", err)
	}
	if f.gateway.intentParams.TransferDestination != nil {
		t.Fatal("destination transfer must require a connected account")
	}
}

func TestSubdomainAffiliateInference(t *testing.T) {
	clinic := connectedClinic("coastal")
	product := catalogProduct("30.00", "5.00")
	f := newFixture(t, map[string]*models.Clinic{"coastal": clinic}, []models.Product{product})
	admin := &models.User{ID: uuid.New(), Role: enums.UserRoleClinicAdmin}
	f.users.admins[clinic.ID] = admin

	if _, err := f.svc.CreateOrderAndIntent(context.Background(), Input{
		UserID:       uuid.New(),
		PatientState: "CA",
		Items:        []ItemInput{{ProductID: product.ID, Quantity: 1}},
		OriginHost:   "coastal.caremesh.health:443",
	}); err != nil {
		t.Fatalf("CreateOrderAndIntent: %v", err)
	}
	if f.orders.created.ClinicID == nil || *f.orders.created.ClinicID != clinic.ID {
		t.Fatalf("clinic attribution missing: %+v", f.orders.created.ClinicID)
	}
	if f.orders.created.AffiliateID == nil || *f.orders.created.AffiliateID != admin.ID {
		t.Fatalf("affiliate attribution missing: %+v", f.orders.created.AffiliateID)
	}
}

func TestAffiliateUserLookupIsBestEffort(t *testing.T) {
	clinic := connectedClinic("coastal")
	product := catalogProduct("30.00", "5.00")
	f := newFixture(t, map[string]*models.Clinic{"coastal": clinic}, []models.Product{product})
	f.users.findErr = errors.New("connection reset by peer")

	if _, err := f.svc.CreateOrderAndIntent(context.Background(), Input{
		UserID:        uuid.New(),
		PatientState:  "CA",
		Items:         []ItemInput{{ProductID: product.ID, Quantity: 1}},
		AffiliateSlug: "coastal",
	}); err != nil {
		t.Fatalf("a failed affiliate user lookup must not block checkout: %v", err)
	}
	if f.orders.created.ClinicID == nil || *f.orders.created.ClinicID != clinic.ID {
		t.Fatalf("clinic attribution missing: %+v", f.orders.created.ClinicID)
	}
	if f.orders.created.AffiliateID != nil {
		t.Fatalf("affiliate id must stay unset on lookup failure, got %v", f.orders.created.AffiliateID)
	}
}
