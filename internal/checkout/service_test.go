package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/internal/cart"
	"github.com/atelierhq/atelier-backend/internal/customers"
	"github.com/atelierhq/atelier-backend/internal/invoices"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Customer{},
		&models.Product{},
		&models.Measurement{},
		&models.MeasurementImage{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemImage{},
		&models.Workshop{},
		&models.Invoice{},
		&models.Payment{},
		&models.CodeCounter{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(
		gormTxRunner{db: db},
		NewRepository(db),
		cart.NewRepository(db),
		invoices.NewRepository(db),
		customers.NewRepository(db),
		nil,
	)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc
}

type fixture struct {
	customer    *models.Customer
	product     *models.Product
	measurement *models.Measurement
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	customer := &models.Customer{ID: uuid.New(), Code: "CUST-1", Name: "A"}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("seeding customer: %v", err)
	}
	product := &models.Product{ID: uuid.New(), Code: "PRD-1", Name: "Suit", Type: "suit", Price: decimal.RequireFromString("120.00")}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	measurement := &models.Measurement{ID: uuid.New(), CustomerID: customer.ID, Name: "primary"}
	if err := db.Create(measurement).Error; err != nil {
		t.Fatalf("seeding measurement: %v", err)
	}
	for _, url := range []string{"m/1.jpg", "m/2.jpg"} {
		img := &models.MeasurementImage{ID: uuid.New(), MeasurementID: measurement.ID, URL: url}
		if err := db.Create(img).Error; err != nil {
			t.Fatalf("seeding image: %v", err)
		}
	}
	return fixture{customer: customer, product: product, measurement: measurement}
}

func seedCart(t *testing.T, db *gorm.DB, f fixture, qty int) *models.Cart {
	t.Helper()
	basket := &models.Cart{ID: uuid.New(), CustomerID: f.customer.ID}
	if err := db.Create(basket).Error; err != nil {
		t.Fatalf("seeding cart: %v", err)
	}
	item := &models.CartItem{
		ID:            uuid.New(),
		CartID:        basket.ID,
		ProductID:     f.product.ID,
		MeasurementID: f.measurement.ID,
		Quantity:      qty,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seeding cart item: %v", err)
	}
	return basket
}

func checkoutInput(f fixture) Input {
	return Input{
		CustomerID:    f.customer.ID,
		PaymentMethod: enums.PaymentMethodCash,
		PaymentType:   enums.PaymentTypeFull,
	}
}

func TestExecute_EmptyCartRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db)

	_, err := svc.Execute(context.Background(), checkoutInput(f))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for empty cart, got %v", err)
	}
}

func TestExecute_ConvertsCartToOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db)
	basket := seedCart(t, db, f, 2)

	order, err := svc.Execute(context.Background(), checkoutInput(f))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.Code != "ORDER-00001" {
		t.Fatalf("expected ORDER-00001, got %s", order.Code)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("240.00")) {
		t.Fatalf("expected total 240.00, got %s", order.TotalAmount)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(order.Items))
	}
	item := order.Items[0]
	if !item.PriceEach.Equal(f.product.Price) {
		t.Fatalf("expected price snapshot %s, got %s", f.product.Price, item.PriceEach)
	}
	if len(item.Images) != 2 {
		t.Fatalf("expected 2 snapshot images, got %d", len(item.Images))
	}
	if len(order.Workshops) != 1 {
		t.Fatalf("expected 1 workshop, got %d", len(order.Workshops))
	}
	if order.Workshops[0].Status != enums.WorkshopStatusOnRequest {
		t.Fatalf("expected on_request workshop, got %s", order.Workshops[0].Status)
	}
	if order.Workshops[0].Type == nil || *order.Workshops[0].Type != "suit" {
		t.Fatalf("expected workshop type snapshot, got %v", order.Workshops[0].Type)
	}

	var cartCount int64
	if err := db.Model(&models.Cart{}).Where("id = ?", basket.ID).Count(&cartCount).Error; err != nil {
		t.Fatalf("counting carts: %v", err)
	}
	if cartCount != 0 {
		t.Fatal("expected cart deleted after conversion")
	}
}

func TestExecute_ExplicitInvoiceNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db)
	seedCart(t, db, f, 1)

	missing := uuid.New()
	input := checkoutInput(f)
	input.InvoiceID = &missing

	_, err := svc.Execute(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("counting orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatal("expected order creation rolled back")
	}
}

func TestExecute_ExplicitInvoiceBindsAndBackfillsTotal(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db)
	seedCart(t, db, f, 1)

	invoice := &models.Invoice{
		ID:          uuid.New(),
		Code:        "INV-00001",
		CustomerID:  &f.customer.ID,
		Status:      enums.InvoiceStatusUnpaid,
		TotalAmount: decimal.Zero,
	}
	if err := db.Create(invoice).Error; err != nil {
		t.Fatalf("seeding invoice: %v", err)
	}

	input := checkoutInput(f)
	input.InvoiceID = &invoice.ID

	order, err := svc.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var bound models.Invoice
	if err := db.Where("id = ?", invoice.ID).First(&bound).Error; err != nil {
		t.Fatalf("loading invoice: %v", err)
	}
	if bound.OrderID == nil || *bound.OrderID != order.ID {
		t.Fatal("expected invoice bound to the new order")
	}
	if !bound.TotalAmount.Equal(order.TotalAmount) {
		t.Fatalf("expected backfilled total %s, got %s", order.TotalAmount, bound.TotalAmount)
	}
}

func TestExecute_NoInvoiceIDLeavesFloatingInvoiceUntouched(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db)
	seedCart(t, db, f, 1)

	invoice := &models.Invoice{
		ID:          uuid.New(),
		Code:        "INV-00002",
		CustomerID:  &f.customer.ID,
		Status:      enums.InvoiceStatusUnpaid,
		TotalAmount: decimal.Zero,
	}
	if err := db.Create(invoice).Error; err != nil {
		t.Fatalf("seeding invoice: %v", err)
	}

	if _, err := svc.Execute(context.Background(), checkoutInput(f)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var floating models.Invoice
	if err := db.Where("id = ?", invoice.ID).First(&floating).Error; err != nil {
		t.Fatalf("loading invoice: %v", err)
	}
	if floating.OrderID != nil {
		t.Fatal("expected floating invoice to remain unbound")
	}
}

func TestExecute_OtherCustomersInvoiceRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db)
	seedCart(t, db, f, 1)

	stranger := uuid.New()
	invoice := &models.Invoice{
		ID:          uuid.New(),
		Code:        "INV-00003",
		CustomerID:  &stranger,
		Status:      enums.InvoiceStatusUnpaid,
		TotalAmount: decimal.Zero,
	}
	if err := db.Create(invoice).Error; err != nil {
		t.Fatalf("seeding invoice: %v", err)
	}

	input := checkoutInput(f)
	input.InvoiceID = &invoice.ID

	_, err := svc.Execute(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("counting orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatal("expected order creation rolled back")
	}
}

func TestExecute_AlreadyBoundInvoiceRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db)
	seedCart(t, db, f, 1)

	otherOrder := uuid.New()
	invoice := &models.Invoice{
		ID:          uuid.New(),
		Code:        "INV-00009",
		CustomerID:  &f.customer.ID,
		OrderID:     &otherOrder,
		Status:      enums.InvoiceStatusUnpaid,
		TotalAmount: decimal.RequireFromString("10.00"),
	}
	if err := db.Create(invoice).Error; err != nil {
		t.Fatalf("seeding invoice: %v", err)
	}

	input := checkoutInput(f)
	input.InvoiceID = &invoice.ID

	_, err := svc.Execute(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}
