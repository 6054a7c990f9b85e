package workshops

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/internal/customers"
	"github.com/atelierhq/atelier-backend/internal/deliveries"
	"github.com/atelierhq/atelier-backend/internal/invoices"
	"github.com/atelierhq/atelier-backend/internal/stock"
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
		&models.Location{},
		&models.Stock{},
		&models.Order{},
		&models.OrderItem{},
		&models.Workshop{},
		&models.Delivery{},
		&models.DeliveryItem{},
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
	runner := gormTxRunner{db: db}

	stockSvc, err := stock.NewService(runner, stock.NewRepository(db), nil)
	if err != nil {
		t.Fatalf("failed to build stock service: %v", err)
	}
	deliverySvc, err := deliveries.NewService(
		runner,
		deliveries.NewRepository(db),
		stockSvc,
		stock.NewProductRepository(db),
		customers.NewRepository(db),
		nil,
	)
	if err != nil {
		t.Fatalf("failed to build delivery service: %v", err)
	}

	svc, err := NewService(
		runner,
		NewRepository(db),
		stock.NewRepository(db),
		deliverySvc,
		invoices.NewRepository(db),
	)
	if err != nil {
		t.Fatalf("failed to build workshop service: %v", err)
	}
	return svc
}

type fixture struct {
	customer  *models.Customer
	product   *models.Product
	order     *models.Order
	orderItem *models.OrderItem
	workshop  *models.Workshop
}

func seedFixture(t *testing.T, db *gorm.DB, method enums.PaymentMethod) fixture {
	t.Helper()
	suffix := uuid.NewString()[:8]
	address := "Jl. Sudirman 1"
	customer := &models.Customer{ID: uuid.New(), Code: "CUST-" + suffix, Name: "A", Address: &address}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("seeding customer: %v", err)
	}
	product := &models.Product{ID: uuid.New(), Code: "PRD-" + suffix, Name: "Suit", Price: decimal.RequireFromString("150.00"), Quantity: 10}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	order := &models.Order{
		ID:            uuid.New(),
		Code:          "ORDER-" + suffix,
		CustomerID:    customer.ID,
		Status:        enums.OrderStatusPending,
		Priority:      enums.OrderPriorityNormal,
		PaymentMethod: method,
		PaymentType:   enums.PaymentTypePartly,
		TotalAmount:   decimal.RequireFromString("300.00"),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seeding order: %v", err)
	}
	orderItem := &models.OrderItem{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ProductID: product.ID,
		Quantity:  2,
		PriceEach: decimal.RequireFromString("150.00"),
	}
	if err := db.Create(orderItem).Error; err != nil {
		t.Fatalf("seeding order item: %v", err)
	}
	workshop := &models.Workshop{
		ID:          uuid.New(),
		Code:        "WS-" + suffix,
		OrderID:     order.ID,
		OrderItemID: orderItem.ID,
		ProductID:   product.ID,
		Status:      enums.WorkshopStatusOnRequest,
	}
	if err := db.Create(workshop).Error; err != nil {
		t.Fatalf("seeding workshop: %v", err)
	}
	return fixture{customer: customer, product: product, order: order, orderItem: orderItem, workshop: workshop}
}

func seedStock(t *testing.T, db *gorm.DB, productID uuid.UUID, qty int) *models.Location {
	t.Helper()
	suffix := uuid.NewString()[:8]
	loc := &models.Location{ID: uuid.New(), Code: "LOC-" + suffix, Name: "Loc-" + suffix}
	if err := db.Create(loc).Error; err != nil {
		t.Fatalf("seeding location: %v", err)
	}
	row := &models.Stock{LocationID: loc.ID, ProductID: productID, Quantity: qty}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seeding stock: %v", err)
	}
	return loc
}

func assignBoth(t *testing.T, svc Service, workshopID uuid.UUID) {
	t.Helper()
	tailor, cutter := uuid.New(), uuid.New()
	if _, err := svc.AssignWorkers(context.Background(), workshopID, &tailor, &cutter); err != nil {
		t.Fatalf("assign: %v", err)
	}
}

func TestAssignWorkers_ForcesReady(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db, enums.PaymentMethodCash)

	tailor, cutter := uuid.New(), uuid.New()
	got, err := svc.AssignWorkers(context.Background(), f.workshop.ID, &tailor, &cutter)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.Status != enums.WorkshopStatusReady {
		t.Fatalf("status = %s, want ready", got.Status)
	}
	if got.TailorID == nil || *got.TailorID != tailor {
		t.Fatalf("tailor id not recorded")
	}
	if got.CutterID == nil || *got.CutterID != cutter {
		t.Fatalf("cutter id not recorded")
	}
}

func TestAssignWorkers_SingleRoleKeepsOther(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db, enums.PaymentMethodCash)

	tailor := uuid.New()
	got, err := svc.AssignWorkers(context.Background(), f.workshop.ID, &tailor, nil)
	if err != nil {
		t.Fatalf("assign tailor: %v", err)
	}
	if got.Status != enums.WorkshopStatusReady {
		t.Fatalf("status = %s, want ready", got.Status)
	}
	if got.TailorID == nil || *got.TailorID != tailor {
		t.Fatalf("tailor id not recorded")
	}
	if got.CutterID != nil {
		t.Fatalf("cutter unexpectedly set")
	}

	cutter := uuid.New()
	got, err = svc.AssignWorkers(context.Background(), f.workshop.ID, nil, &cutter)
	if err != nil {
		t.Fatalf("assign cutter: %v", err)
	}
	if got.TailorID == nil || *got.TailorID != tailor {
		t.Fatalf("tailor lost on second assignment")
	}
	if got.CutterID == nil || *got.CutterID != cutter {
		t.Fatalf("cutter id not recorded")
	}
}

func TestAssignWorkers_ReassignsCompletedJob(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db, enums.PaymentMethodCash)

	if err := db.Model(f.workshop).Update("status", enums.WorkshopStatusCompleted).Error; err != nil {
		t.Fatalf("forcing completed: %v", err)
	}

	tailor := uuid.New()
	got, err := svc.AssignWorkers(context.Background(), f.workshop.ID, &tailor, nil)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.Status != enums.WorkshopStatusReady {
		t.Fatalf("status = %s, want ready", got.Status)
	}
}

func TestUpdateStatus_CashOrderSkipsPaidCheck(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db, enums.PaymentMethodCash)

	invoice := &models.Invoice{
		ID:          uuid.New(),
		Code:        "INV-00001",
		OrderID:     &f.order.ID,
		Status:      enums.InvoiceStatusPartial,
		TotalAmount: f.order.TotalAmount,
	}
	if err := db.Create(invoice).Error; err != nil {
		t.Fatalf("seeding invoice: %v", err)
	}

	got, err := svc.UpdateStatus(context.Background(), f.workshop.ID, enums.WorkshopStatusOnProcess)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != enums.WorkshopStatusOnProcess {
		t.Fatalf("status = %s, want on_process", got.Status)
	}
}

func TestUpdateStatus_MissingInvoiceBlocksProduction(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	for _, method := range []enums.PaymentMethod{enums.PaymentMethodCash, enums.PaymentMethodTransfer} {
		f := seedFixture(t, db, method)

		_, err := svc.UpdateStatus(context.Background(), f.workshop.ID, enums.WorkshopStatusOnProcess)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("%s: expected state conflict, got %v", method, err)
		}
	}
}

func TestUpdateStatus_UnsettledInvoiceBlocksProduction(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db, enums.PaymentMethodTransfer)

	invoice := &models.Invoice{
		ID:          uuid.New(),
		Code:        "INV-00001",
		OrderID:     &f.order.ID,
		Status:      enums.InvoiceStatusPartial,
		TotalAmount: f.order.TotalAmount,
	}
	if err := db.Create(invoice).Error; err != nil {
		t.Fatalf("seeding invoice: %v", err)
	}

	_, err := svc.UpdateStatus(context.Background(), f.workshop.ID, enums.WorkshopStatusOnProcess)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestUpdateStatus_PaidInvoiceAllowsProduction(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db, enums.PaymentMethodTransfer)

	invoice := &models.Invoice{
		ID:          uuid.New(),
		Code:        "INV-00001",
		OrderID:     &f.order.ID,
		Status:      enums.InvoiceStatusPaid,
		TotalAmount: f.order.TotalAmount,
	}
	if err := db.Create(invoice).Error; err != nil {
		t.Fatalf("seeding invoice: %v", err)
	}

	got, err := svc.UpdateStatus(context.Background(), f.workshop.ID, enums.WorkshopStatusOnProcess)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != enums.WorkshopStatusOnProcess {
		t.Fatalf("status = %s, want on_process", got.Status)
	}
}

func TestScheduleDelivery_RequiresWorkers(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db, enums.PaymentMethodCash)

	_, err := svc.ScheduleDelivery(context.Background(), ScheduleInput{WorkshopID: f.workshop.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestScheduleDelivery_OnProcessJobStillShips(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db, enums.PaymentMethodCash)
	seedStock(t, db, f.product.ID, 5)

	assignBoth(t, svc, f.workshop.ID)
	if err := db.Model(f.workshop).Update("status", enums.WorkshopStatusOnProcess).Error; err != nil {
		t.Fatalf("forcing on_process: %v", err)
	}

	got, err := svc.ScheduleDelivery(context.Background(), ScheduleInput{WorkshopID: f.workshop.ID})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if got.Status != enums.DeliveryStatusScheduled {
		t.Fatalf("delivery status = %s, want scheduled", got.Status)
	}

	var workshop models.Workshop
	if err := db.First(&workshop, "id = ?", f.workshop.ID).Error; err != nil {
		t.Fatalf("reloading workshop: %v", err)
	}
	if workshop.Status != enums.WorkshopStatusCompleted {
		t.Fatalf("workshop status = %s, want completed", workshop.Status)
	}
}

func TestScheduleDelivery_InsufficientStock(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db, enums.PaymentMethodCash)
	seedStock(t, db, f.product.ID, 1)

	assignBoth(t, svc, f.workshop.ID)

	_, err := svc.ScheduleDelivery(context.Background(), ScheduleInput{WorkshopID: f.workshop.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestScheduleDelivery_AddressOverride(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db, enums.PaymentMethodCash)
	seedStock(t, db, f.product.ID, 5)

	assignBoth(t, svc, f.workshop.ID)

	override := "Jl. Thamrin 9"
	got, err := svc.ScheduleDelivery(context.Background(), ScheduleInput{
		WorkshopID: f.workshop.ID,
		Address:    &override,
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Address == nil || *got.Items[0].Address != override {
		t.Fatalf("item address not overridden, got %v", got.Items[0].Address)
	}
}

func TestScheduleDelivery_PicksBestStockedLocation(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	f := seedFixture(t, db, enums.PaymentMethodCash)
	seedStock(t, db, f.product.ID, 2)
	best := seedStock(t, db, f.product.ID, 7)

	assignBoth(t, svc, f.workshop.ID)

	when := time.Now().Add(48 * time.Hour).UTC()
	got, err := svc.ScheduleDelivery(context.Background(), ScheduleInput{
		WorkshopID:  f.workshop.ID,
		ScheduledAt: &when,
		IsPriority:  true,
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if got.Code != "DLV-00001" {
		t.Fatalf("code = %s, want DLV-00001", got.Code)
	}
	if got.Type != enums.DeliveryTypeOrder || got.Status != enums.DeliveryStatusScheduled {
		t.Fatalf("type/status = %s/%s", got.Type, got.Status)
	}
	if got.SourceLocationID != best.ID {
		t.Fatalf("source = %s, want best-stocked %s", got.SourceLocationID, best.ID)
	}
	if got.DestinationKind != enums.DestinationCustomer || got.DestinationCustomerID == nil || *got.DestinationCustomerID != f.customer.ID {
		t.Fatalf("destination not bound to customer")
	}
	if len(got.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(got.Items))
	}
	item := got.Items[0]
	if item.Quantity != f.orderItem.Quantity || item.OrderItemID == nil || *item.OrderItemID != f.orderItem.ID {
		t.Fatalf("item does not mirror the order item")
	}
	if item.Address == nil || *item.Address != *f.customer.Address {
		t.Fatalf("item address not copied from customer")
	}

	var workshop models.Workshop
	if err := db.First(&workshop, "id = ?", f.workshop.ID).Error; err != nil {
		t.Fatalf("reloading workshop: %v", err)
	}
	if workshop.Status != enums.WorkshopStatusCompleted {
		t.Fatalf("workshop status = %s, want completed", workshop.Status)
	}
	if workshop.ScheduledDeliveryAt == nil {
		t.Fatalf("scheduled_delivery_at not set")
	}

	var stockRow models.Stock
	if err := db.First(&stockRow, "location_id = ? AND product_id = ?", best.ID, f.product.ID).Error; err != nil {
		t.Fatalf("reloading stock: %v", err)
	}
	if stockRow.Quantity != 7 {
		t.Fatalf("stock moved at scheduling time, quantity = %d", stockRow.Quantity)
	}
}
