package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
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

type stubProductLoader struct {
	product *models.Product
	err     error
}

func (s stubProductLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.Cart{}, &models.CartItem{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, db *gorm.DB, products productLoader) Service {
	t.Helper()
	svc, err := NewService(gormTxRunner{db: db}, NewRepository(db), products)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc
}

func TestAddItem_CreatesCartLazily(t *testing.T) {
	db := newTestDB(t)
	product := &models.Product{ID: uuid.New(), Code: "PRD-1", Name: "Suit"}
	svc := newTestService(t, db, stubProductLoader{product: product})

	customerID := uuid.New()
	record, err := svc.AddItem(context.Background(), AddItemInput{
		CustomerID:    customerID,
		ProductID:     product.ID,
		MeasurementID: uuid.New(),
		Quantity:      2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.CustomerID != customerID {
		t.Fatalf("expected cart owned by customer")
	}
	if len(record.Items) != 1 || record.Items[0].Quantity != 2 {
		t.Fatalf("expected single line with quantity 2, got %+v", record.Items)
	}
}

func TestAddItem_MergesExactMatch(t *testing.T) {
	db := newTestDB(t)
	product := &models.Product{ID: uuid.New(), Code: "PRD-1", Name: "Suit"}
	svc := newTestService(t, db, stubProductLoader{product: product})

	customerID := uuid.New()
	measurementID := uuid.New()
	category := "wedding"
	ctx := context.Background()

	input := AddItemInput{
		CustomerID:         customerID,
		ProductID:          product.ID,
		MeasurementID:      measurementID,
		Quantity:           1,
		CollectionCategory: &category,
	}
	if _, err := svc.AddItem(ctx, input); err != nil {
		t.Fatalf("first add: %v", err)
	}
	record, err := svc.AddItem(ctx, input)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(record.Items) != 1 {
		t.Fatalf("expected merged single line, got %d", len(record.Items))
	}
	if record.Items[0].Quantity != 2 {
		t.Fatalf("expected merged quantity 2, got %d", record.Items[0].Quantity)
	}
}

func TestAddItem_DifferentMeasurementStaysSeparate(t *testing.T) {
	db := newTestDB(t)
	product := &models.Product{ID: uuid.New(), Code: "PRD-1", Name: "Suit"}
	svc := newTestService(t, db, stubProductLoader{product: product})

	customerID := uuid.New()
	ctx := context.Background()

	first := AddItemInput{CustomerID: customerID, ProductID: product.ID, MeasurementID: uuid.New(), Quantity: 1}
	second := AddItemInput{CustomerID: customerID, ProductID: product.ID, MeasurementID: uuid.New(), Quantity: 1}
	if _, err := svc.AddItem(ctx, first); err != nil {
		t.Fatalf("first add: %v", err)
	}
	record, err := svc.AddItem(ctx, second)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(record.Items) != 2 {
		t.Fatalf("expected two separate lines, got %d", len(record.Items))
	}
}

func TestAddItem_UnknownProduct(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, stubProductLoader{err: gorm.ErrRecordNotFound})

	_, err := svc.AddItem(context.Background(), AddItemInput{
		CustomerID:    uuid.New(),
		ProductID:     uuid.New(),
		MeasurementID: uuid.New(),
		Quantity:      1,
	})
	if err == nil {
		t.Fatal("expected error for unknown product")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error code: %v", err)
	}
}

func TestGetCart_NotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db, stubProductLoader{})

	_, err := svc.GetCart(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}
