package stock

import (
	"context"
	"sync"
	"sync/atomic"
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

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(&models.Location{}, &models.Product{}, &models.Stock{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(gormTxRunner{db: db}, NewRepository(db), nil)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc
}

func TestAdjust_CreatesRowLazily(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	locationID := uuid.New()
	productID := uuid.New()

	row, err := svc.Adjust(context.Background(), AdjustInput{
		LocationID: locationID,
		ProductID:  productID,
		Delta:      7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", row.Quantity)
	}

	var stored models.Stock
	if err := db.Where("location_id = ? AND product_id = ?", locationID, productID).First(&stored).Error; err != nil {
		t.Fatalf("expected persisted row: %v", err)
	}
	if stored.Quantity != 7 {
		t.Fatalf("expected persisted quantity 7, got %d", stored.Quantity)
	}
}

func TestAdjust_SequentialDeltasAccumulate(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	locationID := uuid.New()
	productID := uuid.New()
	ctx := context.Background()

	for _, delta := range []int{5, -2, 4, -3} {
		if _, err := svc.Adjust(ctx, AdjustInput{LocationID: locationID, ProductID: productID, Delta: delta}); err != nil {
			t.Fatalf("unexpected error applying %d: %v", delta, err)
		}
	}

	var stored models.Stock
	if err := db.Where("location_id = ? AND product_id = ?", locationID, productID).First(&stored).Error; err != nil {
		t.Fatalf("loading row: %v", err)
	}
	if stored.Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", stored.Quantity)
	}
}

func TestAdjust_RejectsNegativeResult(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	locationID := uuid.New()
	productID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Adjust(ctx, AdjustInput{LocationID: locationID, ProductID: productID, Delta: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Adjust(ctx, AdjustInput{LocationID: locationID, ProductID: productID, Delta: -4})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error code: %v", err)
	}

	var stored models.Stock
	if err := db.Where("location_id = ? AND product_id = ?", locationID, productID).First(&stored).Error; err != nil {
		t.Fatalf("loading row: %v", err)
	}
	if stored.Quantity != 3 {
		t.Fatalf("expected quantity untouched at 3, got %d", stored.Quantity)
	}
}

func TestAdjust_ZeroDeltaRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Adjust(context.Background(), AdjustInput{LocationID: uuid.New(), ProductID: uuid.New(), Delta: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error code: %v", err)
	}
}

func TestAdjust_ConcurrentDebitsNeverGoNegative(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	locationID := uuid.New()
	productID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Adjust(ctx, AdjustInput{LocationID: locationID, ProductID: productID, Delta: 5}); err != nil {
		t.Fatalf("seeding stock: %v", err)
	}

	const workers = 10
	var rejected atomic.Int32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Adjust(ctx, AdjustInput{LocationID: locationID, ProductID: productID, Delta: -1})
			if err != nil {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := rejected.Load(); got != 5 {
		t.Fatalf("expected exactly 5 rejected debits, got %d", got)
	}

	var stored models.Stock
	if err := db.Where("location_id = ? AND product_id = ?", locationID, productID).First(&stored).Error; err != nil {
		t.Fatalf("loading row: %v", err)
	}
	if stored.Quantity != 0 {
		t.Fatalf("expected quantity 0, got %d", stored.Quantity)
	}
}
