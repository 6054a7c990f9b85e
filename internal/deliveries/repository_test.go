package deliveries

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
)

func TestRepositoryCreateAssignsIDs(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	source := seedLocation(t, db, "warehouse")
	product := seedProduct(t, db, 5)

	created, err := repo.Create(context.Background(), &models.Delivery{
		Code:             "DLV-90001",
		Type:             enums.DeliveryTypeTransfer,
		Status:           enums.DeliveryStatusScheduled,
		SourceLocationID: source.ID,
		DestinationKind:  enums.DestinationLocation,
		Items: []models.DeliveryItem{
			{ProductID: product.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.Len(t, created.Items, 1)
	assert.Equal(t, created.ID, created.Items[0].DeliveryID)
	assert.NotEqual(t, uuid.Nil, created.Items[0].ID)
}

func TestRepositoryGetForUpdateLoadsItems(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	customer := seedCustomer(t, db)
	product := seedProduct(t, db, 5)
	source := seedLocation(t, db, "warehouse")
	f := seedOrderGraph(t, db, customer.ID, product.ID, 2, enums.WorkshopStatusCompleted)
	seeded := seedCustomerDelivery(t, db, f, customer.ID, source.ID)

	loaded, err := repo.GetForUpdate(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.Code, loaded.Code)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 2, loaded.Items[0].Quantity)
}

func TestRepositoryListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	customer := seedCustomer(t, db)
	product := seedProduct(t, db, 5)
	source := seedLocation(t, db, "warehouse")
	dest := seedLocation(t, db, "shopfloor")
	f := seedOrderGraph(t, db, customer.ID, product.ID, 2, enums.WorkshopStatusCompleted)
	seedCustomerDelivery(t, db, f, customer.ID, source.ID)

	_, err := repo.Create(context.Background(), &models.Delivery{
		Code:                  "DLV-90002",
		Type:                  enums.DeliveryTypeTransfer,
		Status:                enums.DeliveryStatusPending,
		SourceLocationID:      source.ID,
		DestinationKind:       enums.DestinationLocation,
		DestinationLocationID: &dest.ID,
		Items:                 []models.DeliveryItem{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	transferType := enums.DeliveryTypeTransfer
	rows, err := repo.List(context.Background(), ListFilter{Type: &transferType}, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "DLV-90002", rows[0].Code)

	scheduled := enums.DeliveryStatusScheduled
	rows, err = repo.List(context.Background(), ListFilter{Status: &scheduled}, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.DeliveryTypeOrder, rows[0].Type)

	byOrder, err := repo.ListByOrder(context.Background(), f.order.ID)
	require.NoError(t, err)
	assert.Len(t, byOrder, 1)
}
