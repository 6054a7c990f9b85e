package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/atelierhq/atelier-backend/api/responses"
	"github.com/atelierhq/atelier-backend/api/validators"
	"github.com/atelierhq/atelier-backend/internal/cart"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
)

type cartAddItemRequest struct {
	CustomerID         uuid.UUID `json:"customer_id" validate:"required,uuid4"`
	ProductID          uuid.UUID `json:"product_id" validate:"required,uuid4"`
	MeasurementID      uuid.UUID `json:"measurement_id" validate:"required,uuid4"`
	Quantity           int       `json:"quantity" validate:"required,min=1"`
	CollectionCategory *string   `json:"collection_category,omitempty"`
}

// CartAddItem adds a product line to the customer's basket, merging into
// an existing line when product, measurement and category all match.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload cartAddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		basket, err := svc.AddItem(r.Context(), cart.AddItemInput{
			CustomerID:         payload.CustomerID,
			ProductID:          payload.ProductID,
			MeasurementID:      payload.MeasurementID,
			Quantity:           payload.Quantity,
			CollectionCategory: payload.CollectionCategory,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, basket)
	}
}
