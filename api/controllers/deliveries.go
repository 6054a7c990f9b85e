package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atelierhq/atelier-backend/api/responses"
	"github.com/atelierhq/atelier-backend/api/validators"
	"github.com/atelierhq/atelier-backend/internal/deliveries"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/pagination"
)

type transferItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required,uuid4"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type createTransferRequest struct {
	SourceLocationID      uuid.UUID             `json:"source_location_id" validate:"required,uuid4"`
	DestinationLocationID uuid.UUID             `json:"destination_location_id" validate:"required,uuid4"`
	CourierID             *uuid.UUID            `json:"courier_id,omitempty" validate:"omitempty,uuid4"`
	ScheduledAt           *time.Time            `json:"scheduled_at,omitempty"`
	IsPriority            bool                  `json:"is_priority"`
	Notes                 *string               `json:"notes,omitempty"`
	Items                 []transferItemRequest `json:"items" validate:"required,min=1,dive"`
}

// DeliveryCreateTransfer schedules a stock movement between two locations.
func DeliveryCreateTransfer(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		var payload createTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := deliveries.TransferInput{
			SourceLocationID:      payload.SourceLocationID,
			DestinationLocationID: payload.DestinationLocationID,
			CourierID:             payload.CourierID,
			ScheduledAt:           payload.ScheduledAt,
			IsPriority:            payload.IsPriority,
			Notes:                 payload.Notes,
		}
		for _, item := range payload.Items {
			input.Items = append(input.Items, deliveries.TransferItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		transfer, err := svc.CreateInternalTransfer(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, transfer)
	}
}

type confirmDeliveryRequest struct {
	ProofRef *string `json:"proof_ref,omitempty"`
}

// DeliveryConfirm executes the fulfillment transaction for one delivery.
func DeliveryConfirm(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		deliveryID, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmDeliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.ConfirmDelivery(r.Context(), deliveryID, payload.ProofRef)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

type deliveryStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// DeliveryUpdateStatus handles courier progress updates short of delivery.
func DeliveryUpdateStatus(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		deliveryID, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload deliveryStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.UpdateStatus(r.Context(), deliveryID, enums.DeliveryStatus(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

// DeliveryDetail returns one delivery with its items.
func DeliveryDetail(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		deliveryID, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.GetDelivery(r.Context(), deliveryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delivery)
	}
}

// DeliveryList returns deliveries filtered by status and type.
func DeliveryList(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		var filter deliveries.ListFilter
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseDeliveryStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery status filter"))
				return
			}
			filter.Status = &parsed
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			parsed, err := enums.ParseDeliveryType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery type filter"))
				return
			}
			filter.Type = &parsed
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListDeliveries(r.Context(), filter, pagination.Params{Limit: limit})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deliveries": rows})
	}
}
