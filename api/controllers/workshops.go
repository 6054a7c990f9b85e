package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atelierhq/atelier-backend/api/responses"
	"github.com/atelierhq/atelier-backend/api/validators"
	"github.com/atelierhq/atelier-backend/internal/workshops"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/pagination"
)

type workshopAssignRequest struct {
	TailorID *uuid.UUID `json:"tailor_id,omitempty" validate:"omitempty,uuid4"`
	CutterID *uuid.UUID `json:"cutter_id,omitempty" validate:"omitempty,uuid4"`
}

// WorkshopAssign records whichever of tailor and cutter is supplied.
func WorkshopAssign(svc workshops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "workshop service unavailable"))
			return
		}

		workshopID, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload workshopAssignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		workshop, err := svc.AssignWorkers(r.Context(), workshopID, payload.TailorID, payload.CutterID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, workshop)
	}
}

type workshopStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// WorkshopUpdateStatus moves a job through the production state machine.
func WorkshopUpdateStatus(svc workshops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "workshop service unavailable"))
			return
		}

		workshopID, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload workshopStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		workshop, err := svc.UpdateStatus(r.Context(), workshopID, enums.WorkshopStatus(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, workshop)
	}
}

type scheduleDeliveryRequest struct {
	CourierID   *uuid.UUID `json:"courier_id,omitempty" validate:"omitempty,uuid4"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Address     *string    `json:"address,omitempty"`
	IsPriority  bool       `json:"is_priority"`
	Notes       *string    `json:"notes,omitempty"`
}

// WorkshopScheduleDelivery dispatches a finished garment to the customer.
func WorkshopScheduleDelivery(svc workshops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "workshop service unavailable"))
			return
		}

		workshopID, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload scheduleDeliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery, err := svc.ScheduleDelivery(r.Context(), workshops.ScheduleInput{
			WorkshopID:  workshopID,
			CourierID:   payload.CourierID,
			ScheduledAt: payload.ScheduledAt,
			Address:     payload.Address,
			IsPriority:  payload.IsPriority,
			Notes:       payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, delivery)
	}
}

// WorkshopList returns jobs, optionally filtered by status.
func WorkshopList(svc workshops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "workshop service unavailable"))
			return
		}

		var status *enums.WorkshopStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseWorkshopStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid workshop status filter"))
				return
			}
			status = &parsed
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListWorkshops(r.Context(), status, pagination.Params{Limit: limit})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"workshops": rows})
	}
}
