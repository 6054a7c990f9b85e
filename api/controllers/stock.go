package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/atelierhq/atelier-backend/api/responses"
	"github.com/atelierhq/atelier-backend/api/validators"
	"github.com/atelierhq/atelier-backend/internal/stock"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/pagination"
)

type stockAdjustRequest struct {
	LocationID uuid.UUID `json:"location_id" validate:"required,uuid4"`
	ProductID  uuid.UUID `json:"product_id" validate:"required,uuid4"`
	Delta      int       `json:"delta" validate:"required"`
}

// StockAdjust applies a manual ledger correction at one location.
func StockAdjust(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		var payload stockAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Adjust(r.Context(), stock.AdjustInput{
			LocationID: payload.LocationID,
			ProductID:  payload.ProductID,
			Delta:      payload.Delta,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// StockByLocation lists the ledger rows held at one location.
func StockByLocation(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		locationID, err := parseUUIDParam(r, "locationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		rows, err := svc.LocationStock(r.Context(), locationID, pagination.Params{Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"stock": rows})
	}
}
