package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/atelierhq/atelier-backend/api/responses"
	"github.com/atelierhq/atelier-backend/api/validators"
	checkoutsvc "github.com/atelierhq/atelier-backend/internal/checkout"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
)

type checkoutRequest struct {
	CustomerID    uuid.UUID  `json:"customer_id" validate:"required,uuid4"`
	PaymentMethod string     `json:"payment_method" validate:"required"`
	PaymentType   string     `json:"payment_type" validate:"required"`
	Priority      *string    `json:"priority,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	BankName      *string    `json:"bank_name,omitempty"`
	AccountNumber *string    `json:"account_number,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	InvoiceID     *uuid.UUID `json:"invoice_id,omitempty" validate:"omitempty,uuid4"`
}

// Checkout converts the customer's basket into an order with one workshop
// per line.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkoutsvc.Input{
			CustomerID:    payload.CustomerID,
			PaymentMethod: enums.PaymentMethod(payload.PaymentMethod),
			PaymentType:   enums.PaymentType(payload.PaymentType),
			DueDate:       payload.DueDate,
			BankName:      payload.BankName,
			AccountNumber: payload.AccountNumber,
			Notes:         payload.Notes,
			InvoiceID:     payload.InvoiceID,
		}
		if payload.Priority != nil {
			input.Priority = enums.OrderPriority(*payload.Priority)
		}

		order, err := svc.Execute(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
