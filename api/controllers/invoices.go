package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierhq/atelier-backend/api/responses"
	"github.com/atelierhq/atelier-backend/api/validators"
	"github.com/atelierhq/atelier-backend/internal/invoices"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
	"github.com/atelierhq/atelier-backend/pkg/pagination"
)

type createInvoiceRequest struct {
	CustomerID  *uuid.UUID      `json:"customer_id,omitempty" validate:"omitempty,uuid4"`
	OrderID     *uuid.UUID      `json:"order_id,omitempty" validate:"omitempty,uuid4"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
}

// InvoiceCreate issues a new invoice, bound to an order or floating against
// a customer until checkout binds it.
func InvoiceCreate(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		var payload createInvoiceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.CreateInvoice(r.Context(), invoices.CreateInput{
			CustomerID:  payload.CustomerID,
			OrderID:     payload.OrderID,
			TotalAmount: payload.TotalAmount,
			DueDate:     payload.DueDate,
			Notes:       payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

type recordPaymentRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Note     *string         `json:"note,omitempty"`
	ProofRef *string         `json:"proof_ref,omitempty"`
}

// InvoiceRecordPayment applies money received against an invoice.
func InvoiceRecordPayment(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		invoiceID, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.RecordPayment(r.Context(), invoices.PaymentInput{
			InvoiceID: invoiceID,
			Amount:    payload.Amount,
			Note:      payload.Note,
			ProofRef:  payload.ProofRef,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

// InvoiceDetail returns one invoice with its payments.
func InvoiceDetail(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		invoiceID, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.GetInvoice(r.Context(), invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

// InvoiceList returns recent invoices.
func InvoiceList(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListInvoices(r.Context(), pagination.Params{Limit: limit})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"invoices": rows})
	}
}
