package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierhq/atelier-backend/internal/deliveries"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	"github.com/atelierhq/atelier-backend/pkg/enums"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/pagination"
)

type stubDeliveryService struct {
	delivery *models.Delivery
	err      error
	gotID    uuid.UUID
	gotProof *string
}

func (s *stubDeliveryService) CreateScheduled(ctx context.Context, tx *gorm.DB, delivery *models.Delivery) (*models.Delivery, error) {
	return delivery, nil
}

func (s *stubDeliveryService) CreateInternalTransfer(ctx context.Context, input deliveries.TransferInput) (*models.Delivery, error) {
	return s.delivery, s.err
}

func (s *stubDeliveryService) ConfirmDelivery(ctx context.Context, deliveryID uuid.UUID, proofRef *string) (*models.Delivery, error) {
	s.gotID = deliveryID
	s.gotProof = proofRef
	return s.delivery, s.err
}

func (s *stubDeliveryService) UpdateStatus(ctx context.Context, deliveryID uuid.UUID, status enums.DeliveryStatus) (*models.Delivery, error) {
	return s.delivery, s.err
}

func (s *stubDeliveryService) GetDelivery(ctx context.Context, deliveryID uuid.UUID) (*models.Delivery, error) {
	return s.delivery, s.err
}

func (s *stubDeliveryService) ListDeliveries(ctx context.Context, filter deliveries.ListFilter, params pagination.Params) ([]models.Delivery, error) {
	return nil, s.err
}

func newConfirmRequest(t *testing.T, deliveryID string, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deliveries/"+deliveryID+"/confirm", strings.NewReader(body))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", deliveryID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestDeliveryConfirmSuccess(t *testing.T) {
	deliveryID := uuid.New()
	svc := &stubDeliveryService{delivery: &models.Delivery{ID: deliveryID, Status: enums.DeliveryStatusDelivered}}
	handler := DeliveryConfirm(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newConfirmRequest(t, deliveryID.String(), `{"proof_ref":"proof/1.jpg"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotID != deliveryID {
		t.Fatalf("delivery id not forwarded")
	}
	if svc.gotProof == nil || *svc.gotProof != "proof/1.jpg" {
		t.Fatalf("proof ref not forwarded")
	}
}

func TestDeliveryConfirmInvalidID(t *testing.T) {
	handler := DeliveryConfirm(&stubDeliveryService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newConfirmRequest(t, "not-a-uuid", `{}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDeliveryConfirmNotFound(t *testing.T) {
	svc := &stubDeliveryService{err: pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")}
	handler := DeliveryConfirm(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, newConfirmRequest(t, uuid.NewString(), `{}`))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
