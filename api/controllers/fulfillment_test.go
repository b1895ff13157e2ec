package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmacare-app/pharmacare-backend/api/middleware"
	"github.com/pharmacare-app/pharmacare-backend/internal/fulfillment"
	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
	"github.com/pharmacare-app/pharmacare-backend/pkg/types"
)

type stubFulfillmentService struct {
	processInput *fulfillment.ProcessInput
	order        *models.Order
	rejectInput  *fulfillment.RejectInput
	prescription *models.Prescription
	err          error
}

func (s *stubFulfillmentService) ProcessPrescription(ctx context.Context, input fulfillment.ProcessInput) (*models.Order, error) {
	s.processInput = &input
	return s.order, s.err
}

func (s *stubFulfillmentService) RejectPrescription(ctx context.Context, input fulfillment.RejectInput) (*models.Prescription, error) {
	s.rejectInput = &input
	return s.prescription, s.err
}

func authedPathRequest(method, target, paramKey, paramValue string, body []byte, actor uuid.UUID, role enums.UserRole) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	ctx := middleware.WithUserID(req.Context(), actor.String())
	ctx = middleware.WithRole(ctx, string(role))

	rc := chi.NewRouteContext()
	rc.URLParams.Add(paramKey, paramValue)
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rc)

	return req.WithContext(ctx)
}

func TestProcessPrescriptionMapsItemsToLines(t *testing.T) {
	prescriptionID := uuid.New()
	processorID := uuid.New()
	medicationID := uuid.New()
	svc := &stubFulfillmentService{order: &models.Order{
		ID:             uuid.New(),
		PrescriptionID: prescriptionID,
		TotalAmount:    decimal.RequireFromString("9.00"),
		Status:         enums.OrderStatusInPreparation,
	}}

	body := []byte(`{"items":[{"medication_id":"` + medicationID.String() + `","quantity":2}]}`)
	req := authedPathRequest(http.MethodPost, "/api/v1/prescriptions/"+prescriptionID.String()+"/process",
		"prescriptionID", prescriptionID.String(), body, processorID, enums.UserRolePharmacist)
	resp := httptest.NewRecorder()

	ProcessPrescription(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	if svc.processInput == nil {
		t.Fatal("service was not invoked")
	}
	if svc.processInput.PrescriptionID != prescriptionID {
		t.Fatalf("prescription id not forwarded")
	}
	if svc.processInput.ProcessorID != processorID {
		t.Fatalf("processor id not taken from auth context")
	}
	if len(svc.processInput.Items) != 1 || svc.processInput.Items[0].MedicationID != medicationID || svc.processInput.Items[0].Quantity != 2 {
		t.Fatalf("unexpected lines %+v", svc.processInput.Items)
	}
}

func TestProcessPrescriptionRejectsEmptyItems(t *testing.T) {
	svc := &stubFulfillmentService{}
	prescriptionID := uuid.New()

	req := authedPathRequest(http.MethodPost, "/api/v1/prescriptions/"+prescriptionID.String()+"/process",
		"prescriptionID", prescriptionID.String(), []byte(`{"items":[]}`), uuid.New(), enums.UserRolePharmacist)
	resp := httptest.NewRecorder()

	ProcessPrescription(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if svc.processInput != nil {
		t.Fatal("service must not run on invalid payload")
	}
}

func TestProcessPrescriptionSurfacesShortfalls(t *testing.T) {
	svc := &stubFulfillmentService{
		err: pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
			WithDetails(map[string]any{"shortfalls": []map[string]any{{"requested": 5, "available": 1}}}),
	}
	prescriptionID := uuid.New()

	body := []byte(`{"items":[{"medication_id":"` + uuid.NewString() + `","quantity":5}]}`)
	req := authedPathRequest(http.MethodPost, "/api/v1/prescriptions/"+prescriptionID.String()+"/process",
		"prescriptionID", prescriptionID.String(), body, uuid.New(), enums.UserRolePharmacist)
	resp := httptest.NewRecorder()

	ProcessPrescription(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}

	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeConflict) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
	if envelope.Error.Details == nil {
		t.Fatal("shortfall details must reach the caller")
	}
}

func TestRejectPrescriptionRequiresReason(t *testing.T) {
	svc := &stubFulfillmentService{}
	prescriptionID := uuid.New()

	req := authedPathRequest(http.MethodPost, "/api/v1/prescriptions/"+prescriptionID.String()+"/reject",
		"prescriptionID", prescriptionID.String(), []byte(`{}`), uuid.New(), enums.UserRolePharmacist)
	resp := httptest.NewRecorder()

	RejectPrescription(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestRejectPrescriptionForwardsReason(t *testing.T) {
	prescriptionID := uuid.New()
	processorID := uuid.New()
	svc := &stubFulfillmentService{prescription: &models.Prescription{
		ID:     prescriptionID,
		Status: enums.PrescriptionStatusRejected,
	}}

	req := authedPathRequest(http.MethodPost, "/api/v1/prescriptions/"+prescriptionID.String()+"/reject",
		"prescriptionID", prescriptionID.String(), []byte(`{"reason":"illegible prescription"}`), processorID, enums.UserRoleManager)
	resp := httptest.NewRecorder()

	RejectPrescription(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.rejectInput == nil || svc.rejectInput.Reason != "illegible prescription" {
		t.Fatalf("reason not forwarded: %+v", svc.rejectInput)
	}
	if svc.rejectInput.ProcessorID != processorID {
		t.Fatal("processor id not taken from auth context")
	}
}
