package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	internalorders "github.com/pharmacare-app/pharmacare-backend/internal/orders"
	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
	"github.com/pharmacare-app/pharmacare-backend/pkg/pagination"
)

type stubOrdersRepo struct {
	order *models.Order
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) internalorders.Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	return order, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.order, nil
}

func (s *stubOrdersRepo) FindByPrescriptionID(ctx context.Context, prescriptionID uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrdersRepo) ListByClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return nil, "", nil
}

func (s *stubOrdersRepo) List(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]models.Order, string, error) {
	return nil, "", nil
}

func (s *stubOrdersRepo) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error) {
	return false, nil
}

type stubWorkflow struct {
	input *internalorders.TransitionInput
	order *models.Order
	err   error
}

func (s *stubWorkflow) Transition(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error) {
	s.input = &input
	return s.order, s.err
}

func sampleOrder(clientID uuid.UUID) *models.Order {
	return &models.Order{
		ID:             uuid.New(),
		ClientID:       clientID,
		PrescriptionID: uuid.New(),
		TotalAmount:    decimal.RequireFromString("12.75"),
		Status:         enums.OrderStatusInPreparation,
	}
}

func TestOrderDetailHidesForeignOrdersFromClients(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	order := sampleOrder(owner)
	repo := &stubOrdersRepo{order: order}

	req := authedPathRequest(http.MethodGet, "/api/v1/orders/"+order.ID.String(),
		"orderID", order.ID.String(), nil, stranger, enums.UserRoleClient)
	resp := httptest.NewRecorder()
	OrderDetail(repo, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestOrderDetailAllowsOwnerAndStaff(t *testing.T) {
	owner := uuid.New()
	order := sampleOrder(owner)
	repo := &stubOrdersRepo{order: order}

	req := authedPathRequest(http.MethodGet, "/api/v1/orders/"+order.ID.String(),
		"orderID", order.ID.String(), nil, owner, enums.UserRoleClient)
	resp := httptest.NewRecorder()
	OrderDetail(repo, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("owner: expected 200 got %d", resp.Code)
	}

	req = authedPathRequest(http.MethodGet, "/api/v1/orders/"+order.ID.String(),
		"orderID", order.ID.String(), nil, uuid.New(), enums.UserRolePharmacist)
	resp = httptest.NewRecorder()
	OrderDetail(repo, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("staff: expected 200 got %d", resp.Code)
	}
}

func TestUpdateOrderStatusForwardsTransitionInput(t *testing.T) {
	actor := uuid.New()
	agentID := uuid.New()
	order := sampleOrder(uuid.New())
	order.Status = enums.OrderStatusReadyForDelivery
	wf := &stubWorkflow{order: order}

	body := []byte(`{"status":"ready_for_delivery","delivery_agent_id":"` + agentID.String() + `"}`)
	req := authedPathRequest(http.MethodPatch, "/api/v1/orders/"+order.ID.String()+"/status",
		"orderID", order.ID.String(), body, actor, enums.UserRolePharmacist)
	resp := httptest.NewRecorder()

	UpdateOrderStatus(wf, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if wf.input == nil {
		t.Fatal("workflow was not invoked")
	}
	if wf.input.Target != enums.OrderStatusReadyForDelivery {
		t.Fatalf("unexpected target %s", wf.input.Target)
	}
	if wf.input.ActorID != actor || wf.input.ActorRole != enums.UserRolePharmacist {
		t.Fatalf("actor not taken from auth context: %+v", wf.input)
	}
	if wf.input.DeliveryAgentID == nil || *wf.input.DeliveryAgentID != agentID {
		t.Fatalf("delivery agent not forwarded: %+v", wf.input.DeliveryAgentID)
	}
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	wf := &stubWorkflow{}
	orderID := uuid.New()

	body := []byte(`{"status":"teleported"}`)
	req := authedPathRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status",
		"orderID", orderID.String(), body, uuid.New(), enums.UserRoleManager)
	resp := httptest.NewRecorder()

	UpdateOrderStatus(wf, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if wf.input != nil {
		t.Fatal("workflow must not run for invalid status")
	}
}
