package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error { return fn(tx) })
}

type gormUserLoader struct {
	db *gorm.DB
}

func (l gormUserLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := l.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type captureNotifier struct {
	orders []*models.Order
}

func (c *captureNotifier) OrderStatusChanged(ctx context.Context, order *models.Order) {
	c.orders = append(c.orders, order)
}

func newTestWorkflow(t *testing.T) (Workflow, *gorm.DB, *captureNotifier) {
	t.Helper()
	db := newTestDB(t)
	notifier := &captureNotifier{}
	wf, err := NewWorkflow(gormTxRunner{db: db}, NewRepository(db), gormUserLoader{db: db}, notifier)
	require.NoError(t, err)
	return wf, db, notifier
}

func seedOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus, items []models.OrderItem) *models.Order {
	t.Helper()
	order := models.Order{
		ClientID:       uuid.New(),
		PrescriptionID: uuid.New(),
		TotalAmount:    decimal.RequireFromString("10.00"),
		Status:         status,
		Items:          items,
	}
	require.NoError(t, db.Create(&order).Error)
	return &order
}

func seedAgent(t *testing.T, db *gorm.DB, role enums.UserRole, status enums.UserStatus) uuid.UUID {
	t.Helper()
	user := models.User{
		Name:         "Delivery Agent",
		Email:        uuid.NewString() + "@pharmacare.test",
		PasswordHash: "x",
		Role:         role,
		Status:       status,
	}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func TestTransitionHappyPath(t *testing.T) {
	t.Parallel()

	wf, db, notifier := newTestWorkflow(t)
	ctx := context.Background()
	order := seedOrder(t, db, enums.OrderStatusInPreparation, nil)
	agent := seedAgent(t, db, enums.UserRoleDeliveryAgent, enums.UserStatusActive)

	ready, err := wf.Transition(ctx, TransitionInput{
		OrderID:         order.ID,
		Target:          enums.OrderStatusReadyForDelivery,
		ActorID:         uuid.New(),
		ActorRole:       enums.UserRolePharmacist,
		DeliveryAgentID: &agent,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusReadyForDelivery, ready.Status)
	require.NotNil(t, ready.ReadyAt)
	require.NotNil(t, ready.DeliveryAgentID)
	require.Equal(t, agent, *ready.DeliveryAgentID)

	done, err := wf.Transition(ctx, TransitionInput{
		OrderID:   order.ID,
		Target:    enums.OrderStatusCompleted,
		ActorID:   agent,
		ActorRole: enums.UserRoleDeliveryAgent,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	require.Len(t, notifier.orders, 2)
}

func TestTransitionIllegal(t *testing.T) {
	t.Parallel()

	wf, db, _ := newTestWorkflow(t)
	ctx := context.Background()
	order := seedOrder(t, db, enums.OrderStatusInPreparation, nil)

	_, err := wf.Transition(ctx, TransitionInput{
		OrderID:   order.ID,
		Target:    enums.OrderStatusCompleted,
		ActorRole: enums.UserRoleManager,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "got %v", err)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestTransitionForbiddenRole(t *testing.T) {
	t.Parallel()

	wf, db, _ := newTestWorkflow(t)
	ctx := context.Background()
	order := seedOrder(t, db, enums.OrderStatusInPreparation, nil)

	_, err := wf.Transition(ctx, TransitionInput{
		OrderID:   order.ID,
		Target:    enums.OrderStatusReadyForDelivery,
		ActorRole: enums.UserRoleDeliveryAgent,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "got %v", err)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	_, err = wf.Transition(ctx, TransitionInput{
		OrderID:   order.ID,
		Target:    enums.OrderStatusReadyForDelivery,
		ActorRole: enums.UserRoleClient,
	})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed, "got %v", err)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestTransitionInvalidAssignee(t *testing.T) {
	t.Parallel()

	wf, db, _ := newTestWorkflow(t)
	ctx := context.Background()
	order := seedOrder(t, db, enums.OrderStatusInPreparation, nil)

	salesperson := seedAgent(t, db, enums.UserRoleSalesperson, enums.UserStatusActive)
	_, err := wf.Transition(ctx, TransitionInput{
		OrderID:         order.ID,
		Target:          enums.OrderStatusReadyForDelivery,
		ActorRole:       enums.UserRolePharmacist,
		DeliveryAgentID: &salesperson,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "got %v", err)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	disabled := seedAgent(t, db, enums.UserRoleDeliveryAgent, enums.UserStatusDisabled)
	_, err = wf.Transition(ctx, TransitionInput{
		OrderID:         order.ID,
		Target:          enums.OrderStatusReadyForDelivery,
		ActorRole:       enums.UserRolePharmacist,
		DeliveryAgentID: &disabled,
	})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed, "got %v", err)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCancelRestoresStockExactlyOnce(t *testing.T) {
	t.Parallel()

	wf, db, _ := newTestWorkflow(t)
	ctx := context.Background()

	med := models.Medication{
		Name:      "Amoxicillin 500mg",
		UnitPrice: decimal.RequireFromString("4.50"),
		Quantity:  2, // 3 units already reserved by the order
		Status:    enums.MedicationStatusActive,
	}
	require.NoError(t, db.Create(&med).Error)

	order := seedOrder(t, db, enums.OrderStatusInPreparation, []models.OrderItem{
		{MedicationID: med.ID, Quantity: 3, UnitPrice: med.UnitPrice},
	})

	cancelled, err := wf.Transition(ctx, TransitionInput{
		OrderID:            order.ID,
		Target:             enums.OrderStatusCancelled,
		ActorRole:          enums.UserRoleManager,
		CancellationReason: "client withdrew the prescription",
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	require.NotNil(t, cancelled.CancellationReason)

	var stored models.Medication
	require.NoError(t, db.First(&stored, "id = ?", med.ID).Error)
	require.Equal(t, 5, stored.Quantity)

	// terminal state: the second cancel is rejected before touching stock
	_, err = wf.Transition(ctx, TransitionInput{
		OrderID:            order.ID,
		Target:             enums.OrderStatusCancelled,
		ActorRole:          enums.UserRoleManager,
		CancellationReason: "double cancel",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "got %v", err)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	require.NoError(t, db.First(&stored, "id = ?", med.ID).Error)
	require.Equal(t, 5, stored.Quantity)
}

func TestCancelRequiresReason(t *testing.T) {
	t.Parallel()

	wf, db, _ := newTestWorkflow(t)
	ctx := context.Background()
	order := seedOrder(t, db, enums.OrderStatusInPreparation, nil)

	_, err := wf.Transition(ctx, TransitionInput{
		OrderID:   order.ID,
		Target:    enums.OrderStatusCancelled,
		ActorRole: enums.UserRoleManager,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "got %v", err)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestFailedDeliveryCanRetry(t *testing.T) {
	t.Parallel()

	wf, db, _ := newTestWorkflow(t)
	ctx := context.Background()
	order := seedOrder(t, db, enums.OrderStatusReadyForDelivery, nil)

	failed, err := wf.Transition(ctx, TransitionInput{
		OrderID:   order.ID,
		Target:    enums.OrderStatusFailedDelivery,
		ActorRole: enums.UserRoleDeliveryAgent,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusFailedDelivery, failed.Status)

	retried, err := wf.Transition(ctx, TransitionInput{
		OrderID:   order.ID,
		Target:    enums.OrderStatusReadyForDelivery,
		ActorRole: enums.UserRolePharmacist,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusReadyForDelivery, retried.Status)
}

func TestCapabilityTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		role   enums.UserRole
		target enums.OrderStatus
		want   bool
	}{
		{enums.UserRolePharmacist, enums.OrderStatusReadyForDelivery, true},
		{enums.UserRolePharmacist, enums.OrderStatusCancelled, true},
		{enums.UserRolePharmacist, enums.OrderStatusCompleted, false},
		{enums.UserRoleDeliveryAgent, enums.OrderStatusCompleted, true},
		{enums.UserRoleDeliveryAgent, enums.OrderStatusFailedDelivery, true},
		{enums.UserRoleDeliveryAgent, enums.OrderStatusReadyForDelivery, false},
		{enums.UserRoleManager, enums.OrderStatusReadyForDelivery, true},
		{enums.UserRoleManager, enums.OrderStatusCompleted, true},
		{enums.UserRoleManager, enums.OrderStatusCancelled, true},
		{enums.UserRoleClient, enums.OrderStatusCancelled, false},
		{enums.UserRoleSalesperson, enums.OrderStatusCompleted, false},
		{enums.UserRoleManager, enums.OrderStatusInPreparation, false},
	}
	for _, tc := range cases {
		if got := CanSetStatus(tc.role, tc.target); got != tc.want {
			t.Errorf("CanSetStatus(%s, %s) = %v, want %v", tc.role, tc.target, got, tc.want)
		}
	}
}
