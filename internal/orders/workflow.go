package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmacare-app/pharmacare-backend/internal/stock"
	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
)

// legalTransitions is the order lifecycle. Terminal states have no entries.
var legalTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusInPreparation: {
		enums.OrderStatusReadyForDelivery,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusReadyForDelivery: {
		enums.OrderStatusCompleted,
		enums.OrderStatusFailedDelivery,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusFailedDelivery: {
		enums.OrderStatusReadyForDelivery,
		enums.OrderStatusCancelled,
	},
}

// IsLegalTransition reports whether the lifecycle allows from → to.
func IsLegalTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range legalTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// CanSetStatus is the single capability table shared by the HTTP layer and
// the workflow. Preparation-side statuses belong to pharmacists, delivery
// outcomes to delivery agents; managers hold both sides.
func CanSetStatus(role enums.UserRole, target enums.OrderStatus) bool {
	switch target {
	case enums.OrderStatusReadyForDelivery, enums.OrderStatusCancelled:
		return role == enums.UserRolePharmacist || role == enums.UserRoleManager
	case enums.OrderStatusCompleted, enums.OrderStatusFailedDelivery:
		return role == enums.UserRoleDeliveryAgent || role == enums.UserRoleManager
	default:
		return false
	}
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type statusNotifier interface {
	OrderStatusChanged(ctx context.Context, order *models.Order)
}

// TransitionInput carries one requested status change.
type TransitionInput struct {
	OrderID            uuid.UUID
	Target             enums.OrderStatus
	ActorID            uuid.UUID
	ActorRole          enums.UserRole
	DeliveryAgentID    *uuid.UUID
	CancellationReason string
}

// Workflow drives order status transitions.
type Workflow interface {
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
}

type workflow struct {
	tx       txRunner
	repo     Repository
	users    userLoader
	notifier statusNotifier
}

// NewWorkflow builds the order status workflow. The notifier may be nil.
func NewWorkflow(tx txRunner, repo Repository, users userLoader, notifier statusNotifier) (Workflow, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	return &workflow{tx: tx, repo: repo, users: users, notifier: notifier}, nil
}

func (w *workflow) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	if input.Target == enums.OrderStatusCancelled && strings.TrimSpace(input.CancellationReason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}

	var result *models.Order
	err := w.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := w.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if !IsLegalTransition(order.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "illegal status transition").
				WithDetails(map[string]any{
					"from": order.Status.String(),
					"to":   input.Target.String(),
				})
		}
		if !CanSetStatus(input.ActorRole, input.Target) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot set this status")
		}

		updates, err := w.buildUpdates(ctx, tx, order, input)
		if err != nil {
			return err
		}

		won, err := repo.UpdateStatusGuarded(ctx, order.ID, order.Status, input.Target, updates)
		if err != nil {
			return err
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}

		result, err = repo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if w.notifier != nil {
		w.notifier.OrderStatusChanged(ctx, result)
	}
	return result, nil
}

func (w *workflow) buildUpdates(ctx context.Context, tx *gorm.DB, order *models.Order, input TransitionInput) (map[string]any, error) {
	now := time.Now().UTC()
	updates := map[string]any{}

	switch input.Target {
	case enums.OrderStatusReadyForDelivery:
		updates["ready_at"] = now
		if input.DeliveryAgentID != nil {
			if err := w.validateDeliveryAgent(ctx, *input.DeliveryAgentID); err != nil {
				return nil, err
			}
			updates["delivery_agent_id"] = *input.DeliveryAgentID
		}

	case enums.OrderStatusCompleted:
		updates["completed_at"] = now

	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = now
		updates["cancellation_reason"] = strings.TrimSpace(input.CancellationReason)

		// Release the reservation. The legality check above makes this
		// single-shot: a second cancel never reaches this point.
		lines := make([]stock.Line, 0, len(order.Items))
		for _, item := range order.Items {
			lines = append(lines, stock.Line{MedicationID: item.MedicationID, Quantity: item.Quantity})
		}
		if len(lines) > 0 {
			if err := stock.Increment(ctx, tx, lines); err != nil {
				return nil, err
			}
		}
	}

	return updates, nil
}

func (w *workflow) validateDeliveryAgent(ctx context.Context, agentID uuid.UUID) error {
	agent, err := w.users.FindByID(ctx, agentID)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery agent not found").
			WithDetails(map[string]any{"delivery_agent_id": agentID})
	}
	if agent.Role != enums.UserRoleDeliveryAgent || agent.Status != enums.UserStatusActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "user cannot be assigned deliveries").
			WithDetails(map[string]any{"delivery_agent_id": agentID})
	}
	return nil
}
