package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	"github.com/pharmacare-app/pharmacare-backend/pkg/logger"
)

// Notifier emits in-app notifications after a business transaction has
// committed. Emission is best-effort: failures are logged and never surfaced
// to the caller, so a notification outage cannot fail an order.
type Notifier struct {
	repo Repository
	logg *logger.Logger
}

// NewNotifier builds the post-commit notification emitter.
func NewNotifier(repo Repository, logg *logger.Logger) (*Notifier, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Notifier{repo: repo, logg: logg}, nil
}

// OrderCreated notifies the client that their prescription became an order.
func (n *Notifier) OrderCreated(ctx context.Context, order *models.Order) {
	if order == nil {
		return
	}
	n.emit(ctx, []models.Notification{{
		UserID: order.ClientID,
		Type:   enums.NotificationTypeOrderCreated,
		Title:  "Order created",
		Body:   fmt.Sprintf("Your prescription was processed into order %s.", order.ID),
	}})
}

// OrderStatusChanged notifies the client, and the delivery agent when one is
// assigned, about a status change.
func (n *Notifier) OrderStatusChanged(ctx context.Context, order *models.Order) {
	if order == nil {
		return
	}
	batch := []models.Notification{{
		UserID: order.ClientID,
		Type:   enums.NotificationTypeOrderStatus,
		Title:  "Order update",
		Body:   fmt.Sprintf("Order %s is now %s.", order.ID, order.Status),
	}}
	if order.DeliveryAgentID != nil && *order.DeliveryAgentID != uuid.Nil {
		batch = append(batch, models.Notification{
			UserID: *order.DeliveryAgentID,
			Type:   enums.NotificationTypeOrderStatus,
			Title:  "Delivery update",
			Body:   fmt.Sprintf("Order %s is now %s.", order.ID, order.Status),
		})
	}
	n.emit(ctx, batch)
}

// PrescriptionRejected notifies the client with the pharmacist's reason.
func (n *Notifier) PrescriptionRejected(ctx context.Context, prescription *models.Prescription) {
	if prescription == nil {
		return
	}
	reason := ""
	if prescription.RejectionReason != nil {
		reason = *prescription.RejectionReason
	}
	n.emit(ctx, []models.Notification{{
		UserID: prescription.ClientID,
		Type:   enums.NotificationTypePrescriptionRejected,
		Title:  "Prescription rejected",
		Body:   fmt.Sprintf("Prescription %s was rejected: %s", prescription.Reference, reason),
	}})
}

func (n *Notifier) emit(ctx context.Context, batch []models.Notification) {
	var errs error
	for i := range batch {
		if err := n.repo.Create(ctx, &batch[i]); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		n.logg.Error(ctx, "notification emission failed", errs)
	}
}
