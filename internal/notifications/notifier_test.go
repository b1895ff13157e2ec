package notifications

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	"github.com/pharmacare-app/pharmacare-backend/pkg/logger"
)

func newTestNotifier(t *testing.T, repo Repository) (*Notifier, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	notifier, err := NewNotifier(repo, logg)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	return notifier, &buf
}

func TestOrderStatusChangedNotifiesAgentToo(t *testing.T) {
	repo := &fakeRepository{}
	notifier, _ := newTestNotifier(t, repo)

	agent := uuid.New()
	notifier.OrderStatusChanged(context.Background(), &models.Order{
		ID:              uuid.New(),
		ClientID:        uuid.New(),
		Status:          enums.OrderStatusReadyForDelivery,
		DeliveryAgentID: &agent,
	})

	if len(repo.created) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(repo.created))
	}
	if repo.created[1].UserID != agent {
		t.Fatalf("expected second notification for the agent")
	}
	if repo.created[0].Type != enums.NotificationTypeOrderStatus {
		t.Fatalf("unexpected type %s", repo.created[0].Type)
	}
}

func TestEmitFailureIsLoggedNotReturned(t *testing.T) {
	repo := &fakeRepository{createErr: errors.New("insert failed")}
	notifier, buf := newTestNotifier(t, repo)

	// must not panic or surface the error
	notifier.OrderCreated(context.Background(), &models.Order{
		ID:       uuid.New(),
		ClientID: uuid.New(),
	})

	if !strings.Contains(buf.String(), "notification emission failed") {
		t.Fatalf("expected failure log, got %q", buf.String())
	}
}

func TestPrescriptionRejectedCarriesReason(t *testing.T) {
	repo := &fakeRepository{}
	notifier, _ := newTestNotifier(t, repo)

	reason := "illegible prescription"
	notifier.PrescriptionRejected(context.Background(), &models.Prescription{
		ID:              uuid.New(),
		ClientID:        uuid.New(),
		Reference:       "RX-ABC123",
		RejectionReason: &reason,
	})

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.created))
	}
	if !strings.Contains(repo.created[0].Body, reason) {
		t.Fatalf("expected reason in body, got %q", repo.created[0].Body)
	}
}
