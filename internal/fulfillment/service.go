package fulfillment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmacare-app/pharmacare-backend/internal/orders"
	"github.com/pharmacare-app/pharmacare-backend/internal/prescriptions"
	"github.com/pharmacare-app/pharmacare-backend/internal/stock"
	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
	"github.com/pharmacare-app/pharmacare-backend/pkg/metrics"
)

const (
	opProcess = "process"
	opReject  = "reject"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledger interface {
	LockAndDecrement(ctx context.Context, tx *gorm.DB, lines []stock.Line) ([]stock.ReservedItem, error)
}

type stockLedger struct{}

func (stockLedger) LockAndDecrement(ctx context.Context, tx *gorm.DB, lines []stock.Line) ([]stock.ReservedItem, error) {
	return stock.LockAndDecrement(ctx, tx, lines)
}

type notifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
	PrescriptionRejected(ctx context.Context, prescription *models.Prescription)
}

// Service converts pending prescriptions into orders, or rejects them.
type Service interface {
	ProcessPrescription(ctx context.Context, input ProcessInput) (*models.Order, error)
	RejectPrescription(ctx context.Context, input RejectInput) (*models.Prescription, error)
}

// ProcessInput is one staff request to turn a prescription into an order.
type ProcessInput struct {
	PrescriptionID uuid.UUID
	ProcessorID    uuid.UUID
	Items          []stock.Line
}

// RejectInput is one staff request to reject a pending prescription.
type RejectInput struct {
	PrescriptionID uuid.UUID
	ProcessorID    uuid.UUID
	Reason         string
}

type service struct {
	tx            txRunner
	prescriptions prescriptions.Repository
	orders        orders.Repository
	ledger        ledger
	notifier      notifier
	metrics       *metrics.FulfillmentMetrics
}

// NewService builds the fulfillment orchestrator. The notifier and metrics
// may be nil.
func NewService(
	tx txRunner,
	prescriptionsRepo prescriptions.Repository,
	ordersRepo orders.Repository,
	notif notifier,
	m *metrics.FulfillmentMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if prescriptionsRepo == nil {
		return nil, fmt.Errorf("prescriptions repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{
		tx:            tx,
		prescriptions: prescriptionsRepo,
		orders:        ordersRepo,
		ledger:        stockLedger{},
		notifier:      notif,
		metrics:       m,
	}, nil
}

// ProcessPrescription runs the entire conversion in one transaction: assert
// the prescription is still pending, reserve stock, build the order with
// frozen prices, flip the prescription to processed. Either everything
// commits or nothing does. The post-commit notification is best-effort.
func (s *service) ProcessPrescription(ctx context.Context, input ProcessInput) (*models.Order, error) {
	start := time.Now()
	if err := validateProcessInput(input); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rxRepo := s.prescriptions.WithTx(tx)

		rx, err := rxRepo.FindByID(ctx, input.PrescriptionID)
		if err != nil {
			return err
		}
		if rx.Status != enums.PrescriptionStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "prescription already settled").
				WithDetails(map[string]any{"status": rx.Status.String()})
		}

		reserved, err := s.ledger.LockAndDecrement(ctx, tx, input.Items)
		if err != nil {
			return err
		}

		order, err = orders.Build(ctx, tx, rx.ID, rx.ClientID, reserved)
		if err != nil {
			return err
		}

		return rxRepo.MarkProcessed(ctx, rx.ID, input.ProcessorID)
	})
	s.record(opProcess, start, err)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.OrderCreated(ctx, order)
	}
	return order, nil
}

// RejectPrescription settles a pending prescription with a mandatory reason.
func (s *service) RejectPrescription(ctx context.Context, input RejectInput) (*models.Prescription, error) {
	start := time.Now()
	if input.PrescriptionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prescription id required")
	}
	if input.ProcessorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "processor id required")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}

	var rx *models.Prescription
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rxRepo := s.prescriptions.WithTx(tx)
		if err := rxRepo.MarkRejected(ctx, input.PrescriptionID, input.ProcessorID, strings.TrimSpace(input.Reason)); err != nil {
			return err
		}
		var err error
		rx, err = rxRepo.FindByID(ctx, input.PrescriptionID)
		return err
	})
	s.record(opReject, start, err)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.PrescriptionRejected(ctx, rx)
	}
	return rx, nil
}

func (s *service) record(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDuration(operation, time.Since(start))
	if err == nil {
		s.metrics.IncSuccess(operation)
		return
	}
	s.metrics.IncFailure(operation)
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
		s.metrics.IncShortfall()
	}
}

func validateProcessInput(input ProcessInput) error {
	if input.PrescriptionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "prescription id required")
	}
	if input.ProcessorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "processor id required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	seen := make(map[uuid.UUID]struct{}, len(input.Items))
	for _, line := range input.Items {
		if line.MedicationID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "medication id required")
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if _, dup := seen[line.MedicationID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate medication line")
		}
		seen[line.MedicationID] = struct{}{}
	}
	return nil
}
