package prescriptions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
	"github.com/pharmacare-app/pharmacare-backend/pkg/pagination"
)

const referencePrefix = "RX-"

// Service covers prescription intake and read paths. Settling a prescription
// belongs to the fulfillment orchestrator, not here.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Prescription, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Prescription, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]models.Prescription, string, error)
	ListPending(ctx context.Context, params pagination.Params) ([]models.Prescription, string, error)
}

// SubmitInput carries a client's prescription submission.
type SubmitInput struct {
	ClientID uuid.UUID
	ImageRef string
}

type service struct {
	repo Repository
}

// NewService builds the prescriptions service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("prescriptions repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Prescription, error) {
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	if strings.TrimSpace(input.ImageRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image reference required")
	}

	reference, err := newReference()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating reference")
	}

	prescription := &models.Prescription{
		ClientID:  input.ClientID,
		Reference: reference,
		ImageRef:  strings.TrimSpace(input.ImageRef),
		Status:    enums.PrescriptionStatusPending,
	}
	return s.repo.Create(ctx, prescription)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Prescription, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prescription id required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListByClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]models.Prescription, string, error) {
	if clientID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	return s.repo.ListByClient(ctx, clientID, params)
}

func (s *service) ListPending(ctx context.Context, params pagination.Params) ([]models.Prescription, string, error) {
	return s.repo.ListPending(ctx, params)
}

// newReference builds the human-facing code printed on pharmacy slips.
func newReference() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return referencePrefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}
