package prescriptions

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
	"github.com/pharmacare-app/pharmacare-backend/pkg/pagination"
	"gorm.io/gorm"
)

type stubRepo struct {
	created *models.Prescription
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, p *models.Prescription) (*models.Prescription, error) {
	s.created = p
	return p, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Prescription, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "prescription not found")
}

func (s *stubRepo) ListByClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]models.Prescription, string, error) {
	return nil, "", nil
}

func (s *stubRepo) ListPending(ctx context.Context, params pagination.Params) ([]models.Prescription, string, error) {
	return nil, "", nil
}

func (s *stubRepo) MarkProcessed(ctx context.Context, id, processorID uuid.UUID) error { return nil }

func (s *stubRepo) MarkRejected(ctx context.Context, id, processorID uuid.UUID, reason string) error {
	return nil
}

func TestSubmitGeneratesReference(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	client := uuid.New()
	created, err := svc.Submit(context.Background(), SubmitInput{
		ClientID: client,
		ImageRef: "  uploads/rx-42.jpg  ",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.HasPrefix(created.Reference, "RX-") {
		t.Fatalf("expected RX- reference, got %q", created.Reference)
	}
	if len(created.Reference) != len("RX-")+10 {
		t.Fatalf("unexpected reference length: %q", created.Reference)
	}
	if created.ImageRef != "uploads/rx-42.jpg" {
		t.Fatalf("expected trimmed image ref, got %q", created.ImageRef)
	}
	if created.ClientID != client {
		t.Fatalf("client id not carried through")
	}
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Submit(context.Background(), SubmitInput{ImageRef: "uploads/rx.jpg"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing client, got %v", err)
	}

	_, err = svc.Submit(context.Background(), SubmitInput{ClientID: uuid.New(), ImageRef: "   "})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing image, got %v", err)
	}
}

func TestReferencesAreUniqueEnough(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		ref, err := newReference()
		if err != nil {
			t.Fatalf("new reference: %v", err)
		}
		if _, dup := seen[ref]; dup {
			t.Fatalf("duplicate reference %q", ref)
		}
		seen[ref] = struct{}{}
	}
}
