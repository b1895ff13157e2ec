package prescriptions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
	"github.com/pharmacare-app/pharmacare-backend/pkg/pagination"
)

// Repository exposes prescription persistence and the pending → terminal
// state flips.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, prescription *models.Prescription) (*models.Prescription, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Prescription, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]models.Prescription, string, error)
	ListPending(ctx context.Context, params pagination.Params) ([]models.Prescription, string, error)
	MarkProcessed(ctx context.Context, id, processorID uuid.UUID) error
	MarkRejected(ctx context.Context, id, processorID uuid.UUID, reason string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a prescriptions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, prescription *models.Prescription) (*models.Prescription, error) {
	if prescription.Status == "" {
		prescription.Status = enums.PrescriptionStatusPending
	}
	if err := r.db.WithContext(ctx).Create(prescription).Error; err != nil {
		return nil, err
	}
	return prescription, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Prescription, error) {
	var prescription models.Prescription
	if err := r.db.WithContext(ctx).First(&prescription, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "prescription not found")
		}
		return nil, err
	}
	return &prescription, nil
}

func (r *repository) ListByClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]models.Prescription, string, error) {
	query := r.db.WithContext(ctx).Where("client_id = ?", clientID)
	return r.list(query, params)
}

func (r *repository) ListPending(ctx context.Context, params pagination.Params) ([]models.Prescription, string, error) {
	query := r.db.WithContext(ctx).Where("status = ?", enums.PrescriptionStatusPending)
	return r.list(query, params)
}

func (r *repository) list(query *gorm.DB, params pagination.Params) ([]models.Prescription, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Prescription
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// MarkProcessed flips a pending prescription to processed. The guarded UPDATE
// is the race arbiter: a zero row count means another request already settled
// the prescription.
func (r *repository) MarkProcessed(ctx context.Context, id, processorID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Prescription{}).
		Where("id = ? AND status = ?", id, enums.PrescriptionStatusPending).
		Updates(map[string]any{
			"status":          enums.PrescriptionStatusProcessed,
			"processed_by_id": processorID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "prescription already settled")
	}
	return nil
}

// MarkRejected flips a pending prescription to rejected with a mandatory reason.
func (r *repository) MarkRejected(ctx context.Context, id, processorID uuid.UUID, reason string) error {
	if reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}
	res := r.db.WithContext(ctx).Model(&models.Prescription{}).
		Where("id = ? AND status = ?", id, enums.PrescriptionStatusPending).
		Updates(map[string]any{
			"status":           enums.PrescriptionStatusRejected,
			"processed_by_id":  processorID,
			"rejection_reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "prescription already settled")
	}
	return nil
}
