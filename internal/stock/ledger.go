package stock

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
	"gorm.io/gorm"

	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
)

// Line is one medication/quantity pair requested for reservation.
type Line struct {
	MedicationID uuid.UUID
	Quantity     int
}

// ReservedItem is a reserved line with the unit price frozen at lock time.
type ReservedItem struct {
	MedicationID uuid.UUID
	Name         string
	Quantity     int
	UnitPrice    decimal.Decimal
}

// Shortfall describes one medication that could not cover the requested quantity.
type Shortfall struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Name         string    `json:"name"`
	Requested    int       `json:"requested"`
	Available    int       `json:"available"`
}

// CheckAvailability reports shortfalls without taking locks. The answer is
// advisory: stock can change before a reservation runs.
func CheckAvailability(ctx context.Context, db *gorm.DB, lines []Line) ([]Shortfall, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		ids[i] = line.MedicationID
	}

	var meds []models.Medication
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&meds).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading medications")
	}
	byID := make(map[uuid.UUID]models.Medication, len(meds))
	for _, med := range meds {
		byID[med.ID] = med
	}

	var shortfalls []Shortfall
	for _, line := range lines {
		med, ok := byID[line.MedicationID]
		if !ok || med.Status != enums.MedicationStatusActive {
			shortfalls = append(shortfalls, Shortfall{
				MedicationID: line.MedicationID,
				Name:         med.Name,
				Requested:    line.Quantity,
				Available:    0,
			})
			continue
		}
		if med.Quantity < line.Quantity {
			shortfalls = append(shortfalls, Shortfall{
				MedicationID: med.ID,
				Name:         med.Name,
				Requested:    line.Quantity,
				Available:    med.Quantity,
			})
		}
	}
	return shortfalls, nil
}

// LockAndDecrement reserves every line or none. It must run inside an active
// transaction: rows are locked in ascending medication ID order (FOR UPDATE on
// Postgres; SQLite's single writer serializes the transaction), availability is
// re-checked under the lock, and the decrement itself is guarded so the
// quantity column can never go negative. On any shortfall the whole batch
// fails with a conflict error carrying every shortfall, including ones the
// earlier lines already cleared.
func LockAndDecrement(ctx context.Context, tx *gorm.DB, lines []Line) ([]ReservedItem, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction handle required")
	}
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	ordered := make([]Line, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].MedicationID.String() < ordered[j].MedicationID.String()
	})

	reserved := make([]ReservedItem, 0, len(ordered))
	var shortfalls []Shortfall
	for _, line := range ordered {
		med, err := lockMedication(ctx, tx, line.MedicationID)
		if err != nil {
			return nil, err
		}
		if med == nil || med.Status != enums.MedicationStatusActive {
			name := ""
			if med != nil {
				name = med.Name
			}
			shortfalls = append(shortfalls, Shortfall{
				MedicationID: line.MedicationID,
				Name:         name,
				Requested:    line.Quantity,
				Available:    0,
			})
			continue
		}
		if med.Quantity < line.Quantity {
			shortfalls = append(shortfalls, Shortfall{
				MedicationID: med.ID,
				Name:         med.Name,
				Requested:    line.Quantity,
				Available:    med.Quantity,
			})
			continue
		}

		res := tx.WithContext(ctx).Model(&models.Medication{}).
			Where("id = ? AND quantity >= ?", med.ID, line.Quantity).
			Update("quantity", gorm.Expr("quantity - ?", line.Quantity))
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "decrementing stock")
		}
		if res.RowsAffected == 0 {
			// Lost a race the lock should have prevented; treat as shortfall.
			shortfalls = append(shortfalls, Shortfall{
				MedicationID: med.ID,
				Name:         med.Name,
				Requested:    line.Quantity,
				Available:    med.Quantity,
			})
			continue
		}

		reserved = append(reserved, ReservedItem{
			MedicationID: med.ID,
			Name:         med.Name,
			Quantity:     line.Quantity,
			UnitPrice:    med.UnitPrice,
		})
	}

	if len(shortfalls) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
			WithDetails(map[string]any{"shortfalls": shortfalls})
	}
	return reserved, nil
}

// Increment restores quantities, typically when a cancelled order releases its
// reservation. No ceiling applies.
func Increment(ctx context.Context, tx *gorm.DB, lines []Line) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction handle required")
	}
	if err := validateLines(lines); err != nil {
		return err
	}

	ordered := make([]Line, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].MedicationID.String() < ordered[j].MedicationID.String()
	})

	for _, line := range ordered {
		res := tx.WithContext(ctx).Model(&models.Medication{}).
			Where("id = ?", line.MedicationID).
			Update("quantity", gorm.Expr("quantity + ?", line.Quantity))
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "restoring stock")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "medication not found")
		}
	}
	return nil
}

func lockMedication(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Medication, error) {
	query := tx.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var med models.Medication
	if err := query.First(&med, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking medication")
	}
	return &med, nil
}

func validateLines(lines []Line) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
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
