package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmacare-app/pharmacare-backend/api/responses"
	"github.com/pharmacare-app/pharmacare-backend/api/validators"
	"github.com/pharmacare-app/pharmacare-backend/internal/medications"
	"github.com/pharmacare-app/pharmacare-backend/internal/stock"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
	"github.com/pharmacare-app/pharmacare-backend/pkg/logger"
)

type createMedicationRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=200"`
	UnitPrice    string `json:"unit_price" validate:"required"`
	Quantity     int    `json:"quantity" validate:"min=0"`
	MinThreshold int    `json:"min_threshold" validate:"min=0"`
}

type updateMedicationRequest struct {
	Name         *string `json:"name,omitempty"`
	UnitPrice    *string `json:"unit_price,omitempty"`
	Quantity     *int    `json:"quantity,omitempty"`
	MinThreshold *int    `json:"min_threshold,omitempty"`
}

type availabilityItemRequest struct {
	MedicationID uuid.UUID `json:"medication_id" validate:"required"`
	Quantity     int       `json:"quantity" validate:"required,gt=0"`
}

type availabilityRequest struct {
	Items []availabilityItemRequest `json:"items" validate:"required,min=1,dive"`
}

type availabilityResponse struct {
	Available  bool              `json:"available"`
	Shortfalls []stock.Shortfall `json:"shortfalls"`
}

type medicationPage struct {
	Items  any    `json:"items"`
	Cursor string `json:"cursor"`
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unit price must be a decimal string")
	}
	return price, nil
}

// CreateMedication adds a catalog entry.
func CreateMedication(svc medications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "medications service unavailable"))
			return
		}

		var body createMedicationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := parsePrice(body.UnitPrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), medications.CreateInput{
			Name:         body.Name,
			UnitPrice:    price,
			Quantity:     body.Quantity,
			MinThreshold: body.MinThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// UpdateMedication applies partial catalog updates.
func UpdateMedication(svc medications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "medications service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "medicationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateMedicationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := medications.UpdateInput{
			Name:         body.Name,
			Quantity:     body.Quantity,
			MinThreshold: body.MinThreshold,
		}
		if body.UnitPrice != nil {
			price, err := parsePrice(*body.UnitPrice)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.UnitPrice = &price
		}

		updated, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// DisableMedication retires a catalog entry without deleting its history.
func DisableMedication(svc medications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "medications service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "medicationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		disabled, err := svc.Disable(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, disabled)
	}
}

// GetMedication returns one catalog entry.
func GetMedication(svc medications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "medications service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "medicationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		medication, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, medication)
	}
}

// ListMedications returns the catalog with optional name search.
func ListMedications(svc medications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "medications service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		activeOnly, err := validators.ParseQueryBool(r, "activeOnly", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := medications.ListFilter{
			Query:      validators.SanitizeString(r.URL.Query().Get("q"), 200),
			ActiveOnly: activeOnly,
		}

		items, cursor, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, medicationPage{Items: items, Cursor: cursor})
	}
}

// LowStockMedications lists active entries at or below their reorder threshold.
func LowStockMedications(svc medications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "medications service unavailable"))
			return
		}

		items, err := svc.ListLowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// CheckAvailability gives an advisory answer; only processing locks stock.
func CheckAvailability(svc medications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "medications service unavailable"))
			return
		}

		var body availabilityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]stock.Line, 0, len(body.Items))
		for _, item := range body.Items {
			lines = append(lines, stock.Line{
				MedicationID: item.MedicationID,
				Quantity:     item.Quantity,
			})
		}

		shortfalls, err := svc.CheckAvailability(r.Context(), lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if shortfalls == nil {
			shortfalls = []stock.Shortfall{}
		}
		responses.WriteSuccess(w, availabilityResponse{
			Available:  len(shortfalls) == 0,
			Shortfalls: shortfalls,
		})
	}
}
