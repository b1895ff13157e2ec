package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pharmacare-app/pharmacare-backend/api/responses"
	"github.com/pharmacare-app/pharmacare-backend/api/validators"
	"github.com/pharmacare-app/pharmacare-backend/internal/fulfillment"
	internalorders "github.com/pharmacare-app/pharmacare-backend/internal/orders"
	"github.com/pharmacare-app/pharmacare-backend/internal/stock"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
	"github.com/pharmacare-app/pharmacare-backend/pkg/logger"
)

type processItemRequest struct {
	MedicationID uuid.UUID `json:"medication_id" validate:"required"`
	Quantity     int       `json:"quantity" validate:"required,gt=0"`
}

type processPrescriptionRequest struct {
	Items []processItemRequest `json:"items" validate:"required,min=1,dive"`
}

type rejectPrescriptionRequest struct {
	Reason string `json:"reason" validate:"required,max=512"`
}

// ProcessPrescription reserves stock and creates the fulfillment order for a
// pending prescription in one transaction.
func ProcessPrescription(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		processorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prescriptionID, err := validators.PathUUID(r, "prescriptionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body processPrescriptionRequest
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

		order, err := svc.ProcessPrescription(r.Context(), fulfillment.ProcessInput{
			PrescriptionID: prescriptionID,
			ProcessorID:    processorID,
			Items:          lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, internalorders.FromModel(order))
	}
}

// RejectPrescription settles a pending prescription without creating an order.
func RejectPrescription(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		processorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prescriptionID, err := validators.PathUUID(r, "prescriptionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body rejectPrescriptionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rejected, err := svc.RejectPrescription(r.Context(), fulfillment.RejectInput{
			PrescriptionID: prescriptionID,
			ProcessorID:    processorID,
			Reason:         body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rejected)
	}
}
