package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pharmacare-app/pharmacare-backend/api/responses"
	"github.com/pharmacare-app/pharmacare-backend/api/validators"
	internalorders "github.com/pharmacare-app/pharmacare-backend/internal/orders"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
	"github.com/pharmacare-app/pharmacare-backend/pkg/logger"
)

type orderPage struct {
	Items  []internalorders.OrderDTO `json:"items"`
	Cursor string                    `json:"cursor"`
}

type updateOrderStatusRequest struct {
	Status             string  `json:"status" validate:"required"`
	DeliveryAgentID    *string `json:"delivery_agent_id,omitempty"`
	CancellationReason string  `json:"cancellation_reason,omitempty"`
}

// ListOrders returns the staff-facing order queue, optionally filtered by status.
func ListOrders(repo internalorders.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders repository unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.OrderStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		rows, cursor, err := repo.List(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderPage{Items: internalorders.FromModels(rows), Cursor: cursor})
	}
}

// MyOrders returns the authenticated client's orders.
func MyOrders(repo internalorders.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders repository unavailable"))
			return
		}

		clientID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, cursor, err := repo.ListByClient(r.Context(), clientID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderPage{Items: internalorders.FromModels(rows), Cursor: cursor})
	}
}

// OrderDetail returns one order. Clients only see their own orders; staff see
// any order.
func OrderDetail(repo internalorders.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders repository unavailable"))
			return
		}

		orderID, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := repo.FindByID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !actorRole(r).IsStaff() {
			requesterID, err := actorID(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if order.ClientID != requesterID {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
				return
			}
		}

		responses.WriteSuccess(w, internalorders.FromModel(order))
	}
}

// UpdateOrderStatus drives an order through the delivery workflow.
func UpdateOrderStatus(wf internalorders.Workflow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if wf == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order workflow unavailable"))
			return
		}

		requesterID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		input := internalorders.TransitionInput{
			OrderID:            orderID,
			Target:             target,
			ActorID:            requesterID,
			ActorRole:          actorRole(r),
			CancellationReason: body.CancellationReason,
		}
		if body.DeliveryAgentID != nil {
			agentID, err := uuid.Parse(strings.TrimSpace(*body.DeliveryAgentID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery agent id"))
				return
			}
			input.DeliveryAgentID = &agentID
		}

		order, err := wf.Transition(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.FromModel(order))
	}
}
