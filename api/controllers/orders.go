package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/trustchain-backend/api/responses"
	"github.com/angelmondragon/trustchain-backend/api/validators"
	ordersvc "github.com/angelmondragon/trustchain-backend/internal/orders"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/trustchain-backend/pkg/errors"
	"github.com/angelmondragon/trustchain-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type createOrderRequest struct {
	ProductID       string `json:"product_id" validate:"required,uuid"`
	CustomerName    string `json:"customer_name" validate:"required,max=255"`
	ContactNumber   string `json:"contact_number" validate:"required,max=50"`
	DeliveryAddress string `json:"delivery_address" validate:"required,max=1000"`
}

type updateOrderRequest struct {
	Status                *string `json:"status,omitempty"`
	EstimatedDeliveryDays *int    `json:"estimated_delivery_days,omitempty" validate:"omitempty,min=0"`
	DeliveryNotes         *string `json:"delivery_notes,omitempty" validate:"omitempty,max=2000"`
}

func (r updateOrderRequest) toInput() (ordersvc.UpdateOrderInput, error) {
	input := ordersvc.UpdateOrderInput{
		EstimatedDeliveryDays: r.EstimatedDeliveryDays,
		DeliveryNotes:         r.DeliveryNotes,
	}
	if r.Status != nil {
		status, err := enums.ParseOrderStatus(strings.TrimSpace(*r.Status))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
				WithDetails(map[string]string{"status": "is invalid"})
		}
		input.Status = &status
	}
	return input, nil
}

func CreateOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "order")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), actor, ordersvc.CreateOrderInput{
			ProductID:       uuid.MustParse(payload.ProductID),
			CustomerName:    validators.SanitizeString(payload.CustomerName, 255),
			ContactNumber:   validators.SanitizeString(payload.ContactNumber, 50),
			DeliveryAddress: validators.SanitizeString(payload.DeliveryAddress, 1000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func UpdateOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "order")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Update(r.Context(), actor, orderID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "order")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func MyOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "order")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListMine(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// OrderLedgerHistory returns the audit trail for an order id or a transaction hash.
// An unreachable ledger yields an empty list, not an error.
func OrderLedgerHistory(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "order")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		// the segment may also be a ledger transaction hash
		ref := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if ref == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order reference required"))
			return
		}
		entries, err := svc.History(r.Context(), actor, ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"order_ref": ref,
			"history":   entries,
		})
	}
}
