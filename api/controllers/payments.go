package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/trustchain-backend/api/responses"
	"github.com/angelmondragon/trustchain-backend/api/validators"
	paymentsvc "github.com/angelmondragon/trustchain-backend/internal/payments"
	"github.com/angelmondragon/trustchain-backend/pkg/logger"
)

type createPaymentRequest struct {
	OrderID string          `json:"order_id" validate:"required,uuid"`
	Amount  decimal.Decimal `json:"amount" validate:"gt=0"`
}

// signPaymentRequest toggles the caller's signature slot. The slot comes from the token role.
type signPaymentRequest struct {
	Signed *bool `json:"signed" validate:"required"`
}

func CreatePayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "payment")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		var payload createPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Create(r.Context(), actor, paymentsvc.CreatePaymentInput{
			OrderID: uuid.MustParse(payload.OrderID),
			Amount:  payload.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

func GetPayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "payment")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		paymentID, err := validators.ParseURLUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payment, err := svc.Get(r.Context(), actor, paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

func SignPayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "payment")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		paymentID, err := validators.ParseURLUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload signPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Sign(r.Context(), actor, paymentID, *payload.Signed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}
