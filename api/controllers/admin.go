package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/trustchain-backend/api/responses"
	"github.com/angelmondragon/trustchain-backend/api/validators"
	ordersvc "github.com/angelmondragon/trustchain-backend/internal/orders"
	"github.com/angelmondragon/trustchain-backend/internal/penalties"
	productsvc "github.com/angelmondragon/trustchain-backend/internal/products"
	"github.com/angelmondragon/trustchain-backend/pkg/logger"
)

// PenaltyReader reads a supplier's penalty standing.
type PenaltyReader interface {
	Standing(ctx context.Context, supplierID uuid.UUID) (penalties.Standing, error)
}

// AdminFlaggedProducts pages through the counterfeit review queue, newest first.
func AdminFlaggedProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListFlagged(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminSupplierPenalties(svc PenaltyReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "penalty")
			return
		}
		supplierID, err := validators.ParseURLUUID(r, "supplierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		standing, err := svc.Standing(r.Context(), supplierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, standing)
	}
}

func AdminDeliveredOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		page, err := svc.ListDelivered(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
