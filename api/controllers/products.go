package controllers

import (
	"net/http"

	"github.com/angelmondragon/trustchain-backend/api/responses"
	"github.com/angelmondragon/trustchain-backend/api/validators"
	"github.com/angelmondragon/trustchain-backend/internal/admission"
	productsvc "github.com/angelmondragon/trustchain-backend/internal/products"
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/trustchain-backend/pkg/errors"
	"github.com/angelmondragon/trustchain-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type submitProductRequest struct {
	ProductName string          `json:"product_name" validate:"required,max=255"`
	Category    string          `json:"category" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	Ingredients string          `json:"ingredients" validate:"max=4000"`
}

// SubmitProduct runs a supplier submission through the admission gate.
func SubmitProduct(svc admission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "admission")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		var payload submitProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), actor.UserID, admission.SubmitInput{
			Name:        validators.SanitizeString(payload.ProductName, 255),
			Category:    validators.SanitizeString(payload.Category, 100),
			Price:       payload.Price,
			Ingredients: validators.SanitizeString(payload.Ingredients, 4000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ListProducts lists the catalogue. `mine=true` narrows a supplier to their own products.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if r.URL.Query().Get("mine") == "true" {
			actor, ok := requireActor(w, r, logg)
			if !ok {
				return
			}
			if actor.Role != enums.RoleSupplier {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only suppliers have their own products"))
				return
			}
			supplierID = &actor.UserID
		}

		page, err := svc.List(r.Context(), productsvc.ListInput{SupplierID: supplierID, Params: params})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		productID, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// DeleteProduct removes a product for its supplier or an admin.
func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Product deleted successfully"})
	}
}
