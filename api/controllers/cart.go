package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/distriweb/storefront/api/responses"
	"github.com/distriweb/storefront/api/validators"
	cartsvc "github.com/distriweb/storefront/internal/cart"
	pkgerrors "github.com/distriweb/storefront/pkg/errors"
	"github.com/distriweb/storefront/pkg/logger"
)

type addCartItemRequest struct {
	Code      string          `json:"code" validate:"required"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageRef  string          `json:"image_ref"`
}

type cartResponse struct {
	Items []cartsvc.LineItem `json:"items"`
	Count int                `json:"count"`
	Total decimal.Decimal    `json:"total"`
}

func newCartResponse(cart *cartsvc.Store) cartResponse {
	items := cart.Items()
	if items == nil {
		items = []cartsvc.LineItem{}
	}
	return cartResponse{Items: items, Count: cart.Count(), Total: cart.Total()}
}

func CartGet(cart *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cart == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartAddItem adds one unit of a product. Repeating the same code bumps
// the quantity of the existing line instead of creating a duplicate.
func CartAddItem(cart *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cart == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item := cartsvc.LineItem{
			Code:      payload.Code,
			Name:      payload.Name,
			UnitPrice: payload.UnitPrice,
			ImageRef:  payload.ImageRef,
		}
		if err := cart.Add(r.Context(), item); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartRemoveItem decrements one unit of a product; with ?all=true the
// whole line goes regardless of quantity.
func CartRemoveItem(cart *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cart == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		code := chi.URLParam(r, "code")
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product code is required"))
			return
		}

		completely, err := validators.ParseQueryBool(r, "all", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := cart.Remove(r.Context(), code, completely); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

func CartClear(cart *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cart == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		if err := cart.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(cart))
	}
}
