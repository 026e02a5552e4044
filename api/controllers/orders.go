package controllers

import (
	"net/http"

	"github.com/distriweb/storefront/api/responses"
	cartsvc "github.com/distriweb/storefront/internal/cart"
	"github.com/distriweb/storefront/internal/orders"
	pkgerrors "github.com/distriweb/storefront/pkg/errors"
	"github.com/distriweb/storefront/pkg/logger"
)

// OrderSubmit posts the current cart as an order. The cart is cleared
// only after the submission is fulfilled; a rejected order leaves it
// intact so the user can retry.
func OrderSubmit(workflow *orders.Workflow, cart *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if workflow == nil || cart == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order workflow unavailable"))
			return
		}

		status, err := workflow.Submit(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := cart.Clear(r.Context()); err != nil {
			// The order is already placed; report the status anyway.
			if logg != nil {
				logg.Error(r.Context(), "clearing cart after fulfilled order", err)
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, status)
	}
}

func OrderStatus(workflow *orders.Workflow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if workflow == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order workflow unavailable"))
			return
		}

		responses.WriteSuccess(w, workflow.Status())
	}
}

func OrderReset(workflow *orders.Workflow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if workflow == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order workflow unavailable"))
			return
		}

		if err := workflow.Reset(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, workflow.Status())
	}
}
