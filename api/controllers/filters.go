package controllers

import (
	"net/http"

	"github.com/distriweb/storefront/api/responses"
	"github.com/distriweb/storefront/api/validators"
	"github.com/distriweb/storefront/internal/filter"
	pkgerrors "github.com/distriweb/storefront/pkg/errors"
	"github.com/distriweb/storefront/pkg/logger"
)

type updateFilterRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

type setCategoryRequest struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

func FiltersGet(filters *filter.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if filters == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "filter store unavailable"))
			return
		}

		responses.WriteSuccess(w, filters.Snapshot())
	}
}

// FiltersUpdate sets a single filter field; an empty value clears it.
func FiltersUpdate(filters *filter.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if filters == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "filter store unavailable"))
			return
		}

		var payload updateFilterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := filters.Update(filter.Field(payload.Field), payload.Value); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, filters.Snapshot())
	}
}

// FiltersSetCategory sets the category and subcategory as a pair, the only
// write that touches both fields at once.
func FiltersSetCategory(filters *filter.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if filters == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "filter store unavailable"))
			return
		}

		var payload setCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.Category == "" && payload.Subcategory != "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "subcategory requires a category"))
			return
		}

		filters.SetCategory(payload.Category, payload.Subcategory)
		responses.WriteSuccess(w, filters.Snapshot())
	}
}

func FiltersClear(filters *filter.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if filters == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "filter store unavailable"))
			return
		}

		filters.Clear()
		responses.WriteSuccess(w, filters.Snapshot())
	}
}
