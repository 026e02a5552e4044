package controllers

import (
	"net/http"

	"github.com/distriweb/storefront/api/responses"
	"github.com/distriweb/storefront/internal/catalog"
	"github.com/distriweb/storefront/internal/upstream"
	pkgerrors "github.com/distriweb/storefront/pkg/errors"
	"github.com/distriweb/storefront/pkg/logger"
)

func CatalogCategories(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if categories == nil {
			categories = []upstream.Category{}
		}

		responses.WriteSuccess(w, categories)
	}
}

func CatalogBrands(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		brands, err := svc.Brands(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if brands == nil {
			brands = []upstream.Brand{}
		}

		responses.WriteSuccess(w, brands)
	}
}

// CatalogProducts lists products matching the active filter set.
func CatalogProducts(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		products, err := svc.Products(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if products == nil {
			products = []upstream.Product{}
		}

		responses.WriteSuccess(w, products)
	}
}
