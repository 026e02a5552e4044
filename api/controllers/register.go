package controllers

import (
	"net/http"

	"github.com/distriweb/storefront/api/responses"
	"github.com/distriweb/storefront/api/validators"
	"github.com/distriweb/storefront/internal/register"
	pkgerrors "github.com/distriweb/storefront/pkg/errors"
	"github.com/distriweb/storefront/pkg/logger"
)

type registerResponse struct {
	Registered bool `json:"registered"`
}

// Register creates a new storefront account with the distributor.
func Register(svc *register.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registration service unavailable"))
			return
		}

		var payload register.Input
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Register(r.Context(), payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, registerResponse{Registered: true})
	}
}
