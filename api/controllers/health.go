package controllers

import (
	"context"
	"net/http"

	"github.com/distriweb/storefront/api/responses"
	"github.com/distriweb/storefront/pkg/config"
	pkgerrors "github.com/distriweb/storefront/pkg/errors"
	"github.com/distriweb/storefront/pkg/logger"
	"github.com/distriweb/storefront/pkg/storage"
)

// UpstreamPinger reports whether the distributor API is reachable.
type UpstreamPinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Distriweb-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the durable store and the upstream API before
// reporting ready.
func HealthReady(cfg *config.Config, store storage.Store, up UpstreamPinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Distriweb-Env", cfg.App.Env)

		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage unreachable"))
				return
			}
		}
		if up != nil {
			if err := up.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upstream unreachable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
