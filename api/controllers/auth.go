package controllers

import (
	"net/http"

	"github.com/distriweb/storefront/api/responses"
	"github.com/distriweb/storefront/api/validators"
	"github.com/distriweb/storefront/internal/session"
	"github.com/distriweb/storefront/internal/upstream"
	pkgerrors "github.com/distriweb/storefront/pkg/errors"
	"github.com/distriweb/storefront/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Authenticated bool           `json:"authenticated"`
	User          *upstream.User `json:"user,omitempty"`
	Loading       bool           `json:"loading"`
	Error         string         `json:"error,omitempty"`
}

func newSessionResponse(snap session.Snapshot) sessionResponse {
	return sessionResponse{
		Authenticated: snap.Authenticated,
		User:          snap.User,
		Loading:       snap.Loading,
		Error:         snap.Err,
	}
}

// Login exchanges credentials for a session held server-side.
func Login(sess *session.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session store unavailable"))
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := sess.Login(r.Context(), payload.Email, payload.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSessionResponse(sess.Snapshot()))
	}
}

func Logout(sess *session.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session store unavailable"))
			return
		}

		if err := sess.Logout(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSessionResponse(sess.Snapshot()))
	}
}

// Session reports the current session snapshot without touching the
// upstream API.
func Session(sess *session.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session store unavailable"))
			return
		}

		responses.WriteSuccess(w, newSessionResponse(sess.Snapshot()))
	}
}
