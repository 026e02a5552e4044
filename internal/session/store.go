package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/distriweb/storefront/internal/upstream"
	"github.com/distriweb/storefront/pkg/auth"
	pkgerrors "github.com/distriweb/storefront/pkg/errors"
	"github.com/distriweb/storefront/pkg/logger"
	"github.com/distriweb/storefront/pkg/storage"
)

const (
	connectionErrorMessage = "could not reach the server, try again later"
	persistErrorMessage    = "could not save the session, try again later"
)

// LoginClient is the slice of the gateway the session store needs.
type LoginClient interface {
	Login(ctx context.Context, email, password string) (*upstream.LoginResponse, error)
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	Token         string
	User          *upstream.User
	Authenticated bool
	Loading       bool
	Err           string
}

// Store owns the auth token and user profile, both in memory and in
// durable storage. Authenticated is true exactly when a token is held.
type Store struct {
	mu      sync.Mutex
	storage storage.Store
	api     LoginClient
	logg    *logger.Logger

	token   string
	user    *upstream.User
	loading bool
	lastErr string
}

// NewStore wires the session store. Call Restore before serving to pick up
// a persisted session.
func NewStore(store storage.Store, api LoginClient, logg *logger.Logger) (*Store, error) {
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if api == nil {
		return nil, fmt.Errorf("login client is required")
	}
	return &Store{storage: store, api: api, logg: logg}, nil
}

// Login exchanges credentials for a session. A rejected login leaves any
// prior session untouched; a session that cannot be saved is dropped from
// memory and storage alike. Either way the error message is recorded.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, "login already in flight")
	}
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()

	resp, err := s.api.Login(ctx, email, password)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.lastErr = loginErrorMessage(err)
		return err
	}

	if perr := s.persist(ctx, resp); perr != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "persisting session failed", perr)
		}
		s.token = ""
		s.user = nil
		s.lastErr = persistErrorMessage
		return perr
	}

	s.token = resp.Token
	s.user = &resp.User
	s.lastErr = ""
	return nil
}

// persist writes both session keys or neither: a token without its user
// record would make the next Restore come up empty against a live token,
// so a failed user write rolls the token back.
func (s *Store) persist(ctx context.Context, resp *upstream.LoginResponse) error {
	encoded, err := json.Marshal(resp.User)
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, storage.KeySessionToken, resp.Token); err != nil {
		return err
	}
	if err := s.storage.Set(ctx, storage.KeySessionUser, string(encoded)); err != nil {
		if derr := s.storage.Delete(ctx, storage.KeySessionToken); derr != nil && s.logg != nil {
			s.logg.Error(ctx, "rolling back session token failed", derr)
		}
		return err
	}
	return nil
}

// Logout clears the session in memory and in durable storage.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.lastErr = ""
	s.mu.Unlock()

	if err := s.storage.Delete(ctx, storage.KeySessionToken); err != nil {
		return err
	}
	return s.storage.Delete(ctx, storage.KeySessionUser)
}

// Restore repopulates the session from durable storage. A missing key, a
// malformed user record, or an expired token all leave the session empty;
// none of them are errors.
func (s *Store) Restore(ctx context.Context) error {
	token, err := s.storage.Get(ctx, storage.KeySessionToken)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	rawUser, err := s.storage.Get(ctx, storage.KeySessionUser)
	if errors.Is(err, storage.ErrNotFound) {
		s.clearPersisted(ctx)
		return nil
	}
	if err != nil {
		return err
	}

	var user upstream.User
	if jsonErr := json.Unmarshal([]byte(rawUser), &user); jsonErr != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "stored user record malformed, dropping persisted session")
		}
		s.clearPersisted(ctx)
		return nil
	}

	if auth.TokenExpired(token, time.Now()) {
		if s.logg != nil {
			s.logg.Warn(ctx, "stored token expired, dropping persisted session")
		}
		s.clearPersisted(ctx)
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()
	return nil
}

// clearPersisted deletes both durable keys so storage agrees with the
// empty in-memory session. The gateway reads the token key directly, so a
// leftover key would send a credential the session store no longer holds.
func (s *Store) clearPersisted(ctx context.Context) {
	if err := s.storage.Delete(ctx, storage.KeySessionToken); err != nil && s.logg != nil {
		s.logg.Error(ctx, "clearing session token failed", err)
	}
	if err := s.storage.Delete(ctx, storage.KeySessionUser); err != nil && s.logg != nil {
		s.logg.Error(ctx, "clearing session user failed", err)
	}
}

// ClearError drops only the error field. Idempotent.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// HandleRevoked drops the in-memory session after the gateway observed a
// 401 and cleared the durable keys.
func (s *Store) HandleRevoked() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
}

// Token returns the current bearer token, empty when logged out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user *upstream.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Snapshot{
		Token:         s.token,
		User:          user,
		Authenticated: s.token != "",
		Loading:       s.loading,
		Err:           s.lastErr,
	}
}

// UserCode returns the profile code orders are attributed to.
func (s *Store) UserCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.user.Code
}

func loginErrorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeDependency, pkgerrors.CodeInternal:
			return connectionErrorMessage
		default:
			if msg := typed.Message(); msg != "" {
				return msg
			}
		}
	}
	return connectionErrorMessage
}
