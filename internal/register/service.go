package register

import (
	"context"
	"fmt"
	"strings"

	"github.com/distriweb/storefront/internal/upstream"
	pkgerrors "github.com/distriweb/storefront/pkg/errors"
	"github.com/distriweb/storefront/pkg/logger"
)

// Input contains the self-registration payload, confirmation included.
// Validation happens here, before anything touches the network.
type Input struct {
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Address         string `json:"address" validate:"required"`
	City            string `json:"city" validate:"required"`
	Province        string `json:"province" validate:"required"`
	PostalCode      string `json:"postal_code" validate:"required"`
	Phone           string `json:"phone,omitempty"`
}

// Client is the slice of the gateway the registration flow needs.
type Client interface {
	Register(ctx context.Context, req upstream.RegisterRequest) error
}

// Service forwards validated registrations to the upstream user endpoint.
type Service struct {
	api  Client
	logg *logger.Logger
}

func NewService(api Client, logg *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("upstream client is required")
	}
	return &Service{api: api, logg: logg}, nil
}

// Register submits the registration. The struct tags cover field presence
// and formats at the HTTP boundary; the checks here guard non-HTTP callers
// too.
func (s *Service) Register(ctx context.Context, input Input) error {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if input.Password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	if input.Password != input.PasswordConfirm {
		return pkgerrors.New(pkgerrors.CodeValidation, "passwords do not match")
	}

	req := upstream.RegisterRequest{
		FirstName:  strings.TrimSpace(input.FirstName),
		LastName:   strings.TrimSpace(input.LastName),
		Email:      email,
		Password:   input.Password,
		Address:    strings.TrimSpace(input.Address),
		City:       strings.TrimSpace(input.City),
		Province:   strings.TrimSpace(input.Province),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Phone:      strings.TrimSpace(input.Phone),
	}
	if err := s.api.Register(ctx, req); err != nil {
		return err
	}

	if s.logg != nil {
		s.logg.Info(ctx, "registration submitted")
	}
	return nil
}
