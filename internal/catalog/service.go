package catalog

import (
	"context"
	"fmt"
	"net/url"

	"github.com/distriweb/storefront/internal/filter"
	"github.com/distriweb/storefront/internal/upstream"
	"github.com/distriweb/storefront/pkg/logger"
)

// Client is the slice of the gateway the catalog needs.
type Client interface {
	Categories(ctx context.Context) ([]upstream.Category, error)
	Brands(ctx context.Context) ([]upstream.Brand, error)
	Products(ctx context.Context, query url.Values) ([]upstream.Product, error)
}

// Service answers catalog queries. Results are view data: they go back to
// the caller and never into the persisted stores.
type Service struct {
	api     Client
	filters *filter.Store
	logg    *logger.Logger
}

func NewService(api Client, filters *filter.Store, logg *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("upstream client is required")
	}
	if filters == nil {
		return nil, fmt.Errorf("filter store is required")
	}
	return &Service{api: api, filters: filters, logg: logg}, nil
}

// Categories returns the category tree with nested subcategories.
func (s *Service) Categories(ctx context.Context) ([]upstream.Category, error) {
	return s.api.Categories(ctx)
}

// Brands returns the selectable brands. Entries the upstream marks as not
// visible are dropped here.
func (s *Service) Brands(ctx context.Context) ([]upstream.Brand, error) {
	all, err := s.api.Brands(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]upstream.Brand, 0, len(all))
	for _, brand := range all {
		if brand.Visible {
			visible = append(visible, brand)
		}
	}
	return visible, nil
}

// Products lists products narrowed by the active filter set.
func (s *Service) Products(ctx context.Context) ([]upstream.Product, error) {
	return s.api.Products(ctx, s.filters.Params())
}
