package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/distriweb/storefront/pkg/errors"
	"github.com/distriweb/storefront/pkg/logger"
	"github.com/distriweb/storefront/pkg/storage"
)

// LineItem is one product code plus quantity and the display fields cached
// when it was first added.
type LineItem struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"image_ref"`
}

// Store owns an ordered collection of line items keyed by product code.
// Every mutation persists the full collection; codes stay unique and every
// surviving item keeps quantity >= 1.
type Store struct {
	mu      sync.Mutex
	storage storage.Store
	logg    *logger.Logger
	items   []LineItem
}

func NewStore(store storage.Store, logg *logger.Logger) (*Store, error) {
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	return &Store{storage: store, logg: logg}, nil
}

// Add inserts the item with quantity 1, or bumps the quantity when the code
// is already present. On a repeat add only the code matters: the incoming
// name, price, and image are ignored and the first-seen fields stand.
func (s *Store) Add(ctx context.Context, item LineItem) error {
	if item.Code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product code is required")
	}
	if item.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := false
	for i := range s.items {
		if s.items[i].Code == item.Code {
			s.items[i].Quantity++
			merged = true
			break
		}
	}
	if !merged {
		item.Quantity = 1
		s.items = append(s.items, item)
	}

	return s.persistLocked(ctx)
}

// Remove decrements the quantity, or deletes the line entirely when
// completely is set or the quantity would reach zero. Unknown codes are a
// no-op.
func (s *Store) Remove(ctx context.Context, code string, completely bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].Code != code {
			continue
		}
		if completely || s.items[i].Quantity <= 1 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		} else {
			s.items[i].Quantity--
		}
		return s.persistLocked(ctx)
	}
	return nil
}

// Clear empties the collection and erases the persisted record entirely.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return s.storage.Delete(ctx, storage.KeyCartItems)
}

// Restore replaces the in-memory collection with the persisted record. A
// missing or malformed record leaves the cart empty.
func (s *Store) Restore(ctx context.Context) error {
	raw, err := s.storage.Get(ctx, storage.KeyCartItems)
	if errors.Is(err, storage.ErrNotFound) {
		s.mu.Lock()
		s.items = nil
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}

	var items []LineItem
	if jsonErr := json.Unmarshal([]byte(raw), &items); jsonErr != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "stored cart record malformed, starting empty")
		}
		items = nil
	}

	items, repaired := sanitizeItems(items)
	if repaired && s.logg != nil {
		s.logg.Warn(ctx, "stored cart record violated invariants, repaired on restore")
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// sanitizeItems enforces the collection invariants on a restored record:
// one line per code, quantity >= 1, no negative prices. Entries with an
// empty code, a quantity below 1, or a negative price are dropped; a
// repeated code folds its quantity into the first-seen line, the same state
// repeated Adds would have produced.
func sanitizeItems(items []LineItem) ([]LineItem, bool) {
	var clean []LineItem
	repaired := false
	for _, item := range items {
		if item.Code == "" || item.Quantity < 1 || item.UnitPrice.IsNegative() {
			repaired = true
			continue
		}
		merged := false
		for i := range clean {
			if clean[i].Code == item.Code {
				clean[i].Quantity += item.Quantity
				merged = true
				repaired = true
				break
			}
		}
		if !merged {
			clean = append(clean, item)
		}
	}
	return clean, repaired
}

// Items returns a copy of the collection in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Count is the total quantity across all line items.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// Total is the sum of unit price times quantity across the cart.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func (s *Store) persistLocked(ctx context.Context) error {
	encoded, err := json.Marshal(s.items)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, storage.KeyCartItems, string(encoded))
}
