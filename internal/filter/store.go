package filter

import (
	"net/url"
	"sync"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/distriweb/storefront/pkg/errors"
)

// Field names a single filter criterion.
type Field string

const (
	FieldCategory    Field = "category"
	FieldSubcategory Field = "subcategory"
	FieldMaxPrice    Field = "max_price"
	FieldBrandCode   Field = "brand_code"
	FieldCode        Field = "code"
	FieldName        Field = "name"
)

// Snapshot is the active filter set. Empty strings and a nil MaxPrice mean
// "absent".
type Snapshot struct {
	Category    string           `json:"category,omitempty"`
	Subcategory string           `json:"subcategory,omitempty"`
	MaxPrice    *decimal.Decimal `json:"max_price,omitempty"`
	BrandCode   string           `json:"brand_code,omitempty"`
	Code        string           `json:"code,omitempty"`
	Name        string           `json:"name,omitempty"`
}

// Store holds the active catalog query parameters. Transient: nothing here
// is persisted across restarts.
type Store struct {
	mu    sync.Mutex
	state Snapshot
}

func NewStore() *Store {
	return &Store{}
}

// Update sets one field; an empty value clears it. Category updates go
// through the SetCategory pairing rule so a stale subcategory never
// survives. Setting a subcategory without an active category is rejected.
func (s *Store) Update(field Field, value string) error {
	switch field {
	case FieldCategory:
		s.SetCategory(value, "")
		return nil
	case FieldSubcategory:
		s.mu.Lock()
		defer s.mu.Unlock()
		if value != "" && s.state.Category == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "subcategory requires a category")
		}
		s.state.Subcategory = value
		return nil
	case FieldMaxPrice:
		if value == "" {
			s.mu.Lock()
			s.state.MaxPrice = nil
			s.mu.Unlock()
			return nil
		}
		parsed, err := decimal.NewFromString(value)
		if err != nil || parsed.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "max price must be a non-negative number")
		}
		s.mu.Lock()
		s.state.MaxPrice = &parsed
		s.mu.Unlock()
		return nil
	case FieldBrandCode:
		s.mu.Lock()
		s.state.BrandCode = value
		s.mu.Unlock()
		return nil
	case FieldCode:
		s.mu.Lock()
		s.state.Code = value
		s.mu.Unlock()
		return nil
	case FieldName:
		s.mu.Lock()
		s.state.Name = value
		s.mu.Unlock()
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown filter field")
	}
}

// SetCategory is the only operation allowed to touch category and
// subcategory together. An empty subcategory clears it.
func (s *Store) SetCategory(category, subcategory string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Category = category
	if category == "" {
		s.state.Subcategory = ""
		return
	}
	s.state.Subcategory = subcategory
}

// Clear resets every field to absent.
func (s *Store) Clear() {
	s.mu.Lock()
	s.state = Snapshot{}
	s.mu.Unlock()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.state
	if s.state.MaxPrice != nil {
		price := *s.state.MaxPrice
		snap.MaxPrice = &price
	}
	return snap
}

// Params renders the active filters as upstream query values.
func (s *Store) Params() url.Values {
	snap := s.Snapshot()

	params := url.Values{}
	if snap.Category != "" {
		params.Set("rubro", snap.Category)
	}
	if snap.Subcategory != "" {
		params.Set("subrubro", snap.Subcategory)
	}
	if snap.MaxPrice != nil {
		params.Set("precio_max", snap.MaxPrice.String())
	}
	if snap.BrandCode != "" {
		params.Set("marca", snap.BrandCode)
	}
	if snap.Code != "" {
		params.Set("codigo", snap.Code)
	}
	if snap.Name != "" {
		params.Set("nombre", snap.Name)
	}
	return params
}
