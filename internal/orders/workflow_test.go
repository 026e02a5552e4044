package orders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/distriweb/storefront/internal/cart"
	"github.com/distriweb/storefront/internal/upstream"
	pkgerrors "github.com/distriweb/storefront/pkg/errors"
	"github.com/distriweb/storefront/pkg/storage"
)

type stubSubmitter struct {
	resp  *upstream.OrderResponse
	err   error
	calls int
	last  upstream.OrderRequest
}

func (s *stubSubmitter) SubmitOrder(_ context.Context, req upstream.OrderRequest) (*upstream.OrderResponse, error) {
	s.calls++
	s.last = req
	return s.resp, s.err
}

type stubSession struct {
	token    string
	userCode string
}

func (s *stubSession) Token() string    { return s.token }
func (s *stubSession) UserCode() string { return s.userCode }

func seededCart(t *testing.T, qty int) *cart.Store {
	t.Helper()
	store, err := cart.NewStore(storage.NewMemory(), nil)
	if err != nil {
		t.Fatalf("building cart: %v", err)
	}
	for i := 0; i < qty; i++ {
		item := cart.LineItem{Code: "P1", Name: "Yerba 1kg", UnitPrice: decimal.RequireFromString("10.00")}
		if err := store.Add(context.Background(), item); err != nil {
			t.Fatalf("seeding cart: %v", err)
		}
	}
	return store
}

func TestSubmitHappyPathRecordsOrderID(t *testing.T) {
	t.Parallel()

	api := &stubSubmitter{resp: &upstream.OrderResponse{ID: 314}}
	basket := seededCart(t, 2)
	wf, err := NewWorkflow(api, &stubSession{token: "tok", userCode: "C-9"}, basket, nil)
	if err != nil {
		t.Fatalf("building workflow: %v", err)
	}

	status, err := wf.Submit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.State != StateFulfilled || status.OrderID != 314 {
		t.Fatalf("unexpected status %+v", status)
	}

	if api.last.UserCode != "C-9" {
		t.Fatalf("expected user code on order, got %q", api.last.UserCode)
	}
	if !api.last.Total.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected total 20.00, got %s", api.last.Total)
	}
	if len(api.last.Items) != 1 || api.last.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", api.last.Items)
	}

	// The workflow itself leaves the cart alone; clearing is the caller's.
	if basket.Count() != 2 {
		t.Fatal("workflow must not reach into the cart")
	}
}

func TestSubmitWithoutTokenFailsLocally(t *testing.T) {
	t.Parallel()

	api := &stubSubmitter{}
	wf, err := NewWorkflow(api, &stubSession{}, seededCart(t, 1), nil)
	if err != nil {
		t.Fatalf("building workflow: %v", err)
	}

	status, err := wf.Submit(context.Background())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if status.State != StateRejected {
		t.Fatalf("expected rejected state, got %+v", status)
	}
	if api.calls != 0 {
		t.Fatal("missing token must be rejected before any network call")
	}
}

func TestSubmitEmptyCartFailsLocally(t *testing.T) {
	t.Parallel()

	api := &stubSubmitter{}
	wf, err := NewWorkflow(api, &stubSession{token: "tok"}, seededCart(t, 0), nil)
	if err != nil {
		t.Fatalf("building workflow: %v", err)
	}

	status, err := wf.Submit(context.Background())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if status.Err != "no items in cart" {
		t.Fatalf("expected no-items message, got %q", status.Err)
	}
	if api.calls != 0 {
		t.Fatal("empty cart must be rejected before any network call")
	}
}

func TestRejectionKeepsCartAndAllowsRetry(t *testing.T) {
	t.Parallel()

	api := &stubSubmitter{err: pkgerrors.New(pkgerrors.CodeValidation, "pedido sin stock")}
	basket := seededCart(t, 3)
	wf, err := NewWorkflow(api, &stubSession{token: "tok", userCode: "C-9"}, basket, nil)
	if err != nil {
		t.Fatalf("building workflow: %v", err)
	}

	status, err := wf.Submit(context.Background())
	if err == nil {
		t.Fatal("expected submission failure")
	}
	if status.State != StateRejected || status.Err != "pedido sin stock" {
		t.Fatalf("unexpected status %+v", status)
	}
	if basket.Count() != 3 {
		t.Fatal("rejected submission must leave the cart untouched")
	}

	// A retry re-enters pending from scratch and can succeed.
	api.err = nil
	api.resp = &upstream.OrderResponse{ID: 7}
	status, err = wf.Submit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.State != StateFulfilled || status.OrderID != 7 {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.Err != "" {
		t.Fatalf("pending must clear the prior error, got %q", status.Err)
	}
}

func TestResetReturnsToIdleFromTerminals(t *testing.T) {
	t.Parallel()

	api := &stubSubmitter{resp: &upstream.OrderResponse{ID: 5}}
	wf, err := NewWorkflow(api, &stubSession{token: "tok"}, seededCart(t, 1), nil)
	if err != nil {
		t.Fatalf("building workflow: %v", err)
	}

	if _, err := wf.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := wf.Reset(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := wf.Status(); got.State != StateIdle || got.OrderID != 0 || got.Err != "" {
		t.Fatalf("expected clean idle state, got %+v", got)
	}
}
