package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/distriweb/storefront/pkg/config"
	pkgerrors "github.com/distriweb/storefront/pkg/errors"
	"github.com/distriweb/storefront/pkg/storage"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *storage.MemoryStore, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := storage.NewMemory()
	client, err := NewClient(config.UpstreamConfig{BaseURL: srv.URL}, store, nil, nil)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}
	return client, store, srv
}

func seedToken(t *testing.T, store storage.Store, token string) {
	t.Helper()
	if err := store.Set(context.Background(), storage.KeySessionToken, token); err != nil {
		t.Fatalf("seeding token: %v", err)
	}
}

func TestClientAttachesBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth, gotContentType string
	client, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		json.NewEncoder(w).Encode([]Brand{})
	}))
	seedToken(t, store, "tok-123")

	if _, err := client.Brands(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Fatalf("expected json content type, got %q", gotContentType)
	}
}

func TestClientRevokesSessionOn401(t *testing.T) {
	t.Parallel()

	var sawAuth []string
	client, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = append(sawAuth, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	seedToken(t, store, "stale-token")
	if err := store.Set(context.Background(), storage.KeySessionUser, `{"id":1}`); err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	revoked := false
	client.OnSessionRevoked(func() { revoked = true })

	_, err := client.Products(context.Background(), nil)
	if !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %v", err)
	}
	if !revoked {
		t.Fatal("expected revocation hook to fire")
	}

	ctx := context.Background()
	if _, err := store.Get(ctx, storage.KeySessionToken); !errors.Is(err, storage.ErrNotFound) {
		t.Fatal("expected token to be cleared from storage")
	}
	if _, err := store.Get(ctx, storage.KeySessionUser); !errors.Is(err, storage.ErrNotFound) {
		t.Fatal("expected user to be cleared from storage")
	}

	// The second call must not carry the old token.
	_, _ = client.Products(ctx, nil)
	if len(sawAuth) != 2 {
		t.Fatalf("expected two upstream calls, got %d", len(sawAuth))
	}
	if sawAuth[1] != "" {
		t.Fatalf("second call still carried a token: %q", sawAuth[1])
	}
}

func TestClientLogin401IsNotRevocation(t *testing.T) {
	t.Parallel()

	client, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(detailBody{Detail: "credenciales inválidas"})
	}))
	seedToken(t, store, "existing-token")

	_, err := client.Login(context.Background(), "user@example.com", "wrong")
	if errors.Is(err, ErrSessionRevoked) {
		t.Fatal("a failed login must not revoke the existing session")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if typed.Message() != "credenciales inválidas" {
		t.Fatalf("expected server detail message, got %q", typed.Message())
	}

	// Prior session untouched.
	if tok, err := store.Get(context.Background(), storage.KeySessionToken); err != nil || tok != "existing-token" {
		t.Fatalf("expected prior token to survive, got %q err=%v", tok, err)
	}
}

func TestClientNoContentIsEmptyResult(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	products, err := client.Products(context.Background(), nil)
	if err != nil {
		t.Fatalf("204 must not be an error, got %v", err)
	}
	if products == nil || len(products) != 0 {
		t.Fatalf("expected explicit empty result, got %v", products)
	}
}

func TestClientDecodesPaginatedList(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"count": 1,
			"results": []Product{
				{Code: "P1", Name: "Yerba 1kg", UnitPrice: decimal.RequireFromString("10.50")},
			},
		})
	}))

	products, err := client.Products(context.Background(), url.Values{"nombre": {"yerba"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 1 || products[0].Code != "P1" {
		t.Fatalf("unexpected products %v", products)
	}
}

func TestClientMalformedBodyIsDependencyError(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"neither": "list nor page"`))
	}))

	_, err := client.Brands(context.Background())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestClientTransportErrorIsDependencyError(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	client, err := NewClient(config.UpstreamConfig{BaseURL: "http://127.0.0.1:1"}, store, nil, nil)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	_, err = client.Categories(context.Background())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestClientSubmitOrderFallsBackToOrdersRoute(t *testing.T) {
	t.Parallel()

	var paths []string
	client, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/pedidos/" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(OrderResponse{ID: 77})
	}))
	seedToken(t, store, "tok")

	resp, err := client.SubmitOrder(context.Background(), OrderRequest{
		UserCode: "C-1",
		Total:    decimal.RequireFromString("21.00"),
		Items: []OrderItem{
			{Code: "P1", Name: "Yerba 1kg", UnitPrice: decimal.RequireFromString("10.50"), Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ID != 77 {
		t.Fatalf("unexpected order id %d", resp.ID)
	}
	if len(paths) != 2 || paths[0] != "/pedidos/" || paths[1] != "/orders/" {
		t.Fatalf("unexpected call sequence %v", paths)
	}
}

func TestClientSubmitOrderNoContentIsEmptyResult(t *testing.T) {
	t.Parallel()

	client, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	seedToken(t, store, "tok")

	resp, err := client.SubmitOrder(context.Background(), OrderRequest{
		UserCode: "C-1",
		Total:    decimal.RequireFromString("10.50"),
		Items: []OrderItem{
			{Code: "P1", UnitPrice: decimal.RequireFromString("10.50"), Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("204 must not be an error: %v", err)
	}
	if resp == nil || resp.ID != 0 {
		t.Fatalf("expected an empty order response, got %+v", resp)
	}
}

func TestClientLoginNoContentIsMissingToken(t *testing.T) {
	t.Parallel()

	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	_, err := client.Login(context.Background(), "ana@example.com", "secret")
	if err == nil {
		t.Fatal("expected an error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected a dependency error, got %v", err)
	}
}

func TestClientServerErrorCarriesDetail(t *testing.T) {
	t.Parallel()

	client, store, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(detailBody{Detail: "pedido sin stock"})
	}))
	seedToken(t, store, "tok")

	_, err := client.SubmitOrder(context.Background(), OrderRequest{UserCode: "C-1"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Message() != "pedido sin stock" {
		t.Fatalf("expected server message, got %q", typed.Message())
	}
}
