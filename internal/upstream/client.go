package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/distriweb/storefront/pkg/config"
	pkgerrors "github.com/distriweb/storefront/pkg/errors"
	"github.com/distriweb/storefront/pkg/logger"
	"github.com/distriweb/storefront/pkg/metrics"
	"github.com/distriweb/storefront/pkg/storage"
)

// ErrSessionRevoked is the tagged outcome of any authenticated call that
// came back 401. By the time a caller sees it the durable session keys are
// already gone; the caller should send the user back to login instead of
// treating the call as completed.
var ErrSessionRevoked = errors.New("upstream: session revoked")

const genericFailureMessage = "upstream request failed"

// Client is the single choke point for calls to the remote distributor API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	store      storage.Store
	logg       *logger.Logger
	metrics    *metrics.UpstreamMetrics
	onRevoked  func()
}

// NewClient builds the gateway. The storage handle is where the bearer
// token lives and what gets cleared on revocation.
func NewClient(cfg config.UpstreamConfig, store storage.Store, logg *logger.Logger, m *metrics.UpstreamMetrics) (*Client, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("upstream base url must be absolute")
	}
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		store:      store,
		logg:       logg,
		metrics:    m,
	}, nil
}

// OnSessionRevoked registers the hook invoked after a 401 clears the
// durable session keys; the session store uses it to drop in-memory state.
func (c *Client) OnSessionRevoked(fn func()) {
	c.onRevoked = fn
}

type loginRequest struct {
	Email string `json:"email"`
	Clave string `json:"clave"`
}

// Login exchanges credentials for a token and profile. Public call: a 401
// here is a bad password, not a revoked session.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body, status, err := c.request(ctx, "auth_login", http.MethodPost, "/auth/login/", nil, loginRequest{Email: email, Clave: password}, true)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || len(body) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "login response missing token")
	}
	var resp LoginResponse
	if err := c.decode(ctx, "auth_login", body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "login response missing token")
	}
	return &resp, nil
}

// Register posts a self-registration record. No auth header is attached.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	_, _, err := c.request(ctx, "web_usuarios", http.MethodPost, "/web-usuarios/", nil, req, true)
	return err
}

// Categories fetches the category tree with nested subcategories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	return doList[Category](ctx, c, "tipo_rubros", "/tipo-rubros-con-subrubros", nil)
}

// Brands fetches the full brand list, visibility flag included.
func (c *Client) Brands(ctx context.Context) ([]Brand, error) {
	return doList[Brand](ctx, c, "tipo_marcas", "/tipo-marcas/", nil)
}

// Products fetches the product list narrowed by the supplied query values.
func (c *Client) Products(ctx context.Context, query url.Values) ([]Product, error) {
	return doList[Product](ctx, c, "articulos", "/articulos/", query)
}

// SubmitOrder posts the order. The upstream exposes the same operation
// under /pedidos/ and /orders/; the latter is tried when the former is
// absent.
func (c *Client) SubmitOrder(ctx context.Context, req OrderRequest) (*OrderResponse, error) {
	body, status, err := c.request(ctx, "pedidos", http.MethodPost, "/pedidos/", nil, req, false)
	if err != nil && status == http.StatusNotFound {
		body, status, err = c.request(ctx, "pedidos", http.MethodPost, "/orders/", nil, req, false)
	}
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || len(body) == 0 {
		return &OrderResponse{}, nil
	}
	var resp OrderResponse
	if err := c.decode(ctx, "pedidos", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping reports whether the upstream host answers HTTP at all. Any status
// counts as reachable; only transport failures count against readiness.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upstream unreachable")
	}
	return resp.Body.Close()
}

func doList[T any](ctx context.Context, c *Client, endpoint, p string, query url.Values) ([]T, error) {
	body, status, err := c.request(ctx, endpoint, http.MethodGet, p, query, nil, false)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || len(body) == 0 {
		return []T{}, nil
	}

	var plain []T
	if jsonErr := json.Unmarshal(body, &plain); jsonErr == nil {
		return plain, nil
	}
	// Paginated rendering of the same resource.
	var paged struct {
		Results []T `json:"results"`
	}
	if jsonErr := json.Unmarshal(body, &paged); jsonErr == nil && paged.Results != nil {
		return paged.Results, nil
	}

	decodeErr := fmt.Errorf("unexpected %s response shape", endpoint)
	if c.logg != nil {
		c.logg.Error(c.logg.WithEndpoint(ctx, endpoint), "upstream response malformed", decodeErr)
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, decodeErr, "malformed upstream response")
}

// request performs one HTTP call and normalizes the outcome. It returns the
// raw body, the response status, and an error already typed for the rest of
// the service. A 204 yields an empty body with a nil error. public requests
// never trigger session revocation.
func (c *Client) request(ctx context.Context, endpoint, method, p string, query url.Values, body any, public bool) ([]byte, int, error) {
	ctx = c.withEndpoint(ctx, endpoint)

	endpointURL := *c.baseURL
	endpointURL.Path = path.Join(endpointURL.Path, p)
	if strings.HasSuffix(p, "/") {
		// path.Join strips the trailing slash the upstream routes require.
		endpointURL.Path += "/"
	}
	if query != nil {
		endpointURL.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpointURL.String(), reader)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building upstream request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	token := ""
	if !public {
		token = c.currentToken(ctx)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, "transport_error", start)
		if c.logg != nil {
			c.logg.Error(ctx, "upstream request failed", err)
		}
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upstream unreachable")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(endpoint, "transport_error", start)
		if c.logg != nil {
			c.logg.Error(ctx, "reading upstream response failed", err)
		}
		return nil, resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading upstream response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized && token != "":
		c.observe(endpoint, "revoked", start)
		c.revokeSession(ctx)
		return nil, resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrSessionRevoked, "session revoked")
	case resp.StatusCode == http.StatusNoContent:
		c.observe(endpoint, "empty", start)
		return nil, resp.StatusCode, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.observe(endpoint, "ok", start)
		return data, resp.StatusCode, nil
	default:
		c.observe(endpoint, "upstream_error", start)
		return nil, resp.StatusCode, c.statusError(ctx, resp.StatusCode, data)
	}
}

// statusError maps a non-2xx response onto the service error taxonomy,
// carrying the server's detail message when it supplied one.
func (c *Client) statusError(ctx context.Context, status int, data []byte) error {
	msg := genericFailureMessage
	var detail detailBody
	if err := json.Unmarshal(data, &detail); err == nil && detail.Detail != "" {
		msg = detail.Detail
	}

	var code pkgerrors.Code
	switch {
	case status == http.StatusBadRequest:
		code = pkgerrors.CodeValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = pkgerrors.CodeUnauthorized
	case status == http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case status >= 500:
		code = pkgerrors.CodeDependency
	default:
		code = pkgerrors.CodeUpstream
	}

	err := pkgerrors.New(code, msg).WithDetails(map[string]any{"status": status})
	if c.logg != nil {
		c.logg.Error(c.logg.WithField(ctx, "status", status), "upstream returned error status", err)
	}
	return err
}

func (c *Client) decode(ctx context.Context, endpoint string, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		if c.logg != nil {
			c.logg.Error(c.withEndpoint(ctx, endpoint), "upstream response malformed", err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "malformed upstream response")
	}
	return nil
}

func (c *Client) currentToken(ctx context.Context) string {
	token, err := c.store.Get(ctx, storage.KeySessionToken)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) && c.logg != nil {
			c.logg.Warn(ctx, "reading session token failed: "+err.Error())
		}
		return ""
	}
	return token
}

// revokeSession clears the durable session keys and tells the session
// store to drop its in-memory state. The next call goes out bare.
func (c *Client) revokeSession(ctx context.Context) {
	if err := c.store.Delete(ctx, storage.KeySessionToken); err != nil && c.logg != nil {
		c.logg.Error(ctx, "clearing session token failed", err)
	}
	if err := c.store.Delete(ctx, storage.KeySessionUser); err != nil && c.logg != nil {
		c.logg.Error(ctx, "clearing session user failed", err)
	}
	if c.onRevoked != nil {
		c.onRevoked()
	}
	if c.logg != nil {
		c.logg.Warn(ctx, "session revoked by upstream 401")
	}
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	c.metrics.ObserveRequest(endpoint, outcome, time.Since(start))
}

func (c *Client) withEndpoint(ctx context.Context, endpoint string) context.Context {
	if c.logg == nil {
		return ctx
	}
	return c.logg.WithEndpoint(ctx, endpoint)
}
