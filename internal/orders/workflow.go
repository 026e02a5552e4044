package orders

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/distriweb/storefront/internal/cart"
	"github.com/distriweb/storefront/internal/upstream"
	pkgerrors "github.com/distriweb/storefront/pkg/errors"
	"github.com/distriweb/storefront/pkg/logger"
)

// State is the submission workflow state.
type State string

const (
	StateIdle      State = "idle"
	StatePending   State = "pending"
	StateFulfilled State = "fulfilled"
	StateRejected  State = "rejected"
)

// OrderSubmitter is the slice of the gateway the workflow needs.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req upstream.OrderRequest) (*upstream.OrderResponse, error)
}

// SessionReader supplies the credential and attribution for an order.
type SessionReader interface {
	Token() string
	UserCode() string
}

// CartReader supplies the lines an order is built from. The workflow never
// mutates the cart; clearing it after a fulfilled order is the caller's
// move.
type CartReader interface {
	Items() []cart.LineItem
	Total() decimal.Decimal
}

// Status is a point-in-time copy of the workflow state.
type Status struct {
	State   State  `json:"state"`
	OrderID int64  `json:"order_id,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Workflow drives one order submission at a time: idle -> pending ->
// fulfilled or rejected, with Reset returning to idle from a terminal
// state. Failed submissions leave the cart untouched so the user can retry.
type Workflow struct {
	mu      sync.Mutex
	api     OrderSubmitter
	session SessionReader
	cart    CartReader
	logg    *logger.Logger

	state   State
	orderID int64
	lastErr string
}

func NewWorkflow(api OrderSubmitter, session SessionReader, cartReader CartReader, logg *logger.Logger) (*Workflow, error) {
	if api == nil {
		return nil, fmt.Errorf("order submitter is required")
	}
	if session == nil {
		return nil, fmt.Errorf("session reader is required")
	}
	if cartReader == nil {
		return nil, fmt.Errorf("cart reader is required")
	}
	return &Workflow{
		api:     api,
		session: session,
		cart:    cartReader,
		logg:    logg,
		state:   StateIdle,
	}, nil
}

// Submit builds the order from the current cart and session and posts it.
// Missing token and empty cart are rejected locally before any network
// call.
func (w *Workflow) Submit(ctx context.Context) (Status, error) {
	w.mu.Lock()
	if w.state == StatePending {
		w.mu.Unlock()
		return Status{State: StatePending}, pkgerrors.New(pkgerrors.CodeStateConflict, "an order submission is already in flight")
	}

	token := w.session.Token()
	if token == "" {
		err := pkgerrors.New(pkgerrors.CodeUnauthorized, "login required to submit an order")
		w.state = StateRejected
		w.lastErr = err.Message()
		status := w.statusLocked()
		w.mu.Unlock()
		return status, err
	}

	items := w.cart.Items()
	if len(items) == 0 {
		err := pkgerrors.New(pkgerrors.CodeValidation, "no items in cart")
		w.state = StateRejected
		w.lastErr = err.Message()
		status := w.statusLocked()
		w.mu.Unlock()
		return status, err
	}

	w.state = StatePending
	w.lastErr = ""
	w.orderID = 0
	userCode := w.session.UserCode()
	total := w.cart.Total()
	w.mu.Unlock()

	req := upstream.OrderRequest{
		Items:    make([]upstream.OrderItem, 0, len(items)),
		UserCode: userCode,
		Total:    total,
	}
	for _, item := range items {
		req.Items = append(req.Items, upstream.OrderItem{
			Code:      item.Code,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	resp, err := w.api.SubmitOrder(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		w.state = StateRejected
		w.lastErr = rejectionMessage(err)
		if w.logg != nil {
			w.logg.Error(ctx, "order submission rejected", err)
		}
		return w.statusLocked(), err
	}

	w.state = StateFulfilled
	w.orderID = resp.ID
	w.lastErr = ""
	if w.logg != nil {
		w.logg.Info(w.logg.WithField(ctx, "order_id", resp.ID), "order fulfilled")
	}
	return w.statusLocked(), nil
}

// Reset returns to idle from a terminal state. Resetting while a
// submission is in flight is refused.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StatePending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot reset while a submission is in flight")
	}
	w.state = StateIdle
	w.orderID = 0
	w.lastErr = ""
	return nil
}

func (w *Workflow) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.statusLocked()
}

func (w *Workflow) statusLocked() Status {
	return Status{State: w.state, OrderID: w.orderID, Err: w.lastErr}
}

const genericRejectionMessage = "order submission failed, try again"

func rejectionMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return genericRejectionMessage
}
