// Package checkout sequences one shopper's payment attempts:
// order creation, the payment widget, server-side verification and the
// resulting cart reconciliation.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/gateway"
	"github.com/fjod/foodclub/internal/logger"
)

type CartStore interface {
	Snapshot() domain.CartState
	Clear()
}

type Gateway interface {
	FetchConfig(ctx context.Context) gateway.Config
	CreateOrder(ctx context.Context, amount decimal.Decimal) (gateway.Order, error)
	VerifyPayment(ctx context.Context, result domain.WidgetResult) error
}

// Widget is the external payment UI. Open hands it the order; the widget
// reports back through WidgetSucceeded, WidgetFailed or WidgetDismissed.
type Widget interface {
	Open(ctx context.Context, opts WidgetOptions) error
}

type WidgetOptions struct {
	Key         string          `json:"key"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	OrderID     string          `json:"order_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
}

type Notifier interface {
	CheckoutFinished(ctx context.Context, outcome domain.CheckoutOutcome) error
}

type Options struct {
	SessionID string
	// WidgetTimeout bounds awaiting_widget. Zero means no bound.
	WidgetTimeout time.Duration
	MerchantName  string
	Notifier      Notifier
	Logger        logrus.FieldLogger
	Now           func() time.Time
}

type Orchestrator struct {
	cart    CartStore
	gateway Gateway
	opts    Options

	mu      sync.Mutex
	session domain.PaymentSession
	items   int
	pending []domain.CheckoutOutcome
}

func New(cart CartStore, gw Gateway, opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.MerchantName == "" {
		opts.MerchantName = "TheFoodClub"
	}
	return &Orchestrator{
		cart:    cart,
		gateway: gw,
		opts:    opts,
		session: domain.PaymentSession{Status: domain.PaymentStatusIdle},
	}
}

// LoadConfig refreshes gatewayEnabled for a checkout page load and tells the
// page what it may offer. The flag is only replaced while no attempt is open.
func (o *Orchestrator) LoadConfig(ctx context.Context) domain.Offer {
	cfg := o.gateway.FetchConfig(ctx)

	o.mu.Lock()
	o.expireLocked()
	if o.session.Status == domain.PaymentStatusIdle || o.session.Status.IsTerminal() {
		o.session.GatewayEnabled = cfg.Enabled
	}
	enabled := o.session.GatewayEnabled
	o.unlockAndFlush(ctx)

	switch {
	case o.cart.Snapshot().IsEmpty():
		return domain.OfferEmpty
	case enabled:
		return domain.OfferGateway
	default:
		return domain.OfferPayAtCounter
	}
}

// Start opens a new attempt. Refusals (ErrIllegalTransition, ErrEmptyCart,
// ErrGatewayDisabled) leave the session untouched; any other error means the
// attempt moved to failed.
func (o *Orchestrator) Start(ctx context.Context, widget Widget) (domain.PaymentSession, error) {
	o.mu.Lock()
	o.expireLocked()
	if o.session.Status != domain.PaymentStatusIdle {
		s := o.session
		o.unlockAndFlush(ctx)
		return s, errors.Wrapf(domain.ErrIllegalTransition, "cannot start checkout from %s", s.Status)
	}
	cart := o.cart.Snapshot()
	if cart.IsEmpty() {
		s := o.session
		o.unlockAndFlush(ctx)
		return s, domain.ErrEmptyCart
	}
	if !o.session.GatewayEnabled {
		s := o.session
		o.unlockAndFlush(ctx)
		return s, domain.ErrGatewayDisabled
	}
	o.session = domain.PaymentSession{
		GatewayEnabled: true,
		Status:         domain.PaymentStatusCreating,
		Amount:         cart.TotalAmount,
		StartedAt:      o.opts.Now(),
	}
	o.items = len(cart.Lines)
	o.mu.Unlock()

	log := logger.FromContext(ctx, o.opts.Logger)
	log.WithField("amount", cart.TotalAmount.String()).Info("creating payment order")

	// runs to completion even if the caller goes away
	order, err := o.gateway.CreateOrder(context.WithoutCancel(ctx), cart.TotalAmount)

	o.mu.Lock()
	if err != nil {
		o.failLocked(err)
		s := o.session
		o.unlockAndFlush(ctx)
		log.WithError(err).Warn("payment order creation failed")
		return s, err
	}
	o.session.OrderID = order.OrderID
	o.session.Amount = order.Amount
	o.session.Currency = order.Currency
	o.session.GatewayKey = order.KeyID
	o.transitionLocked(domain.PaymentStatusAwaitingWidget)
	if o.opts.WidgetTimeout > 0 {
		o.session.WidgetDeadline = o.opts.Now().Add(o.opts.WidgetTimeout)
	}
	s := o.session
	opts := WidgetOptions{
		Key:         order.KeyID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		OrderID:     order.OrderID,
		Name:        o.opts.MerchantName,
		Description: fmt.Sprintf("Order for %d item(s)", o.items),
	}
	o.mu.Unlock()

	if err := widget.Open(ctx, opts); err != nil {
		err = errors.Wrap(domain.ErrWidgetFailure, err.Error())
		o.mu.Lock()
		if o.session.Status == domain.PaymentStatusAwaitingWidget && o.session.OrderID == order.OrderID {
			o.failLocked(err)
		}
		s = o.session
		o.unlockAndFlush(ctx)
		log.WithError(err).Warn("payment widget could not be opened")
		return s, err
	}

	log.WithField("order_id", order.OrderID).Info("payment widget opened")
	return s, nil
}

// WidgetSucceeded handles the widget's success callback. The callback is not
// trusted: the cart is cleared only after the server verifies the payment.
func (o *Orchestrator) WidgetSucceeded(ctx context.Context, result domain.WidgetResult) (domain.PaymentSession, error) {
	o.mu.Lock()
	if err := o.requireAwaitingLocked(); err != nil {
		s := o.session
		o.unlockAndFlush(ctx)
		return s, err
	}
	log := logger.FromContext(ctx, o.opts.Logger).WithFields(logrus.Fields{
		"order_id":   o.session.OrderID,
		"payment_id": result.PaymentID,
	})
	if result.PaymentID == "" || result.OrderID != o.session.OrderID {
		err := errors.Wrapf(domain.ErrVerification, "widget reported order %q for attempt %q", result.OrderID, o.session.OrderID)
		o.failLocked(err)
		s := o.session
		o.unlockAndFlush(ctx)
		log.WithError(err).Warn("widget result rejected")
		return s, err
	}
	o.transitionLocked(domain.PaymentStatusVerifying)
	o.mu.Unlock()

	err := o.gateway.VerifyPayment(context.WithoutCancel(ctx), result)

	o.mu.Lock()
	if err != nil {
		o.failLocked(err)
		s := o.session
		o.unlockAndFlush(ctx)
		log.WithError(err).Warn("payment verification failed")
		return s, err
	}
	o.session.PaymentID = result.PaymentID
	o.session.WidgetDeadline = time.Time{}
	o.transitionLocked(domain.PaymentStatusSucceeded)
	o.cart.Clear()
	o.pending = append(o.pending, o.outcomeLocked(""))
	s := o.session
	o.unlockAndFlush(ctx)

	log.Info("payment verified, cart cleared")
	return s, nil
}

// WidgetFailed handles the widget's own failure event.
func (o *Orchestrator) WidgetFailed(ctx context.Context, reason string) (domain.PaymentSession, error) {
	o.mu.Lock()
	if err := o.requireAwaitingLocked(); err != nil {
		s := o.session
		o.unlockAndFlush(ctx)
		return s, err
	}
	err := errors.Wrap(domain.ErrWidgetFailure, reason)
	o.failLocked(err)
	s := o.session
	o.unlockAndFlush(ctx)

	logger.FromContext(ctx, o.opts.Logger).WithError(err).
		WithField("order_id", s.OrderID).Warn("payment widget reported failure")
	return s, err
}

// WidgetDismissed abandons the attempt. The shopper returns to idle without
// an error being reported.
func (o *Orchestrator) WidgetDismissed(ctx context.Context) (domain.PaymentSession, error) {
	o.mu.Lock()
	if err := o.requireAwaitingLocked(); err != nil {
		s := o.session
		o.unlockAndFlush(ctx)
		return s, err
	}
	orderID := o.session.OrderID
	o.resetLocked()
	s := o.session
	o.mu.Unlock()

	logger.FromContext(ctx, o.opts.Logger).WithField("order_id", orderID).Info("payment widget dismissed")
	return s, nil
}

// Acknowledge closes a finished attempt. The cart is not touched.
func (o *Orchestrator) Acknowledge(ctx context.Context) (domain.PaymentSession, error) {
	o.mu.Lock()
	o.expireLocked()
	if !o.session.Status.IsTerminal() {
		s := o.session
		o.unlockAndFlush(ctx)
		return s, errors.Wrapf(domain.ErrIllegalTransition, "nothing to acknowledge in %s", s.Status)
	}
	o.resetLocked()
	s := o.session
	o.unlockAndFlush(ctx)
	return s, nil
}

// EditCart applies edit to the cart unless an attempt is open. Start snapshots
// the cart under the same lock, so an order amount never misses an edit.
func (o *Orchestrator) EditCart(ctx context.Context, edit func()) error {
	o.mu.Lock()
	o.expireLocked()
	if status := o.session.Status; status.IsInFlight() || status == domain.PaymentStatusAwaitingWidget {
		o.unlockAndFlush(ctx)
		return errors.Wrapf(domain.ErrCartLocked, "payment status %s", status)
	}
	edit()
	o.unlockAndFlush(ctx)
	return nil
}

func (o *Orchestrator) Session(ctx context.Context) domain.PaymentSession {
	o.mu.Lock()
	o.expireLocked()
	s := o.session
	o.unlockAndFlush(ctx)
	return s
}

func (o *Orchestrator) requireAwaitingLocked() error {
	if o.expireLocked() {
		return domain.ErrWidgetTimeout
	}
	if o.session.Status != domain.PaymentStatusAwaitingWidget {
		return errors.Wrapf(domain.ErrIllegalTransition, "no payment widget is open (status %s)", o.session.Status)
	}
	return nil
}

// expireLocked force-fails an attempt whose widget outlived its deadline.
func (o *Orchestrator) expireLocked() bool {
	if o.session.Status != domain.PaymentStatusAwaitingWidget || o.session.WidgetDeadline.IsZero() {
		return false
	}
	if o.opts.Now().Before(o.session.WidgetDeadline) {
		return false
	}
	o.failLocked(domain.ErrWidgetTimeout)
	o.opts.Logger.WithFields(logrus.Fields{
		"session_id": o.opts.SessionID,
		"order_id":   o.session.OrderID,
	}).Warn("payment widget timed out")
	return true
}

func (o *Orchestrator) failLocked(cause error) {
	o.transitionLocked(domain.PaymentStatusFailed)
	o.session.Message = domain.GenericPaymentFailure
	o.session.WidgetDeadline = time.Time{}
	o.pending = append(o.pending, o.outcomeLocked(cause.Error()))
}

func (o *Orchestrator) resetLocked() {
	o.session = domain.PaymentSession{
		GatewayEnabled: o.session.GatewayEnabled,
		Status:         domain.PaymentStatusIdle,
	}
	o.items = 0
}

func (o *Orchestrator) transitionLocked(to domain.PaymentStatus) {
	if !domain.CanTransitionTo(o.session.Status, to) {
		// every caller checks the current status first
		panic(fmt.Sprintf("checkout: illegal transition %s -> %s", o.session.Status, to))
	}
	o.session.Status = to
}

func (o *Orchestrator) outcomeLocked(reason string) domain.CheckoutOutcome {
	return domain.CheckoutOutcome{
		SessionID: o.opts.SessionID,
		Status:    o.session.Status,
		OrderID:   o.session.OrderID,
		PaymentID: o.session.PaymentID,
		Amount:    o.session.Amount,
		Currency:  o.session.Currency,
		Items:     o.items,
		Reason:    reason,
		At:        o.opts.Now(),
	}
}

// unlockAndFlush releases mu and then delivers queued outcomes, so the
// notifier never runs under the lock.
func (o *Orchestrator) unlockAndFlush(ctx context.Context) {
	pending := o.pending
	o.pending = nil
	o.mu.Unlock()

	if o.opts.Notifier == nil {
		return
	}
	for _, outcome := range pending {
		if err := o.opts.Notifier.CheckoutFinished(context.WithoutCancel(ctx), outcome); err != nil {
			logger.FromContext(ctx, o.opts.Logger).WithError(err).
				WithField("order_id", outcome.OrderID).Error("failed to publish checkout outcome")
		}
	}
}
