package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/gateway"
)

// MockGateway implements Gateway for testing
type MockGateway struct {
	mu sync.Mutex

	Config    gateway.Config
	Order     gateway.Order
	CreateErr error
	VerifyErr error
	// CreateBlock, when set, is received from before CreateOrder returns.
	CreateBlock chan struct{}

	CreateCalls   int
	CreateAmounts []decimal.Decimal
	CreateCtxErr  error
	VerifyCalls   []domain.WidgetResult
}

func (m *MockGateway) FetchConfig(context.Context) gateway.Config {
	return m.Config
}

func (m *MockGateway) CreateOrder(ctx context.Context, amount decimal.Decimal) (gateway.Order, error) {
	if m.CreateBlock != nil {
		<-m.CreateBlock
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	m.CreateAmounts = append(m.CreateAmounts, amount)
	m.CreateCtxErr = ctx.Err()
	if m.CreateErr != nil {
		return gateway.Order{}, m.CreateErr
	}
	return m.Order, nil
}

func (m *MockGateway) VerifyPayment(_ context.Context, result domain.WidgetResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VerifyCalls = append(m.VerifyCalls, result)
	return m.VerifyErr
}

// MockWidget records the options it was opened with
type MockWidget struct {
	Opened []WidgetOptions
	Err    error
}

func (w *MockWidget) Open(_ context.Context, opts WidgetOptions) error {
	if w.Err != nil {
		return w.Err
	}
	w.Opened = append(w.Opened, opts)
	return nil
}

type MockNotifier struct {
	mu       sync.Mutex
	Outcomes []domain.CheckoutOutcome
	Err      error
}

func (n *MockNotifier) CheckoutFinished(_ context.Context, outcome domain.CheckoutOutcome) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Outcomes = append(n.Outcomes, outcome)
	return n.Err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errUpstream = errors.New("upstream unavailable")
