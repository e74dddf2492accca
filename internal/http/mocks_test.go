package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/fjod/foodclub/internal/admin"
	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/gateway"
	"github.com/fjod/foodclub/internal/logger"
	"github.com/fjod/foodclub/internal/session"
)

type MockMenu struct {
	items []domain.MenuItem
	err   error

	mu      sync.Mutex
	entered chan struct{}
	release chan struct{}
}

// Block makes the next Get calls signal entered and wait for release.
func (m *MockMenu) Block() (entered chan struct{}, release chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entered = make(chan struct{}, 1)
	m.release = make(chan struct{})
	return m.entered, m.release
}

func (m *MockMenu) Menu(context.Context) ([]domain.MenuItem, error) {
	return m.items, m.err
}

func (m *MockMenu) Get(_ context.Context, id domain.ID) (domain.MenuItem, error) {
	m.mu.Lock()
	entered, release := m.entered, m.release
	m.mu.Unlock()
	if release != nil {
		entered <- struct{}{}
		<-release
	}
	if m.err != nil {
		return domain.MenuItem{}, m.err
	}
	for _, item := range m.items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.MenuItem{}, errors.Wrapf(domain.ErrItemNotFound, "item %s", id)
}

type MockGateway struct {
	mu        sync.Mutex
	enabled   bool
	createErr error
	verifyErr error
	amounts   []decimal.Decimal
}

func (m *MockGateway) FetchConfig(context.Context) gateway.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gateway.Config{Enabled: m.enabled}
}

func (m *MockGateway) SetEnabled(enabled bool) {
	m.mu.Lock()
	m.enabled = enabled
	m.mu.Unlock()
}

func (m *MockGateway) Amounts() []decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]decimal.Decimal(nil), m.amounts...)
}

func (m *MockGateway) CreateOrder(_ context.Context, amount decimal.Decimal) (gateway.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.amounts = append(m.amounts, amount)
	if m.createErr != nil {
		return gateway.Order{}, m.createErr
	}
	return gateway.Order{OrderID: "order_1", Amount: amount, Currency: "INR", KeyID: "rzp_test_1"}, nil
}

func (m *MockGateway) VerifyPayment(context.Context, domain.WidgetResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifyErr
}

type MockSignup struct {
	mu     sync.Mutex
	sentTo string
	err    error
}

func (m *MockSignup) SendOTP(_ context.Context, email string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentTo = strings.ToLower(email)
	return m.sentTo, nil
}

func (m *MockSignup) SentTo() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sentTo
}

func (m *MockSignup) VerifyOTP(_ context.Context, otp string) error {
	if len(otp) < 4 {
		return errors.Wrap(domain.ErrValidation, "otp too short")
	}
	return m.err
}

type MockAdmin struct {
	mu         sync.Mutex
	sessions   map[string]*domain.AdminProfile
	categories []domain.Category
	items      []admin.NewMenuItem
	images     []string
	settings   domain.PaymentSettings
	err        error
}

func newMockAdmin() *MockAdmin {
	return &MockAdmin{sessions: make(map[string]*domain.AdminProfile)}
}

func (m *MockAdmin) Current(_ context.Context, sessionID string) (*domain.AdminProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return p, nil
}

func (m *MockAdmin) Login(_ context.Context, sessionID, email, password string) (*domain.AdminProfile, error) {
	if password != "secret" {
		return nil, &admin.LoginError{Message: "Invalid credentials"}
	}
	p := &domain.AdminProfile{ID: "1", Email: email, Token: "tok-1"}
	m.mu.Lock()
	m.sessions[sessionID] = p
	m.mu.Unlock()
	return p, nil
}

func (m *MockAdmin) Logout(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}

func (m *MockAdmin) ListCategories(context.Context, *domain.AdminProfile) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.categories, m.err
}

func (m *MockAdmin) AddCategory(_ context.Context, _ *domain.AdminProfile, in admin.CategoryInput) (domain.Category, error) {
	in, err := in.Normalize()
	if err != nil {
		return domain.Category{}, err
	}
	c := domain.Category{ID: "9", Name: in.Name, DisplayName: in.DisplayName, Emoji: in.Emoji}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = append(m.categories, c)
	return c, nil
}

func (m *MockAdmin) DeleteCategory(_ context.Context, _ *domain.AdminProfile, id domain.ID) error {
	if id == "404" {
		return errors.Wrap(domain.ErrItemNotFound, "category")
	}
	return nil
}

func (m *MockAdmin) AddMenuItem(_ context.Context, _ *domain.AdminProfile, in admin.NewMenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.Image != nil {
		m.images = append(m.images, in.ImageName)
	}
	in.Image = nil
	m.items = append(m.items, in)
	return nil
}

func (m *MockAdmin) PaymentConfig(context.Context, *domain.AdminProfile) (domain.PaymentSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, m.err
}

func (m *MockAdmin) SavePaymentConfig(_ context.Context, _ *domain.AdminProfile, settings domain.PaymentSettings) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
	return "Payment config updated", nil
}

func (m *MockAdmin) Snapshot() ([]admin.NewMenuItem, []string, domain.PaymentSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]admin.NewMenuItem(nil), m.items...), append([]string(nil), m.images...), m.settings
}

type fixture struct {
	server   *httptest.Server
	client   *http.Client
	gateway  *MockGateway
	sessions *session.Manager
	menu     *MockMenu
	signup   *MockSignup
	admin    *MockAdmin
}

func sampleMenu() []domain.MenuItem {
	return []domain.MenuItem{
		{ID: "1", Name: "Paneer Tikka", Price: decimal.NewFromInt(250), Category: "Starters", Veg: true},
		{ID: "2", Name: "Chicken 65", Price: decimal.NewFromInt(300), Category: "Starters"},
		{ID: "3", Name: "Dal Makhani", Price: decimal.NewFromInt(220), Category: "Mains", Veg: true},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		gateway: &MockGateway{enabled: true},
		menu:    &MockMenu{items: sampleMenu()},
		signup:  &MockSignup{},
		admin:   newMockAdmin(),
	}
	log := logger.Discard()
	f.sessions = session.NewManager(f.gateway, session.Options{Logger: log})
	t.Cleanup(func() { _ = f.sessions.Close() })

	timeout := 5 * time.Second
	router := NewRouter(RouterConfig{RequestTimeout: timeout, MaxRequestBodySize: 1 << 20}, Handlers{
		Menu:     NewMenuHandler(f.menu, timeout, log),
		Cart:     NewCartHandler(f.sessions, f.menu, timeout, log),
		Checkout: NewCheckoutHandler(f.sessions, timeout, log),
		Signup:   NewSignupHandler(f.signup, timeout, log),
		Admin:    NewAdminHandler(f.admin, timeout, log),
		Auth:     f.admin,
	}, log)

	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)
	f.client = newCookieClient(t)
	return f
}
