package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/foodclub/internal/domain"
)

// MemoryCache is used when no Redis address is configured. Entries expire
// lazily on read.
type MemoryCache struct {
	mu       sync.RWMutex
	menuTTL  time.Duration
	adminTTL time.Duration
	now      func() time.Time

	menu        []domain.MenuItem
	menuExpires time.Time
	admins      map[string]adminEntry
}

type adminEntry struct {
	profile domain.AdminProfile
	expires time.Time
}

func NewMemoryCache(menuTTL, adminTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		menuTTL:  menuTTL,
		adminTTL: adminTTL,
		now:      time.Now,
		admins:   make(map[string]adminEntry),
	}
}

func (m *MemoryCache) GetMenu(context.Context) ([]domain.MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.menu == nil || !m.now().Before(m.menuExpires) {
		return nil, ErrCacheMiss
	}
	items := make([]domain.MenuItem, len(m.menu))
	copy(items, m.menu)
	return items, nil
}

func (m *MemoryCache) SetMenu(_ context.Context, items []domain.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.menu = make([]domain.MenuItem, len(items))
	copy(m.menu, items)
	m.menuExpires = m.now().Add(m.menuTTL)
	return nil
}

func (m *MemoryCache) DeleteMenu(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.menu = nil
	return nil
}

func (m *MemoryCache) GetAdmin(_ context.Context, sessionID string) (*domain.AdminProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.admins[sessionID]
	if !ok || !m.now().Before(entry.expires) {
		return nil, ErrCacheMiss
	}
	profile := entry.profile
	return &profile, nil
}

func (m *MemoryCache) SetAdmin(_ context.Context, sessionID string, profile *domain.AdminProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.admins[sessionID] = adminEntry{profile: *profile, expires: m.now().Add(m.adminTTL)}
	return nil
}

func (m *MemoryCache) DeleteAdmin(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.admins, sessionID)
	return nil
}
