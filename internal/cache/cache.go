package cache

import (
	"context"
	"errors"

	"github.com/fjod/foodclub/internal/domain"
)

// MenuCache holds the restaurant menu between API reads.
type MenuCache interface {
	GetMenu(ctx context.Context) ([]domain.MenuItem, error)
	SetMenu(ctx context.Context, items []domain.MenuItem) error
	DeleteMenu(ctx context.Context) error
}

// AdminSessionCache maps a browser session to the employee logged in on it.
type AdminSessionCache interface {
	GetAdmin(ctx context.Context, sessionID string) (*domain.AdminProfile, error)
	SetAdmin(ctx context.Context, sessionID string, profile *domain.AdminProfile) error
	DeleteAdmin(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")
