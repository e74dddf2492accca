// Package admin is the employee console: login, categories, menu items and
// payment settings. Every call after login carries the employee's token.
package admin

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fjod/foodclub/internal/cache"
	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/logger"
	"github.com/fjod/foodclub/internal/restapi"
)

const loginFailedMessage = "Login failed. Please check your credentials."

type Doer interface {
	Do(ctx context.Context, req restapi.Request, out interface{}) (*restapi.Envelope, error)
}

// MenuInvalidator drops cached menu data after a menu change.
type MenuInvalidator interface {
	Invalidate(ctx context.Context)
}

// LoginError carries the message shown to the employee on a rejected login.
type LoginError struct {
	Message string
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return domain.ErrUnauthorized }

type Service struct {
	api      Doer
	sessions cache.AdminSessionCache
	menu     MenuInvalidator
	log      logrus.FieldLogger
}

func NewService(api Doer, sessions cache.AdminSessionCache, menu MenuInvalidator, log logrus.FieldLogger) *Service {
	return &Service{
		api:      api,
		sessions: sessions,
		menu:     menu,
		log:      log,
	}
}

// Login authenticates against the restaurant API and binds the employee to
// sessionID.
func (s *Service) Login(ctx context.Context, sessionID, email, password string) (*domain.AdminProfile, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.Wrap(domain.ErrValidation, "email and password are required")
	}

	log := logger.FromContext(ctx, s.log)

	var profile domain.AdminProfile
	env, err := s.api.Do(ctx, restapi.Request{
		Method: http.MethodPost,
		Path:   "/employee/login",
		Query:  url.Values{"email": {email}, "password": {password}},
		// the API takes the password in the query string
		Sensitive: true,
	}, &profile)
	if err != nil {
		log.WithError(err).Info("admin login rejected")
		return nil, &LoginError{Message: loginMessage(err)}
	}
	if env.StatusCode != http.StatusOK {
		msg := env.Message
		if msg == "" {
			msg = loginFailedMessage
		}
		log.WithField("status_code", env.StatusCode).Info("admin login rejected")
		return nil, &LoginError{Message: msg}
	}
	if profile.Email == "" {
		profile.Email = email
	}

	if err := s.sessions.SetAdmin(ctx, sessionID, &profile); err != nil {
		return nil, errors.Wrap(err, "failed to store admin session")
	}
	log.WithField("admin_id", profile.ID).Info("admin logged in")
	return &profile, nil
}

func loginMessage(err error) string {
	var se *restapi.StatusError
	if errors.As(err, &se) && se.Message != "" && se.Message != http.StatusText(se.StatusCode) {
		return se.Message
	}
	return loginFailedMessage
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.DeleteAdmin(ctx, sessionID)
}

// Current returns the employee logged in on sessionID, or ErrUnauthorized.
func (s *Service) Current(ctx context.Context, sessionID string) (*domain.AdminProfile, error) {
	profile, err := s.sessions.GetAdmin(ctx, sessionID)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load admin session")
	}
	return profile, nil
}

func authHeader(profile *domain.AdminProfile) http.Header {
	h := http.Header{}
	if profile != nil && profile.Token != "" {
		h.Set("Authorization", "Bearer "+profile.Token)
	}
	return h
}
