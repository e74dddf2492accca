package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/logger"
	"github.com/fjod/foodclub/internal/restapi"
)

const maskedSecret = "********"

// PaymentConfig returns the gateway settings with the secret masked.
func (s *Service) PaymentConfig(ctx context.Context, profile *domain.AdminProfile) (domain.PaymentSettings, error) {
	var settings domain.PaymentSettings
	if _, err := s.api.Do(ctx, restapi.Request{
		Method: http.MethodGet,
		Path:   "/payment/config",
		Header: authHeader(profile),
	}, &settings); err != nil {
		return domain.PaymentSettings{}, errors.Wrap(err, "could not load payment config")
	}
	if settings.KeySecret != "" {
		settings.KeySecret = maskedSecret
	}
	return settings, nil
}

// SavePaymentConfig stores new settings and returns the server's message.
// An empty or masked secret is left out so the stored one is kept.
func (s *Service) SavePaymentConfig(ctx context.Context, profile *domain.AdminProfile, settings domain.PaymentSettings) (string, error) {
	settings.KeyID = strings.TrimSpace(settings.KeyID)
	settings.KeySecret = strings.TrimSpace(settings.KeySecret)
	if settings.KeySecret == maskedSecret {
		settings.KeySecret = ""
	}
	if settings.Enabled && !settings.Configured() {
		return "", errors.Wrap(domain.ErrValidation, "enabling payments requires an rzp_ key id")
	}

	env, err := s.api.Do(ctx, restapi.Request{
		Method: http.MethodPost,
		Path:   "/payment/config",
		Header: authHeader(profile),
		Body:   settings,
	}, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to save payment config")
	}

	logger.FromContext(ctx, s.log).WithField("enabled", settings.Enabled).Info("payment config saved")
	if env.Message == "" {
		return "Settings saved!", nil
	}
	return env.Message, nil
}
