// Package signup drives the one-time-password sign-up flow.
package signup

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/logger"
	"github.com/fjod/foodclub/internal/restapi"
)

const minOTPLength = 4

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

type Doer interface {
	Do(ctx context.Context, req restapi.Request, out interface{}) (*restapi.Envelope, error)
}

type Service struct {
	api Doer
	log logrus.FieldLogger
}

func NewService(api Doer, log logrus.FieldLogger) *Service {
	return &Service{api: api, log: log}
}

// NormalizeEmail lower-cases and validates an address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return "", errors.Wrapf(domain.ErrValidation, "invalid email %q", email)
	}
	return email, nil
}

// SendOTP asks the restaurant API to mail a code to email. Returns the
// normalized address the code was sent to.
func (s *Service) SendOTP(ctx context.Context, email string) (string, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return "", err
	}

	if _, err := s.api.Do(ctx, restapi.Request{
		Method: http.MethodPost,
		Path:   "/otp/send",
		Query:  url.Values{"to": {email}},
	}, nil); err != nil {
		return "", errors.Wrap(err, "failed to send otp")
	}

	logger.FromContext(ctx, s.log).Info("otp sent")
	return email, nil
}

func (s *Service) VerifyOTP(ctx context.Context, otp string) error {
	otp = strings.TrimSpace(otp)
	if len(otp) < minOTPLength {
		return errors.Wrapf(domain.ErrValidation, "otp must be at least %d characters", minOTPLength)
	}

	env, err := s.api.Do(ctx, restapi.Request{
		Method: http.MethodPost,
		Path:   "/otp/verify",
		Query:  url.Values{"otpValue": {otp}},
	}, nil)
	if err != nil {
		return errors.Wrap(err, "failed to verify otp")
	}
	if !env.Succeeded() {
		return errors.Wrapf(domain.ErrValidation, "otp rejected: %s", env.Message)
	}
	return nil
}
