package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/fjod/foodclub/internal/admin"
	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/restapi"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// errorStatus converts an error from the service layer to an HTTP status,
// an error code and the message safe to show in the browser.
func errorStatus(err error) (int, string, string) {
	var le *admin.LoginError
	if errors.As(err, &le) {
		return http.StatusUnauthorized, "login_failed", le.Message
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "admin login required"
	case errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusConflict, "empty_cart", domain.ErrEmptyCart.Error()
	case errors.Is(err, domain.ErrGatewayDisabled):
		return http.StatusConflict, "gateway_disabled", domain.ErrGatewayDisabled.Error()
	case errors.Is(err, domain.ErrCartLocked):
		return http.StatusConflict, "checkout_in_progress", domain.ErrCartLocked.Error()
	case errors.Is(err, domain.ErrIllegalTransition):
		return http.StatusConflict, "illegal_transition", err.Error()
	case errors.Is(err, domain.ErrWidgetTimeout):
		return http.StatusConflict, "widget_timeout", domain.GenericPaymentFailure
	case errors.Is(err, domain.ErrOrderCreation):
		return http.StatusBadGateway, "order_creation_failed", domain.GenericPaymentFailure
	case errors.Is(err, domain.ErrVerification):
		return http.StatusBadGateway, "verification_failed", domain.GenericPaymentFailure
	case errors.Is(err, domain.ErrWidgetFailure):
		return http.StatusBadGateway, "widget_failed", domain.GenericPaymentFailure
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable, "service_unavailable", "restaurant service is temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout", "restaurant service timed out"
	}

	var se *restapi.StatusError
	if errors.As(err, &se) {
		if se.StatusCode >= 400 && se.StatusCode < 500 {
			return se.StatusCode, "upstream_rejected", se.Message
		}
		return http.StatusBadGateway, "upstream_error", "restaurant service error"
	}
	return http.StatusInternalServerError, "internal_error", "internal server error"
}

func handleError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	status, code, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("status", status).Error("request failed")
	} else {
		log.WithError(err).WithField("status", status).Debug("request rejected")
	}
	respondError(w, status, code, msg)
}
