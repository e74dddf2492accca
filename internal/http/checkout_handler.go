package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fjod/foodclub/internal/checkout"
	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/logger"
)

type CheckoutHandler struct {
	sessions SessionStore
	timeout  time.Duration
	log      logrus.FieldLogger
}

func NewCheckoutHandler(sessions SessionStore, timeout time.Duration, log logrus.FieldLogger) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		timeout:  timeout,
		log:      log,
	}
}

type CheckoutResponseDTO struct {
	Offer   domain.Offer            `json:"offer,omitempty"`
	Session domain.PaymentSession   `json:"session"`
	Widget  *checkout.WidgetOptions `json:"widget,omitempty"`
	Error   *ErrorResponse          `json:"error,omitempty"`
}

type WidgetFailureRequestDTO struct {
	Reason string `json:"reason"`
}

// browserWidget hands the widget options back to the page, which opens the
// payment UI itself and reports through the widget endpoints.
type browserWidget struct {
	opts *checkout.WidgetOptions
}

func (b *browserWidget) Open(_ context.Context, opts checkout.WidgetOptions) error {
	b.opts = &opts
	return nil
}

// GET /api/v1/checkout
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s := h.sessions.GetOrCreate(getSessionID(r.Context()))
	offer := s.Checkout.LoadConfig(ctx)
	respondJSON(w, http.StatusOK, CheckoutResponseDTO{
		Offer:   offer,
		Session: s.Checkout.Session(ctx),
	})
}

// POST /api/v1/checkout
func (h *CheckoutHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.GetOrCreate(getSessionID(r.Context()))
	widget := &browserWidget{}

	session, err := s.Checkout.Start(r.Context(), widget)
	if err != nil {
		h.respondAttempt(w, r, session, err)
		return
	}
	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		Session: session,
		Widget:  widget.opts,
	})
}

// POST /api/v1/checkout/widget/success
func (h *CheckoutHandler) WidgetSuccess(w http.ResponseWriter, r *http.Request) {
	var req domain.WidgetResult
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	s := h.sessions.GetOrCreate(getSessionID(r.Context()))
	session, err := s.Checkout.WidgetSucceeded(r.Context(), req)
	if err != nil {
		h.respondAttempt(w, r, session, err)
		return
	}
	respondJSON(w, http.StatusOK, CheckoutResponseDTO{Session: session})
}

// POST /api/v1/checkout/widget/failure
func (h *CheckoutHandler) WidgetFailure(w http.ResponseWriter, r *http.Request) {
	var req WidgetFailureRequestDTO
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	s := h.sessions.GetOrCreate(getSessionID(r.Context()))
	session, err := s.Checkout.WidgetFailed(r.Context(), req.Reason)
	if err != nil && !errors.Is(err, domain.ErrWidgetFailure) {
		h.respondAttempt(w, r, session, err)
		return
	}
	// the widget's own failure report was accepted
	respondJSON(w, http.StatusOK, CheckoutResponseDTO{Session: session})
}

// POST /api/v1/checkout/widget/dismiss
func (h *CheckoutHandler) WidgetDismiss(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.GetOrCreate(getSessionID(r.Context()))
	session, err := s.Checkout.WidgetDismissed(r.Context())
	if err != nil {
		h.respondAttempt(w, r, session, err)
		return
	}
	respondJSON(w, http.StatusOK, CheckoutResponseDTO{Session: session})
}

// POST /api/v1/checkout/ack
func (h *CheckoutHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.GetOrCreate(getSessionID(r.Context()))
	session, err := s.Checkout.Acknowledge(r.Context())
	if err != nil {
		h.respondAttempt(w, r, session, err)
		return
	}
	respondJSON(w, http.StatusOK, CheckoutResponseDTO{Session: session})
}

// respondAttempt reports a refused or failed attempt together with the
// session, so the page can render the current state.
func (h *CheckoutHandler) respondAttempt(w http.ResponseWriter, r *http.Request, session domain.PaymentSession, err error) {
	status, code, msg := errorStatus(err)
	log := logger.FromContext(r.Context(), h.log).WithError(err).WithField("status", session.Status)
	if status >= http.StatusInternalServerError {
		log.Warn("checkout attempt failed")
	} else {
		log.Debug("checkout request refused")
	}
	respondJSON(w, status, CheckoutResponseDTO{
		Session: session,
		Error:   &ErrorResponse{Error: msg, Code: code},
	})
}
