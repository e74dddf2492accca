package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjod/foodclub/internal/logger"
)

type SignupService interface {
	SendOTP(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, otp string) error
}

type SignupHandler struct {
	signup  SignupService
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewSignupHandler(signup SignupService, timeout time.Duration, log logrus.FieldLogger) *SignupHandler {
	return &SignupHandler{
		signup:  signup,
		timeout: timeout,
		log:     log,
	}
}

type SendOTPRequestDTO struct {
	Email string `json:"email"`
}

type VerifyOTPRequestDTO struct {
	OTP string `json:"otp"`
}

type SignupResponseDTO struct {
	Email    string `json:"email,omitempty"`
	Verified bool   `json:"verified,omitempty"`
}

// POST /api/v1/signup/otp
func (h *SignupHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SendOTPRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	email, err := h.signup.SendOTP(ctx, req.Email)
	if err != nil {
		handleError(w, logger.FromContext(r.Context(), h.log), err)
		return
	}
	respondJSON(w, http.StatusAccepted, SignupResponseDTO{Email: email})
}

// POST /api/v1/signup/otp/verify
func (h *SignupHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req VerifyOTPRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.signup.VerifyOTP(ctx, req.OTP); err != nil {
		handleError(w, logger.FromContext(r.Context(), h.log), err)
		return
	}
	respondJSON(w, http.StatusOK, SignupResponseDTO{Verified: true})
}
