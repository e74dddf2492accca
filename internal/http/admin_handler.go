package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fjod/foodclub/internal/admin"
	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/logger"
)

const maxImageMemory = 8 << 20 // 8MB

type AdminService interface {
	AdminAuthenticator
	Login(ctx context.Context, sessionID, email, password string) (*domain.AdminProfile, error)
	Logout(ctx context.Context, sessionID string) error
	ListCategories(ctx context.Context, profile *domain.AdminProfile) ([]domain.Category, error)
	AddCategory(ctx context.Context, profile *domain.AdminProfile, in admin.CategoryInput) (domain.Category, error)
	DeleteCategory(ctx context.Context, profile *domain.AdminProfile, id domain.ID) error
	AddMenuItem(ctx context.Context, profile *domain.AdminProfile, in admin.NewMenuItem) error
	PaymentConfig(ctx context.Context, profile *domain.AdminProfile) (domain.PaymentSettings, error)
	SavePaymentConfig(ctx context.Context, profile *domain.AdminProfile, settings domain.PaymentSettings) (string, error)
}

type AdminHandler struct {
	admin   AdminService
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewAdminHandler(svc AdminService, timeout time.Duration, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{
		admin:   svc,
		timeout: timeout,
		log:     log,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type MessageResponseDTO struct {
	Message string `json:"message"`
}

type PaymentConfigResponseDTO struct {
	domain.PaymentSettings
	Configured bool `json:"configured"`
	Live       bool `json:"live"`
}

// POST /api/v1/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	profile, err := h.admin.Login(ctx, getSessionID(r.Context()), req.Email, req.Password)
	if err != nil {
		handleError(w, logger.FromContext(r.Context(), h.log), err)
		return
	}
	respondJSON(w, http.StatusOK, publicProfile(profile))
}

// POST /api/v1/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.Logout(r.Context(), getSessionID(r.Context())); err != nil {
		handleError(w, logger.FromContext(r.Context(), h.log), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/admin/me
func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, publicProfile(getAdminProfile(r.Context())))
}

// GET /api/v1/admin/categories
func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.admin.ListCategories(ctx, getAdminProfile(r.Context()))
	if err != nil {
		handleError(w, logger.FromContext(r.Context(), h.log), err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// POST /api/v1/admin/categories
func (h *AdminHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req admin.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	created, err := h.admin.AddCategory(ctx, getAdminProfile(r.Context()), req)
	if err != nil {
		handleError(w, logger.FromContext(r.Context(), h.log), err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// DELETE /api/v1/admin/categories/{id}
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := domain.ID(chi.URLParam(r, "id"))
	if err := h.admin.DeleteCategory(ctx, getAdminProfile(r.Context()), id); err != nil {
		handleError(w, logger.FromContext(r.Context(), h.log), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/admin/menu-items (multipart/form-data)
func (h *AdminHandler) AddMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := r.ParseMultipartForm(maxImageMemory); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid multipart form")
		return
	}

	price, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("price")))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must be a number")
		return
	}
	veg, err := strconv.ParseBool(defaultString(r.FormValue("veg"), "false"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_veg", "veg must be true or false")
		return
	}

	in := admin.NewMenuItem{
		Name:        r.FormValue("itemName"),
		Description: r.FormValue("description"),
		Price:       price,
		Category:    r.FormValue("category"),
		Veg:         veg,
	}
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		in.Image = file
		in.ImageName = header.Filename
	} else if err != http.ErrMissingFile {
		respondError(w, http.StatusBadRequest, "invalid_image", "image could not be read")
		return
	}

	if err := h.admin.AddMenuItem(ctx, getAdminProfile(r.Context()), in); err != nil {
		handleError(w, logger.FromContext(r.Context(), h.log), err)
		return
	}
	respondJSON(w, http.StatusCreated, MessageResponseDTO{Message: "Food item added successfully!"})
}

// GET /api/v1/admin/payment/config
func (h *AdminHandler) PaymentConfig(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	settings, err := h.admin.PaymentConfig(ctx, getAdminProfile(r.Context()))
	if err != nil {
		handleError(w, logger.FromContext(r.Context(), h.log), err)
		return
	}
	respondJSON(w, http.StatusOK, PaymentConfigResponseDTO{
		PaymentSettings: settings,
		Configured:      settings.Configured(),
		Live:            settings.Live(),
	})
}

// POST /api/v1/admin/payment/config
func (h *AdminHandler) SavePaymentConfig(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.PaymentSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	msg, err := h.admin.SavePaymentConfig(ctx, getAdminProfile(r.Context()), req)
	if err != nil {
		handleError(w, logger.FromContext(r.Context(), h.log), err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponseDTO{Message: msg})
}

// publicProfile strips the API token before the profile reaches the browser.
func publicProfile(p *domain.AdminProfile) domain.AdminProfile {
	if p == nil {
		return domain.AdminProfile{}
	}
	out := *p
	out.Token = ""
	return out
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
