package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/logger"
	"github.com/fjod/foodclub/internal/session"
)

type SessionStore interface {
	GetOrCreate(id string) *session.Session
}

type CartHandler struct {
	sessions SessionStore
	menu     MenuSource
	timeout  time.Duration
	log      logrus.FieldLogger
}

func NewCartHandler(sessions SessionStore, menu MenuSource, timeout time.Duration, log logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		menu:     menu,
		timeout:  timeout,
		log:      log,
	}
}

type AddItemRequestDTO struct {
	ItemID domain.ID `json:"item_id"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.GetOrCreate(getSessionID(r.Context()))
	respondJSON(w, http.StatusOK, s.Cart.Snapshot())
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(string(req.ItemID)) == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}

	s := h.sessions.GetOrCreate(getSessionID(r.Context()))
	log := logger.FromContext(r.Context(), h.log)

	// price comes from the catalog, never from the browser
	item, err := h.menu.Get(ctx, req.ItemID)
	if err != nil {
		handleError(w, log, err)
		return
	}

	// a checkout may have started while the catalog was answering
	if err := s.Checkout.EditCart(ctx, func() { s.Cart.AddItem(item) }); err != nil {
		handleError(w, log, err)
		return
	}
	respondJSON(w, http.StatusCreated, s.Cart.Snapshot())
}

// DELETE /api/v1/cart/items/{item_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := domain.ID(chi.URLParam(r, "item_id"))
	if strings.TrimSpace(string(itemID)) == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}

	s := h.sessions.GetOrCreate(getSessionID(r.Context()))
	if err := s.Checkout.EditCart(r.Context(), func() { s.Cart.RemoveItem(itemID) }); err != nil {
		handleError(w, logger.FromContext(r.Context(), h.log), err)
		return
	}
	respondJSON(w, http.StatusOK, s.Cart.Snapshot())
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.GetOrCreate(getSessionID(r.Context()))
	if err := s.Checkout.EditCart(r.Context(), s.Cart.Clear); err != nil {
		handleError(w, logger.FromContext(r.Context(), h.log), err)
		return
	}
	respondJSON(w, http.StatusOK, s.Cart.Snapshot())
}
