package http

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjod/foodclub/internal/catalog"
	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/logger"
)

type MenuSource interface {
	Menu(ctx context.Context) ([]domain.MenuItem, error)
	Get(ctx context.Context, id domain.ID) (domain.MenuItem, error)
}

type MenuHandler struct {
	menu    MenuSource
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewMenuHandler(menu MenuSource, timeout time.Duration, log logrus.FieldLogger) *MenuHandler {
	return &MenuHandler{
		menu:    menu,
		timeout: timeout,
		log:     log,
	}
}

type MenuResponseDTO struct {
	Items      []domain.MenuItem `json:"items"`
	Categories []string          `json:"categories"`
}

// GET /api/v1/menu?category=&diet=&search=
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	diet, ok := catalog.ParseDiet(q.Get("diet"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_diet", "diet must be one of all, veg, non-veg")
		return
	}

	items, err := h.menu.Menu(ctx)
	if err != nil {
		handleError(w, logger.FromContext(r.Context(), h.log), err)
		return
	}

	respondJSON(w, http.StatusOK, MenuResponseDTO{
		Items: catalog.Filter(items, catalog.Query{
			Category: q.Get("category"),
			Diet:     diet,
			Search:   q.Get("search"),
		}),
		Categories: catalog.Categories(items),
	})
}

// GET /api/v1/menu/categories
func (h *MenuHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.menu.Menu(ctx)
	if err != nil {
		handleError(w, logger.FromContext(r.Context(), h.log), err)
		return
	}
	respondJSON(w, http.StatusOK, catalog.Categories(items))
}
