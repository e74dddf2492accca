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

const defaultCategoryEmoji = "🍽️"

type CategoryInput struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Emoji       string `json:"emoji"`
}

// Normalize upper-cases the name and fills display name and emoji defaults.
func (in CategoryInput) Normalize() (CategoryInput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return CategoryInput{}, errors.Wrap(domain.ErrValidation, "category name is required")
	}
	out := CategoryInput{
		Name:        strings.ToUpper(name),
		DisplayName: strings.TrimSpace(in.DisplayName),
		Emoji:       strings.TrimSpace(in.Emoji),
	}
	if out.DisplayName == "" {
		out.DisplayName = name
	}
	if out.Emoji == "" {
		out.Emoji = defaultCategoryEmoji
	}
	return out, nil
}

func (s *Service) ListCategories(ctx context.Context, profile *domain.AdminProfile) ([]domain.Category, error) {
	categories := []domain.Category{}
	if _, err := s.api.Do(ctx, restapi.Request{
		Method: http.MethodGet,
		Path:   "/categories",
		Header: authHeader(profile),
		Bare:   true,
	}, &categories); err != nil {
		return nil, errors.Wrap(err, "failed to fetch categories")
	}
	return categories, nil
}

func (s *Service) AddCategory(ctx context.Context, profile *domain.AdminProfile, in CategoryInput) (domain.Category, error) {
	in, err := in.Normalize()
	if err != nil {
		return domain.Category{}, err
	}

	var created domain.Category
	if _, err := s.api.Do(ctx, restapi.Request{
		Method: http.MethodPost,
		Path:   "/categories",
		Header: authHeader(profile),
		Body:   in,
		Bare:   true,
	}, &created); err != nil {
		return domain.Category{}, errors.Wrap(err, "failed to add category")
	}
	if created.Name == "" {
		created = domain.Category{Name: in.Name, DisplayName: in.DisplayName, Emoji: in.Emoji}
	}

	logger.FromContext(ctx, s.log).WithField("category", created.Name).Info("category added")
	return created, nil
}

func (s *Service) DeleteCategory(ctx context.Context, profile *domain.AdminProfile, id domain.ID) error {
	if strings.TrimSpace(string(id)) == "" {
		return errors.Wrap(domain.ErrValidation, "category id is required")
	}
	if _, err := s.api.Do(ctx, restapi.Request{
		Method: http.MethodDelete,
		Path:   "/categories/" + string(id),
		Header: authHeader(profile),
		Bare:   true,
	}, nil); err != nil {
		return errors.Wrapf(err, "failed to delete category %s", id)
	}

	logger.FromContext(ctx, s.log).WithField("category_id", id).Info("category deleted")
	return nil
}
