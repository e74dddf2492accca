package admin

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/logger"
	"github.com/fjod/foodclub/internal/restapi"
)

type NewMenuItem struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Veg         bool
	// Image is optional. ImageName is the uploaded file name.
	Image     io.Reader
	ImageName string
}

func (in NewMenuItem) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return errors.Wrap(domain.ErrValidation, "item name is required")
	case strings.TrimSpace(in.Category) == "":
		return errors.Wrap(domain.ErrValidation, "category is required")
	case in.Price.IsNegative():
		return errors.Wrap(domain.ErrValidation, "price must not be negative")
	}
	return nil
}

// AddMenuItem creates a dish. Fields travel in the query string and the
// picture as the multipart "image" part.
func (s *Service) AddMenuItem(ctx context.Context, profile *domain.AdminProfile, in NewMenuItem) error {
	if err := in.validate(); err != nil {
		return err
	}

	req := restapi.Request{
		Method: http.MethodPost,
		Path:   "/menu-items",
		Header: authHeader(profile),
		Query: url.Values{
			"itemName":    {strings.TrimSpace(in.Name)},
			"description": {strings.TrimSpace(in.Description)},
			"price":       {in.Price.String()},
			"category":    {strings.TrimSpace(in.Category)},
			"veg":         {strconv.FormatBool(in.Veg)},
		},
	}

	if in.Image != nil {
		body, contentType, err := imageBody(in.Image, in.ImageName)
		if err != nil {
			return err
		}
		req.RawBody = body
		req.ContentType = contentType
	}

	if _, err := s.api.Do(ctx, req, nil); err != nil {
		return errors.Wrap(err, "failed to add menu item")
	}

	s.menu.Invalidate(ctx)
	logger.FromContext(ctx, s.log).WithField("item", in.Name).Info("menu item added")
	return nil
}

func imageBody(image io.Reader, name string) (io.Reader, string, error) {
	if name == "" {
		name = "image"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", name)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to create image part")
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, "", errors.Wrap(err, "failed to read image")
	}
	if err := mw.Close(); err != nil {
		return nil, "", errors.Wrap(err, "failed to finish multipart body")
	}
	return &buf, mw.FormDataContentType(), nil
}
