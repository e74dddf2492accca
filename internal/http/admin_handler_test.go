package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/foodclub/internal/domain"
)

func (f *fixture) login(t *testing.T) {
	t.Helper()
	resp := f.call(t, http.MethodPost, "/api/v1/admin/login", LoginRequestDTO{Email: "chef@foodclub.test", Password: "secret"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminLogin_HidesToken(t *testing.T) {
	f := newFixture(t)

	var profile domain.AdminProfile
	resp := f.call(t, http.MethodPost, "/api/v1/admin/login", LoginRequestDTO{Email: "chef@foodclub.test", Password: "secret"}, &profile)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "chef@foodclub.test", profile.Email)
	assert.Empty(t, profile.Token)

	resp = f.call(t, http.MethodGet, "/api/v1/admin/me", nil, &profile)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, profile.Token)
}

func TestAdminLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)

	var errResp ErrorResponse
	resp := f.call(t, http.MethodPost, "/api/v1/admin/login", LoginRequestDTO{Email: "chef@foodclub.test", Password: "nope"}, &errResp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "login_failed", errResp.Code)
	assert.Equal(t, "Invalid credentials", errResp.Error)
}

func TestAdminRoutes_RequireLogin(t *testing.T) {
	f := newFixture(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/admin/me"},
		{http.MethodGet, "/api/v1/admin/categories"},
		{http.MethodPost, "/api/v1/admin/categories"},
		{http.MethodDelete, "/api/v1/admin/categories/1"},
		{http.MethodPost, "/api/v1/admin/menu-items"},
		{http.MethodGet, "/api/v1/admin/payment/config"},
		{http.MethodPost, "/api/v1/admin/payment/config"},
	}
	for _, p := range paths {
		resp := f.call(t, p.method, p.path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, p.path)
	}
}

func TestAdminLogout(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	resp := f.call(t, http.MethodPost, "/api/v1/admin/logout", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.call(t, http.MethodGet, "/api/v1/admin/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminCategories(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	var created domain.Category
	resp := f.call(t, http.MethodPost, "/api/v1/admin/categories", map[string]string{"name": " beverages "}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "BEVERAGES", created.Name)
	assert.Equal(t, "🍽️", created.Emoji)

	var errResp ErrorResponse
	resp = f.call(t, http.MethodPost, "/api/v1/admin/categories", map[string]string{"name": ""}, &errResp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", errResp.Code)

	var list []domain.Category
	resp = f.call(t, http.MethodGet, "/api/v1/admin/categories", nil, &list)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list, 1)

	resp = f.call(t, http.MethodDelete, "/api/v1/admin/categories/9", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = f.call(t, http.MethodDelete, "/api/v1/admin/categories/404", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminAddMenuItem_Multipart(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("itemName", "Veg Biryani"))
	require.NoError(t, mw.WriteField("description", "Fragrant rice"))
	require.NoError(t, mw.WriteField("price", "199.00"))
	require.NoError(t, mw.WriteField("category", "MAINS"))
	require.NoError(t, mw.WriteField("veg", "true"))
	part, err := mw.CreateFormFile("image", "biryani.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/v1/admin/menu-items", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := f.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	items, images, _ := f.admin.Snapshot()
	require.Len(t, items, 1)
	assert.Equal(t, "Veg Biryani", items[0].Name)
	assert.Equal(t, "199", items[0].Price.String())
	assert.True(t, items[0].Veg)
	assert.Equal(t, []string{"biryani.png"}, images)
}

func TestAdminAddMenuItem_BadPrice(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("itemName", "Soup"))
	require.NoError(t, mw.WriteField("price", "cheap"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/v1/admin/menu-items", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := f.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminPaymentConfig(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	var msg MessageResponseDTO
	resp := f.call(t, http.MethodPost, "/api/v1/admin/payment/config", domain.PaymentSettings{
		KeyID: "rzp_test_9", Enabled: true,
	}, &msg)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Payment config updated", msg.Message)

	var got PaymentConfigResponseDTO
	resp = f.call(t, http.MethodGet, "/api/v1/admin/payment/config", nil, &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "rzp_test_9", got.KeyID)
	assert.True(t, got.Configured)
	assert.True(t, got.Live)
}
