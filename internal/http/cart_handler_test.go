package http

import (
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/foodclub/internal/domain"
)

func TestGetCart_NewSessionIsEmpty(t *testing.T) {
	f := newFixture(t)

	var cart domain.CartState
	resp := f.call(t, http.MethodGet, "/api/v1/cart", nil, &cart)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.TotalAmount.IsZero())

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestAddItem_UsesCatalogPrice(t *testing.T) {
	f := newFixture(t)

	var cart domain.CartState
	resp := f.call(t, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"item_id": 1,
		"price":   1, // ignored
	}, &cart)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	f.call(t, http.MethodPost, "/api/v1/cart/items", map[string]string{"item_id": "1"}, &cart)
	f.call(t, http.MethodPost, "/api/v1/cart/items", map[string]string{"item_id": "3"}, &cart)

	require.Len(t, cart.Lines, 2)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.True(t, cart.Lines[0].LineTotal.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 3, cart.TotalQuantity)
	assert.True(t, cart.TotalAmount.Equal(decimal.NewFromInt(720)))
}

func TestAddItem_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{name: "missing item", body: map[string]string{}, wantStatus: http.StatusBadRequest, wantCode: "invalid_item_id"},
		{name: "unknown item", body: map[string]string{"item_id": "99"}, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "not json", body: "nope", wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			var errResp ErrorResponse
			resp := f.call(t, http.MethodPost, "/api/v1/cart/items", tt.body, &errResp)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCode, errResp.Code)
		})
	}
}

func TestRemoveItem_DecrementsAndIgnoresMissing(t *testing.T) {
	f := newFixture(t)
	f.call(t, http.MethodPost, "/api/v1/cart/items", map[string]string{"item_id": "2"}, nil)
	f.call(t, http.MethodPost, "/api/v1/cart/items", map[string]string{"item_id": "2"}, nil)

	var cart domain.CartState
	resp := f.call(t, http.MethodDelete, "/api/v1/cart/items/2", nil, &cart)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 1, cart.Lines[0].Quantity)

	resp = f.call(t, http.MethodDelete, "/api/v1/cart/items/42", nil, &cart)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, cart.TotalQuantity)
}

func TestClearCart(t *testing.T) {
	f := newFixture(t)
	f.call(t, http.MethodPost, "/api/v1/cart/items", map[string]string{"item_id": "3"}, nil)

	var cart domain.CartState
	resp := f.call(t, http.MethodDelete, "/api/v1/cart", nil, &cart)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, cart.IsEmpty())
}

func TestCart_SessionsAreSeparate(t *testing.T) {
	f := newFixture(t)
	f.call(t, http.MethodPost, "/api/v1/cart/items", map[string]string{"item_id": "3"}, nil)

	var other domain.CartState
	f.callWith(t, newCookieClient(t), http.MethodGet, "/api/v1/cart", nil, &other)
	assert.True(t, other.IsEmpty())
}

func TestCart_LockedWhileWidgetOpen(t *testing.T) {
	f := newFixture(t)
	f.call(t, http.MethodPost, "/api/v1/cart/items", map[string]string{"item_id": "3"}, nil)
	f.call(t, http.MethodGet, "/api/v1/checkout", nil, nil)
	resp := f.call(t, http.MethodPost, "/api/v1/checkout", nil, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var errResp ErrorResponse
	resp = f.call(t, http.MethodPost, "/api/v1/cart/items", map[string]string{"item_id": "1"}, &errResp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "checkout_in_progress", errResp.Code)

	resp = f.call(t, http.MethodDelete, "/api/v1/cart", nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAddItem_CheckoutStartedDuringCatalogLookup(t *testing.T) {
	f := newFixture(t)
	f.call(t, http.MethodPost, "/api/v1/cart/items", map[string]string{"item_id": "3"}, nil)
	f.call(t, http.MethodGet, "/api/v1/checkout", nil, nil)

	entered, release := f.menu.Block()

	type result struct {
		status int
		err    error
	}
	done := make(chan result, 1)
	go func() {
		req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/v1/cart/items", strings.NewReader(`{"item_id":"1"}`))
		if err != nil {
			done <- result{err: err}
			return
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := f.client.Do(req)
		if err != nil {
			done <- result{err: err}
			return
		}
		resp.Body.Close()
		done <- result{status: resp.StatusCode}
	}()

	<-entered
	resp := f.call(t, http.MethodPost, "/api/v1/checkout", nil, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	close(release)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, http.StatusConflict, res.status)

	amounts := f.gateway.Amounts()
	require.Len(t, amounts, 1)
	assert.True(t, amounts[0].Equal(decimal.NewFromInt(220)))

	var cart domain.CartState
	f.call(t, http.MethodGet, "/api/v1/cart", nil, &cart)
	require.Len(t, cart.Lines, 1)
	assert.True(t, cart.TotalAmount.Equal(decimal.NewFromInt(220)))
}
