// Package gateway talks to the payment endpoints of the restaurant API.
// It keeps no state between calls.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/logger"
	"github.com/fjod/foodclub/internal/restapi"
)

type Doer interface {
	Do(ctx context.Context, req restapi.Request, out interface{}) (*restapi.Envelope, error)
}

type Config struct {
	Enabled bool `json:"enabled"`
}

// Order is the gateway order created for one checkout attempt.
type Order struct {
	OrderID  string          `json:"orderId"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	KeyID    string          `json:"keyId"`
}

type createOrderRequest struct {
	Amount json.Number `json:"amount"`
}

type verifyResult struct {
	Verified *bool `json:"verified,omitempty"`
}

type Client struct {
	api Doer
	log logrus.FieldLogger
}

func NewClient(api Doer, log logrus.FieldLogger) *Client {
	return &Client{api: api, log: log}
}

// FetchConfig never fails: an unreachable or broken config endpoint means the
// gateway is treated as disabled and the shopper pays at the counter.
func (c *Client) FetchConfig(ctx context.Context) Config {
	var cfg Config
	_, err := c.api.Do(ctx, restapi.Request{Method: http.MethodGet, Path: "/payment/config"}, &cfg)
	if err != nil {
		logger.FromContext(ctx, c.log).
			WithError(errors.Wrap(domain.ErrConfigFetch, err.Error())).
			Warn("payment config fetch failed, falling back to pay at counter")
		return Config{Enabled: false}
	}
	return cfg
}

func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal) (Order, error) {
	var order Order
	_, err := c.api.Do(ctx, restapi.Request{
		Method: http.MethodPost,
		Path:   "/payment/create-order",
		Body:   createOrderRequest{Amount: json.Number(amount.String())},
	}, &order)
	if err != nil {
		return Order{}, errors.Wrap(domain.ErrOrderCreation, err.Error())
	}
	if order.OrderID == "" {
		return Order{}, errors.Wrap(domain.ErrOrderCreation, "response carried no order id")
	}
	return order, nil
}

// VerifyPayment asks the server whether the widget's callback is authentic.
// It is the only thing allowed to declare a payment successful.
func (c *Client) VerifyPayment(ctx context.Context, result domain.WidgetResult) error {
	var out verifyResult
	env, err := c.api.Do(ctx, restapi.Request{
		Method: http.MethodPost,
		Path:   "/payment/verify",
		Body:   result,
	}, &out)
	if err != nil {
		return errors.Wrap(domain.ErrVerification, err.Error())
	}
	if !env.Succeeded() || (out.Verified != nil && !*out.Verified) {
		return errors.Wrapf(domain.ErrVerification, "server rejected payment %s", result.PaymentID)
	}
	return nil
}
