package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	CookieSecure       bool
}

type Handlers struct {
	Menu     *MenuHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Signup   *SignupHandler
	Admin    *AdminHandler
	Auth     AdminAuthenticator
}

func NewRouter(cfg RouterConfig, h Handlers, log logrus.FieldLogger) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(cfg.CookieSecure))

		r.Route("/menu", func(r chi.Router) {
			r.Get("/", h.Menu.List)
			r.Get("/categories", h.Menu.Categories)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Delete("/items/{item_id}", h.Cart.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", h.Checkout.GetCheckout)
			r.Post("/", h.Checkout.StartCheckout)
			r.Post("/widget/success", h.Checkout.WidgetSuccess)
			r.Post("/widget/failure", h.Checkout.WidgetFailure)
			r.Post("/widget/dismiss", h.Checkout.WidgetDismiss)
			r.Post("/ack", h.Checkout.Acknowledge)
		})

		r.Route("/signup", func(r chi.Router) {
			r.Post("/otp", h.Signup.SendOTP)
			r.Post("/otp/verify", h.Signup.VerifyOTP)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.Admin.Login)
			r.Post("/logout", h.Admin.Logout)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin(h.Auth))
				r.Get("/me", h.Admin.Me)
				r.Get("/categories", h.Admin.ListCategories)
				r.Post("/categories", h.Admin.AddCategory)
				r.Delete("/categories/{id}", h.Admin.DeleteCategory)
				r.Post("/menu-items", h.Admin.AddMenuItem)
				r.Get("/payment/config", h.Admin.PaymentConfig)
				r.Post("/payment/config", h.Admin.SavePaymentConfig)
			})
		})
	})

	return r
}
