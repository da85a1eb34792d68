// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"tradegate/internal/delivery/http/middleware"
	"tradegate/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	PaymentHandler      *handler.PaymentHandler
	SessionHandler      *handler.SessionHandler
	WebhookHandler      *handler.WebhookHandler
	RequestIDMiddleware *middleware.RequestIDMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	paymentHandler      *handler.PaymentHandler
	sessionHandler      *handler.SessionHandler
	webhookHandler      *handler.WebhookHandler
	requestIDMiddleware *middleware.RequestIDMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		paymentHandler:      params.PaymentHandler,
		sessionHandler:      params.SessionHandler,
		webhookHandler:      params.WebhookHandler,
		requestIDMiddleware: params.RequestIDMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.Use(r.requestIDMiddleware.Process)

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Payment verification and checkout
	e.POST("/verify-payment", r.paymentHandler.VerifyPayment)
	e.POST("/verify-payment-secure", r.paymentHandler.VerifyPaymentSecure)
	e.POST("/create-order", r.paymentHandler.CreateOrder)
	e.GET("/checkout-qr/:orderID", r.paymentHandler.CheckoutQR)

	// Session validation, polled by the client
	e.POST("/validate-session", r.sessionHandler.ValidateSession)

	// Processor callbacks
	e.POST("/webhook", r.webhookHandler.Handle)
}
