package handler

import (
	"io"
	"log/slog"
	"net/http"

	"tradegate/internal/delivery/http/response"
	"tradegate/internal/usecase"

	"github.com/labstack/echo/v4"
)

// Signature headers the supported processors attach to webhook deliveries.
const (
	headerPaystackSignature = "X-Paystack-Signature"
	headerRazorpaySignature = "X-Razorpay-Signature"
	headerGenericSignature  = "X-Signature"
)

// WebhookHandler receives asynchronous payment notifications from the processor
type WebhookHandler struct {
	uc     usecase.PaymentUsecase
	logger *slog.Logger
}

// NewWebhookHandler is the constructor for WebhookHandler
func NewWebhookHandler(uc usecase.PaymentUsecase, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		uc:     uc,
		logger: logger,
	}
}

// Handle handles POST /webhook. The signature is verified over the raw body,
// so the body must not be bound or rewritten before verification.
func (h *WebhookHandler) Handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Unreadable webhook body")
	}

	if err := h.uc.HandleWebhook(c.Request().Context(), body, webhookSignature(c), clientInfo(c)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func webhookSignature(c echo.Context) string {
	headers := c.Request().Header
	for _, name := range []string{headerPaystackSignature, headerRazorpaySignature, headerGenericSignature} {
		if sig := headers.Get(name); sig != "" {
			return sig
		}
	}

	return ""
}
