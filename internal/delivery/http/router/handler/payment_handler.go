// Package handler contains the echo HTTP handlers.
package handler

import (
	"log/slog"
	"net/http"

	deliverycontext "tradegate/internal/delivery/context"
	"tradegate/internal/delivery/http/response"
	"tradegate/internal/domain/entity"
	"tradegate/internal/usecase"

	"github.com/labstack/echo/v4"
)

// PaymentHandler holds dependencies for payment-related handlers
type PaymentHandler struct {
	uc     usecase.PaymentUsecase
	logger *slog.Logger
}

// NewPaymentHandler is the constructor for PaymentHandler
func NewPaymentHandler(uc usecase.PaymentUsecase, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		uc:     uc,
		logger: logger,
	}
}

// VerifyPaymentRequest represents the request body for reference verification
type VerifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required"`
}

type verifyPaymentResponse struct {
	Success      bool            `json:"success"`
	Data         *entity.Receipt `json:"data"`
	SessionToken string          `json:"sessionToken"`
	UserID       string          `json:"userId"`
}

// VerifyPayment handles POST /verify-payment
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	var req VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid verification input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "MISSING_INPUT", "Payment reference is required")
	}

	out, err := h.uc.VerifyPayment(c.Request().Context(), &usecase.VerifyPaymentInput{
		Reference: req.Reference,
		Client:    clientInfo(c),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, verifyPaymentResponse{
		Success:      true,
		Data:         out.Receipt,
		SessionToken: out.SessionToken,
		UserID:       out.UserID,
	})
}

// VerifyPaymentSecureRequest represents the checkout widget completion data
type VerifyPaymentSecureRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
	UserEmail         string `json:"user_email"`
	UserName          string `json:"user_name"`
}

type verifyPaymentSecureResponse struct {
	Success      bool   `json:"success"`
	SessionToken string `json:"sessionToken"`
	UserID       string `json:"userId"`
}

// VerifyPaymentSecure handles POST /verify-payment-secure
func (h *PaymentHandler) VerifyPaymentSecure(c echo.Context) error {
	var req VerifyPaymentSecureRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid verification input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "MISSING_INPUT", "Missing required payment verification data")
	}

	out, err := h.uc.VerifyPaymentSecure(c.Request().Context(), &usecase.VerifyPaymentSecureInput{
		OrderID:   req.RazorpayOrderID,
		PaymentID: req.RazorpayPaymentID,
		Signature: req.RazorpaySignature,
		Email:     req.UserEmail,
		Name:      req.UserName,
		Client:    clientInfo(c),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, verifyPaymentSecureResponse{
		Success:      true,
		SessionToken: out.SessionToken,
		UserID:       out.UserID,
	})
}

// CreateOrderRequest represents the request body for order creation
type CreateOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type createOrderResponse struct {
	Success bool          `json:"success"`
	Order   *entity.Order `json:"order"`
}

// CreateOrder handles POST /create-order
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid order input")
	}

	order, err := h.uc.CreateOrder(c.Request().Context(), req.Amount, req.Currency)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, createOrderResponse{
		Success: true,
		Order:   order,
	})
}

// CheckoutQR handles GET /checkout-qr/:orderID
func (h *PaymentHandler) CheckoutQR(c echo.Context) error {
	png, err := h.uc.CheckoutQR(c.Param("orderID"))
	if err != nil {
		return err
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

// clientInfo collects the caller identity used for rate limiting and fraud review.
func clientInfo(c echo.Context) usecase.ClientInfo {
	return usecase.ClientInfo{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		RequestID: deliverycontext.GetRequestID(c),
	}
}
