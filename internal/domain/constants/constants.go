// Package constants holds shared domain-level constant values.
package constants

// Pub/Sub provider names accepted in configuration.
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Payment gateway provider names accepted in configuration.
const (
	GatewayProviderPaystack = "paystack"
	GatewayProviderRazorpay = "razorpay"
)

// Token format names accepted in configuration.
const (
	TokenFormatSealed = "sealed"
	TokenFormatJWT    = "jwt"
)

// Rate limit purposes, combined with the client IP to form limiter identifiers.
const (
	RateLimitPurposePaymentVerify   = "payment_verify"
	RateLimitPurposeSessionValidate = "session_validate"
)

// Webhook event names emitted by the payment processor.
const (
	WebhookEventPaymentCaptured = "payment.captured"
	WebhookEventPaymentFailed   = "payment.failed"
)
