// Package service defines domain service contracts implemented by the infra layer.
package service

import (
	"time"

	"tradegate/internal/domain/entity"
)

// TokenService mints and validates the two credential families used by the
// paywall: short-lived payment tokens and longer-lived session tokens. Both
// are self-contained; validation never consults server-side session state.
// This abstracts the token format from the use cases, so the checksum-based
// implementation and the JWT implementation are interchangeable.
type TokenService interface {
	// GenerateSessionToken mints an opaque session token for a user.
	GenerateSessionToken(userID string, paymentVerified bool) (string, error)

	// ValidateSessionToken checks a session token and returns its claims.
	// Any tampering, malformed input or expiry yields an error; it never panics.
	ValidateSessionToken(token string) (*entity.SessionClaims, error)

	// GeneratePaymentToken mints a payment token binding a user to one payment.
	GeneratePaymentToken(userID, paymentID string, issuedAt time.Time) (string, error)

	// ValidatePaymentToken checks a payment token and returns its claims.
	ValidatePaymentToken(token string) (*entity.PaymentClaims, error)

	// SessionTokenDuration returns the configured session token lifetime.
	SessionTokenDuration() time.Duration
}
