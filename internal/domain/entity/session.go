package entity

import "time"

// SessionClaims is the decoded payload of a session token. The token itself is
// opaque to the client: the claims are serialized, checksummed and encrypted
// before leaving the server, so validity is a pure function of the token bytes
// plus the server-held key and salt.
type SessionClaims struct {
	UserID          string `json:"userId"`
	PaymentVerified bool   `json:"paymentVerified"`
	IssuedAt        int64  `json:"timestamp"` // Unix milliseconds.
	SessionID       string `json:"sessionId"` // Random per-issuance identifier.
	Checksum        string `json:"checksum"`  // SHA-256 over userId:paymentVerified:salt.
}

// IssuedTime returns the issuance instant of the claims.
func (c *SessionClaims) IssuedTime() time.Time {
	return time.UnixMilli(c.IssuedAt)
}

// PaymentClaims is the decoded payload of a short-lived payment token binding
// a user to a single processor payment.
type PaymentClaims struct {
	UserID    string `json:"userId"`
	PaymentID string `json:"paymentId"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds.
	Salt      string `json:"salt"`
}

// IssuedTime returns the issuance instant of the claims.
func (c *PaymentClaims) IssuedTime() time.Time {
	return time.UnixMilli(c.Timestamp)
}
