package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"tradegate/config"
	"tradegate/internal/domain/entity"
	"tradegate/internal/domain/service"

	"github.com/pkg/errors"
)

// sealedTokenService is the checksum-based implementation of TokenService.
// Payment tokens are base64-encoded JSON protected by an HMAC over the
// canonical payload; session tokens are JSON sealed by the CipherService with
// an inner checksum over (userID, paymentVerified, salt). Neither family uses
// a standard signed-token format; validity is decided entirely from the token
// bytes plus the server-held secret and salt, trading revocability for
// statelessness.
type sealedTokenService struct {
	cipher        service.CipherService
	signingSecret []byte        // HMAC key for payment tokens.
	salt          string        // Checksum salt for session tokens.
	sessionTTL    time.Duration // Time-to-live for session tokens.
	paymentTTL    time.Duration // Time-to-live for payment tokens.

	now func() time.Time
}

// NewSealedTokenService is the constructor for sealedTokenService.
func NewSealedTokenService(cfg *config.Config, cipher service.CipherService, logger *slog.Logger) (service.TokenService, error) {
	signing, err := resolveSecret(cfg, logger, cfg.SecretKey.Signing, 64, "secretKey.signing")
	if err != nil {
		return nil, err
	}
	salt, err := resolveSecret(cfg, logger, cfg.SecretKey.Salt, 16, "secretKey.salt")
	if err != nil {
		return nil, err
	}

	return &sealedTokenService{
		cipher:        cipher,
		signingSecret: []byte(signing),
		salt:          salt,
		sessionTTL:    cfg.Auth.SessionTokenTTL,
		paymentTTL:    cfg.Auth.PaymentTokenTTL,
		now:           time.Now,
	}, nil
}

// paymentTokenPayload is the wire layout of a payment token. Field order is
// fixed by the struct, which is what makes the HMAC recomputation canonical.
type paymentTokenPayload struct {
	UserID    string `json:"userId"`
	PaymentID string `json:"paymentId"`
	Timestamp int64  `json:"timestamp"`
	Salt      string `json:"salt"`
	Hash      string `json:"hash,omitempty"`
}

// GeneratePaymentToken mints a short-lived token binding a user to one payment.
func (s *sealedTokenService) GeneratePaymentToken(userID, paymentID string, issuedAt time.Time) (string, error) {
	payload := paymentTokenPayload{
		UserID:    userID,
		PaymentID: paymentID,
		Timestamp: issuedAt.UnixMilli(),
		Salt:      s.salt,
	}

	hash, err := s.paymentHash(payload)
	if err != nil {
		return "", err
	}
	payload.Hash = hash

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}

// ValidatePaymentToken verifies the HMAC and the 24h expiry window. Malformed
// base64 or JSON is reported as an ordinary error.
func (s *sealedTokenService) ValidatePaymentToken(token string) (*entity.PaymentClaims, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, errors.Wrap(err, "malformed payment token")
	}

	var payload paymentTokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "malformed payment token payload")
	}

	presented := payload.Hash
	payload.Hash = ""
	expected, err := s.paymentHash(payload)
	if err != nil {
		return nil, err
	}
	if !hmac.Equal([]byte(presented), []byte(expected)) {
		return nil, errors.New("payment token hash mismatch")
	}

	if s.now().Sub(time.UnixMilli(payload.Timestamp)) > s.paymentTTL {
		return nil, errors.New("payment token expired")
	}

	return &entity.PaymentClaims{
		UserID:    payload.UserID,
		PaymentID: payload.PaymentID,
		Timestamp: payload.Timestamp,
		Salt:      payload.Salt,
	}, nil
}

// GenerateSessionToken mints an encrypted session token carrying the
// payment-verified flag, a random session id and an integrity checksum.
func (s *sealedTokenService) GenerateSessionToken(userID string, paymentVerified bool) (string, error) {
	sessionID := make([]byte, 32)
	if _, err := rand.Read(sessionID); err != nil {
		return "", errors.Wrap(err, "failed to generate session id")
	}

	claims := entity.SessionClaims{
		UserID:          userID,
		PaymentVerified: paymentVerified,
		IssuedAt:        s.now().UnixMilli(),
		SessionID:       hex.EncodeToString(sessionID),
		Checksum:        s.sessionChecksum(userID, paymentVerified),
	}

	raw, err := json.Marshal(claims)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return s.cipher.Encrypt(string(raw))
}

// ValidateSessionToken decrypts, parses, re-derives the checksum and checks
// the 7 day expiry. Every failure mode is an error, never a panic.
func (s *sealedTokenService) ValidateSessionToken(token string) (*entity.SessionClaims, error) {
	plaintext, err := s.cipher.Decrypt(token)
	if err != nil {
		return nil, errors.Wrap(err, "session token decryption failed")
	}

	var claims entity.SessionClaims
	if err := json.Unmarshal([]byte(plaintext), &claims); err != nil {
		return nil, errors.Wrap(err, "malformed session token payload")
	}

	expected := s.sessionChecksum(claims.UserID, claims.PaymentVerified)
	if !hmac.Equal([]byte(claims.Checksum), []byte(expected)) {
		return nil, errors.New("session token checksum mismatch")
	}

	if s.now().Sub(claims.IssuedTime()) > s.sessionTTL {
		return nil, errors.New("session token expired")
	}

	return &claims, nil
}

// SessionTokenDuration returns the configured session token lifetime.
func (s *sealedTokenService) SessionTokenDuration() time.Duration {
	return s.sessionTTL
}

func (s *sealedTokenService) paymentHash(payload paymentTokenPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", errors.WithStack(err)
	}

	mac := hmac.New(sha256.New, s.signingSecret)
	mac.Write(raw)

	return hex.EncodeToString(mac.Sum(nil)), nil
}

func (s *sealedTokenService) sessionChecksum(userID string, paymentVerified bool) string {
	sum := sha256.Sum256([]byte(userID + ":" + strconv.FormatBool(paymentVerified) + ":" + s.salt))

	return hex.EncodeToString(sum[:])
}
