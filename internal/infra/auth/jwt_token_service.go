package auth

import (
	"log/slog"
	"time"

	"tradegate/config"
	"tradegate/internal/domain/entity"
	"tradegate/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// jwtTokenService is the standard-format implementation of TokenService using
// HS256 JWTs. It honors the same TTL contract as the sealed implementation,
// so callers can swap formats through configuration without behavior changes.
type jwtTokenService struct {
	signingSecret []byte
	sessionTTL    time.Duration
	paymentTTL    time.Duration

	now func() time.Time
}

const (
	jwtTypeSession = "session"
	jwtTypePayment = "payment"
)

// NewJWTTokenService is the constructor for jwtTokenService.
func NewJWTTokenService(cfg *config.Config, logger *slog.Logger) (service.TokenService, error) {
	signing, err := resolveSecret(cfg, logger, cfg.SecretKey.Signing, 64, "secretKey.signing")
	if err != nil {
		return nil, err
	}

	return &jwtTokenService{
		signingSecret: []byte(signing),
		sessionTTL:    cfg.Auth.SessionTokenTTL,
		paymentTTL:    cfg.Auth.PaymentTokenTTL,
		now:           time.Now,
	}, nil
}

// GenerateSessionToken creates a session JWT carrying the payment-verified flag.
func (s *jwtTokenService) GenerateSessionToken(userID string, paymentVerified bool) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":              userID,
		"type":             jwtTypeSession,
		"payment_verified": paymentVerified,
		"sid":              uuid.NewString(),
		"iat":              now.Unix(),
		"exp":              now.Add(s.sessionTTL).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingSecret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign session token")
	}

	return signed, nil
}

// ValidateSessionToken parses and verifies a session JWT.
func (s *jwtTokenService) ValidateSessionToken(token string) (*entity.SessionClaims, error) {
	claims, err := s.parse(token, jwtTypeSession)
	if err != nil {
		return nil, err
	}

	userID, _ := claims["sub"].(string)
	verified, _ := claims["payment_verified"].(bool)
	sessionID, _ := claims["sid"].(string)
	iat, _ := claims["iat"].(float64)

	return &entity.SessionClaims{
		UserID:          userID,
		PaymentVerified: verified,
		IssuedAt:        int64(iat) * 1000,
		SessionID:       sessionID,
	}, nil
}

// GeneratePaymentToken creates a payment JWT binding a user to one payment.
func (s *jwtTokenService) GeneratePaymentToken(userID, paymentID string, issuedAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":        userID,
		"type":       jwtTypePayment,
		"payment_id": paymentID,
		"iat":        issuedAt.Unix(),
		"exp":        issuedAt.Add(s.paymentTTL).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingSecret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign payment token")
	}

	return signed, nil
}

// ValidatePaymentToken parses and verifies a payment JWT.
func (s *jwtTokenService) ValidatePaymentToken(token string) (*entity.PaymentClaims, error) {
	claims, err := s.parse(token, jwtTypePayment)
	if err != nil {
		return nil, err
	}

	userID, _ := claims["sub"].(string)
	paymentID, _ := claims["payment_id"].(string)
	iat, _ := claims["iat"].(float64)

	return &entity.PaymentClaims{
		UserID:    userID,
		PaymentID: paymentID,
		Timestamp: int64(iat) * 1000,
	}, nil
}

// SessionTokenDuration returns the configured session token lifetime.
func (s *jwtTokenService) SessionTokenDuration() time.Duration {
	return s.sessionTTL
}

func (s *jwtTokenService) parse(tokenString, wantType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.signingSecret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse token structure")
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("failed to parse token claims")
	}
	if typ, _ := claims["type"].(string); typ != wantType {
		return nil, errors.Errorf("unexpected token type %q", typ)
	}

	return claims, nil
}
