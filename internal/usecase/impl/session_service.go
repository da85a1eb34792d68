package impl

import (
	"context"
	"log/slog"

	"tradegate/config"
	"tradegate/internal/domain/constants"
	domainerrors "tradegate/internal/domain/errors"
	"tradegate/internal/domain/service"
	"tradegate/internal/usecase"
)

type sessionService struct {
	cfg     *config.Config
	limiter service.RateLimiter
	tokens  service.TokenService
	logger  *slog.Logger
}

// NewSessionService creates a new session validation service instance
func NewSessionService(
	cfg *config.Config,
	limiter service.RateLimiter,
	tokens service.TokenService,
	logger *slog.Logger,
) usecase.SessionUsecase {
	return &sessionService{
		cfg:     cfg,
		limiter: limiter,
		tokens:  tokens,
		logger:  logger,
	}
}

// ValidateSession checks a presented session token and returns its user id.
func (s *sessionService) ValidateSession(ctx context.Context, token string, client usecase.ClientInfo) (string, error) {
	rule := s.cfg.RateLimit.Validate
	identifier := constants.RateLimitPurposeSessionValidate + ":" + client.IPAddress
	if !s.limiter.Allow(identifier, rule.MaxRequests, rule.Window) {
		s.logger.WarnContext(ctx, "Session validation rate limit exceeded",
			slog.String("client_ip", client.IPAddress),
			slog.String("user_agent", client.UserAgent),
		)

		return "", domainerrors.ErrRateLimited
	}

	if token == "" {
		return "", domainerrors.ErrMissingSessionToken
	}

	claims, err := s.tokens.ValidateSessionToken(token)
	if err != nil {
		// Tampered or expired tokens are logged for fraud review; the client
		// only learns the session is invalid.
		s.logger.WarnContext(ctx, "Session token rejected",
			slog.String("client_ip", client.IPAddress),
			slog.String("user_agent", client.UserAgent),
			slog.Any("error", err),
		)

		return "", domainerrors.ErrInvalidSession
	}

	if !claims.PaymentVerified {
		return "", domainerrors.ErrPaymentNotVerified
	}

	return claims.UserID, nil
}
