package usecase

import "context"

// SessionUsecase defines the interface for session validation use cases
type SessionUsecase interface {
	// ValidateSession checks a presented session token and returns the user id
	// it was minted for. The token must be intact, unexpired and carry the
	// payment-verified flag.
	ValidateSession(ctx context.Context, token string, client ClientInfo) (string, error)
}
