package handler

import (
	"log/slog"
	"net/http"

	"tradegate/internal/delivery/http/response"
	"tradegate/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SessionHandler holds dependencies for session validation handlers
type SessionHandler struct {
	uc     usecase.SessionUsecase
	logger *slog.Logger
}

// NewSessionHandler is the constructor for SessionHandler
func NewSessionHandler(uc usecase.SessionUsecase, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		uc:     uc,
		logger: logger,
	}
}

// ValidateSessionRequest represents the request body for session validation
type ValidateSessionRequest struct {
	SessionToken string `json:"sessionToken" validate:"required"`
}

type validateSessionResponse struct {
	Success      bool   `json:"success"`
	UserID       string `json:"userId"`
	SessionValid bool   `json:"sessionValid"`
}

// ValidateSession handles POST /validate-session
func (h *SessionHandler) ValidateSession(c echo.Context) error {
	var req ValidateSessionRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid session input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "MISSING_INPUT", "Session token is required")
	}

	userID, err := h.uc.ValidateSession(c.Request().Context(), req.SessionToken, clientInfo(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, validateSessionResponse{
		Success:      true,
		UserID:       userID,
		SessionValid: true,
	})
}
