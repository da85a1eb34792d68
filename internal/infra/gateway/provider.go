package gateway

import (
	"log/slog"

	"tradegate/config"
	"tradegate/internal/domain/constants"
	"tradegate/internal/domain/service"

	"github.com/pkg/errors"
)

// NewPaymentGateway creates a PaymentGateway based on configuration.
func NewPaymentGateway(cfg *config.Config, logger *slog.Logger) (service.PaymentGateway, error) {
	if cfg.Payment == nil || cfg.Payment.Provider == "" {
		return nil, errors.New("payment provider must be configured")
	}

	switch cfg.Payment.Provider {
	case constants.GatewayProviderPaystack:
		logger.Info("Using Paystack payment gateway")

		return NewPaystackGateway(cfg.Payment.Paystack, logger)

	case constants.GatewayProviderRazorpay:
		logger.Info("Using Razorpay payment gateway")

		return NewRazorpayGateway(cfg.Payment.Razorpay, logger)

	default:
		return nil, errors.Errorf("unknown payment provider: %s", cfg.Payment.Provider)
	}
}
