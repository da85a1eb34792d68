package main

import (
	"context"
	"log/slog"
	"os"

	"tradegate/config"
	"tradegate/internal/delivery"
	"tradegate/internal/delivery/http"
	"tradegate/internal/delivery/http/middleware"
	"tradegate/internal/delivery/http/router/handler"
	"tradegate/internal/domain/constants"
	"tradegate/internal/domain/repository"
	"tradegate/internal/domain/service"
	"tradegate/internal/infra/auth"
	"tradegate/internal/infra/gateway"
	logs "tradegate/internal/infra/log"
	"tradegate/internal/infra/persistence/memory"
	"tradegate/internal/infra/persistence/postgres"
	"tradegate/internal/infra/pubsub"
	"tradegate/internal/infra/qrcode"
	"tradegate/internal/infra/ratelimit"
	"tradegate/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			newPaymentRepository,
		),
	)
}

// newPaymentRepository selects the payment store: postgres when configured,
// otherwise the in-memory store suited to single-instance deployments.
func newPaymentRepository(params postgres.Params) (repository.PaymentRepository, error) {
	if params.Config.Postgres == nil {
		params.Logger.Info("Postgres not configured, using in-memory payment store")

		return memory.NewPaymentRepository(), nil
	}

	db, err := postgres.New(params)
	if err != nil {
		return nil, err
	}

	return postgres.NewPaymentRepository(db), nil
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewCipherService,
			newTokenService,
			ratelimit.NewMemoryLimiter,
			gateway.NewPaymentGateway,
			newQRCodeService,
		),
		pubsub.Module,
	)
}

// newTokenService selects the session credential implementation by config.
func newTokenService(cfg *config.Config, cipher service.CipherService, logger *slog.Logger) (service.TokenService, error) {
	if cfg.Auth != nil && cfg.Auth.TokenFormat == constants.TokenFormatJWT {
		return auth.NewJWTTokenService(cfg, logger)
	}

	return auth.NewSealedTokenService(cfg, cipher, logger)
}

// newQRCodeService creates a QR code service with dependency injection
func newQRCodeService(cfg *config.Config) service.QRCodeService {
	checkoutBaseURL := "http://localhost:3000/checkout"
	if cfg.Payment != nil && cfg.Payment.CheckoutBaseURL != "" {
		checkoutBaseURL = cfg.Payment.CheckoutBaseURL
	}

	if cfg.QRCode == nil {
		// Use default values if not configured
		return qrcode.NewQRCodeService(checkoutBaseURL, 256, "M")
	}

	return qrcode.NewQRCodeService(checkoutBaseURL, cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewPaymentService,
			impl.NewSessionService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewErrorMiddleware,
			middleware.NewRequestIDMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewPaymentHandler,
			handler.NewSessionHandler,
			handler.NewWebhookHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
