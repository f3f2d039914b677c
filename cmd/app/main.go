// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docstore-payments/internal/config"
	"docstore-payments/internal/domain/model"
	"docstore-payments/internal/domain/ports/adapter"
	"docstore-payments/internal/domain/ports/repository"
	pg "docstore-payments/internal/infra/db/postgres"
	"docstore-payments/internal/infra/logging"
	"docstore-payments/internal/infra/metrics"
	payGateways "docstore-payments/internal/infra/payment"
	red "docstore-payments/internal/infra/redis"
	"docstore-payments/internal/infra/web"
	"docstore-payments/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Repositories ----
	txRepo := pg.NewTransactionRepo(pool)
	purchaseRepo := pg.NewPurchaseRepo(pool)
	profileRepo := pg.NewProfileRepo(pool)
	var discountRepo repository.DiscountRepository = pg.NewDiscountRepo(pool)

	// ---- Redis (optional: discount-code cache) ----
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		discountRepo = pg.NewDiscountRepoCacheDecorator(discountRepo, redisClient, cfg.Redis.TTL)
	}

	// ---- Gateways ----
	gateways := map[model.Gateway]adapter.PaymentGateway{}
	if cfg.Payment.Zibal.MerchantCode != "" {
		gateways[model.GatewayZibal] = payGateways.NewZibalGateway(cfg.Payment.Zibal.MerchantCode)
	}
	if cfg.Payment.BitPay.APIToken != "" {
		gateways[model.GatewayBitPay] = payGateways.NewBitPayGateway(cfg.Payment.BitPay.APIToken)
	}

	// ---- Use cases ----
	checkoutUC := usecase.NewCheckoutUseCase(
		txRepo, discountRepo, profileRepo, gateways,
		usecase.Pricing{
			DocumentToman: cfg.Pricing.DocumentToman,
			CalendarToman: cfg.Pricing.CalendarToman,
		},
		usecase.CallbackURLs{
			Zibal:          cfg.Server.BaseURL + "/payment/verify/zibal",
			BitPay:         cfg.Server.BaseURL + "/webhook/bitpay",
			BitPayRedirect: cfg.Server.BaseURL + "/payment/verify/bitpay",
		},
		logger,
	)
	settlementUC := usecase.NewSettlementUseCase(txRepo, purchaseRepo, profileRepo, gateways, logger)
	discountUC := usecase.NewDiscountUseCase(discountRepo)

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret)
	srv := web.NewServer(checkoutUC, settlementUC, discountUC, auth, cfg.Site, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(cfg.Server.Port) }()

	// ---- Wait for shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
