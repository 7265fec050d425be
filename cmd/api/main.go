package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/joho/godotenv"

	"github.com/cawabunga/ref-finance-stableswap-math/internal/config"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/handler"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/logging"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/metrics"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/near"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/ref"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	app := fiber.New()
	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	m := metrics.NewMetrics("", nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	nearClient, err := near.Dial(ctx, cfg.RPCEndpoint,
		near.WithTimeout(cfg.RPCTimeout),
		near.WithMaxRetries(cfg.RPCMaxRetries),
		near.WithLogger(logger),
		near.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NEAR node: %w", err)
	}

	reader := ref.NewReader(nearClient, cfg.ContractID)
	quoteService := service.NewQuoteService(logger, m, reader, cfg.Tokens)
	quoteHandler := handler.NewQuoteHandler(logger, quoteService)
	amountOutHandler := handler.NewAmountOutHandler(logger, quoteService)

	app.Get("/quote", quoteHandler.Quote())
	app.Get("/compare", quoteHandler.Compare())
	app.Post("/amount-out", amountOutHandler.Handle())
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	logger.Info("starting api", "addr", cfg.Addr, "contract", reader.ContractID(), "tokens", len(cfg.Tokens))

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			_ = app.Shutdown()
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "err", err)
	}
	return nil
}
