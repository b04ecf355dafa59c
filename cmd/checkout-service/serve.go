package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/dedup"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/events"
	httpserver "github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/http/middleware"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/notify"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/payment"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/ratelimit"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/sequence"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/user"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			return err
		}
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	gateway, err := payment.NewFlutterwave(cfg.FlutterwaveBaseURL, cfg.FlutterwaveSecretKey, cfg.GatewayTimeout)
	if err != nil {
		return err
	}

	var publisher checkout.EventPublisher = events.Discard{}
	if cfg.EventsEnabled {
		p, conn, err := events.DialPublisher(cfg.RabbitMQURL, sequence.NewRepository(pool))
		if err != nil {
			return err
		}
		defer conn.Close()
		defer p.Close()
		publisher = p
	} else {
		logger.Info().Msg("event publishing disabled")
	}

	var limiter middleware.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		limiter = ratelimit.NewFixedWindow(rdb, cfg.RateLimitPerMinute, time.Minute, logger)
	}

	engine := checkout.NewEngine(checkout.Deps{
		Orders:     order.NewPostgresRepository(pool),
		Users:      user.NewPostgresRepository(pool),
		Gateway:    gateway,
		Notifier:   notify.NewNotifier(notify.NewResendMailer(cfg.ResendAPIKey, cfg.ResendSenderEmail, cfg.StoreName), cfg.StoreName, cfg.FrontendURL),
		Events:     publisher,
		Deliveries: dedup.NewRepository(pool),
		Logger:     logger,
	}, checkout.Config{
		Currency:       cfg.PaymentCurrency,
		TotalsPolicy:   checkout.TotalsPolicy(cfg.TotalsPolicy),
		FrontendURL:    cfg.FrontendURL,
		StoreName:      cfg.StoreName,
		GatewayTimeout: cfg.GatewayTimeout,
		WebhookSecret:  cfg.FlutterwaveWebhookSecret,
	})

	router := httpserver.NewRouter(httpserver.Deps{
		Logger:           logger,
		Cart:             cart.NewService(cart.NewPostgresRepository(pool), catalog.NewPostgresRepository(pool)),
		Checkout:         engine,
		Verifier:         auth.NewVerifier(cfg.JWTSecret),
		Limiter:          limiter,
		DB:               pool,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      45 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("checkout-service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	engine.Wait()
	return err
}
