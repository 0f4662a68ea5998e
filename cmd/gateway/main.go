package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/otelfiber"
	"go.uber.org/zap"

	"coin-gateway/internal/app"
	"coin-gateway/internal/checkout"
	"coin-gateway/internal/config"
	"coin-gateway/internal/events"
	"coin-gateway/internal/redeem"
	"coin-gateway/internal/store"
	"coin-gateway/internal/stripe"
	"coin-gateway/internal/telemetry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, tracer, meter, shutdown, err := telemetry.Setup(ctx, "coin-gateway")
	if err != nil {
		panic("failed to initialize telemetry: " + err.Error())
	}
	defer shutdown(context.Background())

	metrics, err := telemetry.NewMetrics(meter)
	if err != nil {
		panic("failed to create metrics: " + err.Error())
	}

	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error("failed to load config", zap.Error(err))
		os.Exit(1)
	}
	if cfg.Stripe.WebhookSecret == "" {
		log.Warn("webhook secret not configured, /webhook will reject with 500")
	}

	var st store.Store
	if cfg.Store.Path != "" {
		st, err = store.NewSQLite(ctx, cfg.Store.Path)
		if err != nil {
			log.Error("failed to open session store", zap.Error(err))
			os.Exit(1)
		}
		log.Info("using sqlite session store", zap.String("path", cfg.Store.Path))
	} else {
		st = store.NewMemory()
		log.Warn("using in-memory session store, records do not survive restarts")
	}
	defer st.Close()

	var checkoutPub checkout.Publisher
	var redeemPub redeem.Publisher
	if cfg.Kafka.Broker != "" {
		if err := events.EnsureTopic(ctx, cfg.Kafka.Broker, cfg.Kafka.Topic, 3, 1); err != nil {
			log.Warn("failed to create event topic (may already exist)", zap.Error(err))
		}
		pub := events.NewPublisher([]string{cfg.Kafka.Broker}, cfg.Kafka.Topic)
		defer pub.Close()
		checkoutPub = pub
		redeemPub = pub
		log.Info("session events enabled",
			zap.String("broker", cfg.Kafka.Broker),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	var lineItems checkout.LineItemsClient
	if cfg.Stripe.SecretKey != "" {
		lineItems = stripe.NewClient(cfg.Stripe.APIBase, cfg.Stripe.SecretKey)
	}

	checkoutUC := checkout.NewUseCase(checkout.Config{
		WebhookSecret: cfg.Stripe.WebhookSecret,
		DefaultCoins:  cfg.Stripe.DefaultCoins,
		PriceID:       cfg.Stripe.PriceID,
	}, st, lineItems, checkoutPub, metrics, log, tracer)
	redeemUC := redeem.NewUseCase(st, redeemPub, metrics, log, tracer)

	a := app.New(
		checkout.NewController(checkoutUC, log, tracer),
		redeem.NewController(redeemUC, log, tracer),
		otelfiber.Middleware(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down coin-gateway...")
		_ = a.Shutdown()
		cancel()
	}()

	log.Info("coin-gateway listening", zap.String("addr", cfg.Listen))
	if err := a.Listen(cfg.Listen); err != nil {
		log.Error("server error", zap.Error(err))
	}
}
