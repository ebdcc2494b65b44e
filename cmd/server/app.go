package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/example/assessly-billing/internal/api"
	"github.com/example/assessly-billing/internal/config"
	"github.com/example/assessly-billing/internal/core"
	"github.com/example/assessly-billing/internal/db"
	"github.com/example/assessly-billing/internal/firebase"
	"github.com/example/assessly-billing/internal/payments"
	"github.com/example/assessly-billing/pkg/cache"
	"github.com/example/assessly-billing/pkg/messagequeue"
)

// app holds the wired services and the clients that need closing.
type app struct {
	services api.Services
	renewals core.RenewalService
	firebase *firebase.Clients

	redis *cache.RedisCache
	queue *messagequeue.RabbitMQService
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	fb, err := firebase.Init(initCtx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
	}
	a := &app{firebase: fb}

	orgRepo := db.NewFirestoreOrganizationRepository(fb.Firestore)
	userRepo := db.NewFirestoreUserRepository(fb.Firestore)
	billingLogs := db.NewFirestoreBillingLogRepository(fb.Firestore)
	invoices := db.NewFirestoreInvoiceRepository(fb.Firestore)
	notifications := db.NewFirestoreNotificationRepository(fb.Firestore)

	stripeClient := payments.NewStripeClient(cfg.StripeSecretKey)
	prices := core.NewPriceTable(cfg.StripeBasicPriceID, cfg.StripeProPriceID, cfg.StripeEnterprisePriceID)
	if cfg.StripeBasicPriceID == "" || cfg.StripeProPriceID == "" || cfg.StripeEnterprisePriceID == "" {
		logger.Warn("Not every plan has a Stripe price bound; unbound tiers resolve to the free plan")
	}

	webhookCfg := core.WebhookConfig{
		Secret:        cfg.StripeWebhookSecret,
		Prices:        prices,
		Provider:      stripeClient,
		Organizations: orgRepo,
		BillingLogs:   billingLogs,
		Invoices:      invoices,
		Logger:        logger.Named("webhook"),
	}
	if cfg.RedisAddr != "" {
		a.redis, err = cache.NewRedisCache(initCtx, cache.NewRedisCacheConfig{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		webhookCfg.Ledger = cache.NewEventLedger(a.redis, cfg.WebhookEventTTL)
	}

	renewalCfg := core.RenewalConfig{
		Organizations: orgRepo,
		Notifications: notifications,
		Window:        cfg.RenewalWindow,
		Logger:        logger.Named("renewals"),
	}
	if cfg.AMQPURL != "" {
		a.queue, err = messagequeue.NewRabbitMQService(messagequeue.NewRabbitMQServiceConfig{URL: cfg.AMQPURL}, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		renewalCfg.Publisher = a.queue
		renewalCfg.Queue = cfg.RenewalQueue
	}

	access := core.NewAccessValidator(userRepo)
	a.services = api.Services{
		Billing:  core.NewBillingService(access, orgRepo, billingLogs, stripeClient, cfg.ClientURL, logger.Named("billing")),
		Webhooks: core.NewWebhookService(webhookCfg),
		Users:    core.NewUserService(userRepo, orgRepo, stripeClient, fb.Auth, logger.Named("users")),
	}
	a.renewals = core.NewRenewalService(renewalCfg)
	logger.Info("Core services initialized successfully.")
	return a, nil
}

// Close releases every client the app opened.
func (a *app) Close() error {
	var err error
	if a.queue != nil {
		err = multierr.Append(err, a.queue.Close())
	}
	if a.redis != nil {
		err = multierr.Append(err, a.redis.Close())
	}
	if a.firebase != nil {
		err = multierr.Append(err, a.firebase.Close())
	}
	return err
}
