package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/assessly-billing/internal/api"
	"github.com/example/assessly-billing/internal/middleware"
	"github.com/example/assessly-billing/internal/scheduler"
)

var noScheduler bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, the Stripe webhook endpoint and the renewal scheduler",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if cfg.IsRelease() {
			gin.SetMode(gin.ReleaseMode)
		} else {
			gin.SetMode(gin.DebugMode)
		}
		router := gin.New()
		router.Use(middleware.RequestLogger(logger))
		router.Use(middleware.RecoveryMiddleware(logger))
		router.Use(middleware.CORSMiddleware(cfg.ClientURL))
		api.SetupRoutes(router, a.services, a.firebase.Auth, logger)

		httpServer := &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		var sched *scheduler.Scheduler
		if !noScheduler {
			sched = scheduler.New(logger)
			id, err := sched.AddJob("renewal-reminders", cfg.RenewalSchedule, 10*time.Minute, func(ctx context.Context) error {
				_, err := a.renewals.RunRenewalScan(ctx)
				return err
			})
			if err != nil {
				return fmt.Errorf("invalid RENEWAL_SCHEDULE %q: %w", cfg.RenewalSchedule, err)
			}
			logger.Info("Renewal reminders scheduled", zap.String("schedule", cfg.RenewalSchedule), zap.Int("entry", int(id)))
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("Starting HTTP server...", zap.String("address", httpServer.Addr), zap.String("ginMode", gin.Mode()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			logger.Info("Attempting graceful shutdown of HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})

		if sched != nil {
			g.Go(func() error { return sched.Run(ctx) })
		}

		err = g.Wait()
		logger.Info("Server exiting.")
		return err
	},
}

func init() {
	serveCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "do not run the renewal scheduler in this process")
}
