// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/driftfile/driftfile/internal/auth"
	authpg "github.com/driftfile/driftfile/internal/auth/postgres"
	"github.com/driftfile/driftfile/internal/config"
	"github.com/driftfile/driftfile/internal/logging"
	"github.com/driftfile/driftfile/internal/mail"
	"github.com/driftfile/driftfile/internal/observability"
	"github.com/driftfile/driftfile/internal/store"
	"github.com/driftfile/driftfile/internal/web"
)

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication API server",
		Long: `Start the HTTP server that exposes the sign-up, sign-in, verification and
session endpoints, plus the observability server for metrics and health
probes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd, nil)
		},
	}

	cmd.Flags().String("server.addr", "", "HTTP listen address")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")
	cmd.Flags().String("log.format", "", "log format (json or text)")
	cmd.Flags().String("log.level", "", "log level (debug, info, warn, error)")

	return cmd
}

// ServeDeps carries injectable dependencies for runServe. A nil value (or a
// nil field) selects the production implementation.
type ServeDeps struct {
	ConnectFunc func(ctx context.Context, dsn string) (Pool, error)
	SenderFunc  func(cfg config.SMTPConfig, logger *slog.Logger) (auth.CodeSender, error)
}

// Pool is the subset of pgxpool.Pool the serve command needs. The full pool
// also satisfies authpg.Querier, which the repositories consume.
type Pool interface {
	authpg.Querier
	Close()
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	if d == nil {
		d = &ServeDeps{}
	}
	if d.ConnectFunc == nil {
		d.ConnectFunc = func(ctx context.Context, dsn string) (Pool, error) {
			return store.Connect(ctx, dsn)
		}
	}
	if d.SenderFunc == nil {
		d.SenderFunc = newCodeSender
	}
	return d
}

// newCodeSender picks SMTP delivery when a relay host is configured and
// log-only delivery otherwise.
func newCodeSender(cfg config.SMTPConfig, logger *slog.Logger) (auth.CodeSender, error) {
	if cfg.Host == "" {
		logger.Warn("no SMTP host configured, one-time codes will be logged instead of emailed")
		return mail.NewLogSender(logger), nil
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
}

func runServe(ctx context.Context, cfg config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()

	logging.SetDefault("driftfile", version, cfg.Log.Format, cfg.Log.Level)
	logger := slog.Default()

	logger.Info("starting auth service",
		"addr", cfg.Server.Addr,
		"log_format", cfg.Log.Format,
	)

	pool, err := deps.ConnectFunc(ctx, cfg.Database.URL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	defer pool.Close()

	logger.Info("connected to database")

	sender, err := deps.SenderFunc(cfg.SMTP, logger)
	if err != nil {
		return oops.Code("MAIL_SETUP_FAILED").Wrap(err)
	}

	registry, err := auth.NewRegistry(authpg.NewAccountRepository(pool))
	if err != nil {
		return err
	}
	otp, err := auth.NewOTPService(authpg.NewCodeRepository(pool), sender, auth.OTPConfig{
		CodeTTL:           cfg.OTP.CodeTTL,
		ResendCooldown:    cfg.OTP.ResendCooldown,
		MaxVerifyAttempts: cfg.OTP.MaxVerifyAttempts,
	})
	if err != nil {
		return err
	}
	sessions, err := auth.NewSessionService(
		authpg.NewAccountRepository(pool),
		authpg.NewSessionRepository(pool),
		cfg.Session.TTL,
		logger,
	)
	if err != nil {
		return err
	}
	flow, err := auth.NewFlow(registry, otp, sessions)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Observability server (optional)
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.Observability.Addr != "" {
		obsServer = observability.NewServer(cfg.Observability.Addr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
			defer pingCancel()
			_, pingErr := pool.Exec(pingCtx, "SELECT 1")
			return pingErr == nil
		})
		metrics = obsServer.Metrics()

		obsErrChan, obsErr := obsServer.Start()
		if obsErr != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(obsErr)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	webServer, err := web.NewServer(flow, web.Options{
		Addr:         cfg.Server.Addr,
		CookieSecure: cfg.Server.CookieSecure,
		Metrics:      metrics,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	webErrChan, err := webServer.Start()
	if err != nil {
		if obsServer != nil {
			stopServer(obsServer.Stop, "observability", logger)
		}
		return oops.Code("WEB_START_FAILED").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, webErrChan, "web")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Auth service started")
	logger.Info("auth service ready", "addr", webServer.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")

	stopServer(webServer.Stop, "web", logger)
	if obsServer != nil {
		stopServer(obsServer.Stop, "observability", logger)
	}

	logger.Info("shutdown complete")
	return nil
}

// stopServer stops a Start/Stop server with a bounded timeout, logging
// instead of failing shutdown.
func stopServer(stop func(context.Context) error, name string, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := stop(shutdownCtx); err != nil {
		logger.Warn("error stopping server", "server", name, "error", err)
	}
}

// monitorServerErrors cancels the run context when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errChan <-chan error, name string) {
	select {
	case err, ok := <-errChan:
		if ok && err != nil {
			slog.Error("server failed", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
