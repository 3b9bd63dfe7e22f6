package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/config"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/handlers"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/logging"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/service"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/storage"
)

const cleanupInterval = 1 * time.Hour

// serverFlags override the environment configuration
type serverFlags struct {
	port  string
	dbURI string
}

// NewRootCmd creates the root command for the Aura server.
func NewRootCmd() *cobra.Command {
	flags := &serverFlags{}

	cmd := &cobra.Command{
		Use:   "aura-server",
		Short: "Aura chat assistant backend",
		Long: `Aura serves the account, password reset and chat API used by the
Aura clients.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.dbURI, "db", "", "database URI (overrides DB_URI)")

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newMigrateCmd(flags))
	cmd.AddCommand(newCleanupCmd(flags))

	return cmd
}

// loadConfig reads the environment and applies flag overrides
func loadConfig(flags *serverFlags) *config.Config {
	cfg := config.Load()
	if flags.port != "" {
		cfg.ServerPort = flags.port
	}
	if flags.dbURI != "" {
		cfg.DatabaseURI = flags.dbURI
	}
	return cfg
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	logger := logging.Setup("aura", cmd.Root().Version, cfg.LogFormat, cfg.Debug, os.Stderr)
	slog.SetDefault(logger)
	return logger
}

func newServeCmd(flags *serverFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig(flags)
			return runServe(cmd.Context(), cfg, newLogger(cmd, cfg))
		},
	}
	cmd.Flags().StringVar(&flags.port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func newMigrateCmd(flags *serverFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations (or MongoDB indexes) and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig(flags)
			logger := newLogger(cmd, cfg)
			ctx := cmd.Context()

			stores, err := storage.Open(ctx, cfg, logger)
			if err != nil {
				return oops.Code(service.CodeConfig).With("operation", "open storage").Wrap(err)
			}
			defer stores.Close(context.Background())

			if err := stores.Migrate(ctx); err != nil {
				return oops.Code(service.CodeInternal).With("operation", "migrate").Wrap(err)
			}
			cmd.Println("Migrations completed successfully")
			return nil
		},
	}
}

func newCleanupCmd(flags *serverFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired sessions and OTP codes once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig(flags)
			logger := newLogger(cmd, cfg)
			ctx := cmd.Context()

			stores, err := storage.Open(ctx, cfg, logger)
			if err != nil {
				return oops.Code(service.CodeConfig).With("operation", "open storage").Wrap(err)
			}
			defer stores.Close(context.Background())

			if err := stores.Migrate(ctx); err != nil {
				return oops.Code(service.CodeInternal).With("operation", "migrate").Wrap(err)
			}

			authService := service.NewAuthService(stores.Users, stores.Sessions, stores.OTPs, nil,
				cfg.SessionDuration, cfg.OTPTTL, logger)
			sessions, otps, err := authService.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d expired sessions and %d expired OTP codes\n", sessions, otps)
			return nil
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", ":"+cfg.ServerPort)
	if err != nil {
		logging.LogError(ctx, logger, "failed to listen", err)
		return err
	}
	return serve(ctx, ln, cfg, logger)
}

// serve answers on ln straight away. /healthz reports startup progress and
// the API returns 503 until storage, mail and services are ready.
func serve(ctx context.Context, ln net.Listener, cfg *config.Config, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startup := handlers.NewStartupStatus(
		handlers.StepDatabase,
		handlers.StepMigrations,
		handlers.StepMailer,
		handlers.StepServices,
	)
	gate := handlers.NewGate(startup)

	server := &http.Server{
		Handler:      gate,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	shutdown := func() error {
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}

	startup.SetCurrentStep(handlers.StepDatabase)
	stores, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logging.LogError(ctx, logger, "failed to open storage", err)
		return errors.Join(err, shutdown())
	}
	defer stores.Close(context.Background())
	startup.CompleteStep(handlers.StepDatabase)

	startup.SetCurrentStep(handlers.StepMigrations)
	if err := stores.Migrate(ctx); err != nil {
		logging.LogError(ctx, logger, "failed to run migrations", err)
		return errors.Join(err, shutdown())
	}
	logger.Info("migrations completed")
	startup.CompleteStep(handlers.StepMigrations)

	startup.SetCurrentStep(handlers.StepMailer)
	mailer, err := newMailer(ctx, cfg, logger)
	if err != nil {
		logging.LogError(ctx, logger, "failed to configure mail", err)
		return errors.Join(err, shutdown())
	}
	emailService := service.NewEmailService(mailer, logger, cfg.Debug)
	startup.CompleteStep(handlers.StepMailer)

	startup.SetCurrentStep(handlers.StepServices)
	authService := service.NewAuthService(stores.Users, stores.Sessions, stores.OTPs, emailService,
		cfg.SessionDuration, cfg.OTPTTL, logger)
	chatService := service.NewChatService()

	router := &handlers.Router{
		Auth:       handlers.NewAuthHandler(authService, logger),
		Chat:       handlers.NewChatHandler(chatService, logger),
		Middleware: handlers.NewMiddleware(authService, logger),
		Startup:    startup,
		Logger:     logger,
	}
	startup.CompleteStep(handlers.StepServices)

	go cleanupExpired(ctx, authService, logger)

	gate.Open(router.Handler())
	logger.Info("server ready", "backend", stores.Backend)

	select {
	case err := <-errCh:
		if err != nil {
			logging.LogError(ctx, logger, "server failed", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	return shutdown()
}

// cleanupExpired periodically removes expired sessions and OTP codes
func cleanupExpired(ctx context.Context, authService *service.AuthService, logger *slog.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions, otps, err := authService.CleanupExpired(ctx)
			if err != nil {
				logging.LogError(ctx, logger, "error cleaning up expired records", err)
				continue
			}
			logger.Info("expired records cleaned up", "sessions", sessions, "otps", otps)
		}
	}
}
