package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"postnest/internal/auth"
	"postnest/internal/config"
	"postnest/internal/db"
	igrpc "postnest/internal/grpc"
	"postnest/internal/logger"
	"postnest/internal/metrics"
	"postnest/internal/observability"
	"postnest/internal/rabbitmq"
	"postnest/internal/repositories"
	"postnest/internal/server"
	"postnest/internal/services"
	"postnest/internal/storage"
	"postnest/internal/telemetry"
)

const eventsExchange = "app.events"

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP and gRPC health servers",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, !skipMigrate)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply the schema on startup")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, migrate bool) error {
	database, err := db.Connect(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close()

	if migrate {
		if err := db.Migrate(ctx, database); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	if cfg.AMQPURL == "" {
		logger.Warn("AMQP_URL not set; event and audit publishing disabled")
	}
	publisher := rabbitmq.NewPublisherOrNoop(cfg.AMQPURL, eventsExchange)
	defer publisher.Close()
	auditPublisher := rabbitmq.NewPublisherOrNoop(cfg.AMQPURL, cfg.LogsExchange)
	defer auditPublisher.Close()

	observability.InitMetrics(prometheus.DefaultRegisterer)
	metrics.RegisterDomainMetrics()

	store := storage.NewS3Store(storage.S3Config{
		Bucket:    cfg.S3Bucket,
		Location:  cfg.S3Location,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Endpoint:  cfg.S3Endpoint,
	})

	userRepo := repositories.NewUserRepository(database)
	sessions := auth.NewManager(
		repositories.NewSessionRepository(database),
		auth.NewTokenSigner(cfg.SessionSecret),
		cfg.Environment == "production",
	)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.Deps{
		Users:         services.NewUserService(userRepo, store, cfg.DefaultProfileImage),
		Posts:         services.NewPostService(repositories.NewPostRepository(database, publisher), store),
		Friends:       services.NewFriendService(repositories.NewFriendRepository(database, publisher), userRepo),
		Sessions:      sessions,
		Audit:         telemetry.NewAuditEmitter(auditPublisher, cfg.ServiceName, cfg.Environment),
		DB:            database,
		MaxUploadSize: cfg.UploadMaxSize,
	})

	if _, err := igrpc.StartGRPCServer(ctx, cfg.GRPCAddr, igrpc.NewHealthServer(database)); err != nil {
		return fmt.Errorf("start gRPC server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	logger.Info("server stopped")
	return nil
}
