package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"health-assistant/internal/config"
	apphttp "health-assistant/internal/http"
	"health-assistant/internal/repository"
	"health-assistant/internal/repository/mongodb"
	"health-assistant/internal/repository/sqlite"
	"health-assistant/internal/service"
	"health-assistant/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, recs, closer, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer closer.Close()

	if err := users.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := recs.Init(ctx); err != nil {
		logger.Fatalf("init recommendation repository: %v", err)
	}

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	authService := service.NewAuthService(users, service.AuthConfig{
		JWTSecret:  cfg.Auth.JWTSecret,
		BcryptCost: cfg.Auth.BcryptCost,
	}, logger)
	recService := service.NewRecommendationService(recs, storageSvc, service.AttachmentConfig{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
	}, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	apphttp.NewHandler(authService, recService, logger).RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func openRepositories(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.UserRepository, repository.RecommendationRepository, io.Closer, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Database.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Infof("using sqlite database %s", cfg.Database.Path)
		return sqlite.NewUserRepository(db), sqlite.NewRecommendationRepository(db), db, nil
	default:
		client, db, err := mongodb.Open(ctx, cfg.Database.URI, cfg.Database.Name)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Infof("connected to mongodb database %s", db.Name())
		closer := closerFunc(func() error {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(disconnectCtx)
		})
		return mongodb.NewUserRepository(db), mongodb.NewRecommendationRepository(db), closer, nil
	}
}

// buildStorage returns nil when no bucket is configured; recommendation images are then rejected.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("storage bucket not set, image attachments disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
