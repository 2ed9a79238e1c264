package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	avatar_pkg "image-compressor/internal/avatar"
	"image-compressor/internal/broker"
	kafka_impl "image-compressor/internal/broker/kafka"
	"image-compressor/internal/compress/server"
	"image-compressor/internal/config"
	avatar_h "image-compressor/internal/http-server/handler/avatar"
	image_h "image-compressor/internal/http-server/handler/image"
	photo_h "image-compressor/internal/http-server/handler/photo"
	"image-compressor/internal/http-server/router"
	minio_repo "image-compressor/internal/repository/photo/cloud/minio"
	postgres_repo "image-compressor/internal/repository/photo/db/postgres"
	photo_uc "image-compressor/internal/usecase/photo"
)

type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	db       *dbpg.DB
	engine   *server.Engine
	producer broker.Producer
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	retries := cfg.DefaultRetryStrategy()

	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}

	db, err := dbpg.New(cfg.DBDSN(), []string{}, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	fileRepo, err := minio_repo.NewFileRepository(cfg, retries, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file repository: %w", err)
	}

	photoRepo := postgres_repo.NewPhotosRepository(db, retries)
	producer := kafka_impl.NewProducerClient(cfg)
	engine := server.NewEngine(logger)

	renderer, err := avatar_pkg.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create avatar renderer: %w", err)
	}

	photoUsecase := photo_uc.NewPhotoUsecase(photoRepo, fileRepo, engine, producer, logger, retries)

	h := &router.Handler{
		PhotoHandler:  photo_h.NewPhotoHandler(photoUsecase, logger),
		ImageHandler:  image_h.NewImageHandler(engine, logger),
		AvatarHandler: avatar_h.NewAvatarHandler(renderer, logger),
	}

	mux := router.SetupRouter(h)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		server:   srv,
		logger:   logger,
		db:       db,
		engine:   engine,
		producer: producer,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		if a.db != nil && a.db.Master != nil {
			a.db.Master.Close()
		}

		if a.producer != nil {
			a.producer.Close()
		}

		a.engine.Shutdown()

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}
