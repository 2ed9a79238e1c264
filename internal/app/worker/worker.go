package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"image-compressor/internal/broker"
	kafka_impl "image-compressor/internal/broker/kafka"
	"image-compressor/internal/compress/server"
	"image-compressor/internal/config"
	"image-compressor/internal/domain"
	minio_repo "image-compressor/internal/repository/photo/cloud/minio"
	postgres_repo "image-compressor/internal/repository/photo/db/postgres"
)

// Worker consumes variant tasks and renders the preset variants for
// each uploaded photo.
type Worker struct {
	cfg         *config.Config
	logger      *zlog.Zerolog
	db          *dbpg.DB
	consumer    broker.Consumer
	engine      *server.Engine
	photoRepo   *postgres_repo.PhotosRepository
	fileRepo    *minio_repo.FileRepository
	concurrency int
	wg          sync.WaitGroup
}

func NewWorker(cfg *config.Config, logger *zlog.Zerolog) (*Worker, error) {
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

	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.Topic).
		Str("group", cfg.Kafka.GroupID).
		Int("concurrency", cfg.Worker.Concurrency).
		Msg("Worker configuration")

	return &Worker{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		consumer:    kafka_impl.NewConsumerClient(cfg),
		engine:      server.NewEngine(logger),
		photoRepo:   postgres_repo.NewPhotosRepository(db, retries),
		fileRepo:    fileRepo,
		concurrency: cfg.Worker.Concurrency,
	}, nil
}

func (w *Worker) Run() error {
	w.logger.Info().Int("concurrency", w.concurrency).Msg("Starting worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		w.logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal, stopping worker")
		cancel()
	}()

	messages := make(chan kafka.Message, w.concurrency*2)
	go w.consumer.StartConsuming(ctx, messages, w.cfg.DefaultRetryStrategy())

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.processWorker(ctx, id, messages)
		}(i)
	}

	<-ctx.Done()
	w.logger.Info().Msg("Shutting down worker gracefully")
	w.wg.Wait()

	if w.db != nil && w.db.Master != nil {
		w.db.Master.Close()
	}
	if w.consumer != nil {
		w.consumer.Close()
	}
	w.engine.Shutdown()

	w.logger.Info().Msg("Worker stopped gracefully")
	return nil
}

func (w *Worker) processWorker(ctx context.Context, id int, messages <-chan kafka.Message) {
	w.logger.Info().Int("worker_id", id).Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Int("worker_id", id).Msg("Worker stopping")
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			start := time.Now()
			if err := w.safeProcessMessage(ctx, id, msg); err != nil {
				w.logger.Error().
					Err(err).
					Int("worker_id", id).
					Int64("offset", msg.Offset).
					Msg("Failed to process message")
				continue
			}

			if err := w.consumer.Commit(ctx, msg); err != nil {
				w.logger.Error().
					Err(err).
					Int("worker_id", id).
					Int64("offset", msg.Offset).
					Msg("Failed to commit message after successful processing")
				continue
			}

			w.logger.Debug().
				Int("worker_id", id).
				Int64("offset", msg.Offset).
				Dur("duration", time.Since(start)).
				Msg("Message processed and committed")
		}
	}
}

func (w *Worker) safeProcessMessage(ctx context.Context, workerID int, msg kafka.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Int("worker_id", workerID).
				Interface("panic", r).
				Int64("offset", msg.Offset).
				Msg("Panic recovered while processing message")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.processMessage(ctx, msg)
}

func (w *Worker) processMessage(ctx context.Context, msg kafka.Message) error {
	var task domain.VariantTask
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		w.logger.Error().Err(err).Str("message", string(msg.Value)).Int64("offset", msg.Offset).Msg("Failed to unmarshal task")
		return fmt.Errorf("failed to unmarshal task: %w", err)
	}

	w.logger.Info().
		Str("task_id", task.ID).
		Str("photo_id", task.PhotoID).
		Strs("presets", task.Presets).
		Msg("Processing variant task")

	data, err := w.fileRepo.GetObject(ctx, task.Path)
	if err != nil {
		w.markFailed(ctx, task.PhotoID)
		return fmt.Errorf("failed to get photo object: %w", err)
	}

	results, err := w.engine.CreateVariants(ctx, data, task.Presets)
	if err != nil {
		w.markFailed(ctx, task.PhotoID)
		return fmt.Errorf("failed to create variants: %w", err)
	}

	for name, result := range results {
		path := fmt.Sprintf("%s%s/%s.%s",
			domain.PathPrefixVariants, task.PhotoID, name, result.Info.Format.Extension())

		if err := w.fileRepo.SaveObject(ctx, path, result.Info.Format.MimeType(), result.Buffer); err != nil {
			w.markFailed(ctx, task.PhotoID)
			return fmt.Errorf("failed to save variant %s: %w", name, err)
		}

		variant := &domain.PhotoVariant{
			PhotoID:  task.PhotoID,
			Preset:   name,
			Path:     path,
			MimeType: result.Info.Format.MimeType(),
			Width:    result.Info.Width,
			Height:   result.Info.Height,
			Size:     int64(result.Info.Size),
		}
		if err := w.photoRepo.SaveVariant(ctx, variant); err != nil {
			w.markFailed(ctx, task.PhotoID)
			return fmt.Errorf("failed to save variant record %s: %w", name, err)
		}
	}

	if err := w.photoRepo.UpdateStatus(ctx, task.PhotoID, domain.StatusReady); err != nil {
		w.logger.Error().Err(err).Str("photo_id", task.PhotoID).Msg("Failed to update status to ready")
	}

	w.logger.Info().
		Str("photo_id", task.PhotoID).
		Int("variants", len(results)).
		Msg("Variant task completed")
	return nil
}

func (w *Worker) markFailed(ctx context.Context, photoID string) {
	if err := w.photoRepo.UpdateStatus(ctx, photoID, domain.StatusFailed); err != nil {
		w.logger.Error().Err(err).Str("photo_id", photoID).Msg("Failed to update status to failed")
	}
}
