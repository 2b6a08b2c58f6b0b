package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders for image.Decode
	"image/jpeg"
	_ "image/png"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"campusconnect/connect/internal/config"
	"campusconnect/connect/internal/storage"
)

// TaskType defines the type of a background task.
const (
	TypeMediaThumbnail = "media:thumbnail"
)

const (
	QueueImages  = "images"
	QueueDefault = "default"

	ThumbnailPrefix = "thumbs/"
)

// ThumbnailPayload names the stored object to process.
type ThumbnailPayload struct {
	Key string `json:"key"`
}

// --- Task Client (Enqueuing tasks) ---

func redisClientOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisClientOpt(rdb))
}

// NewThumbnailTask builds the task for key.
func NewThumbnailTask(key string) (*asynq.Task, error) {
	payload, err := json.Marshal(ThumbnailPayload{Key: key})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal thumbnail payload: %w", err)
	}
	return asynq.NewTask(TypeMediaThumbnail, payload,
		asynq.Queue(QueueImages),
		asynq.MaxRetry(5),
		asynq.Timeout(2*time.Minute),
	), nil
}

// Enqueuer puts thumbnail tasks on the queue.
type Enqueuer struct {
	client *asynq.Client
	logger *zap.Logger
}

func NewEnqueuer(client *asynq.Client, logger *zap.Logger) *Enqueuer {
	return &Enqueuer{client: client, logger: logger}
}

func (e *Enqueuer) EnqueueThumbnail(ctx context.Context, key string) error {
	task, err := NewThumbnailTask(key)
	if err != nil {
		return err
	}
	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue thumbnail for %s: %w", key, err)
	}
	e.logger.Debug("thumbnail task enqueued", zap.String("task_id", info.ID), zap.String("key", key))
	return nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
type TaskProcessor struct {
	cfg    *config.Config
	store  storage.IObjectStorage
	logger *zap.Logger
}

func NewTaskProcessor(cfg *config.Config, store storage.IObjectStorage, logger *zap.Logger) *TaskProcessor {
	return &TaskProcessor{cfg: cfg, store: store, logger: logger}
}

// SetupServer configures the asynq server and its handlers. The caller runs
// and shuts it down.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, logger *zap.Logger) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		redisClientOpt(rdb),
		asynq.Config{
			Queues: map[string]int{
				QueueImages:  5,
				QueueDefault: 3,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed",
					zap.String("type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err))
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeMediaThumbnail, processor.HandleThumbnailTask)
	logger.Info("registered task handlers", zap.String("type", TypeMediaThumbnail))
	return srv, mux
}

// --- Task Handlers ---

// HandleThumbnailTask writes a JPEG thumbnail of the object under
// ThumbnailPrefix. The original object is only read, never rewritten.
func (p *TaskProcessor) HandleThumbnailTask(ctx context.Context, t *asynq.Task) error {
	var payload ThumbnailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal thumbnail payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Key == "" {
		return fmt.Errorf("thumbnail payload has no key: %w", asynq.SkipRetry)
	}
	log := p.logger.With(zap.String("key", payload.Key))

	obj, err := p.store.Get(ctx, payload.Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			log.Warn("object not found, skipping thumbnail")
			return fmt.Errorf("object not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download image: %w", err)
	}

	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	if int64(len(obj.Data)) > maxSizeBytes {
		log.Warn("image exceeds max size", zap.Int("bytes", len(obj.Data)), zap.Int64("max", maxSizeBytes))
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	header, _, err := image.DecodeConfig(bytes.NewReader(obj.Data))
	if err != nil {
		log.Warn("cannot read image header", zap.Error(err))
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	if maxDim := p.cfg.ImageMaxDimension; maxDim > 0 && (header.Width > maxDim || header.Height > maxDim) {
		log.Warn("image dimensions exceed limit",
			zap.Int("width", header.Width), zap.Int("height", header.Height), zap.Int("max", maxDim))
		return fmt.Errorf("image dimensions %dx%d exceed %d: %w", header.Width, header.Height, maxDim, asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(obj.Data))
	if err != nil {
		log.Warn("cannot decode image", zap.Error(err))
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	log.Debug("decoded image", zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))

	thumbDim := uint(p.cfg.ThumbnailDimension)
	thumb, err := encodeJPEG(resize.Thumbnail(thumbDim, thumbDim, img, resize.Lanczos3))
	if err != nil {
		return err
	}
	thumbKey := ThumbnailPrefix + payload.Key
	if err := p.store.Put(ctx, thumbKey, thumb, "image/jpeg"); err != nil {
		return fmt.Errorf("failed to store thumbnail: %w", err)
	}

	log.Info("thumbnail stored", zap.String("thumbnail_key", thumbKey), zap.Int("bytes", len(thumb)))
	return nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
