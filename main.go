package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"campusconnect/connect/internal/api"
	"campusconnect/connect/internal/cache"
	"campusconnect/connect/internal/config"
	"campusconnect/connect/internal/db"
	"campusconnect/connect/internal/logging"
	"campusconnect/connect/internal/services"
	"campusconnect/connect/internal/storage"
	"campusconnect/connect/internal/tasks"
)

const (
	modeAPI    = "api"
	modeWorker = "worker"
	modeAll    = "all"
)

var (
	verbose bool
	runMode string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "connect",
	Short: "Campus Connect marketplace server and client",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server, the media worker, or both",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkRunMode(runMode, true); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	serveCmd.Flags().StringVarP(&runMode, "mode", "m", modeAll, "Run mode: 'api', 'worker' or 'all'")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(favoriteCmd)
}

// checkRunMode rejects unknown modes and modes that start the media worker
// without object storage. It runs before any connection is opened.
func checkRunMode(mode string, storageConfigured bool) error {
	switch mode {
	case modeAPI:
		return nil
	case modeWorker, modeAll:
		if !storageConfigured {
			return errors.New("the media worker needs object storage; set AWS_S3_BUCKET and AWS_REGION")
		}
		return nil
	}
	return fmt.Errorf("invalid run mode %q: want api, worker or all", mode)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(runMode)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Verbose && !verbose {
		if logger, err = logging.New(true); err != nil {
			return err
		}
	}
	if err := checkRunMode(cfg.RunMode, cfg.StorageConfigured()); err != nil {
		return err
	}

	redisClient, err := cache.ConnectRedis(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cache.DisconnectRedis(redisClient, logger)

	var store storage.IObjectStorage
	if cfg.StorageConfigured() {
		if store, err = storage.NewS3Storage(ctx, cfg); err != nil {
			return err
		}
	} else {
		logger.Warn("object storage not configured, uploads are disabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	logger.Info("starting", zap.String("mode", cfg.RunMode))

	if cfg.RunMode == modeAPI || cfg.RunMode == modeAll {
		mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.DisconnectDB(mongoClient); err != nil {
				logger.Warn("error disconnecting from MongoDB", zap.Error(err))
			}
		}()
		if err := db.EnsureIndexes(ctx, mongoDb); err != nil {
			return err
		}

		taskClient := tasks.NewClient(redisClient)
		defer taskClient.Close()

		var thumbnails services.IThumbnailEnqueuer
		if store != nil {
			thumbnails = tasks.NewEnqueuer(taskClient, logger)
		}

		router := api.SetupRouter(gctx, cfg, mongoDb, redisClient, store, thumbnails, logger)
		srv := &http.Server{
			Addr:              ":" + cfg.ApiPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("API listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("API server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			logger.Info("shutting down API server")
			return srv.Shutdown(shutdownCtx)
		})
	}

	if cfg.RunMode == modeWorker || cfg.RunMode == modeAll {
		processor := tasks.NewTaskProcessor(cfg, store, logger)
		taskSrv, mux := tasks.SetupServer(redisClient, processor, logger)
		g.Go(func() error {
			if err := taskSrv.Start(mux); err != nil {
				return fmt.Errorf("task server: %w", err)
			}
			<-gctx.Done()
			logger.Info("shutting down task server")
			taskSrv.Shutdown()
			return nil
		})
	}

	err = g.Wait()
	logger.Info("stopped")
	return err
}
