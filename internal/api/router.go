package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"campusconnect/connect/internal/api/handlers"
	"campusconnect/connect/internal/api/middleware"
	"campusconnect/connect/internal/config"
	"campusconnect/connect/internal/logging"
	"campusconnect/connect/internal/services"
	"campusconnect/connect/internal/storage"
)

const (
	uploadRateLimitPrefix = "ratelimit:upload"
	// Room for the JSON envelope and the other upload fields around base64Data.
	uploadBodyAllowance = 64 << 10
)

// SetupRouter configures and returns the main Gin engine. rdb may be nil, in
// which case upload limits are kept in process memory. store may be nil when
// object storage is not configured, and thumbnails nil to skip thumbnails.
func SetupRouter(ctx context.Context, cfg *config.Config, db *mongo.Database, rdb *redis.Client, store storage.IObjectStorage, thumbnails services.IThumbnailEnqueuer, logger *zap.Logger) *gin.Engine {
	favoriteService := services.NewFavoriteService(db)
	listingService := services.NewListingService(db, cfg, favoriteService)
	projectService := services.NewProjectService(db)
	uploadService := services.NewUploadService(cfg, store, projectService, thumbnails, logger)

	var uploadLimiter middleware.Limiter
	if rdb != nil {
		uploadLimiter = middleware.NewRedisLimiter(rdb, uploadRateLimitPrefix, cfg.UploadRateLimitPerMinute)
	} else {
		uploadLimiter = middleware.NewMemoryLimiter(ctx, cfg.UploadRateLimitPerMinute)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.GinLogger(logger))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	restListingHandler := handlers.NewRestListingHandler(listingService)
	restFavoriteHandler := handlers.NewRestFavoriteHandler(favoriteService)
	uploadHandler := handlers.NewUploadHandler(uploadService, int64(cfg.UploadMaxBase64Bytes)+uploadBodyAllowance)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		public := v1.Group("/")
		public.Use(middleware.OptionalAuthMiddleware(cfg.JwtSecret))
		{
			public.GET("/listings", restListingHandler.GetListings)
			public.GET("/listings/:id", restListingHandler.GetListingByID)
		}

		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.POST("/listings", restListingHandler.CreateListing)
			authRequired.POST("/listings/:id/favorite", restFavoriteHandler.ToggleFavorite)
			authRequired.GET("/favorites", restFavoriteHandler.ListFavorites)
		}
	}

	// Checks run in this order: token, origin, per-user limit, then the
	// handler's payload and folder checks.
	r.POST("/api/upload",
		middleware.AuthMiddleware(cfg.JwtSecret),
		middleware.OriginCheck(cfg.AllowedOrigins, logger),
		middleware.PerUserRateLimit(uploadLimiter, logger),
		uploadHandler.Upload,
	)

	return r
}
