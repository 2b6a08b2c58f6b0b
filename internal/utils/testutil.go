package utils

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"campusconnect/connect/internal/cache"
	"campusconnect/connect/internal/config"
)

var (
	testMongoURI  string
	testRedisAddr string
)

func init() {
	loadTestEnv()
}

// loadTestEnv loads the .env file from the project root, if any.
func loadTestEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "..", "..")
	if err := godotenv.Load(filepath.Join(projectRoot, ".env")); err != nil {
		_ = godotenv.Load()
	}
	testMongoURI = os.Getenv("MONGO_URI")
	testRedisAddr = os.Getenv("REDIS_ADDR")
}

// SetupTestDB connects to the test MongoDB and drops the given collections so
// each test starts clean. Tests are skipped when MONGO_URI is not set.
func SetupTestDB(t *testing.T, dbName string, collections ...string) *mongo.Database {
	t.Helper()
	if testMongoURI == "" {
		t.Skip("MONGO_URI not set, skipping MongoDB-backed test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(testMongoURI))
	require.NoError(t, err, "Failed to connect to MongoDB")
	require.NoError(t, client.Ping(ctx, nil), "Failed to ping MongoDB")

	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	db := client.Database(dbName)
	for _, collection := range collections {
		_ = db.Collection(collection).Drop(ctx)
	}
	return db
}

// GetTestMongoURI returns the test MongoDB URI for direct use if needed.
func GetTestMongoURI() string {
	return testMongoURI
}

// SetupTestRedis connects to the test Redis. Tests are skipped when
// REDIS_ADDR is not set. Callers should use keys unique to the test.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testRedisAddr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis-backed test")
	}

	cfg := &config.Config{RedisAddr: testRedisAddr, RedisPassword: os.Getenv("REDIS_PASSWORD")}
	rdb, err := cache.ConnectRedis(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err, "Failed to connect to Redis")
	t.Cleanup(func() {
		cache.DisconnectRedis(rdb, zap.NewNop())
	})
	return rdb
}
