//go:build integration

package checkpoint

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/restlab/paged-collection-client/pkg/collection"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestRedisStore_Integration_SaveLoadDelete(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := NewRedisStore(redisClient, 0)
	ctx := context.Background()

	cursor := collection.Cursor{
		Strategy: collection.StrategyMarker,
		Marker:   "m42",
		Valid:    true,
	}

	if err := store.Save(ctx, "files-walk", cursor); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, "files-walk")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != cursor {
		t.Errorf("Load() = %+v, want %+v", got, cursor)
	}

	if err := store.Delete(ctx, "files-walk"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := store.Load(ctx, "files-walk"); err != ErrNotFound {
		t.Errorf("Load() after delete error = %v, want ErrNotFound", err)
	}
}

func TestRedisStore_Integration_TTL(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := NewRedisStore(redisClient, 1*time.Second)
	ctx := context.Background()

	cursor := collection.Cursor{Strategy: collection.StrategyOffset, Offset: 10, Valid: true}
	if err := store.Save(ctx, "short-lived", cursor); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := store.Load(ctx, "short-lived"); err != nil {
		t.Fatalf("Load() before expiry error = %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	if _, err := store.Load(ctx, "short-lived"); err != ErrNotFound {
		t.Errorf("Load() after expiry error = %v, want ErrNotFound", err)
	}
}

func TestRedisStore_Integration_InvalidPayload(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := NewRedisStore(redisClient, 0)
	ctx := context.Background()

	if err := redisClient.Set(ctx, redisKeyPrefix+"corrupt", "not json", 0).Err(); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}

	_, err := store.Load(ctx, "corrupt")
	if err == nil {
		t.Fatal("Load() of corrupt payload succeeded, want error")
	}
}
