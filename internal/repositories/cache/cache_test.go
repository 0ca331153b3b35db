package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRateCounter_Window(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	counter := NewRateCounter(client, "test", 2, time.Minute)

	for i := 1; i <= 2; i++ {
		d, err := counter.Allow(ctx, "user:1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.EqualValues(t, i, d.Count)
	}

	d, err := counter.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.EqualValues(t, 0, d.Remaining)
	assert.True(t, d.ResetIn > 0 && d.ResetIn <= time.Minute)

	// other callers have their own window
	d, err = counter.Allow(ctx, "user:2")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestCacheService_RoundTrip(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	svc := NewCacheService(client, time.Minute)

	type report struct {
		RunID string `json:"run_id"`
		Total int    `json:"total"`
	}
	key := svc.GenerateKey("audit", "report", "200:7")
	assert.Equal(t, "audit:report:200:7", key)

	var got report
	found, err := svc.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, svc.Set(ctx, key, report{RunID: "r1", Total: 3}))
	found, err = svc.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, report{RunID: "r1", Total: 3}, got)

	require.NoError(t, svc.Delete(ctx, key))
	found, err = svc.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRateCounter_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	_, err := NewRateCounter(client, "test", 5, time.Minute).Allow(context.Background(), "ip:1.2.3.4")
	assert.Error(t, err)
}

func TestNewRateCounter_Defaults(t *testing.T) {
	c := NewRateCounter(nil, "p", 0, 0)
	assert.EqualValues(t, 60, c.Limit())
	assert.Equal(t, time.Minute, c.window)
}
