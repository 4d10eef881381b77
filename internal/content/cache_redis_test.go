package content

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"portfolio-cms/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func openTestRedisCache(t *testing.T, ttl time.Duration) *RedisCache {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb, ttl)
}

func TestRedisCache_Lifecycle(t *testing.T) {
	cache := openTestRedisCache(t, 400*time.Millisecond)
	ctx := context.Background()
	key := "content:public:skills"

	b, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, b)

	require.NoError(t, cache.Set(ctx, key, []byte(`{"total":1}`)))
	b, ok, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"total":1}`, string(b))

	require.NoError(t, cache.Del(ctx, key))
	_, ok, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	// entries expire after the ttl
	require.NoError(t, cache.Set(ctx, key, []byte("x")))
	require.Eventually(t, func() bool {
		_, ok, err := cache.Get(ctx, key)
		return err == nil && !ok
	}, 5*time.Second, 50*time.Millisecond)
}

func TestRedisCache_BacksPublicListing(t *testing.T) {
	cache := openTestRedisCache(t, time.Minute)
	svc, _ := newTestService(t, WithCache(cache))
	ctx := context.Background()

	_, err := svc.Create(ctx, CollectionSkills, Fields{"name": "Go"})
	require.NoError(t, err)

	res, err := svc.ListPublic(ctx, CollectionSkills)
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)

	_, ok, err := cache.Get(ctx, "content:public:"+CollectionSkills)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Create(ctx, CollectionSkills, Fields{"name": "SQL"})
	require.NoError(t, err)
	_, ok, err = cache.Get(ctx, "content:public:"+CollectionSkills)
	require.NoError(t, err)
	assert.False(t, ok)

	res, err = svc.ListPublic(ctx, CollectionSkills)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
}
