package content

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// mongoURIEnv carries the container address from TestMain to the tests.
const mongoURIEnv = "CMS_TEST_MONGO_URI"

// TestMain starts one MongoDB container for the package when integration
// tests are enabled:
//   GO_TEST_INTEGRATION=1 go test ./internal/content -v -count=1
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7.0",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo container: %v\n", err)
		os.Exit(1)
	}

	host, err := mongoC.Host(ctx)
	if err == nil {
		var port string
		if p, perr := mongoC.MappedPort(ctx, "27017/tcp"); perr == nil {
			port = p.Port()
		} else {
			err = perr
		}
		_ = os.Setenv(mongoURIEnv, fmt.Sprintf("mongodb://%s:%s", host, port))
	}
	if err != nil {
		_ = mongoC.Terminate(context.Background())
		fmt.Fprintf(os.Stderr, "failed to resolve mongo address: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

func openTestMongo(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv(mongoURIEnv)
	if uri == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := OpenMongo(ctx, uri, "cms_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestMongoStore_Lifecycle(t *testing.T) {
	s := openTestMongo(t)
	svc := NewService(s)
	ctx := context.Background()

	first, err := svc.Create(ctx, CollectionServices, Fields{"title": "Consulting", "tags": []any{"go", "infra"}})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := svc.Create(ctx, CollectionServices, Fields{"title": "Training"})
	require.NoError(t, err)

	res, err := svc.List(ctx, CollectionServices)
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	assert.Equal(t, second.ID, res.Documents[0].ID)

	pub, err := svc.ListPublic(ctx, CollectionServices)
	require.NoError(t, err)
	assert.Equal(t, first.ID, pub.Documents[0].ID)

	got, err := svc.Get(ctx, CollectionServices, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []any{"go", "infra"}, got.Fields["tags"])
	assert.Equal(t, first.CreatedAt, got.CreatedAt)

	upd, err := svc.Update(ctx, CollectionServices, first.ID, Fields{"title": "Advisory"})
	require.NoError(t, err)
	assert.Equal(t, "Advisory", upd.Fields["title"])
	assert.Equal(t, []any{"go", "infra"}, upd.Fields["tags"])

	_, err = svc.Update(ctx, CollectionServices, "missing", Fields{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, CollectionServices, second.ID))
	assert.ErrorIs(t, svc.Delete(ctx, CollectionServices, second.ID), ErrNotFound)
	_, err = svc.Get(ctx, CollectionServices, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
