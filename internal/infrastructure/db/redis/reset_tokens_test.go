package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/blogcom/account-api/internal/core/domain"
)

func newTestStore(t *testing.T) *ResetTokenStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := Connect(ctx, Config{Addr: endpoint})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewResetTokenStore(client)
}

func TestResetTokenStore_ConsumeOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tok", "user-1", time.Minute))

	id, err := store.Consume(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	_, err = store.Consume(ctx, "tok")
	assert.ErrorIs(t, err, domain.ErrInvalidResetToken)
}

func TestResetTokenStore_Expires(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "short", "user-1", 50*time.Millisecond))
	time.Sleep(200 * time.Millisecond)

	_, err := store.Consume(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrInvalidResetToken)
}

func TestResetTokenStore_UnknownToken(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Consume(context.Background(), "never-issued")
	assert.ErrorIs(t, err, domain.ErrInvalidResetToken)
}
