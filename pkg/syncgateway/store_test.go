package syncgateway

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreOrderSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.db")

	store, err := OpenStore(path)
	require.NoError(t, err)
	for _, id := range []string{"req-1", "req-2", "req-3"} {
		op := &Op{RequestID: id, Method: "POST", Path: "/location", Body: []byte(`{}`)}
		require.NoError(t, store.Enqueue(ctx, op))
		assert.NotZero(t, op.Seq)
	}
	require.NoError(t, store.Close())

	reopened, err := OpenStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	ops, err := reopened.NextBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, "req-1", ops[0].RequestID)
	assert.Equal(t, "req-2", ops[1].RequestID)
	assert.Equal(t, "req-3", ops[2].RequestID)
	assert.Less(t, ops[0].Seq, ops[1].Seq)
	assert.Less(t, ops[1].Seq, ops[2].Seq)
	assert.False(t, ops[0].QueuedAt.IsZero())
}

func TestStoreDropsDuplicateRequestID(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Enqueue(ctx, &Op{RequestID: "req-1", Method: "POST", Path: "/location"}))
	require.NoError(t, store.Enqueue(ctx, &Op{RequestID: "req-1", Method: "POST", Path: "/location"}))

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStoreDeleteAndMarkAttempt(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	defer store.Close()

	op := &Op{RequestID: "req-1", Method: "POST", Path: "/location"}
	require.NoError(t, store.Enqueue(ctx, op))

	require.NoError(t, store.MarkAttempt(ctx, op.Seq))
	require.NoError(t, store.MarkAttempt(ctx, op.Seq))

	ops, err := store.NextBatch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, 2, ops[0].Attempts)

	require.NoError(t, store.Delete(ctx, op.Seq))
	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
