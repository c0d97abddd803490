package bus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusDeliversToAllSubscribers(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	var first, second [][]byte
	require.NoError(t, b.Subscribe(ctx, "updates", func(payload []byte) {
		first = append(first, payload)
	}))
	require.NoError(t, b.Subscribe(ctx, "updates", func(payload []byte) {
		second = append(second, payload)
	}))

	require.NoError(t, b.Publish(ctx, "updates", []byte("one")))
	require.NoError(t, b.Publish(ctx, "updates", []byte("two")))

	assert.Equal(t, [][]byte{[]byte("one"), []byte("two")}, first)
	assert.Equal(t, [][]byte{[]byte("one"), []byte("two")}, second)
}

func TestMemoryBusChannelsAreIndependent(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	var got int
	require.NoError(t, b.Subscribe(ctx, "a", func([]byte) { got++ }))

	require.NoError(t, b.Publish(ctx, "b", []byte("x")))
	assert.Zero(t, got)
}

func TestMemoryBusPublishWithoutSubscribers(t *testing.T) {
	b := NewMemoryBus()
	assert.NoError(t, b.Publish(context.Background(), "empty", []byte("x")))
}
