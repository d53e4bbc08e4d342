package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsAcceptsURL(t *testing.T) {
	opts, err := Options("redis://:s3cret@cache.internal:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "s3cret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = Options(" 127.0.0.1:6379 ")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)

	_, err = Options("")
	assert.Error(t, err)
}

func TestQueueOptsMirrorsRedisOptions(t *testing.T) {
	opts, err := QueueOpts("redis://:pw@q:6379/3")
	require.NoError(t, err)
	assert.Equal(t, "q:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)
}

func TestNewPings(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := New(context.Background(), srv.Addr(), "novaq-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())

	srv.Close()
	_, err = New(context.Background(), srv.Addr(), "novaq-test")
	assert.Error(t, err)
}
