package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/devdems/evse-plc/internal/config"
)

func TestNewClient_Errors(t *testing.T) {
	_, err := NewClient(context.Background(), cfgpkg.RedisConfig{})
	assert.ErrorContains(t, err, "not enabled")

	_, err = NewClient(context.Background(), cfgpkg.RedisConfig{Enabled: true, Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	assert.ErrorContains(t, err, "redis ping 127.0.0.1:1")

	var c *Client
	assert.NoError(t, c.Close())
}

func TestClient_Probe(t *testing.T) {
	rdb := testClient(t)
	c := &Client{Client: rdb}
	ctx := context.Background()

	p, err := c.Probe(ctx)
	require.NoError(t, err)
	assert.Zero(t, p.SessionsIndexed)
	require.NotNil(t, p.Pool)

	r := NewSessionRecorder(rdb, 10, 0, nil)
	require.NoError(t, r.Record(ctx, rep(1)))
	require.NoError(t, r.Record(ctx, rep(2)))
	p, err = c.Probe(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.SessionsIndexed)
}
