package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)

	return mr, client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		expectError bool
	}{
		{
			name:        "Invalid URL scheme",
			url:         "invalid://url",
			expectError: true,
		},
		{
			name:        "Empty URL",
			url:         "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, "test", zap.NewNop())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, client)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, client)
			}
		})
	}
}

func TestClient_GetSet(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	err := client.Set(ctx, "test:key1", "value1", time.Minute)
	require.NoError(t, err)

	value, err := client.Get(ctx, "test:key1")
	assert.NoError(t, err)
	assert.Equal(t, "value1", value)

	// Missing key surfaces as an error
	_, err = client.Get(ctx, "test:nonexistent")
	assert.Error(t, err)

	// TTL was applied
	assert.Greater(t, mr.TTL("test:key1"), time.Duration(0))
}

func TestClient_SetNX(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	ok, err := client.SetNX(ctx, "test:once", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, "test:once", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	value, err := client.Get(ctx, "test:once")
	require.NoError(t, err)
	assert.Equal(t, "first", value)
}

func TestClient_Delete(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	mr.Set("test:key1", "value1")
	mr.Set("test:key2", "value2")

	err := client.Delete(ctx, "test:key1", "test:key2", "test:nonexistent")
	assert.NoError(t, err)

	assert.False(t, mr.Exists("test:key1"))
	assert.False(t, mr.Exists("test:key2"))
}

func TestClient_Exists(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	mr.Set("test:exists1", "value1")
	mr.Set("test:exists2", "value2")

	tests := []struct {
		name          string
		keys          []string
		expectedCount int64
	}{
		{
			name:          "Single existing key",
			keys:          []string{"test:exists1"},
			expectedCount: 1,
		},
		{
			name:          "Multiple existing keys",
			keys:          []string{"test:exists1", "test:exists2"},
			expectedCount: 2,
		},
		{
			name:          "Non-existent key",
			keys:          []string{"test:nonexistent"},
			expectedCount: 0,
		},
		{
			name:          "Mixed existing and non-existent",
			keys:          []string{"test:exists1", "test:nonexistent"},
			expectedCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := client.Exists(ctx, tt.keys...)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedCount, count)
		})
	}
}

func TestClient_Publish(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	// Publish with no subscribers should not error
	err := client.Publish(ctx, ChannelNotifications, `{"kind":"booking_approved"}`)
	assert.NoError(t, err)
}

func TestClient_Health(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	err := client.Health(ctx)
	assert.NoError(t, err)

	mr.Close()
	err = client.Health(ctx)
	assert.Error(t, err)
}

func TestClient_Close(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	err := client.Close()
	assert.NoError(t, err)

	ctx := context.Background()
	_, err = client.Get(ctx, "test:key")
	assert.Error(t, err)
}

func TestPrefixForLog(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "Long key is truncated after the collection segment",
			key:      "election:5f2c1d8e-aaaa:voter:user-42",
			expected: "election:5f2c1d8...",
		},
		{
			name:     "Short key passes through",
			key:      "booking",
			expected: "booking",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, prefixForLog(tt.key))
		})
	}
}
