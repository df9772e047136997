package publisher

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisher(t *testing.T) {
	mr := miniredis.RunT(t)

	ctx := context.Background()
	publisher := NewRedisPublisher(ctx, mr.Addr(), 0, "test_summaries", 1, 2)
	defer publisher.Close()
	require.NoError(t, publisher.Ping())

	err := publisher.Publish("Booster Box", []byte("test_message"))
	assert.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	messages, err := client.XRange(ctx, "test_summaries:0", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)

	assert.Equal(t, "Booster Box", messages[0].Values[FieldProduct])

	// The summary should be base64 encoded
	assert.Equal(t, "dGVzdF9tZXNzYWdl", messages[0].Values[FieldSummary])
	decoded, err := base64.StdEncoding.DecodeString(messages[0].Values[FieldSummary].(string))
	require.NoError(t, err)
	assert.Equal(t, "test_message", string(decoded))
}

func TestRedisPublisherStreamFor(t *testing.T) {
	mr := miniredis.RunT(t)

	ctx := context.Background()
	publisher := NewRedisPublisher(ctx, mr.Addr(), 0, "test_summaries", 4, 0)
	defer publisher.Close()

	keys := []string{"Booster Box", "Elite Trainer Box", "Paldea Evolved", "Obsidian Flames", "151"}
	for _, key := range keys {
		stream := publisher.StreamFor(key)
		assert.Equal(t, stream, publisher.StreamFor(key))
		assert.Contains(t, []string{"test_summaries:0", "test_summaries:1", "test_summaries:2", "test_summaries:3"}, stream)
	}

	// Messages for one product stay on one stream in order
	for i := 0; i < 3; i++ {
		require.NoError(t, publisher.Publish("Booster Box", []byte(fmt.Sprintf("day %d", i))))
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	messages, err := client.XRange(ctx, publisher.StreamFor("Booster Box"), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for i, msg := range messages {
		decoded, err := base64.StdEncoding.DecodeString(msg.Values[FieldSummary].(string))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("day %d", i), string(decoded))
	}
}

func TestRedisPublisherTrimStreams(t *testing.T) {
	mr := miniredis.RunT(t)

	ctx := context.Background()
	publisher := NewRedisPublisher(ctx, mr.Addr(), 0, "test_trim", 1, 2)
	defer publisher.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, publisher.Publish("p", []byte(fmt.Sprintf("message %d", i))))
	}
	require.NoError(t, publisher.TrimStreams())

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	length, err := client.XLen(ctx, "test_trim:0").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)
}
