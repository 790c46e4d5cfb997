//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"dealroom/pkg/testutil/containers"
)

func TestProducerPublish(t *testing.T) {
	rp := containers.GetManager().GetRedpanda(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p, err := NewProducer([]string{rp.Brokers}, "dealroom-test", "deal.activities.test")
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.EnsureTopic(ctx, 1, 1))
	require.NoError(t, p.EnsureTopic(ctx, 1, 1), "second ensure tolerates an existing topic")
	require.NoError(t, p.Publish(ctx, []byte("tx-1"), []byte(`{"type":"stage_changed"}`)))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers),
		kgo.ConsumeTopics("deal.activities.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	var got []string
	fetches.EachRecord(func(r *kgo.Record) {
		got = append(got, string(r.Key))
	})
	require.Equal(t, []string{"tx-1"}, got)
}
