//go:build integration

package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"claimaudit/internal/platform/config"
	"claimaudit/internal/platform/kafka"
	"claimaudit/internal/review/models"
	"claimaudit/pkg/testutil/containers"
)

func TestKafkaPublisherRoundTrip(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := kafka.New(config.KafkaConfig{Brokers: rp.Broker, Topic: "assessments", DeliveryTimeout: 10 * time.Second})
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, kafka.EnsureTopic(ctx, client, "assessments", 1, 1))
	// a second call must tolerate the existing topic
	require.NoError(t, kafka.EnsureTopic(ctx, client, "assessments", 1, 1))

	a := &models.Assessment{ID: uuid.New(), FileNumber: "F-9", FinalScore: 80}
	require.NoError(t, NewKafka(client, "assessments").Publish(ctx, a))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics("assessments"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)

	var got models.Assessment
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "F-9", string(records[0].Key))
}
