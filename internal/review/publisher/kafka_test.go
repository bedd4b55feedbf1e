package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"claimaudit/internal/fraud"
	"claimaudit/internal/review/models"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	var results kgo.ProduceResults
	for _, r := range rs {
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func TestKafkaPublisherPublish(t *testing.T) {
	producer := &fakeProducer{}
	p := NewKafka(producer, "claim-assessments")
	a := &models.Assessment{
		ID:         uuid.New(),
		RequestID:  "req-1",
		FileNumber: "F-77",
		FinalScore: 65,
		FraudRisk:  fraud.RiskHigh,
	}

	require.NoError(t, p.Publish(context.Background(), a))
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "claim-assessments", rec.Topic)
	assert.Equal(t, []byte("F-77"), rec.Key)
	assert.Contains(t, rec.Headers, kgo.RecordHeader{Key: "request_id", Value: []byte("req-1")})
	assert.Contains(t, rec.Headers, kgo.RecordHeader{Key: "fraud_risk", Value: []byte("High")})

	var decoded models.Assessment
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, a.ID, decoded.ID)
	assert.Equal(t, 65, decoded.FinalScore)
}

func TestKafkaPublisherPropagatesProduceError(t *testing.T) {
	p := NewKafka(&fakeProducer{err: errors.New("broker down")}, "t")
	err := p.Publish(context.Background(), &models.Assessment{ID: uuid.New()})
	assert.ErrorContains(t, err, "broker down")
}
