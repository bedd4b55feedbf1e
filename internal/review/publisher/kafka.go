package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"claimaudit/internal/review/models"
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

var _ Producer = (*kgo.Client)(nil)

// KafkaPublisher publishes finished assessments for the PDF and e-mail
// renderers. Records are keyed by file number so a claim's assessments stay
// ordered within one partition.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

func NewKafka(producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, a *models.Assessment) error {
	value, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(a.FileNumber),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "assessment_id", Value: []byte(a.ID.String())},
			{Key: "fraud_risk", Value: []byte(a.FraudRisk)},
		},
	}
	if a.RequestID != "" {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: "request_id", Value: []byte(a.RequestID)})
	}
	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish assessment: %w", err)
	}
	return nil
}
