package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"eldcore/internal/hos/models"
)

// KafkaSink produces one record per violation, keyed by driver so a driver's records
// stay ordered within a partition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

func NewKafkaSink(client *kgo.Client, topic string) *KafkaSink {
	return &KafkaSink{client: client, topic: topic}
}

func (s *KafkaSink) Publish(ctx context.Context, batch []models.Violation) error {
	records := make([]*kgo.Record, 0, len(batch))
	for _, v := range batch {
		value, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal violation %s: %w", v.ID, err)
		}
		records = append(records, &kgo.Record{
			Topic: s.topic,
			Key:   []byte(v.DriverID),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "rule_id", Value: []byte(v.RuleID)},
				{Key: "status", Value: []byte(v.Status)},
			},
		})
	}
	if err := s.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce violations: %w", err)
	}
	return nil
}
