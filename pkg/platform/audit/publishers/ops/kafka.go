package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SmartForm247/EasyForm2/internal/platform/kafka"
	audit "github.com/SmartForm247/EasyForm2/pkg/platform/audit"
)

// Topic carries operational audit events for dashboards and debugging.
const Topic = "easyform.audit.ops"

// KafkaPublisher forwards audit events to the ops topic as JSON.
type KafkaPublisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

func NewKafkaPublisher(ctx context.Context, producer *kafka.Producer, logger *slog.Logger) (*KafkaPublisher, error) {
	if producer == nil {
		return nil, nil
	}
	if err := producer.EnsureTopic(ctx, Topic); err != nil {
		return nil, fmt.Errorf("ensure ops topic: %w", err)
	}
	return &KafkaPublisher{producer: producer, logger: logger}, nil
}

type wireEvent struct {
	Timestamp      string `json:"timestamp"`
	UserID         string `json:"user_id,omitempty"`
	RegistrationID string `json:"registration_id,omitempty"`
	Action         string `json:"action"`
	Subject        string `json:"subject,omitempty"`
	Detail         string `json:"detail,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

func (p *KafkaPublisher) Publish(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(wireEvent{
		Timestamp:      event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		UserID:         event.UserID,
		RegistrationID: event.RegistrationID,
		Action:         string(event.Action),
		Subject:        event.Subject,
		Detail:         event.Detail,
		RequestID:      event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if err := p.producer.Produce(ctx, Topic, []byte(string(event.Action)), payload); err != nil {
		p.logger.WarnContext(ctx, "ops audit publish failed", "error", err)
		return err
	}
	return nil
}
