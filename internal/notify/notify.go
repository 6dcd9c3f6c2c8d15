package notify

import (
	"context"
	"time"

	"github.com/Domenick1991/flightsales/internal/domain"
	"github.com/Domenick1991/flightsales/internal/kafka"
	"github.com/google/uuid"
)

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// KafkaNotifier publishes cancellation notices to the notifications topic;
// the mail worker turns them into emails.
type KafkaNotifier struct {
	producer Producer
	topic    string
}

func NewKafkaNotifier(producer Producer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) Send(ctx context.Context, email string, status domain.OrderStatus, flightID int64) error {
	event := kafka.OrderEvent{
		ID:          uuid.NewString(),
		Type:        "flight_canceled_notice",
		FlightID:    flightID,
		Email:       email,
		Status:      string(status),
		TriggeredAt: time.Now(),
	}
	return n.producer.Publish(ctx, n.topic, event.ID, event)
}
