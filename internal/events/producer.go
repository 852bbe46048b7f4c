package events

import (
	"SkillMarket/pkg/logger"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EnrollmentCompleted is emitted after a payment commit succeeds. Consumers
// (notifications, analytics) must tolerate redelivery: the enrollment id is
// the deduplication key.
type EnrollmentCompleted struct {
	EnrollmentID    uuid.UUID `json:"enrollment_id"`
	PaymentID       uuid.UUID `json:"payment_id"`
	UserID          uuid.UUID `json:"user_id"`
	CourseID        uuid.UUID `json:"course_id"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	AlreadyEnrolled bool      `json:"already_enrolled"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type Producer struct {
	log    logger.Log
	writer *kafka.Writer
}

func NewProducer(log logger.Log, brokers []string, topic string) *Producer {
	return &Producer{
		log: log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) PublishEnrollmentCompleted(ctx context.Context, ev EnrollmentCompleted) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.UserID.String()),
		Value: payload,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
