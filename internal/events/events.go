// Package events announces logged exercises to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "exercise.logged"

// Publishing runs on the request path; the writer must not hold a batch open
// for kafka-go's one second default.
const publishBatchTimeout = 10 * time.Millisecond

// ExerciseLogged is the payload published after an exercise is stored.
type ExerciseLogged struct {
	ExerciseID  string    `json:"exercise_id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Description string    `json:"description"`
	Duration    int       `json:"duration"`
	Date        string    `json:"date"`
	LoggedAt    time.Time `json:"logged_at"`
}

type Publisher interface {
	PublishExerciseLogged(ctx context.Context, event ExerciseLogged) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
			BatchTimeout:           publishBatchTimeout,
		},
	}
}

// PublishExerciseLogged writes the event keyed by user so one user's events
// stay ordered within a partition.
func (p *KafkaPublisher) PublishExerciseLogged(ctx context.Context, event ExerciseLogged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.UserID),
		Value: payload,
		Time:  event.LoggedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(DefaultTopic)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop drops every event.
type Nop struct{}

func (Nop) PublishExerciseLogged(ctx context.Context, event ExerciseLogged) error {
	return nil
}

func (Nop) Close() error {
	return nil
}
