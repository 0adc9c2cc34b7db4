package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
	"github.com/google/uuid"
)

// Type names an event on the wire.
type Type string

const (
	TypeQuizSaved        Type = "quiz.saved"
	TypeAnswersSubmitted Type = "answers.submitted"
)

const (
	source  = "quiz-service"
	version = "1"
)

// DefaultTopic is used when the configuration leaves the topic empty.
const DefaultTopic = "quiz-events"

// Envelope wraps every payload published by the service.
type Envelope struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// QuizSavedData is the payload of a quiz.saved event.
type QuizSavedData struct {
	Quiz domain.QuizSummary `json:"quiz"`
}

// Publisher implements app.EventPublisher on top of a Watermill publisher.
// All event types share one topic and are told apart by the event_type header.
type Publisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
	now       func() time.Time
}

// Config holds what is needed to build a Publisher.
type Config struct {
	Brokers []string
	Topic   string
	Logger  *slog.Logger
}

// NewPublisher wraps an existing Watermill publisher.
func NewPublisher(pub message.Publisher, topic string, logger *slog.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{publisher: pub, topic: topic, logger: logger, now: time.Now}
}

// NewKafkaPublisher publishes to the given Kafka brokers.
func NewKafkaPublisher(cfg Config) (*Publisher, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, watermill.NewSlogLogger(cfg.Logger))
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	return NewPublisher(pub, cfg.Topic, cfg.Logger), nil
}

// NewInProcess returns a publisher backed by an in-memory GoChannel. The
// channel is returned too so local consumers can subscribe to it.
func NewInProcess(cfg Config) (*Publisher, *gochannel.GoChannel) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NewSlogLogger(cfg.Logger))
	return NewPublisher(ch, cfg.Topic, cfg.Logger), ch
}

// Topic is the topic every event is published to.
func (p *Publisher) Topic() string { return p.topic }

func (p *Publisher) QuizSaved(ctx context.Context, quiz domain.Quiz) error {
	return p.publish(ctx, TypeQuizSaved, QuizSavedData{Quiz: domain.Summarize(quiz)})
}

func (p *Publisher) AnswersSubmitted(ctx context.Context, sub domain.Submission) error {
	return p.publish(ctx, TypeAnswersSubmitted, sub)
}

func (p *Publisher) publish(ctx context.Context, eventType Type, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	env := Envelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Version:   version,
		Timestamp: p.now().UTC(),
		Data:      data,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	msg := message.NewMessage(env.ID, body)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", string(eventType))
	msg.Metadata.Set("source", source)
	msg.Metadata.Set("version", version)
	msg.Metadata.Set("timestamp", env.Timestamp.Format(time.RFC3339))

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.logger.Error("publish event failed", "event_id", env.ID, "event_type", eventType, "error", err)
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	p.logger.Debug("published event", "event_id", env.ID, "event_type", eventType, "topic", p.topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.publisher.Close()
}

// Decode parses a message produced by Publisher.
func Decode(msg *message.Message) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode event %s: %w", msg.UUID, err)
	}
	return env, nil
}
