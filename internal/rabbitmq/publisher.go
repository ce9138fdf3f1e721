package rabbitmq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"postnest/internal/logger"
	"postnest/internal/observability"
)

// Activity event routing keys published on the app.events exchange.
const (
	EventFriendRequestCreated   = "friend.request.created"
	EventFriendRequestCancelled = "friend.request.cancelled"
	EventPostCreated            = "post.created"
	EventPostLiked              = "post.liked"
	EventCommentCreated         = "comment.created"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

type publisher struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	exchangeName string
	mu           sync.Mutex
}

// NewPublisher creates a RabbitMQ publisher and declares the provided exchange.
func NewPublisher(amqpURL, exchangeName string) (Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &publisher{conn: conn, channel: ch, exchangeName: exchangeName}, nil
}

// NewPublisherOrNoop falls back to a no-op publisher when amqpURL is empty or
// the broker cannot be reached, so the web app keeps serving without RabbitMQ.
func NewPublisherOrNoop(amqpURL, exchangeName string) Publisher {
	if amqpURL == "" {
		logger.Warn("AMQP_URL not set; publishing disabled", "exchange", exchangeName)
		return NewNoopPublisher()
	}
	pub, err := NewPublisher(amqpURL, exchangeName)
	if err != nil {
		logger.Warn("failed to initialize RabbitMQ publisher", "exchange", exchangeName, "error", err)
		return NewNoopPublisher()
	}
	return pub
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops events.
func NewNoopPublisher() Publisher { return &noopPublisher{} }

func (n *noopPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	logger.Debug("RabbitMQ not configured; skipping publish", "routing_key", routingKey)
	return nil
}

func (n *noopPublisher) Close() error { return nil }

func (p *publisher) Publish(ctx context.Context, routingKey string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return amqp.ErrClosed
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx,
		p.exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		observability.IncAMQPPublishError()
	}
	return err
}

func (p *publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	return nil
}
