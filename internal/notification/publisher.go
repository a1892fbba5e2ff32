package notification

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Publisher delivers one message to a named topic and waits for the broker ack.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) error
	Close() error
}

// PubSubPublisher publishes to Google Cloud Pub/Sub. SMS and email senders
// consume the topics; this service only produces to them.
type PubSubPublisher struct {
	client *pubsub.Client
	logger *zap.Logger

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSubPublisher creates a Pub/Sub client for projectID
func NewPubSubPublisher(ctx context.Context, projectID, credentialsFile string, logger *zap.Logger) (*PubSubPublisher, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &PubSubPublisher{
		client: client,
		logger: logger.Named("pubsub"),
		topics: make(map[string]*pubsub.Topic),
	}, nil
}

// EnsureTopics checks that every topic exists, creating missing ones.
func (p *PubSubPublisher) EnsureTopics(ctx context.Context, names ...string) error {
	for _, name := range names {
		topic := p.topic(name)
		exists, err := topic.Exists(ctx)
		if err != nil {
			return fmt.Errorf("check topic %s: %w", name, err)
		}
		if exists {
			continue
		}
		if _, err := p.client.CreateTopic(ctx, name); err != nil {
			return fmt.Errorf("create topic %s: %w", name, err)
		}
		p.logger.Info("Created topic", zap.String("topic", name))
	}
	return nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, topicName string, data []byte, attrs map[string]string) error {
	result := p.topic(topicName).Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	serverID, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topicName, err)
	}
	p.logger.Debug("Message published", zap.String("topic", topicName), zap.String("message_id", serverID))
	return nil
}

func (p *PubSubPublisher) topic(name string) *pubsub.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[name]; ok {
		return t
	}
	t := p.client.Topic(name)
	p.topics[name] = t
	return t
}

// Close flushes pending publishes and closes the client
func (p *PubSubPublisher) Close() error {
	p.mu.Lock()
	for _, t := range p.topics {
		t.Stop()
	}
	p.mu.Unlock()
	return p.client.Close()
}
