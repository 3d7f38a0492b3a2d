package notifiers

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// gcpPubSubSender delivers events to one Pub/Sub topic.
type gcpPubSubSender struct {
	topic *pubsub.Topic
	log   Logger
}

// gcpPubSubNotifier implements the Notifier interface for Google Cloud Pub/Sub.
type gcpPubSubNotifier struct {
	id     string
	typ    string
	sender *gcpPubSubSender
}

// newGCPPubSubNotifier creates a new Pub/Sub notifier with the given configuration.
func newGCPPubSubNotifier(ctx context.Context, cfg NotifierConfig, log Logger) (Notifier, error) {
	if cfg.GCP == nil {
		return nil, fmt.Errorf("notifier %q missing gcppubsub configuration", cfg.ID)
	}

	sender, err := newGCPPubSubSender(ctx, cfg.GCP, log)
	if err != nil {
		return nil, err
	}

	return &gcpPubSubNotifier{
		id:     cfg.ID,
		typ:    TypeGCPPubSub,
		sender: sender,
	}, nil
}

// newGCPPubSubSender dials the Pub/Sub client; a credentials file from the
// notifier entry takes precedence over ambient credentials.
func newGCPPubSubSender(ctx context.Context, cfg *GCPNotifierConfig, log Logger) (*gcpPubSubSender, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &gcpPubSubSender{
		topic: client.Topic(cfg.Topic),
		log:   ensureLogger(log),
	}, nil
}

func (g *gcpPubSubNotifier) ID() string   { return g.id }
func (g *gcpPubSubNotifier) Type() string { return g.typ }

// Notify publishes the event to the configured Pub/Sub topic.
func (g *gcpPubSubNotifier) Notify(ctx context.Context, evt Event) error {
	return g.sender.Send(ctx, evt)
}

func (g *gcpPubSubSender) Send(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := g.topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"correlation_id": evt.CorrelationID,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		g.log.ErrorObj("pubsub notifier publish failed", "notifier_pubsub_error", map[string]any{
			"topic": g.topic.String(),
			"error": err.Error(),
		})
		return fmt.Errorf("publish to pubsub: %w", err)
	}
	g.log.DebugObj("pubsub notifier delivered event", "notifier_pubsub_delivery", map[string]any{
		"correlation_id": evt.CorrelationID,
	})
	return nil
}
