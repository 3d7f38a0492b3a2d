package app

import (
	"context"
	"fmt"

	"github.com/samvad-hq/samvad-post-relay/internal/config"
	"github.com/samvad-hq/samvad-post-relay/internal/logger"
	"github.com/samvad-hq/samvad-post-relay/internal/pipeline"
	"github.com/samvad-hq/samvad-post-relay/internal/server"
	"github.com/samvad-hq/samvad-post-relay/pkg/assets"
	"github.com/samvad-hq/samvad-post-relay/pkg/httpclient"
	"github.com/samvad-hq/samvad-post-relay/pkg/notifiers"
	"github.com/samvad-hq/samvad-post-relay/pkg/oauth1"
	"github.com/samvad-hq/samvad-post-relay/pkg/upstream"
)

// Relay is the service runtime: the HTTP boundary over the publish pipeline,
// with an optional outcome fan-out.
type Relay struct {
	cfg    *config.Config
	server *server.Server
	fanout *notifiers.Fanout
	log    logger.Logger
}

// NewRelay builds the runtime from configuration.
func NewRelay(ctx context.Context, cfg *config.Config, log logger.Logger) (*Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	creds := cfg.Credentials()
	if err := creds.Validate(); err != nil {
		// The service still starts; every relay request will answer with a
		// ConfigurationError until the environment is fixed.
		log.WarnObj("upstream credentials incomplete", "credentials_error", err.Error())
	}

	signer := oauth1.NewSigner(creds)
	dispatcher := upstream.NewDispatcher(signer, httpclient.NewRestyClient(cfg.UpstreamTimeout))
	upstreamClient := upstream.NewClient(dispatcher, cfg.MediaUploadURL, cfg.PublishURL)
	fetcher := assets.NewFetcher(httpclient.NewRestyClient(cfg.AssetTimeout), cfg.AssetBaseURL)

	pipe := pipeline.New(creds, fetcher, upstreamClient, upstreamClient, log)

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	srv := server.New(cfg.HTTPAddr, pipe, fanout, log)

	return &Relay{
		cfg:    cfg,
		server: srv,
		fanout: fanout,
		log:    log,
	}, nil
}

// buildFanout loads the optional notifier registry. No file configured means
// the fan-out is disabled, which is a legitimate deployment.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*notifiers.Fanout, error) {
	if cfg.NotifiersFile == "" {
		return notifiers.NewFanout(nil), nil
	}

	reg, err := notifiers.LoadRegistry(cfg.NotifiersFile)
	if err != nil {
		return nil, fmt.Errorf("load notifiers registry: %w", err)
	}

	enabled := reg.Enabled()
	sinks, err := notifiers.BuildAll(ctx, notifiers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build notifiers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, c := range enabled {
		summaries = append(summaries, map[string]string{"id": c.ID, "type": c.Type})
	}
	log.InfoObj("notifiers registry loaded", "notifiers_meta", map[string]any{
		"count":     len(summaries),
		"notifiers": summaries,
	})

	return notifiers.NewFanout(sinks), nil
}

// Run serves HTTP until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	if r == nil || r.server == nil {
		return fmt.Errorf("relay is not initialized")
	}

	r.log.InfoObj("relay starting", "relay_state", map[string]any{
		"addr":            r.cfg.HTTPAddr,
		"notifiers_count": r.fanout.Size(),
		"upstream":        r.cfg.PublishURL,
	})

	return r.server.Run(ctx)
}
