package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-post-relay/internal/domain"
	"github.com/samvad-hq/samvad-post-relay/internal/logger"
	"github.com/samvad-hq/samvad-post-relay/pkg/oauth1"
)

// AssetFetcher retrieves the raw bytes behind a media reference.
type AssetFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// MediaUploader pushes asset bytes to the upstream media endpoint.
type MediaUploader interface {
	UploadMedia(ctx context.Context, data []byte) (string, error)
}

// MessagePublisher creates the post, optionally referencing uploaded media.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, text string, mediaIDs []string) (string, error)
}

// Stage names the pipeline step an error escaped from.
type Stage string

const (
	StageValidate Stage = "validate"
	StageFetch    Stage = "fetch_asset"
	StageUpload   Stage = "upload_media"
	StagePublish  Stage = "publish"
)

// StageError tags a failure with the stage it occurred in so the classifier
// can fall back to a stage-appropriate kind when the cause is untyped (for
// example a transport-level timeout).
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Pipeline runs the linear relay flow: validate, fetch the asset, upload it
// as media, publish the message. Every invocation is independent; the only
// shared state is the read-only credential set validated up front.
type Pipeline struct {
	creds     oauth1.CredentialSet
	fetcher   AssetFetcher
	uploader  MediaUploader
	publisher MessagePublisher
	log       logger.Logger
}

// New wires a pipeline. log may be nil.
func New(creds oauth1.CredentialSet, fetcher AssetFetcher, uploader MediaUploader, publisher MessagePublisher, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Pipeline{
		creds:     creds,
		fetcher:   fetcher,
		uploader:  uploader,
		publisher: publisher,
		log:       log,
	}
}

// Run executes one relay invocation and always returns a PostResult carrying
// the caller's correlation id, success or not. Failures short-circuit the
// remaining stages; nothing is retried.
func (p *Pipeline) Run(ctx context.Context, req domain.PostRequest) domain.PostResult {
	messageID, err := p.run(ctx, req)
	if err != nil {
		c := Classify(err, req.CorrelationID)
		p.log.ErrorObj("relay failed", "relay_error", map[string]any{
			"correlation_id": req.CorrelationID,
			"kind":           string(c.Kind),
			"error":          err.Error(),
		})
		return domain.PostResult{
			OK:            false,
			StatusCode:    c.StatusCode,
			ErrorKind:     string(c.Kind),
			Message:       c.Message,
			CorrelationID: req.CorrelationID,
		}
	}

	return domain.PostResult{
		OK:            true,
		MessageID:     messageID,
		CorrelationID: req.CorrelationID,
	}
}

func (p *Pipeline) run(ctx context.Context, req domain.PostRequest) (string, error) {
	if err := p.validate(req); err != nil {
		return "", err
	}

	var mediaIDs []string
	if strings.TrimSpace(req.MediaRef) != "" {
		data, err := p.fetcher.Fetch(ctx, req.MediaRef)
		if err != nil {
			return "", &StageError{Stage: StageFetch, Err: err}
		}
		p.log.DebugObj("asset fetched", "asset_meta", map[string]any{
			"correlation_id": req.CorrelationID,
			"bytes":          len(data),
		})

		mediaID, err := p.uploader.UploadMedia(ctx, data)
		if err != nil {
			return "", &StageError{Stage: StageUpload, Err: err}
		}
		p.log.InfoObj("media uploaded", "media_meta", map[string]any{
			"correlation_id": req.CorrelationID,
			"media_id":       mediaID,
		})
		mediaIDs = []string{mediaID}
	}

	messageID, err := p.publisher.PublishMessage(ctx, req.Text, mediaIDs)
	if err != nil {
		return "", &StageError{Stage: StagePublish, Err: err}
	}
	p.log.InfoObj("message published", "publish_meta", map[string]any{
		"correlation_id": req.CorrelationID,
		"message_id":     messageID,
	})

	return messageID, nil
}

func (p *Pipeline) validate(req domain.PostRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return &StageError{Stage: StageValidate, Err: errTextRequired}
	}
	if err := p.creds.Validate(); err != nil {
		return &StageError{Stage: StageValidate, Err: &ConfigError{Err: err}}
	}
	return nil
}
