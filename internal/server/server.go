package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/samvad-hq/samvad-post-relay/internal/domain"
	"github.com/samvad-hq/samvad-post-relay/internal/logger"
	"github.com/samvad-hq/samvad-post-relay/pkg/notifiers"
)

// PipelineRunner is the relay operation the server fronts.
type PipelineRunner interface {
	Run(ctx context.Context, req domain.PostRequest) domain.PostResult
}

// OutcomeNotifier receives the outcome of every relay invocation. May be nil.
type OutcomeNotifier interface {
	Publish(ctx context.Context, evt notifiers.Event) (int, error)
	Size() int
}

// Server is the inbound HTTP boundary: it validates the wire shape, runs the
// pipeline, and renders the pipeline's result. It never formats error text of
// its own; that is the classifier's job inside the pipeline.
type Server struct {
	engine   *gin.Engine
	pipeline PipelineRunner
	notifier OutcomeNotifier
	log      logger.Logger
	addr     string
}

// New builds the HTTP server. notifier may be nil; log may be nil.
func New(addr string, pipeline PipelineRunner, notifier OutcomeNotifier, log logger.Logger) *Server {
	if log == nil {
		log = logger.NopLogger{}
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:   engine,
		pipeline: pipeline,
		notifier: notifier,
		log:      log,
		addr:     addr,
	}

	engine.GET("/healthz", s.handleHealth)
	// The original deployment's callers post to the root path.
	engine.POST("/", s.handleRelay)
	engine.POST("/relay", s.handleRelay)

	return s
}

// relayRequest is the inbound wire shape. The legacy field names are what the
// original deployment's spreadsheet callers still send.
type relayRequest struct {
	Text          string          `json:"text"`
	TweetText     string          `json:"tweetText"`
	MediaRef      string          `json:"mediaRef"`
	MediaID       string          `json:"mediaId"`
	CorrelationID json.RawMessage `json:"correlationId"`
	RowIndex      json.RawMessage `json:"row_index"`
}

func (r relayRequest) text() string {
	if r.Text != "" {
		return r.Text
	}
	return r.TweetText
}

func (r relayRequest) mediaRef() string {
	if r.MediaRef != "" {
		return r.MediaRef
	}
	return r.MediaID
}

// rawCorrelation returns the caller's correlation value untouched, preferring
// the canonical field name.
func (r relayRequest) rawCorrelation() json.RawMessage {
	if len(r.CorrelationID) > 0 {
		return r.CorrelationID
	}
	return r.RowIndex
}

// correlationString renders the correlation value for internal threading and
// logs. A JSON string loses its quotes; anything else stays verbatim.
func (r relayRequest) correlationString() string {
	raw := r.rawCorrelation()
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRelay(c *gin.Context) {
	var req relayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "InvalidRequest", "details": "request body is not valid JSON"})
		return
	}

	res := s.pipeline.Run(c.Request.Context(), domain.PostRequest{
		Text:          req.text(),
		MediaRef:      req.mediaRef(),
		CorrelationID: req.correlationString(),
	})

	s.respond(c, req.rawCorrelation(), res)
	s.notify(res)
}

// respond renders the result, echoing the caller's correlation value exactly
// as it arrived.
func (s *Server) respond(c *gin.Context, rawCorr json.RawMessage, res domain.PostResult) {
	if res.OK {
		body := gin.H{"success": true, "id": res.MessageID}
		if len(rawCorr) > 0 {
			body["correlationId"] = rawCorr
		}
		c.JSON(http.StatusOK, body)
		return
	}

	body := gin.H{"error": res.ErrorKind, "details": res.Message}
	if len(rawCorr) > 0 {
		body["correlationId"] = rawCorr
	}
	c.JSON(res.StatusCode, body)
}

// notify fans the outcome out to configured sinks without holding up the
// caller. Sink failures are logged, never surfaced.
func (s *Server) notify(res domain.PostResult) {
	if s.notifier == nil || s.notifier.Size() == 0 {
		return
	}
	evt := notifiers.NewEvent(res)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.notifier.Publish(ctx, evt); err != nil {
			s.log.WarnObj("outcome notification failed", "notify_error", map[string]any{
				"correlation_id": res.CorrelationID,
				"error":          err.Error(),
			})
		}
	}()
}

// Run serves until the context is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.engine }
