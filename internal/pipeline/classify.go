package pipeline

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/samvad-hq/samvad-post-relay/pkg/assets"
	"github.com/samvad-hq/samvad-post-relay/pkg/upstream"
)

// Kind is the stable caller-facing error taxonomy.
type Kind string

const (
	KindInvalidRequest       Kind = "InvalidRequest"
	KindConfigurationError   Kind = "ConfigurationError"
	KindAssetDownloadFailed  Kind = "AssetDownloadFailed"
	KindMediaIDMissing       Kind = "MediaIdMissing"
	KindMessageIDMissing     Kind = "MessageIdMissing"
	KindAuthenticationFailed Kind = "AuthenticationFailed"
	KindUpstreamAPIError     Kind = "UpstreamApiError"
	KindUnknownUpstreamError Kind = "UnknownUpstreamError"
	KindInternalError        Kind = "InternalError"
)

var errTextRequired = errors.New("text is required")

// ConfigError marks an incomplete credential set or similar deployment
// problem surfacing on the request path.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("configuration error: %v", e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }

// Classified is the outward error shape. CorrelationID is always the
// caller's original value, unchanged.
type Classified struct {
	StatusCode    int
	Kind          Kind
	Message       string
	CorrelationID string
}

// upstream error codes that denote an authentication failure: could not
// authenticate (32), invalid or expired token (89), timestamp out of range
// (135), bad authentication data (215).
var authCodes = map[int]bool{32: true, 89: true, 135: true, 215: true}

// Classify maps a pipeline failure to the stable outward shape. It is the
// single point translating internal errors to caller-visible text.
func Classify(err error, correlationID string) Classified {
	c := classify(err)
	c.CorrelationID = correlationID
	return c
}

func classify(err error) Classified {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return Classified{StatusCode: http.StatusInternalServerError, Kind: KindConfigurationError, Message: cfgErr.Error()}
	}
	if errors.Is(err, errTextRequired) {
		return Classified{StatusCode: http.StatusBadRequest, Kind: KindInvalidRequest, Message: errTextRequired.Error()}
	}

	var fetchErr *assets.FetchError
	if errors.As(err, &fetchErr) {
		status := http.StatusBadGateway
		if fetchErr.Status >= 400 && fetchErr.Status < 500 {
			status = fetchErr.Status
		}
		return Classified{StatusCode: status, Kind: KindAssetDownloadFailed, Message: fetchErr.Error()}
	}

	if errors.Is(err, upstream.ErrMediaIDMissing) {
		return Classified{StatusCode: http.StatusBadGateway, Kind: KindMediaIDMissing, Message: upstream.ErrMediaIDMissing.Error()}
	}
	if errors.Is(err, upstream.ErrMessageIDMissing) {
		return Classified{StatusCode: http.StatusBadGateway, Kind: KindMessageIDMissing, Message: upstream.ErrMessageIDMissing.Error()}
	}

	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr)
	}

	// Untyped causes fall back to the stage they escaped from, so a
	// transport timeout still lands in the right family.
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		switch stageErr.Stage {
		case StageFetch:
			return Classified{StatusCode: http.StatusBadGateway, Kind: KindAssetDownloadFailed, Message: stageErr.Err.Error()}
		case StageUpload, StagePublish:
			return Classified{StatusCode: http.StatusBadGateway, Kind: KindUpstreamAPIError, Message: stageErr.Err.Error()}
		}
	}

	return Classified{StatusCode: http.StatusInternalServerError, Kind: KindInternalError, Message: err.Error()}
}

// classifyAPIError prefers the structured errors[] array when the upstream
// supplied one; a body that never decoded as JSON is an unknown failure.
func classifyAPIError(apiErr *upstream.APIError) Classified {
	if !apiErr.Decoded() {
		return Classified{StatusCode: http.StatusInternalServerError, Kind: KindUnknownUpstreamError, Message: apiErr.Body}
	}
	if len(apiErr.Errors) > 0 {
		entry := apiErr.Errors[0]
		if authCodes[entry.Code] {
			return Classified{StatusCode: http.StatusUnauthorized, Kind: KindAuthenticationFailed, Message: entry.Message}
		}
		return Classified{StatusCode: http.StatusBadRequest, Kind: KindUpstreamAPIError, Message: entry.Message}
	}
	return Classified{StatusCode: http.StatusBadRequest, Kind: KindUpstreamAPIError, Message: string(apiErr.JSON)}
}
