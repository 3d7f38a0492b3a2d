package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	errNotJSON = errors.New("payload is not JSON")

	// ErrMediaIDMissing reports a 2xx upload response that carried no media
	// identifier. Protocol violation, distinct from transport failure.
	ErrMediaIDMissing = errors.New("upstream returned no media id")

	// ErrMessageIDMissing is the publish-side counterpart.
	ErrMessageIDMissing = errors.New("upstream returned no message id")
)

// APIEntry is one element of the upstream's errors[] array.
type APIEntry struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIError carries a non-2xx upstream answer verbatim. When the body decoded
// as JSON it is kept in JSON (and any errors[] array parsed into Errors);
// otherwise Body holds the raw text. Interpretation is the classifier's job.
type APIError struct {
	Status int
	JSON   json.RawMessage
	Errors []APIEntry
	Body   string
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("upstream status %d: [%d] %s", e.Status, e.Errors[0].Code, e.Errors[0].Message)
	}
	if e.JSON != nil {
		return fmt.Sprintf("upstream status %d: %s", e.Status, string(e.JSON))
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

// Decoded reports whether the error body was valid JSON.
func (e *APIError) Decoded() bool { return e.JSON != nil }
