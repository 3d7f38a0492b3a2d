package notifiers

import (
	"time"

	"github.com/samvad-hq/samvad-post-relay/internal/domain"
)

// Event is the outcome record fanned out to downstream sinks after a relay
// invocation completes, success or failure.
type Event struct {
	CorrelationID string    `json:"correlation_id"`
	Success       bool      `json:"success"`
	MessageID     string    `json:"message_id,omitempty"`
	ErrorKind     string    `json:"error_kind,omitempty"`
	Message       string    `json:"message,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

// NewEvent builds an Event from a finished pipeline result.
func NewEvent(res domain.PostResult) Event {
	return Event{
		CorrelationID: res.CorrelationID,
		Success:       res.OK,
		MessageID:     res.MessageID,
		ErrorKind:     res.ErrorKind,
		Message:       res.Message,
		CompletedAt:   time.Now().UTC(),
	}
}
