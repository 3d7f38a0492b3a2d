package domain

// Domain contains the per-request models flowing through the relay.

// PostRequest is the caller's instruction: publish this text, optionally with
// the asset behind MediaRef attached. CorrelationID is opaque to the relay and
// only threaded through so an asynchronous caller can reconcile results.
type PostRequest struct {
	Text          string
	MediaRef      string
	CorrelationID string
}

// PostResult is the single outcome type of one relay invocation. The failure
// half carries the classifier's verdict; CorrelationID is present either way.
type PostResult struct {
	OK            bool
	MessageID     string
	StatusCode    int
	ErrorKind     string
	Message       string
	CorrelationID string
}
