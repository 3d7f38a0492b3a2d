package upstream

import "encoding/json"

// PayloadKind discriminates the three shapes a lenient upstream response can
// take. Callers must branch on it; a Raw payload is a compatibility fallback,
// not decoded data.
type PayloadKind int

const (
	KindEmpty PayloadKind = iota
	KindJSON
	KindRaw
)

// Payload is the successful result of a dispatched request.
type Payload struct {
	Kind PayloadKind
	JSON json.RawMessage
	Raw  string
}

// Decode unmarshals a JSON payload into out. Empty and Raw payloads do not
// decode; the caller decides whether that is acceptable.
func (p Payload) Decode(out any) error {
	if p.Kind != KindJSON {
		return errNotJSON
	}
	return json.Unmarshal(p.JSON, out)
}
