package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/samvad-hq/samvad-post-relay/pkg/httpclient"
	"github.com/samvad-hq/samvad-post-relay/pkg/oauth1"
)

// Class selects the wire encoding of a dispatched request.
type Class string

const (
	// ClassBinaryUpload sends a form-url-encoded body. Payload fields ride in
	// the body but stay out of the signature base string.
	ClassBinaryUpload Class = "binaryUpload"
	// ClassJSONOrForm sends a JSON body; every field is signable.
	ClassJSONOrForm Class = "jsonOrForm"
)

// Request describes one outbound call. Signable holds every parameter that
// enters the signature base string; Form holds the full body field set of a
// binary upload (payload fields included); JSONBody is the document sent for
// jsonOrForm requests. Keeping the signature exclusion in the type, rather
// than pruning maps at call sites, is deliberate.
type Request struct {
	Class    Class
	Method   string
	URL      string
	Signable map[string]string
	Form     map[string]string
	JSONBody any
}

// Dispatcher signs and sends wire requests and leniently parses responses.
type Dispatcher struct {
	signer *oauth1.Signer
	client httpclient.Client
}

// NewDispatcher wires a dispatcher over the shared HTTP client.
func NewDispatcher(signer *oauth1.Signer, client httpclient.Client) *Dispatcher {
	return &Dispatcher{signer: signer, client: client}
}

// Do signs and sends one request. A fresh Authorization header is generated
// on every call; headers are never cached or reused.
func (d *Dispatcher) Do(ctx context.Context, req Request) (Payload, error) {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return Payload{}, err
	}

	auth, err := d.signer.AuthorizationHeader(req.Method, req.URL, req.Signable)
	if err != nil {
		return Payload{}, fmt.Errorf("sign request: %w", err)
	}

	headers := map[string]string{
		"Authorization": auth,
		"Content-Type":  contentType,
	}
	resp, err := d.client.Post(ctx, req.URL, headers, body)
	if err != nil {
		return Payload{}, fmt.Errorf("dispatch %s: %w", req.URL, err)
	}

	return parseResponse(resp.StatusCode(), resp.Body())
}

// encodeBody renders the body per endpoint class.
func encodeBody(req Request) ([]byte, string, error) {
	switch req.Class {
	case ClassBinaryUpload:
		form := url.Values{}
		for k, v := range req.Form {
			form.Set(k, v)
		}
		return []byte(form.Encode()), "application/x-www-form-urlencoded", nil
	case ClassJSONOrForm:
		body, err := json.Marshal(req.JSONBody)
		if err != nil {
			return nil, "", fmt.Errorf("encode json body: %w", err)
		}
		return body, "application/json", nil
	default:
		return nil, "", fmt.Errorf("unknown endpoint class %q", req.Class)
	}
}

// parseResponse applies the lenient decode rules: JSON when the body decodes,
// raw text or empty otherwise, with non-2xx always surfacing as *APIError.
func parseResponse(status int, body []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(body)
	ok := status >= 200 && status <= 299

	if len(trimmed) > 0 && json.Valid(trimmed) {
		if ok {
			return Payload{Kind: KindJSON, JSON: append(json.RawMessage(nil), trimmed...)}, nil
		}
		return Payload{}, &APIError{
			Status: status,
			JSON:   append(json.RawMessage(nil), trimmed...),
			Errors: parseErrorEntries(trimmed),
		}
	}

	if !ok {
		return Payload{}, &APIError{Status: status, Body: strings.TrimSpace(string(body))}
	}
	if len(trimmed) == 0 {
		return Payload{Kind: KindEmpty}, nil
	}
	return Payload{Kind: KindRaw, Raw: string(trimmed)}, nil
}

// parseErrorEntries pulls the upstream's errors[] array out of an error body,
// tolerating both numeric and other code renderings by ignoring mismatches.
func parseErrorEntries(body []byte) []APIEntry {
	var envelope struct {
		Errors []APIEntry `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	return envelope.Errors
}
