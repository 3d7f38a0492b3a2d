package upstream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client exposes the two upstream operations the relay performs: media upload
// and message publish. Both ride on the Dispatcher for signing and encoding.
type Client struct {
	dispatcher *Dispatcher
	uploadURL  string
	publishURL string
}

// NewClient builds an upstream client for the given endpoint URLs.
func NewClient(dispatcher *Dispatcher, uploadURL, publishURL string) *Client {
	return &Client{
		dispatcher: dispatcher,
		uploadURL:  uploadURL,
		publishURL: publishURL,
	}
}

// UploadMedia sends the asset bytes base64-encoded through the binary-upload
// endpoint and returns the media identifier the upstream assigned. The
// payload field never enters the signature base string.
func (c *Client) UploadMedia(ctx context.Context, data []byte) (string, error) {
	req := Request{
		Class:    ClassBinaryUpload,
		Method:   http.MethodPost,
		URL:      c.uploadURL,
		Signable: map[string]string{},
		Form: map[string]string{
			"media_data": base64.StdEncoding.EncodeToString(data),
		},
	}

	payload, err := c.dispatcher.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}

	id := mediaIDFrom(payload)
	if id == "" {
		return "", fmt.Errorf("upload media: %w", ErrMediaIDMissing)
	}
	return id, nil
}

// PublishMessage creates a post with the given text, attaching previously
// uploaded media when ids are present.
func (c *Client) PublishMessage(ctx context.Context, text string, mediaIDs []string) (string, error) {
	signable := map[string]string{"text": text}
	body := map[string]any{"text": text}
	if len(mediaIDs) > 0 {
		signable["media_ids"] = strings.Join(mediaIDs, ",")
		body["media"] = map[string]any{"media_ids": mediaIDs}
	}

	req := Request{
		Class:    ClassJSONOrForm,
		Method:   http.MethodPost,
		URL:      c.publishURL,
		Signable: signable,
		JSONBody: body,
	}

	payload, err := c.dispatcher.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}

	id := messageIDFrom(payload)
	if id == "" {
		return "", fmt.Errorf("publish message: %w", ErrMessageIDMissing)
	}
	return id, nil
}

// mediaIDFrom accepts both the string and numeric renderings of the media id.
func mediaIDFrom(payload Payload) string {
	var out struct {
		MediaIDString string      `json:"media_id_string"`
		MediaID       json.Number `json:"media_id"`
	}
	if err := payload.Decode(&out); err != nil {
		return ""
	}
	if out.MediaIDString != "" {
		return out.MediaIDString
	}
	return out.MediaID.String()
}

func messageIDFrom(payload Payload) string {
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := payload.Decode(&out); err != nil {
		return ""
	}
	return out.Data.ID
}
