package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samvad-hq/samvad-post-relay/internal/domain"
)

type fakePipeline struct {
	gotReq domain.PostRequest
	result domain.PostResult
}

func (f *fakePipeline) Run(_ context.Context, req domain.PostRequest) domain.PostResult {
	f.gotReq = req
	res := f.result
	res.CorrelationID = req.CorrelationID
	return res
}

func postJSON(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/relay", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRelaySuccessEchoesCorrelation(t *testing.T) {
	p := &fakePipeline{result: domain.PostResult{OK: true, MessageID: "T1"}}
	s := New(":0", p, nil, nil)

	rec := postJSON(t, s, `{"text":"hello","mediaRef":"R1","correlationId":"row-42"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Success       bool   `json:"success"`
		ID            string `json:"id"`
		CorrelationID string `json:"correlationId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out.Success || out.ID != "T1" || out.CorrelationID != "row-42" {
		t.Fatalf("response = %+v", out)
	}
	if p.gotReq.Text != "hello" || p.gotReq.MediaRef != "R1" || p.gotReq.CorrelationID != "row-42" {
		t.Fatalf("pipeline request = %+v", p.gotReq)
	}
}

func TestRelayLegacyFieldNamesAndNumericRowIndex(t *testing.T) {
	p := &fakePipeline{result: domain.PostResult{OK: true, MessageID: "T2"}}
	s := New(":0", p, nil, nil)

	rec := postJSON(t, s, `{"tweetText":"hi","mediaId":"F1","row_index":17}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	// The numeric correlation value must come back as a number, untouched.
	if !strings.Contains(rec.Body.String(), `"correlationId":17`) {
		t.Fatalf("numeric correlation not preserved: %s", rec.Body.String())
	}
	if p.gotReq.Text != "hi" || p.gotReq.MediaRef != "F1" || p.gotReq.CorrelationID != "17" {
		t.Fatalf("pipeline request = %+v", p.gotReq)
	}
}

func TestRelayFailureUsesClassifierStatus(t *testing.T) {
	p := &fakePipeline{result: domain.PostResult{
		OK:         false,
		StatusCode: http.StatusUnauthorized,
		ErrorKind:  "AuthenticationFailed",
		Message:    "Could not authenticate you.",
	}}
	s := New(":0", p, nil, nil)

	rec := postJSON(t, s, `{"text":"hello","correlationId":"c9"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}

	var out struct {
		Error         string `json:"error"`
		Details       string `json:"details"`
		CorrelationID string `json:"correlationId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Error != "AuthenticationFailed" || out.CorrelationID != "c9" {
		t.Fatalf("response = %+v", out)
	}
	if out.Details != "Could not authenticate you." {
		t.Fatalf("details = %q", out.Details)
	}
}

func TestRelayRejectsMalformedJSON(t *testing.T) {
	s := New(":0", &fakePipeline{}, nil, nil)
	rec := postJSON(t, s, `{"text": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := New(":0", &fakePipeline{}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
