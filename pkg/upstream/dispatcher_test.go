package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-post-relay/pkg/httpclient"
	"github.com/samvad-hq/samvad-post-relay/pkg/oauth1"
)

func testSigner() *oauth1.Signer {
	return oauth1.NewSigner(oauth1.CredentialSet{
		ConsumerKey:       "ck",
		ConsumerSecret:    "cs",
		AccessToken:       "at",
		AccessTokenSecret: "ats",
	})
}

func testDispatcher() *Dispatcher {
	return NewDispatcher(testSigner(), httpclient.NewRestyClient(2*time.Second))
}

func TestDoBinaryUploadEncodesFormAndSigns(t *testing.T) {
	var gotContentType, gotAuth string
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotForm, _ = url.ParseQuery(string(body))
		w.Write([]byte(`{"media_id_string":"711"}`))
	}))
	defer srv.Close()

	d := testDispatcher()
	payload, err := d.Do(context.Background(), Request{
		Class:    ClassBinaryUpload,
		Method:   http.MethodPost,
		URL:      srv.URL,
		Signable: map[string]string{},
		Form:     map[string]string{"media_data": "QUJD"},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Fatalf("Content-Type = %s", gotContentType)
	}
	if !strings.HasPrefix(gotAuth, "OAuth ") {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if strings.Contains(gotAuth, "media_data") {
		t.Fatalf("payload field leaked into the Authorization header: %s", gotAuth)
	}
	if gotForm.Get("media_data") != "QUJD" {
		t.Fatalf("form body missing payload: %v", gotForm)
	}
	if payload.Kind != KindJSON {
		t.Fatalf("payload kind = %d", payload.Kind)
	}
}

func TestDoJSONBodyAndFreshHeaderPerCall(t *testing.T) {
	var auths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auths = append(auths, r.Header.Get("Authorization"))
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"text":"hi"`) {
			t.Errorf("json body = %s", body)
		}
		w.Write([]byte(`{"data":{"id":"1"}}`))
	}))
	defer srv.Close()

	d := testDispatcher()
	req := Request{
		Class:    ClassJSONOrForm,
		Method:   http.MethodPost,
		URL:      srv.URL,
		Signable: map[string]string{"text": "hi"},
		JSONBody: map[string]string{"text": "hi"},
	}
	for i := 0; i < 2; i++ {
		if _, err := d.Do(context.Background(), req); err != nil {
			t.Fatalf("Do #%d: %v", i, err)
		}
	}
	if len(auths) != 2 || auths[0] == auths[1] {
		t.Fatalf("expected two distinct Authorization headers, got %v", auths)
	}
}

func TestParseResponseThreeWay(t *testing.T) {
	if p, err := parseResponse(200, []byte(`{"ok":1}`)); err != nil || p.Kind != KindJSON {
		t.Fatalf("json 2xx: payload=%+v err=%v", p, err)
	}
	if p, err := parseResponse(200, nil); err != nil || p.Kind != KindEmpty {
		t.Fatalf("empty 2xx: payload=%+v err=%v", p, err)
	}
	if p, err := parseResponse(200, []byte("OK!")); err != nil || p.Kind != KindRaw || p.Raw != "OK!" {
		t.Fatalf("raw 2xx: payload=%+v err=%v", p, err)
	}
}

func TestParseResponseNon2xxRawBody(t *testing.T) {
	_, err := parseResponse(503, []byte("<html>gateway sad</html>"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Decoded() {
		t.Fatalf("raw body reported as decoded")
	}
	if apiErr.Status != 503 || apiErr.Body != "<html>gateway sad</html>" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestParseResponseNon2xxJSONErrors(t *testing.T) {
	body := `{"errors":[{"code":32,"message":"Could not authenticate you."}]}`
	_, err := parseResponse(401, []byte(body))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if !apiErr.Decoded() || string(apiErr.JSON) != body {
		t.Fatalf("json body not carried verbatim: %+v", apiErr)
	}
	if len(apiErr.Errors) != 1 || apiErr.Errors[0].Code != 32 {
		t.Fatalf("errors[] not parsed: %+v", apiErr.Errors)
	}
}
