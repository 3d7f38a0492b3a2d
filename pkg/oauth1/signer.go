package oauth1

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // HMAC-SHA1 is what the upstream protocol mandates
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	signatureMethod = "HMAC-SHA1"
	oauthVersion    = "1.0"
	nonceBytes      = 16
)

// Signer produces OAuth 1.0a Authorization headers for a fixed credential set.
// It holds no mutable state; concurrent use is safe.
type Signer struct {
	creds CredentialSet
}

// NewSigner builds a signer for the given credentials. The credential set is
// expected to be validated by the caller before any signing happens.
func NewSigner(creds CredentialSet) *Signer {
	return &Signer{creds: creds}
}

// AuthorizationHeader signs one request and renders the Authorization header
// value. params must contain every parameter that enters the signature base
// string; large binary payload fields must already be excluded by the caller.
// The returned header is bound to a fresh nonce/timestamp pair and must not
// be reused for a retry.
func (s *Signer) AuthorizationHeader(method, rawURL string, params map[string]string) (string, error) {
	nonce, err := newNonce()
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	return s.headerFor(method, rawURL, params, nonce, timestamp), nil
}

// headerFor is the deterministic core of AuthorizationHeader; tests drive it
// directly with fixed nonce/timestamp values.
func (s *Signer) headerFor(method, rawURL string, params map[string]string, nonce, timestamp string) string {
	oauthParams := s.oauthParams(nonce, timestamp)
	base := signatureBase(method, rawURL, merge(oauthParams, params))
	oauthParams["oauth_signature"] = s.sign(base)

	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%q", percentEncode(k), percentEncode(oauthParams[k])))
	}
	return "OAuth " + strings.Join(pairs, ", ")
}

// oauthParams assembles the protocol parameter set for one request.
func (s *Signer) oauthParams(nonce, timestamp string) map[string]string {
	return map[string]string{
		"oauth_consumer_key":     s.creds.ConsumerKey,
		"oauth_nonce":            nonce,
		"oauth_signature_method": signatureMethod,
		"oauth_timestamp":        timestamp,
		"oauth_token":            s.creds.AccessToken,
		"oauth_version":          oauthVersion,
	}
}

// sign computes HMAC-SHA1 over the base string with the signing key derived
// from both secrets, base64-rendered.
func (s *Signer) sign(base string) string {
	key := percentEncode(s.creds.ConsumerSecret) + "&" + percentEncode(s.creds.AccessTokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// signatureBase builds `METHOD&enc(url)&enc(sorted-params)` per OAuth 1.0a.
// Ordering is by encoded key, value as tie-break; sorting the joined
// `key=value` strings instead would misplace prefix-related keys because
// "=" (0x3D) sorts above digits and percent escapes.
func signatureBase(method, rawURL string, params map[string]string) string {
	type pair struct{ key, value string }
	encoded := make([]pair, 0, len(params))
	for k, v := range params {
		encoded = append(encoded, pair{percentEncode(k), percentEncode(v)})
	}
	sort.Slice(encoded, func(i, j int) bool {
		if encoded[i].key != encoded[j].key {
			return encoded[i].key < encoded[j].key
		}
		return encoded[i].value < encoded[j].value
	})
	joined := make([]string, len(encoded))
	for i, p := range encoded {
		joined[i] = p.key + "=" + p.value
	}
	paramString := strings.Join(joined, "&")
	return strings.ToUpper(method) + "&" + percentEncode(rawURL) + "&" + percentEncode(paramString)
}

// percentEncode escapes per RFC 3986: only ALPHA, DIGIT and "-._~" survive.
// Notably stricter than net/url, which leaves "!*'()" alone.
func percentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			b.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return b.String()
}

// merge overlays the request params on the oauth protocol params into a new map.
func merge(oauthParams, params map[string]string) map[string]string {
	out := make(map[string]string, len(oauthParams)+len(params))
	for k, v := range oauthParams {
		out[k] = v
	}
	for k, v := range params {
		out[k] = v
	}
	return out
}

// newNonce returns a hex-rendered 16-byte random token.
func newNonce() (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
