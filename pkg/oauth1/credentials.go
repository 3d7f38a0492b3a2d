package oauth1

import (
	"fmt"
	"strings"
)

// CredentialSet holds the four OAuth 1.0a secrets for a single upstream
// account. It is populated once at process start and never mutated.
type CredentialSet struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

// Validate reports an error naming every missing field. A partially
// populated credential set is a deployment problem, not a per-request one.
func (c CredentialSet) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ConsumerKey) == "" {
		missing = append(missing, "consumer_key")
	}
	if strings.TrimSpace(c.ConsumerSecret) == "" {
		missing = append(missing, "consumer_secret")
	}
	if strings.TrimSpace(c.AccessToken) == "" {
		missing = append(missing, "access_token")
	}
	if strings.TrimSpace(c.AccessTokenSecret) == "" {
		missing = append(missing, "access_token_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("credential set missing %s", strings.Join(missing, ", "))
	}
	return nil
}
