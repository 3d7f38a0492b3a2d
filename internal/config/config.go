package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samvad-hq/samvad-post-relay/pkg/oauth1"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`

	// Upstream OAuth 1.0a credentials; always supplied via environment.
	APIKey       string `mapstructure:"api_key"`
	APISecret    string `mapstructure:"api_secret"`
	AccessToken  string `mapstructure:"access_token"`
	AccessSecret string `mapstructure:"access_secret"`

	MediaUploadURL string `mapstructure:"media_upload_url"`
	PublishURL     string `mapstructure:"publish_url"`
	AssetBaseURL   string `mapstructure:"asset_base_url"`

	NotifiersFile string `mapstructure:"notifiers_file"`

	UpstreamTimeoutSeconds int64         `mapstructure:"upstream_timeout_seconds"`
	AssetTimeoutSeconds    int64         `mapstructure:"asset_timeout_seconds"`
	UpstreamTimeout        time.Duration `mapstructure:"-"`
	AssetTimeout           time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-post-relay")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":3000")
	// Empty defaults so AutomaticEnv can bind the credential variables.
	v.SetDefault("api_key", "")
	v.SetDefault("api_secret", "")
	v.SetDefault("access_token", "")
	v.SetDefault("access_secret", "")
	v.SetDefault("media_upload_url", "https://upload.twitter.com/1.1/media/upload.json")
	v.SetDefault("publish_url", "https://api.twitter.com/2/tweets")
	v.SetDefault("asset_base_url", "https://drive.google.com/uc")
	v.SetDefault("notifiers_file", "")
	v.SetDefault("upstream_timeout_seconds", 30)
	v.SetDefault("asset_timeout_seconds", 15)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.UpstreamTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid upstream_timeout_seconds (must be positive seconds)")
	}
	if cfg.AssetTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid asset_timeout_seconds (must be positive seconds)")
	}
	cfg.UpstreamTimeout = time.Duration(cfg.UpstreamTimeoutSeconds) * time.Second
	cfg.AssetTimeout = time.Duration(cfg.AssetTimeoutSeconds) * time.Second

	return &cfg, nil
}

// Credentials assembles the OAuth credential set from config fields.
func (c *Config) Credentials() oauth1.CredentialSet {
	return oauth1.CredentialSet{
		ConsumerKey:       c.APIKey,
		ConsumerSecret:    c.APISecret,
		AccessToken:       c.AccessToken,
		AccessTokenSecret: c.AccessSecret,
	}
}
