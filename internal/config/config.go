// Package config loads inboxcrm settings from defaults, an optional YAML file
// and INBOXCRM_* environment variables using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/teemow/inboxcrm/internal/crm/auth"
	"github.com/teemow/inboxcrm/internal/crm/session"
	"github.com/teemow/inboxcrm/internal/instrumentation"
	"github.com/teemow/inboxcrm/internal/mailitem"
)

// EnvPrefix prefixes every environment variable, e.g. INBOXCRM_CLIENT_ID.
const EnvPrefix = "INBOXCRM"

var apiVersionPattern = regexp.MustCompile(`^v\d+\.\d+$`)

// Config holds inboxcrm configuration.
type Config struct {
	// LoginURL is the CRM login host that serves the authorize and token endpoints.
	LoginURL     string   `mapstructure:"login_url"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURI  string   `mapstructure:"redirect_uri"`
	Scopes       []string `mapstructure:"scopes"`
	APIVersion   string   `mapstructure:"api_version"`

	// SessionFile is where the session record is persisted.
	SessionFile string `mapstructure:"session_file"`
	// SessionEncryptionKey is an optional base64 AES-256 key for the session file.
	SessionEncryptionKey string `mapstructure:"session_encryption_key"`

	PollInterval   time.Duration `mapstructure:"poll_interval"`
	AuthTimeout    time.Duration `mapstructure:"auth_timeout"`
	ValidityWindow time.Duration `mapstructure:"validity_window"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	GoogleRedirectURI  string `mapstructure:"google_redirect_uri"`

	Telemetry Telemetry `mapstructure:"telemetry"`
}

// Telemetry selects the metrics and trace exporters used by serve.
type Telemetry struct {
	Enabled           bool    `mapstructure:"enabled"`
	MetricsExporter   string  `mapstructure:"metrics_exporter"`
	TracingExporter   string  `mapstructure:"tracing_exporter"`
	OTLPEndpoint      string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure      bool    `mapstructure:"otlp_insecure"`
	TraceSamplingRate float64 `mapstructure:"trace_sampling_rate"`
	InstanceID        string  `mapstructure:"instance_id"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("login_url", "https://login.salesforce.com")
	v.SetDefault("client_id", "")
	v.SetDefault("client_secret", "")
	v.SetDefault("redirect_uri", "http://localhost:8787/oauth/callback")
	v.SetDefault("scopes", []string{"api", "refresh_token"})
	v.SetDefault("api_version", "v59.0")
	v.SetDefault("session_file", filepath.Join(userCacheDir(), "inboxcrm", "session.json"))
	v.SetDefault("session_encryption_key", "")
	v.SetDefault("poll_interval", auth.DefaultPollInterval)
	v.SetDefault("auth_timeout", auth.DefaultTimeout)
	v.SetDefault("validity_window", session.DefaultValidityWindow)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("google_client_id", "")
	v.SetDefault("google_client_secret", "")
	v.SetDefault("google_redirect_uri", mailitem.DefaultGoogleRedirectURI)

	tel := instrumentation.DefaultConfig()
	v.SetDefault("telemetry.enabled", tel.Enabled)
	v.SetDefault("telemetry.metrics_exporter", tel.MetricsExporter)
	v.SetDefault("telemetry.tracing_exporter", tel.TracingExporter)
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", false)
	v.SetDefault("telemetry.trace_sampling_rate", tel.TraceSamplingRate)
	v.SetDefault("telemetry.instance_id", "")
}

// bindEnv maps the standard OpenTelemetry variables onto telemetry keys.
// The INBOXCRM_TELEMETRY_* names keep working.
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"telemetry.otlp_endpoint":       "OTEL_EXPORTER_OTLP_ENDPOINT",
		"telemetry.otlp_insecure":       "OTEL_EXPORTER_OTLP_INSECURE",
		"telemetry.trace_sampling_rate": "OTEL_TRACES_SAMPLER_ARG",
		"telemetry.instance_id":         "OTEL_SERVICE_INSTANCE_ID",
	}
	for key, otelName := range bindings {
		own := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, own, otelName); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// Load builds Config from defaults, then the YAML file at path, then the
// environment. An empty path falls back to DefaultPath(), which may be absent.
// Load does not validate; call Validate before authenticating.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	switch {
	case path != "":
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	default:
		if def := DefaultPath(); fileExists(def) {
			v.SetConfigFile(def)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: failed to read %s: %w", def, err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings needed to talk to the CRM.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return errors.New("config: client_id must be set")
	}
	if err := absoluteURL("login_url", c.LoginURL); err != nil {
		return err
	}
	if err := absoluteURL("redirect_uri", c.RedirectURI); err != nil {
		return err
	}
	if !apiVersionPattern.MatchString(c.APIVersion) {
		return fmt.Errorf("config: api_version %q must look like v59.0", c.APIVersion)
	}
	if c.SessionFile == "" {
		return errors.New("config: session_file must be set")
	}
	if c.SessionEncryptionKey != "" {
		if _, err := session.KeyFromBase64(c.SessionEncryptionKey); err != nil {
			return fmt.Errorf("config: session_encryption_key: %w", err)
		}
	}
	if c.PollInterval <= 0 || c.AuthTimeout <= 0 || c.ValidityWindow <= 0 {
		return errors.New("config: poll_interval, auth_timeout and validity_window must be positive")
	}
	return nil
}

// AuthConfig returns the auth flow settings.
func (c *Config) AuthConfig() auth.Config {
	return auth.Config{
		LoginURL:     c.LoginURL,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURI:  c.RedirectURI,
		Scopes:       c.Scopes,
		PollInterval: c.PollInterval,
		Timeout:      c.AuthTimeout,
	}
}

// SessionCipher returns the cipher for the session file. Without a key the
// cipher is nil and the file is stored in plain JSON.
func (c *Config) SessionCipher() (*session.Cipher, error) {
	if c.SessionEncryptionKey == "" {
		return nil, nil
	}
	key, err := session.KeyFromBase64(c.SessionEncryptionKey)
	if err != nil {
		return nil, err
	}
	return session.NewCipher(key)
}

// GoogleConfig returns the Gmail OAuth settings.
func (c *Config) GoogleConfig() mailitem.GoogleConfig {
	return mailitem.GoogleConfig{
		ClientID:     c.GoogleClientID,
		ClientSecret: c.GoogleClientSecret,
		RedirectURI:  c.GoogleRedirectURI,
	}
}

// InstrumentationConfig returns the telemetry settings for the provider.
func (c *Config) InstrumentationConfig(version string) instrumentation.Config {
	cfg := instrumentation.DefaultConfig()
	cfg.ServiceVersion = version
	cfg.ServiceInstanceID = c.Telemetry.InstanceID
	cfg.Enabled = c.Telemetry.Enabled
	cfg.MetricsExporter = c.Telemetry.MetricsExporter
	cfg.TracingExporter = c.Telemetry.TracingExporter
	cfg.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	cfg.OTLPInsecure = c.Telemetry.OTLPInsecure
	cfg.TraceSamplingRate = c.Telemetry.TraceSamplingRate
	return cfg
}

// DefaultPath is config.yaml under the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "inboxcrm", "config.yaml")
}

func absoluteURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("config: %s %q must be an absolute URL", key, raw)
	}
	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return os.TempDir()
}
