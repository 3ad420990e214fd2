// Package config loads central-mcp settings from flags, environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"

	"github.com/tphakala/go-central"
)

// EnvPrefix is prepended to every environment variable, e.g. CENTRAL_CLIENT_ID.
const EnvPrefix = "CENTRAL"

// Keys shared by viper, flags and the config file.
const (
	KeyClientID     = "client_id"
	KeyClientSecret = "client_secret"
	KeyTenantID     = "tenant_id"
	KeyAPIURL       = "api_url"
	KeyGlobalURL    = "global_url"
	KeyAuthURL      = "auth_url"
	KeyTimeout      = "timeout"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
)

// Config is the resolved process configuration.
type Config struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	TenantID     string        `mapstructure:"tenant_id"`
	APIURL       string        `mapstructure:"api_url"`
	GlobalURL    string        `mapstructure:"global_url"`
	AuthURL      string        `mapstructure:"auth_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	LogLevel     string        `mapstructure:"log_level"`
	LogFormat    string        `mapstructure:"log_format"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyClientID, "")
	v.SetDefault(KeyClientSecret, "")
	v.SetDefault(KeyTenantID, "")
	v.SetDefault(KeyAPIURL, "")
	v.SetDefault(KeyGlobalURL, "")
	v.SetDefault(KeyAuthURL, "")
	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file, if given, and decodes the merged settings. It does not
// validate them.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.ClientID == "" {
		result = multierror.Append(result, errors.New("client_id is required"))
	}
	if c.ClientSecret == "" {
		result = multierror.Append(result, errors.New("client_secret is required"))
	}
	if c.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}

	for key, value := range map[string]string{
		KeyAPIURL:    c.APIURL,
		KeyGlobalURL: c.GlobalURL,
		KeyAuthURL:   c.AuthURL,
	} {
		if err := checkURL(value); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", key, err))
		}
	}

	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		result = multierror.Append(result, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}

	return result.ErrorOrNil()
}

func checkURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("unsupported scheme in %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

// ClientOptions converts the configuration into client options.
func (c *Config) ClientOptions(logger hclog.Logger) []central.ClientOption {
	opts := []central.ClientOption{
		central.WithCredentials(c.ClientID, c.ClientSecret),
		central.WithTimeout(c.Timeout),
		central.WithLogger(logger),
	}
	if c.TenantID != "" {
		opts = append(opts, central.WithTenantID(c.TenantID))
	}
	if c.APIURL != "" {
		opts = append(opts, central.WithAPIURL(c.APIURL))
	}
	if c.GlobalURL != "" {
		opts = append(opts, central.WithGlobalURL(c.GlobalURL))
	}
	if c.AuthURL != "" {
		opts = append(opts, central.WithTokenURL(c.AuthURL))
	}
	return opts
}

// NewLogger builds the process logger. It must not write to stdout, which
// carries the MCP stdio stream.
func (c *Config) NewLogger(name string, w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(c.LogLevel),
		Output:     w,
		JSONFormat: c.LogFormat == "json",
	})
}
