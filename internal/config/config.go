package config

import (
	"context"
	stderrors "errors"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/brendan.keane/stackcheck/internal/errors"
	"github.com/brendan.keane/stackcheck/pkg/apiclient"
	"github.com/brendan.keane/stackcheck/pkg/transport"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment variable, e.g. STACKCHECK_API_URL.
const EnvPrefix = "STACKCHECK"

// Flag and key names shared by cobra, viper and the environment.
const (
	KeyAPIURL       = "api-url"
	KeyHeader       = "header"
	KeyBearer       = "bearer"
	KeySigV4        = "sig-v4"
	KeySigV4Service = "sig-v4-service"
	KeyTimeout      = "timeout"
	KeyVerbose      = "verbose"
	KeyDebug        = "debug"
	KeyLogFormat    = "log-format"
)

// DefaultTimeout bounds each CLI call. Zero disables the bound.
const DefaultTimeout = 30 * time.Second

// DotEnvFile is read from the working directory if present.
var DotEnvFile = ".env"

// Config holds all application configuration
type Config struct {
	APIURL  string   `mapstructure:"api-url"`
	Headers []string `mapstructure:"-"`
	Bearer  string   `mapstructure:"bearer"`

	// Authentication
	SigV4Enabled bool   `mapstructure:"sig-v4"`
	SigV4Service string `mapstructure:"sig-v4-service"`

	Timeout   time.Duration `mapstructure:"timeout"`
	Verbose   bool          `mapstructure:"verbose"`
	Debug     bool          `mapstructure:"debug"`
	LogFormat string        `mapstructure:"log-format"`
}

type contextKey string

const configKey contextKey = "config"

// WithConfig adds config to context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(configKey).(*Config)
	return cfg, ok
}

// NewConfig creates a Config with default values
func NewConfig() *Config {
	return &Config{
		APIURL:       apiclient.DefaultBaseURL,
		SigV4Service: transport.DefaultSigV4Service,
		Timeout:      DefaultTimeout,
		LogFormat:    "console",
	}
}

// RegisterFlags adds the global flags to flags with their defaults.
func RegisterFlags(flags *pflag.FlagSet) {
	d := NewConfig()
	flags.String(KeyAPIURL, d.APIURL, "Base URL of the API (env STACKCHECK_API_URL)")
	flags.StringArrayP(KeyHeader, "H", nil, "Header sent with every request, as 'Name: value' (repeatable)")
	flags.String(KeyBearer, "", "Bearer token for the Authorization header (env STACKCHECK_BEARER)")
	flags.Bool(KeySigV4, false, "Sign requests with AWS SigV4 (env STACKCHECK_SIG_V4)")
	flags.String(KeySigV4Service, d.SigV4Service, "AWS service name for SigV4 signing")
	flags.Duration(KeyTimeout, d.Timeout, "Per-call timeout, 0 for none (env STACKCHECK_TIMEOUT)")
	flags.BoolP(KeyVerbose, "v", false, "Verbose output")
	flags.Bool(KeyDebug, false, "Debug logging")
	flags.String(KeyLogFormat, d.LogFormat, "Log format: console or json")
}

// LoadFromFlags builds a Config. Precedence is flag, then environment, then
// the .env file, then defaults.
func LoadFromFlags(flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read env file").
			WithContext("field", DotEnvFile)
	}

	d := NewConfig()
	v := viper.New()
	v.SetDefault(KeyAPIURL, d.APIURL)
	v.SetDefault(KeyBearer, d.Bearer)
	v.SetDefault(KeySigV4, d.SigV4Enabled)
	v.SetDefault(KeySigV4Service, d.SigV4Service)
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeyVerbose, d.Verbose)
	v.SetDefault(KeyDebug, d.Debug)
	v.SetDefault(KeyLogFormat, d.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for _, key := range []string{KeyAPIURL, KeyBearer, KeySigV4, KeySigV4Service, KeyTimeout, KeyVerbose, KeyDebug, KeyLogFormat} {
			if flag := flags.Lookup(key); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, errors.Wrapf(err, errors.ErrorTypeConfig, "failed to bind %s flag", key)
				}
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to decode configuration")
	}
	config.APIURL = strings.TrimSpace(config.APIURL)
	config.LogFormat = strings.ToLower(strings.TrimSpace(config.LogFormat))

	if flags != nil && flags.Lookup(KeyHeader) != nil {
		headers, err := flags.GetStringArray(KeyHeader)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to get header flag")
		}
		config.Headers = headers
	}

	return config, nil
}

// Validate ensures the configuration is valid
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New(errors.ErrorTypeValidation, "must not be empty").
			WithContext("field", KeyAPIURL).
			WithContext("suggestion", "set STACKCHECK_API_URL or pass --api-url")
	}

	u, err := url.Parse(c.APIURL)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "not a valid URL").
			WithContext("field", KeyAPIURL)
	}
	switch u.Scheme {
	case "http", "https", transport.LambdaScheme:
	default:
		return errors.Newf(errors.ErrorTypeValidation, "unsupported scheme %q (want http, https or lambda)", u.Scheme).
			WithContext("field", KeyAPIURL)
	}
	if u.Host == "" {
		return errors.New(errors.ErrorTypeValidation, "missing host").
			WithContext("field", KeyAPIURL)
	}

	if c.Timeout < 0 {
		return errors.New(errors.ErrorTypeValidation, "must not be negative").
			WithContext("field", KeyTimeout)
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return errors.Newf(errors.ErrorTypeValidation, "unknown format %q (want console or json)", c.LogFormat).
			WithContext("field", KeyLogFormat)
	}

	if _, err := ParseHeaders(c.Headers); err != nil {
		return err
	}

	return nil
}

// DefaultHeaders returns the headers every request carries: the bearer token
// first, then -H values, which override it.
func (c *Config) DefaultHeaders() (map[string]string, error) {
	headers := make(map[string]string)
	if c.Bearer != "" {
		headers["Authorization"] = "Bearer " + c.Bearer
	}
	parsed, err := ParseHeaders(c.Headers)
	if err != nil {
		return nil, err
	}
	for _, h := range parsed {
		headers[h.Name] = h.Value
	}
	return headers, nil
}

// Header is one parsed -H value.
type Header struct {
	Name  string
	Value string
}

// ParseHeaders parses "Name: value" entries in order. A bare "Name" sets an
// empty value.
func ParseHeaders(raw []string) ([]Header, error) {
	headers := make([]Header, 0, len(raw))
	for _, entry := range raw {
		name, value, _ := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.Newf(errors.ErrorTypeValidation, "malformed header %q", entry).
				WithContext("field", KeyHeader).
				WithContext("suggestion", "use -H 'Name: value'")
		}
		headers = append(headers, Header{Name: name, Value: strings.TrimSpace(value)})
	}
	return headers, nil
}
