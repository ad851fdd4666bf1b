package testutil

import (
	"time"

	"github.com/brendan.keane/stackcheck/internal/config"
)

// ConfigBuilder provides a fluent interface for building test configurations
type ConfigBuilder struct {
	config *config.Config
}

// NewConfigBuilder starts from config.NewConfig with a short timeout
func NewConfigBuilder() *ConfigBuilder {
	cfg := config.NewConfig()
	cfg.Timeout = 5 * time.Second
	return &ConfigBuilder{config: cfg}
}

func (b *ConfigBuilder) WithAPIURL(url string) *ConfigBuilder {
	b.config.APIURL = url
	return b
}

func (b *ConfigBuilder) WithHeaders(headers ...string) *ConfigBuilder {
	b.config.Headers = append(b.config.Headers, headers...)
	return b
}

func (b *ConfigBuilder) WithBearer(token string) *ConfigBuilder {
	b.config.Bearer = token
	return b
}

func (b *ConfigBuilder) WithSigV4(service string) *ConfigBuilder {
	b.config.SigV4Enabled = true
	if service != "" {
		b.config.SigV4Service = service
	}
	return b
}

func (b *ConfigBuilder) WithTimeout(timeout time.Duration) *ConfigBuilder {
	b.config.Timeout = timeout
	return b
}

func (b *ConfigBuilder) WithLogFormat(format string) *ConfigBuilder {
	b.config.LogFormat = format
	return b
}

// Build returns the configured Config
func (b *ConfigBuilder) Build() *config.Config {
	return b.config
}
