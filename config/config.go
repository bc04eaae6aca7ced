// Package config provides YAML and TOML configuration parsing for SignalBoard.
//
// This package enables running SignalBoard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
// Files ending in ".toml" are decoded as TOML; anything else is YAML.
//
// Example configuration:
//
//	title: Router
//	port: 8080
//	base_url: http://192.168.8.1:5001
//
//	notifications:
//	  interval: 5s
//
//	signal:
//	  interval: 1s
//	  headers:
//	    Authorization: Bearer ${ROUTER_TOKEN}
//
//	mqtt:
//	  broker: tcp://localhost:1883
//	  topic_prefix: home/router
//
// With base_url set, the notification and signal URLs default to
// "/api/notifications" and "/api/signal-strength" beneath it.
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

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	// minPollInterval is the minimum allowed polling interval for file configs.
	// This prevents accidental DoS of the router with overly aggressive polling.
	minPollInterval = 1 * time.Second
	maxPollInterval = 1 * time.Hour

	defaultPort         = 8080
	defaultBars         = 5
	defaultCountElement = "notif-count"
	defaultContainer    = "signal-bars"
	defaultMember       = "bar"
	defaultClass        = "active"
	defaultTopicPrefix  = "signalboard"
	defaultRedisKey     = "signalboard"

	notificationsPath = "/api/notifications"
	signalPath        = "/api/signal-strength"
)

// Config is the root configuration structure for SignalBoard.
//
// Use [Load], [Parse] or [ParseTOML] to create a Config.
type Config struct {
	// Title is the dashboard title. Defaults to "SignalBoard" if not set.
	Title string `yaml:"title" toml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port" toml:"port"`

	// BaseURL is the router backend root. When set, empty source URLs are
	// derived from it. Supports environment variable substitution.
	BaseURL string `yaml:"base_url" toml:"base_url"`

	// Notifications configures the notification count poller.
	Notifications SourceConfig `yaml:"notifications" toml:"notifications"`

	// Signal configures the signal strength poller.
	Signal SourceConfig `yaml:"signal" toml:"signal"`

	// CountElement is the id of the element showing the count.
	// Defaults to "notif-count".
	CountElement string `yaml:"count_element" toml:"count_element"`

	// Indicators selects the signal indicator collection.
	Indicators IndicatorsConfig `yaml:"indicators" toml:"indicators"`

	// Bars is the number of indicators on the dashboard. Defaults to 5.
	Bars int `yaml:"bars" toml:"bars"`

	// MQTT configures the optional MQTT mirror.
	MQTT MQTTConfig `yaml:"mqtt" toml:"mqtt"`

	// Redis configures the optional Redis mirror.
	Redis RedisConfig `yaml:"redis" toml:"redis"`
}

// SourceConfig defines one polled backend resource.
type SourceConfig struct {
	// URL is the resource URL. Derived from base_url when empty.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url" toml:"url"`

	// Disabled turns the poller off even when base_url is set.
	Disabled bool `yaml:"disabled" toml:"disabled"`

	// Method is the HTTP method (GET or POST). Defaults to GET.
	Method string `yaml:"method" toml:"method"`

	// Timeout is the request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout" toml:"timeout"`

	// Interval overrides the poller's default period.
	// Must be between 1s and 1h.
	Interval Duration `yaml:"interval" toml:"interval"`

	// Field is the dot-separated JSON path of the integer to read.
	Field string `yaml:"field" toml:"field"`

	// Headers are custom HTTP headers sent with each request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers" toml:"headers"`
}

// Enabled reports whether the poller should run.
func (s SourceConfig) Enabled() bool {
	return !s.Disabled && s.URL != ""
}

// IndicatorsConfig selects the indicator elements toggled by the signal poller.
// Empty fields take the defaults "signal-bars", "bar" and "active".
type IndicatorsConfig struct {
	Container string `yaml:"container" toml:"container"`
	Member    string `yaml:"member" toml:"member"`
	Class     string `yaml:"class" toml:"class"`
}

// MQTTConfig configures the MQTT mirror. The mirror is enabled when
// Broker is set.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string `yaml:"broker" toml:"broker"`

	// ClientID defaults to "signalboard-<random>".
	ClientID string `yaml:"client_id" toml:"client_id"`

	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`

	// TopicPrefix defaults to "signalboard".
	TopicPrefix string `yaml:"topic_prefix" toml:"topic_prefix"`
}

// Enabled reports whether the MQTT mirror is configured.
func (m MQTTConfig) Enabled() bool {
	return m.Broker != ""
}

// RedisConfig configures the Redis mirror. The mirror is enabled when
// Addr is set.
type RedisConfig struct {
	// Addr is host:port of the Redis server.
	Addr     string `yaml:"addr" toml:"addr"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`

	// Key is the hash receiving the values. Defaults to "signalboard".
	Key string `yaml:"key" toml:"key"`
}

// Enabled reports whether the Redis mirror is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// Duration wraps time.Duration for YAML and TOML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler, used by the TOML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*d = 0
		return nil
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a configuration file.
//
// Files with a ".toml" extension are parsed as TOML, all others as YAML.
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(data)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in URLs, header values and mirror
// credentials. Defaults are applied before validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return finish(&cfg)
}

// ParseTOML parses TOML configuration data. It accepts the same keys as
// [Parse].
func ParseTOML(data []byte) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.applyDefaults()
	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Bars == 0 {
		c.Bars = defaultBars
	}
	if c.CountElement == "" {
		c.CountElement = defaultCountElement
	}
	if c.Indicators.Container == "" {
		c.Indicators.Container = defaultContainer
	}
	if c.Indicators.Member == "" {
		c.Indicators.Member = defaultMember
	}
	if c.Indicators.Class == "" {
		c.Indicators.Class = defaultClass
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = defaultTopicPrefix
	}
	if c.Redis.Key == "" {
		c.Redis.Key = defaultRedisKey
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Bars < 1 || c.Bars > 32 {
		return fmt.Errorf("bars must be between 1 and 32, got %d", c.Bars)
	}

	if c.BaseURL != "" {
		expanded, err := expandEnvVars(c.BaseURL)
		if err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
		if err := validateHTTPURL(expanded); err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
		c.BaseURL = strings.TrimRight(expanded, "/")
	}

	if err := c.Notifications.expandAndValidate("notifications", c.BaseURL, notificationsPath); err != nil {
		return err
	}
	if err := c.Signal.expandAndValidate("signal", c.BaseURL, signalPath); err != nil {
		return err
	}
	if !c.Notifications.Enabled() && !c.Signal.Enabled() {
		return errors.New("at least one of notifications or signal must be configured (set base_url or a url)")
	}

	if strings.TrimSpace(c.CountElement) == "" {
		return errors.New("count_element cannot be blank")
	}

	if err := c.MQTT.expandAndValidate(); err != nil {
		return err
	}
	return c.Redis.expandAndValidate()
}

func (s *SourceConfig) expandAndValidate(name, baseURL, defaultPath string) error {
	if s.Disabled {
		return nil
	}

	if s.URL == "" {
		if baseURL == "" {
			return nil
		}
		s.URL = baseURL + defaultPath
	}

	expanded, err := expandEnvVars(s.URL)
	if err != nil {
		return fmt.Errorf("%s.url: %w", name, err)
	}
	if err := validateHTTPURL(expanded); err != nil {
		return fmt.Errorf("%s.url: %w", name, err)
	}
	s.URL = expanded

	for k, v := range s.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("%s.headers[%s]: %w", name, k, err)
		}
		s.Headers[k] = expanded
	}

	if s.Method != "" {
		s.Method = strings.ToUpper(s.Method)
		if s.Method != "GET" && s.Method != "POST" {
			return fmt.Errorf("%s.method: must be GET or POST, got %q", name, s.Method)
		}
	}

	if s.Timeout != 0 && s.Timeout.Duration() < time.Second {
		return fmt.Errorf("%s.timeout: must be at least 1s if specified, got %s", name, s.Timeout.Duration())
	}

	if s.Interval != 0 {
		if s.Interval.Duration() < minPollInterval {
			return fmt.Errorf("%s.interval: must be at least %s, got %s", name, minPollInterval, s.Interval.Duration())
		}
		if s.Interval.Duration() > maxPollInterval {
			return fmt.Errorf("%s.interval: must not exceed %s, got %s", name, maxPollInterval, s.Interval.Duration())
		}
	}

	if s.Field != "" {
		for _, part := range strings.Split(s.Field, ".") {
			if part == "" {
				return fmt.Errorf("%s.field: empty segment in %q", name, s.Field)
			}
		}
	}

	return nil
}

func (m *MQTTConfig) expandAndValidate() error {
	if !m.Enabled() {
		return nil
	}

	var err error
	if m.Broker, err = expandEnvVars(m.Broker); err != nil {
		return fmt.Errorf("mqtt.broker: %w", err)
	}
	if m.Username, err = expandEnvVars(m.Username); err != nil {
		return fmt.Errorf("mqtt.username: %w", err)
	}
	if m.Password, err = expandEnvVars(m.Password); err != nil {
		return fmt.Errorf("mqtt.password: %w", err)
	}

	u, err := url.Parse(m.Broker)
	if err != nil {
		return fmt.Errorf("mqtt.broker: invalid url: %w", err)
	}
	switch u.Scheme {
	case "tcp", "ssl", "tls", "mqtt", "mqtts", "ws", "wss":
	default:
		return fmt.Errorf("mqtt.broker: unsupported scheme %q (expected tcp, ssl, tls, mqtt, mqtts, ws or wss)", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("mqtt.broker: host is required")
	}

	if strings.Trim(m.TopicPrefix, "/") == "" {
		return errors.New("mqtt.topic_prefix cannot be blank")
	}
	m.TopicPrefix = strings.Trim(m.TopicPrefix, "/")
	if strings.ContainsAny(m.TopicPrefix, "+#") {
		return fmt.Errorf("mqtt.topic_prefix: wildcards are not allowed, got %q", m.TopicPrefix)
	}
	return nil
}

func (r *RedisConfig) expandAndValidate() error {
	if !r.Enabled() {
		return nil
	}

	var err error
	if r.Addr, err = expandEnvVars(r.Addr); err != nil {
		return fmt.Errorf("redis.addr: %w", err)
	}
	if r.Password, err = expandEnvVars(r.Password); err != nil {
		return fmt.Errorf("redis.password: %w", err)
	}
	if r.DB < 0 {
		return fmt.Errorf("redis.db: cannot be negative, got %d", r.DB)
	}
	if strings.TrimSpace(r.Key) == "" {
		return errors.New("redis.key cannot be blank")
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" {
		return errors.New("url must have a scheme (http:// or https://)")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must have a host")
	}
	return nil
}
