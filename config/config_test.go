package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParse_MinimalConfig(t *testing.T) {
	yaml := `
signal:
  url: http://router.local/api/signal-strength
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Bars != 5 {
		t.Errorf("Bars = %d, want 5", cfg.Bars)
	}
	if cfg.CountElement != "notif-count" {
		t.Errorf("CountElement = %q, want notif-count", cfg.CountElement)
	}
	want := IndicatorsConfig{Container: "signal-bars", Member: "bar", Class: "active"}
	if cfg.Indicators != want {
		t.Errorf("Indicators = %+v, want %+v", cfg.Indicators, want)
	}
	if cfg.Notifications.Enabled() {
		t.Error("Notifications.Enabled() = true, want false without url or base_url")
	}
	if !cfg.Signal.Enabled() {
		t.Error("Signal.Enabled() = false, want true")
	}
	if cfg.MQTT.Enabled() || cfg.Redis.Enabled() {
		t.Error("mirrors enabled without broker or addr")
	}
}

func TestParse_BaseURLDerivesSources(t *testing.T) {
	yaml := `base_url: http://192.168.8.1:5001/`

	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.BaseURL != "http://192.168.8.1:5001" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.Notifications.URL != "http://192.168.8.1:5001/api/notifications" {
		t.Errorf("Notifications.URL = %q", cfg.Notifications.URL)
	}
	if cfg.Signal.URL != "http://192.168.8.1:5001/api/signal-strength" {
		t.Errorf("Signal.URL = %q", cfg.Signal.URL)
	}
}

func TestParse_ExplicitURLOverridesBaseURL(t *testing.T) {
	yaml := `
base_url: http://router.local
signal:
  url: http://other.local/strength
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Signal.URL != "http://other.local/strength" {
		t.Errorf("Signal.URL = %q, want explicit url", cfg.Signal.URL)
	}
	if cfg.Notifications.URL != "http://router.local/api/notifications" {
		t.Errorf("Notifications.URL = %q, want derived url", cfg.Notifications.URL)
	}
}

func TestParse_DisabledSource(t *testing.T) {
	yaml := `
base_url: http://router.local
notifications:
  disabled: true
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Notifications.Enabled() {
		t.Error("Notifications.Enabled() = true, want false when disabled")
	}
	if !cfg.Signal.Enabled() {
		t.Error("Signal.Enabled() = false, want true")
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
title: Living Room Router
port: 9090
count_element: unread
bars: 4
indicators:
  container: strength
  member: pip
  class: lit

notifications:
  url: https://router.local/api/notifications
  method: post
  timeout: 5s
  interval: 10s
  field: data.count
  headers:
    Authorization: Bearer token123
    X-Custom: value

signal:
  url: https://router.local/api/signal-strength
  interval: 2s

mqtt:
  broker: tcp://localhost:1883
  client_id: board-1
  username: user
  password: pass
  topic_prefix: /home/router/

redis:
  addr: localhost:6379
  db: 2
  key: router:latest
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "Living Room Router" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.CountElement != "unread" {
		t.Errorf("CountElement = %q, want unread", cfg.CountElement)
	}
	if cfg.Bars != 4 {
		t.Errorf("Bars = %d, want 4", cfg.Bars)
	}
	if cfg.Indicators != (IndicatorsConfig{Container: "strength", Member: "pip", Class: "lit"}) {
		t.Errorf("Indicators = %+v", cfg.Indicators)
	}

	n := cfg.Notifications
	if n.Method != "POST" {
		t.Errorf("Method = %q, want POST (upper-cased)", n.Method)
	}
	if n.Timeout.Duration() != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", n.Timeout.Duration())
	}
	if n.Interval.Duration() != 10*time.Second {
		t.Errorf("Interval = %v, want 10s", n.Interval.Duration())
	}
	if n.Field != "data.count" {
		t.Errorf("Field = %q, want data.count", n.Field)
	}
	if n.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("Headers[Authorization] = %q", n.Headers["Authorization"])
	}
	if cfg.Signal.Interval.Duration() != 2*time.Second {
		t.Errorf("Signal.Interval = %v, want 2s", cfg.Signal.Interval.Duration())
	}

	if !cfg.MQTT.Enabled() {
		t.Fatal("MQTT.Enabled() = false")
	}
	if cfg.MQTT.TopicPrefix != "home/router" {
		t.Errorf("TopicPrefix = %q, want slashes trimmed", cfg.MQTT.TopicPrefix)
	}
	if cfg.MQTT.ClientID != "board-1" || cfg.MQTT.Username != "user" || cfg.MQTT.Password != "pass" {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}

	if !cfg.Redis.Enabled() {
		t.Fatal("Redis.Enabled() = false")
	}
	if cfg.Redis.DB != 2 || cfg.Redis.Key != "router:latest" {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
}

func TestParse_MirrorDefaults(t *testing.T) {
	yaml := `
base_url: http://router.local
mqtt:
  broker: tcp://localhost:1883
redis:
  addr: localhost:6379
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.MQTT.TopicPrefix != "signalboard" {
		t.Errorf("TopicPrefix = %q, want signalboard", cfg.MQTT.TopicPrefix)
	}
	if cfg.Redis.Key != "signalboard" {
		t.Errorf("Redis.Key = %q, want signalboard", cfg.Redis.Key)
	}
}

func TestParseTOML(t *testing.T) {
	toml := `
title = "Router"
port = 9091
base_url = "http://router.local"

[signal]
interval = "2s"
timeout = "3s"

[signal.headers]
X-Token = "abc"

[mqtt]
broker = "tcp://localhost:1883"
topic_prefix = "home/router"

[redis]
addr = "localhost:6379"
db = 1
`
	cfg, err := ParseTOML([]byte(toml))
	if err != nil {
		t.Fatalf("ParseTOML() error = %v", err)
	}

	if cfg.Title != "Router" || cfg.Port != 9091 {
		t.Errorf("Title, Port = %q, %d", cfg.Title, cfg.Port)
	}
	if cfg.Signal.URL != "http://router.local/api/signal-strength" {
		t.Errorf("Signal.URL = %q", cfg.Signal.URL)
	}
	if cfg.Signal.Interval.Duration() != 2*time.Second {
		t.Errorf("Signal.Interval = %v, want 2s", cfg.Signal.Interval.Duration())
	}
	if cfg.Signal.Timeout.Duration() != 3*time.Second {
		t.Errorf("Signal.Timeout = %v, want 3s", cfg.Signal.Timeout.Duration())
	}
	if cfg.Signal.Headers["X-Token"] != "abc" {
		t.Errorf("Signal.Headers = %v", cfg.Signal.Headers)
	}
	if cfg.MQTT.TopicPrefix != "home/router" {
		t.Errorf("TopicPrefix = %q", cfg.MQTT.TopicPrefix)
	}
	if cfg.Redis.DB != 1 {
		t.Errorf("Redis.DB = %d, want 1", cfg.Redis.DB)
	}
	if cfg.Bars != 5 {
		t.Errorf("Bars = %d, want default 5", cfg.Bars)
	}
}

func TestParseTOML_InvalidDuration(t *testing.T) {
	toml := `
base_url = "http://router.local"

[signal]
interval = "soon"
`
	_, err := ParseTOML([]byte(toml))
	if err == nil {
		t.Fatal("ParseTOML() expected error for invalid duration, got nil")
	}
}

func TestParseTOML_InvalidSyntax(t *testing.T) {
	_, err := ParseTOML([]byte(`base_url = "unterminated`))
	if err == nil {
		t.Fatal("ParseTOML() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "failed to parse TOML") {
		t.Errorf("error = %q, want TOML parse error", err.Error())
	}
}

func TestLoad_DetectsFormatByExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "board.yaml")
	if err := os.WriteFile(yamlPath, []byte("base_url: http://yaml.local\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	tomlPath := filepath.Join(dir, "board.TOML")
	if err := os.WriteFile(tomlPath, []byte("base_url = \"http://toml.local\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(yamlPath)
	if err != nil {
		t.Fatalf("Load(yaml) error = %v", err)
	}
	if cfg.BaseURL != "http://yaml.local" {
		t.Errorf("BaseURL = %q, want http://yaml.local", cfg.BaseURL)
	}

	cfg, err = Load(tomlPath)
	if err != nil {
		t.Fatalf("Load(toml) error = %v", err)
	}
	if cfg.BaseURL != "http://toml.local" {
		t.Errorf("BaseURL = %q, want http://toml.local", cfg.BaseURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	// t.Setenv auto-restores after test
	t.Setenv("TEST_ROUTER_HOST", "router.test")
	t.Setenv("TEST_ROUTER_TOKEN", "secret123")
	t.Setenv("TEST_MQTT_PASS", "hunter2")
	t.Setenv("TEST_REDIS_ADDR", "cache:6379")

	yaml := `
base_url: http://${TEST_ROUTER_HOST}:5001
signal:
  headers:
    Authorization: Bearer ${TEST_ROUTER_TOKEN}
mqtt:
  broker: tcp://${TEST_ROUTER_HOST}:1883
  password: ${TEST_MQTT_PASS}
redis:
  addr: ${TEST_REDIS_ADDR}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Signal.URL != "http://router.test:5001/api/signal-strength" {
		t.Errorf("Signal.URL = %q", cfg.Signal.URL)
	}
	if cfg.Signal.Headers["Authorization"] != "Bearer secret123" {
		t.Errorf("Authorization = %q", cfg.Signal.Headers["Authorization"])
	}
	if cfg.MQTT.Broker != "tcp://router.test:1883" {
		t.Errorf("MQTT.Broker = %q", cfg.MQTT.Broker)
	}
	if cfg.MQTT.Password != "hunter2" {
		t.Errorf("MQTT.Password = %q", cfg.MQTT.Password)
	}
	if cfg.Redis.Addr != "cache:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
}

func TestParse_EnvVarDefault(t *testing.T) {
	yaml := `
signal:
  url: ${SIGNALBOARD_UNSET_URL:-http://fallback.local/strength}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Signal.URL != "http://fallback.local/strength" {
		t.Errorf("Signal.URL = %q, want default", cfg.Signal.URL)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantErrLike string
	}{
		{
			name:        "base_url",
			yaml:        `base_url: http://${SIGNALBOARD_MISSING}`,
			wantErrLike: "base_url:",
		},
		{
			name: "source url",
			yaml: `
notifications:
  url: http://${SIGNALBOARD_MISSING}/n
`,
			wantErrLike: "notifications.url:",
		},
		{
			name: "header",
			yaml: `
base_url: http://router.local
signal:
  headers:
    X-Token: ${SIGNALBOARD_MISSING}
`,
			wantErrLike: "signal.headers[X-Token]:",
		},
		{
			name: "mqtt password",
			yaml: `
base_url: http://router.local
mqtt:
  broker: tcp://localhost:1883
  password: ${SIGNALBOARD_MISSING}
`,
			wantErrLike: "mqtt.password:",
		},
		{
			name: "redis password",
			yaml: `
base_url: http://router.local
redis:
  addr: localhost:6379
  password: ${SIGNALBOARD_MISSING}
`,
			wantErrLike: "redis.password:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErrLike)
			}
			if !strings.Contains(err.Error(), "SIGNALBOARD_MISSING") {
				t.Errorf("error = %q, want to name the variable", err.Error())
			}
		})
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantErrLike string
	}{
		{
			name:        "no sources",
			yaml:        `port: 8080`,
			wantErrLike: "at least one of notifications or signal",
		},
		{
			name: "all sources disabled",
			yaml: `
base_url: http://router.local
notifications: {disabled: true}
signal: {disabled: true}
`,
			wantErrLike: "at least one of notifications or signal",
		},
		{
			name:        "port too high",
			yaml:        "base_url: http://router.local\nport: 70000",
			wantErrLike: "port must be between",
		},
		{
			name:        "negative port",
			yaml:        "base_url: http://router.local\nport: -1",
			wantErrLike: "port must be between",
		},
		{
			name:        "too many bars",
			yaml:        "base_url: http://router.local\nbars: 33",
			wantErrLike: "bars must be between",
		},
		{
			name:        "base_url without scheme",
			yaml:        `base_url: router.local`,
			wantErrLike: "base_url: url must have a scheme",
		},
		{
			name:        "base_url ftp",
			yaml:        `base_url: ftp://router.local`,
			wantErrLike: "base_url: url scheme must be http or https",
		},
		{
			name: "signal url without host",
			yaml: `
signal:
  url: "http://"
`,
			wantErrLike: "signal.url: url must have a host",
		},
		{
			name: "invalid method",
			yaml: `
base_url: http://router.local
signal:
  method: DELETE
`,
			wantErrLike: "signal.method: must be GET or POST",
		},
		{
			name: "empty field segment",
			yaml: `
base_url: http://router.local
notifications:
  field: data..count
`,
			wantErrLike: "notifications.field: empty segment",
		},
		{
			name: "blank count element",
			yaml: `
base_url: http://router.local
count_element: "   "
`,
			wantErrLike: "count_element cannot be blank",
		},
		{
			name: "mqtt bad scheme",
			yaml: `
base_url: http://router.local
mqtt:
  broker: http://localhost:1883
`,
			wantErrLike: "mqtt.broker: unsupported scheme",
		},
		{
			name: "mqtt missing host",
			yaml: `
base_url: http://router.local
mqtt:
  broker: "tcp://"
`,
			wantErrLike: "mqtt.broker: host is required",
		},
		{
			name: "mqtt wildcard prefix",
			yaml: `
base_url: http://router.local
mqtt:
  broker: tcp://localhost:1883
  topic_prefix: home/+/router
`,
			wantErrLike: "mqtt.topic_prefix: wildcards",
		},
		{
			name: "mqtt slash-only prefix",
			yaml: `
base_url: http://router.local
mqtt:
  broker: tcp://localhost:1883
  topic_prefix: "///"
`,
			wantErrLike: "mqtt.topic_prefix cannot be blank",
		},
		{
			name: "redis negative db",
			yaml: `
base_url: http://router.local
redis:
  addr: localhost:6379
  db: -1
`,
			wantErrLike: "redis.db: cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErrLike)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	yaml := `
this is not: valid: yaml: at all
  - broken
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML, got nil")
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	yaml := `
base_url: http://router.local
signal:
  interval: not-a-duration
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %q, want to contain 'invalid duration'", err.Error())
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"seconds", "10s", 10 * time.Second, false},
		{"milliseconds", "1500ms", 1500 * time.Millisecond, false},
		{"minutes", "2m", 2 * time.Minute, false},
		{"hours", "1h", 1 * time.Hour, false},
		{"combined", "1m30s", 90 * time.Second, false},
		{"empty", `""`, 0, false},
		{"invalid", "not-a-duration", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				D Duration `yaml:"d"`
			}
			err := yaml.Unmarshal([]byte("d: "+tt.input), &v)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Unmarshal() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if v.D.Duration() != tt.want {
				t.Errorf("Duration = %v, want %v", v.D.Duration(), tt.want)
			}
		})
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte(" 750ms ")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if d.Duration() != 750*time.Millisecond {
		t.Errorf("Duration = %v, want 750ms", d.Duration())
	}

	if err := d.UnmarshalText([]byte("1x")); err == nil {
		t.Error("UnmarshalText(1x) expected error, got nil")
	}
}

func TestParse_TimeoutValidation(t *testing.T) {
	tests := []struct {
		name    string
		timeout string
		wantErr string
	}{
		{"one second", "1s", ""},
		{"thirty seconds", "30s", ""},
		{"sub-second", "500ms", "signal.timeout: must be at least 1s"},
		{"negative", "-5s", "signal.timeout: must be at least 1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yaml := `
base_url: http://router.local
signal:
  timeout: ` + tt.timeout

			_, err := Parse([]byte(yaml))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Parse() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParse_IntervalValidation(t *testing.T) {
	tests := []struct {
		name     string
		interval string
		wantErr  string
	}{
		{"minimum", "1s", ""},
		{"five seconds", "5s", ""},
		{"maximum", "1h", ""},
		{"too fast", "500ms", "notifications.interval: must be at least 1s"},
		{"too slow", "2h", "notifications.interval: must not exceed 1h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yaml := `
base_url: http://router.local
notifications:
  interval: ` + tt.interval

			_, err := Parse([]byte(yaml))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Parse() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "") // set but empty

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		{"set but empty var", "${EMPTY_VAR}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false}, // set var takes precedence
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// UNSET and MISSING are expected to not exist in environment
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_TitleEmpty(t *testing.T) {
	cfg, err := Parse([]byte(`base_url: http://router.local`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	// empty title is left for the dashboard to default
	if cfg.Title != "" {
		t.Errorf("Title = %q, want empty", cfg.Title)
	}
}
