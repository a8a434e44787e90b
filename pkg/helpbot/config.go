// Copyright 2024-2026 Aiku AI

package helpbot

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/util/ptr"
	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"
	"maunium.net/go/mautrix/id"
)

//go:embed example-config.yaml
var ExampleConfig string

const defaultStalenessSeconds = 300

const defaultWelcomeMessage = "Welcome to the room! Type !help for assistance."

// Config holds the full helpbot configuration.
type Config struct {
	Homeserver  string    `yaml:"homeserver"`
	UserID      id.UserID `yaml:"user_id"`
	AccessToken string    `yaml:"access_token"`

	Help        HelpConfig        `yaml:"help"`
	Filtering   FilterConfig      `yaml:"filtering"`
	JoinMonitor JoinMonitorConfig `yaml:"join_monitor"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     zeroconfig.Config `yaml:"logging"`
}

// HelpConfig points at the help content served for !help commands.
type HelpConfig struct {
	File   string `yaml:"file"`
	Format Format `yaml:"format"`
}

// FilterConfig controls which message senders are ignored.
type FilterConfig struct {
	// IgnoreSelf drops the bot's own messages (echo prevention).
	IgnoreSelf bool `yaml:"ignore_self"`
	// IgnoreBots drops senders whose user ID contains "bot"
	// (case-insensitive substring heuristic).
	IgnoreBots   bool        `yaml:"ignore_bots"`
	IgnoredUsers []id.UserID `yaml:"ignored_users"`
}

// JoinMonitorConfig controls join detection and welcome messages.
type JoinMonitorConfig struct {
	Enabled bool `yaml:"enabled"`
	// MonitoredRooms limits join detection to specific rooms.
	// An empty list monitors all joined rooms.
	MonitoredRooms []id.RoomID `yaml:"monitored_rooms"`
	SendWelcome    bool        `yaml:"send_welcome"`
	WelcomeMessage string      `yaml:"welcome_message"`
	// WelcomeFile overrides WelcomeMessage when set. The file is re-read
	// on every send so it can be updated without a restart.
	WelcomeFile   string `yaml:"welcome_file"`
	WelcomeFormat Format `yaml:"welcome_format"`
	// StalenessWindowSeconds is the maximum age of a join event that still
	// counts as a live join. Older joins are treated as backlog replayed
	// by the homeserver and never trigger a welcome.
	StalenessWindowSeconds int `yaml:"staleness_window_seconds"`
}

// StalenessWindow returns the staleness window as a duration.
func (jc *JoinMonitorConfig) StalenessWindow() time.Duration {
	return time.Duration(jc.StalenessWindowSeconds) * time.Second
}

// RoomMonitored reports whether joins in the given room are in scope.
func (jc *JoinMonitorConfig) RoomMonitored(roomID id.RoomID) bool {
	if len(jc.MonitoredRooms) == 0 {
		return true
	}
	for _, room := range jc.MonitoredRooms {
		if room == roomID {
			return true
		}
	}
	return false
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	// ListenAddress is the address for the /metrics listener, e.g. ":9100".
	// Empty disables metrics.
	ListenAddress string `yaml:"listen_address"`
}

var defaultLogConfig = zeroconfig.Config{
	MinLevel: ptr.Ptr(zerolog.InfoLevel),
	Writers: []zeroconfig.WriterConfig{{
		Type:   zeroconfig.WriterTypeStdout,
		Format: zeroconfig.LogFormatPrettyColored,
	}},
}

func defaultConfig() Config {
	return Config{
		Filtering: FilterConfig{
			IgnoreSelf: true,
		},
		JoinMonitor: JoinMonitorConfig{
			Enabled:                true,
			WelcomeMessage:         defaultWelcomeMessage,
			StalenessWindowSeconds: defaultStalenessSeconds,
		},
	}
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	*c = defaultConfig()
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

// Validate checks required fields and normalizes defaults. Errors from
// Validate are configuration errors: the process must not start the sync
// loop when any is returned.
func (c *Config) Validate() error {
	if c.Homeserver == "" {
		return fmt.Errorf("missing 'homeserver' in config file")
	}
	if c.UserID == "" {
		return fmt.Errorf("missing 'user_id' in config file")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("missing 'access_token' in config file")
	}
	if c.Help.File == "" {
		return fmt.Errorf("missing 'help.file' in config file")
	}
	if c.JoinMonitor.StalenessWindowSeconds <= 0 {
		c.JoinMonitor.StalenessWindowSeconds = defaultStalenessSeconds
	}
	if len(c.Logging.Writers) == 0 {
		c.Logging = defaultLogConfig
	}
	return nil
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
