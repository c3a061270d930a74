// Package config loads wordguess settings from a YAML file with WORDGUESS_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chriscow/wordguess/pkg/game"
	"github.com/chriscow/wordguess/pkg/listen"
)

// DefaultPath is read when no --config flag is given and the file exists.
const DefaultPath = "wordguess.yaml"

type Config struct {
	Log        LogConfig       `yaml:"log"`
	Game       game.Settings   `yaml:"game"`
	Listener   listen.Config   `yaml:"listener"`
	Language   string          `yaml:"language"`
	Recognizer BackendConfig   `yaml:"recognizer"`
	Microphone BackendConfig   `yaml:"microphone"`
	History    HistoryConfig   `yaml:"history"`
	Telemetry  TelemetryConfig `yaml:"telemetry"`
	PluginDir  string          `yaml:"plugin_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BackendConfig selects a registered plugin and passes it options.
type BackendConfig struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// Keep is how many games survive pruning. Zero keeps everything.
	Keep int `yaml:"keep"`
}

type TelemetryConfig struct {
	// TraceFile receives spans as JSON lines. Empty disables tracing.
	TraceFile   string `yaml:"trace_file"`
	ServiceName string `yaml:"service_name"`
}

func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "json",
		},
		Game:     game.DefaultSettings(),
		Listener: listen.DefaultConfig(),
		Language: "en-US",
		Recognizer: BackendConfig{
			Name: "google",
		},
		Microphone: BackendConfig{
			Name: "portaudio",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "wordguess.db",
			Keep:    100,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "wordguess",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path loads DefaultPath when it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	overrideString(&cfg.Log.Level, "WORDGUESS_LOG_LEVEL")
	overrideString(&cfg.Log.Format, "WORDGUESS_LOG_FORMAT")
	overrideStringSlice(&cfg.Game.Words, "WORDGUESS_WORDS")
	overrideString(&cfg.Language, "WORDGUESS_LANGUAGE")
	overrideString(&cfg.Recognizer.Name, "WORDGUESS_RECOGNIZER")
	overrideString(&cfg.Microphone.Name, "WORDGUESS_MICROPHONE")
	overrideString(&cfg.History.Path, "WORDGUESS_HISTORY_PATH")
	overrideString(&cfg.Telemetry.TraceFile, "WORDGUESS_TRACE_FILE")
	overrideString(&cfg.PluginDir, "WORDGUESS_PLUGIN_PATH")

	return errors.Join(
		overrideInt(&cfg.Game.Rounds, "WORDGUESS_ROUNDS"),
		overrideInt(&cfg.Game.PromptLimit, "WORDGUESS_PROMPT_LIMIT"),
		overrideBool(&cfg.Game.RevealWord, "WORDGUESS_REVEAL_WORD"),
		overrideBool(&cfg.History.Enabled, "WORDGUESS_HISTORY_ENABLED"),
		overrideDuration(&cfg.Game.IntroDelay, "WORDGUESS_INTRO_DELAY"),
		overrideDuration(&cfg.Listener.Timeout, "WORDGUESS_LISTEN_TIMEOUT"),
		overrideUint64(&cfg.Game.Seed, "WORDGUESS_SEED"),
	)
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) error {
	value, ok := os.LookupEnv(envKey)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: %w", envKey, err)
	}
	*target = parsed
	return nil
}

func overrideUint64(target *uint64, envKey string) error {
	value, ok := os.LookupEnv(envKey)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", envKey, err)
	}
	*target = parsed
	return nil
}

func overrideBool(target *bool, envKey string) error {
	value, ok := os.LookupEnv(envKey)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: %w", envKey, err)
	}
	*target = parsed
	return nil
}

func overrideDuration(target *time.Duration, envKey string) error {
	value, ok := os.LookupEnv(envKey)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: %w", envKey, err)
	}
	*target = d
	return nil
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug|info|warn|error, got %q", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "json", "console", "text":
	default:
		return fmt.Errorf("log.format must be one of json|console, got %q", cfg.Log.Format)
	}
	if err := cfg.Game.Validate(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	if err := cfg.Listener.Validate(); err != nil {
		return fmt.Errorf("listener: %w", err)
	}
	if cfg.Language == "" {
		return errors.New("language must not be empty")
	}
	if cfg.Recognizer.Name == "" {
		return errors.New("recognizer.name must not be empty")
	}
	if cfg.Microphone.Name == "" {
		return errors.New("microphone.name must not be empty")
	}
	if cfg.History.Enabled && cfg.History.Path == "" {
		return errors.New("history.path must be set when history is enabled")
	}
	if cfg.History.Keep < 0 {
		return errors.New("history.keep must be >= 0")
	}
	return nil
}
