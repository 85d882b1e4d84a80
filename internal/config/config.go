package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Assistant AssistantConfig `yaml:"assistant"`
	Model     ModelConfig     `yaml:"model"`
	VAD       VADConfig       `yaml:"vad"`
	Audio     AudioConfig     `yaml:"audio"`
	Speech    SpeechConfig    `yaml:"speech"`
	TTS       TTSConfig       `yaml:"tts"`
	Generator GeneratorConfig `yaml:"generator"`
	Output    OutputConfig    `yaml:"output"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
}

// AssistantConfig holds persona settings
type AssistantConfig struct {
	Name    string `yaml:"name" env:"BLACKNOX_NAME"`
	Persona string `yaml:"persona" env:"BLACKNOX_PERSONA"`
}

// ModelConfig selects the offline speech recognition model
type ModelConfig struct {
	Default string `yaml:"default" env:"BLACKNOX_MODEL"`
	Dir     string `yaml:"dir" env:"BLACKNOX_MODELS_DIR"`
}

// VADConfig holds voice activity detection settings
type VADConfig struct {
	Enabled      bool    `yaml:"enabled" env:"BLACKNOX_VAD_ENABLED"`
	Threshold    float64 `yaml:"threshold" env:"BLACKNOX_VAD_THRESHOLD"`
	SilenceDelay float64 `yaml:"silence_delay" env:"BLACKNOX_VAD_SILENCE_DELAY"`
}

// AudioConfig holds audio device settings
type AudioConfig struct {
	Device string `yaml:"device" env:"BLACKNOX_AUDIO_DEVICE"`

	// OutputDevice selects the playback device; empty is the system default
	OutputDevice string `yaml:"output_device" env:"BLACKNOX_AUDIO_OUTPUT_DEVICE"`

	// CaptureTimeout bounds a single listen in seconds; 0 waits forever
	CaptureTimeout float64 `yaml:"capture_timeout" env:"BLACKNOX_CAPTURE_TIMEOUT"`
}

// SpeechConfig holds speech-mode input settings
type SpeechConfig struct {
	// PushToTalk is a hotkey such as "ctrl+shift+space". Empty means
	// continuous listening with the streaming recognizer.
	PushToTalk string `yaml:"push_to_talk" env:"BLACKNOX_PUSH_TO_TALK"`
}

// TTSConfig holds text-to-speech settings
type TTSConfig struct {
	Engine     string  `yaml:"engine" env:"BLACKNOX_TTS_ENGINE"`
	Voice      string  `yaml:"voice" env:"BLACKNOX_TTS_VOICE"`
	Rate       int     `yaml:"rate" env:"BLACKNOX_TTS_RATE"`
	Speed      float32 `yaml:"speed" env:"BLACKNOX_TTS_SPEED"`
	Binary     string  `yaml:"binary" env:"BLACKNOX_TTS_BINARY"`
	ModelPath  string  `yaml:"model_path" env:"BLACKNOX_TTS_MODEL_PATH"`
	SampleRate int     `yaml:"sample_rate" env:"BLACKNOX_TTS_SAMPLE_RATE"`
}

// GeneratorConfig holds text generation provider settings
type GeneratorConfig struct {
	Provider    string  `yaml:"provider" env:"BLACKNOX_GENERATOR"`
	Model       string  `yaml:"model" env:"BLACKNOX_GENERATOR_MODEL"`
	BaseURL     string  `yaml:"base_url" env:"BLACKNOX_GENERATOR_BASE_URL"`
	APIKey      string  `yaml:"api_key" env:"BLACKNOX_API_KEY"`
	Temperature float64 `yaml:"temperature" env:"BLACKNOX_TEMPERATURE"`
	TopP        float64 `yaml:"top_p" env:"BLACKNOX_TOP_P"`
	MaxTokens   int     `yaml:"max_tokens" env:"BLACKNOX_MAX_TOKENS"`

	// Timeout in seconds
	Timeout float64 `yaml:"timeout" env:"BLACKNOX_GENERATOR_TIMEOUT"`
}

// OutputConfig controls the conversation transcript
type OutputConfig struct {
	Format string `yaml:"format" env:"BLACKNOX_TRANSCRIPT_FORMAT"`
	File   string `yaml:"file" env:"BLACKNOX_TRANSCRIPT_FILE"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" env:"BLACKNOX_LOG_LEVEL"`
	Format string `yaml:"format" env:"BLACKNOX_LOG_FORMAT"`
}

// ServerConfig holds remote surface settings
type ServerConfig struct {
	Host string `yaml:"host" env:"BLACKNOX_SERVER_HOST"`
	Port int    `yaml:"port" env:"BLACKNOX_SERVER_PORT"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Assistant.Name = "blacknox"

	// Model defaults
	cfg.Model.Default = ""
	cfg.Model.Dir = ""

	// VAD defaults
	cfg.VAD.Enabled = true
	cfg.VAD.Threshold = 0.01
	cfg.VAD.SilenceDelay = 1.0

	// TTS defaults (150 wpm matches the classic desktop voice rate)
	cfg.TTS.Engine = "espeak"
	cfg.TTS.Voice = "default"
	cfg.TTS.Rate = 150
	cfg.TTS.Speed = 1.0
	cfg.TTS.SampleRate = 22050

	// Generator defaults
	cfg.Generator.Provider = "openai"
	cfg.Generator.Model = "gpt-4o-mini"
	cfg.Generator.Temperature = 0.7
	cfg.Generator.TopP = 0.9
	cfg.Generator.MaxTokens = 200
	cfg.Generator.Timeout = 60

	// Output defaults
	cfg.Output.Format = "json"
	cfg.Output.File = ""

	cfg.Log.Level = "warn"
	cfg.Log.Format = "text"

	// Server defaults
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 50051

	return cfg
}

// Load loads configuration from file, then applies environment overrides
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides cfg with any BLACKNOX_* environment variables that are set
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// LoadWithFallback attempts to load configuration from multiple locations
// Priority: explicit path > ~/.blacknoxrc > /etc/blacknox/config.yaml
func LoadWithFallback(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(homeDir, ".blacknoxrc")
		if _, err := os.Stat(userConfigPath); err == nil {
			cfg, err := Load(userConfigPath)
			if err == nil {
				return cfg, nil
			}
		}
	}

	systemConfigPath := "/etc/blacknox/config.yaml"
	if _, err := os.Stat(systemConfigPath); err == nil {
		cfg, err := Load(systemConfigPath)
		if err == nil {
			return cfg, nil
		}
	}

	// No config file found, defaults plus environment
	cfg := DefaultConfig()
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GeneratorTimeout returns the generation request timeout
func (c *Config) GeneratorTimeout() time.Duration {
	return time.Duration(c.Generator.Timeout * float64(time.Second))
}

// CaptureTimeout returns the bound on a single listen, 0 for none
func (c *Config) CaptureTimeout() time.Duration {
	return time.Duration(c.Audio.CaptureTimeout * float64(time.Second))
}

// ServerAddress returns host:port for the gRPC listener
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
