package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "blacknox", cfg.Assistant.Name)
	assert.Equal(t, "espeak", cfg.TTS.Engine)
	assert.Equal(t, 150, cfg.TTS.Rate)
	assert.Equal(t, 0.7, cfg.Generator.Temperature)
	assert.Equal(t, 0.9, cfg.Generator.TopP)
	assert.Equal(t, 200, cfg.Generator.MaxTokens)
	assert.True(t, cfg.VAD.Enabled)
	assert.Equal(t, "localhost:50051", cfg.ServerAddress())
	assert.Equal(t, time.Minute, cfg.GeneratorTimeout())
	assert.Zero(t, cfg.CaptureTimeout())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
assistant:
  name: jarvis
generator:
  provider: anthropic
  model: claude-haiku
  max_tokens: 64
tts:
  engine: piper
  model_path: /voices/en_US-ryan.onnx
vad:
  enabled: false
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "jarvis", cfg.Assistant.Name)
	assert.Equal(t, "anthropic", cfg.Generator.Provider)
	assert.Equal(t, "claude-haiku", cfg.Generator.Model)
	assert.Equal(t, 64, cfg.Generator.MaxTokens)
	assert.Equal(t, "piper", cfg.TTS.Engine)
	assert.Equal(t, "/voices/en_US-ryan.onnx", cfg.TTS.ModelPath)
	assert.False(t, cfg.VAD.Enabled)

	// Untouched sections keep their defaults
	assert.Equal(t, 0.9, cfg.Generator.TopP)
	assert.Equal(t, 150, cfg.TTS.Rate)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generator:\n  model: from-file\n"), 0644))

	t.Setenv("BLACKNOX_GENERATOR_MODEL", "from-env")
	t.Setenv("BLACKNOX_SERVER_PORT", "6000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Generator.Model)
	assert.Equal(t, 6000, cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generator: [unterminated"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadWithFallback_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadWithFallback("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Generator.Model, cfg.Generator.Model)
}

func TestLoadWithFallback_UserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".blacknoxrc"), []byte("log:\n  level: debug\n"), 0644))

	cfg, err := LoadWithFallback("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Speech.PushToTalk = "ctrl+shift+space"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ctrl+shift+space", loaded.Speech.PushToTalk)
}
