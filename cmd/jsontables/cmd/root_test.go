package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/jsontables/internal/config"
)

// useConfig writes settings as a YAML config file and points --config at it
// for the duration of the test.
func useConfig(t *testing.T, settings map[string]interface{}) string {
	t.Helper()

	data, err := yaml.Marshal(settings)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "jsontables.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	original := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = original })
	return path
}

// quietLogging keeps test output free of log lines.
func quietLogging() map[string]interface{} {
	return map[string]interface{}{"level": "error", "format": "json", "output": "stderr"}
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// testCommand returns a command whose output is captured.
func testCommand() (*cobra.Command, *bytes.Buffer) {
	color.Disable()
	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)
	c.SetErr(&buf)
	return c, &buf
}

func TestGetConfigFile(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	tests := []struct {
		name     string
		cfgValue string
		want     string
	}{
		{
			name:     "default config file",
			cfgValue: "",
			want:     "",
		},
		{
			name:     "custom config file",
			cfgValue: "/path/to/custom.yaml",
			want:     "/path/to/custom.yaml",
		},
		{
			name:     "config file with spaces",
			cfgValue: "/path/to/my config.yaml",
			want:     "/path/to/my config.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgFile = tt.cfgValue
			assert.Equal(t, tt.want, GetConfigFile())
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	originalCfgFile := cfgFile
	cfgFile = ""
	defer func() { cfgFile = originalCfgFile }()

	cfg, err := loadConfig(config.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Output, cfg.Output)
}

func TestLoadConfig_Overrides(t *testing.T) {
	useConfig(t, map[string]interface{}{
		"output":  map[string]interface{}{"format": "csv", "base_name": "from_file"},
		"logging": quietLogging(),
	})

	originalLevel, originalFormat := logLevel, logFormat
	logLevel, logFormat = "debug", "text"
	defer func() { logLevel, logFormat = originalLevel, originalFormat }()

	cfg, err := loadConfig(config.Overrides{
		Format:      "SQLite",
		NamingMode:  "full",
		NoDates:     true,
		NoTimestamp: true,
	})
	require.NoError(t, err)

	assert.Equal(t, config.FormatSQLite, cfg.Output.Format)
	assert.Equal(t, "from_file", cfg.Output.BaseName)
	assert.Equal(t, "full", cfg.Conversion.NamingMode)
	assert.False(t, cfg.Dates.Enabled)
	assert.False(t, cfg.Output.Timestamp)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadConfig_Invalid(t *testing.T) {
	useConfig(t, map[string]interface{}{
		"conversion": map[string]interface{}{"naming_mode": "middle"},
	})

	_, err := loadConfig(config.Overrides{})
	require.Error(t, err)

	var verrs config.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "conversion.naming_mode", verrs[0].Field)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	originalCfgFile := cfgFile
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	defer func() { cfgFile = originalCfgFile }()

	_, err := loadConfig(config.Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestCommandContext(t *testing.T) {
	assert.NotNil(t, commandContext(&cobra.Command{}))

	type key struct{}
	c := &cobra.Command{}
	c.SetContext(context.WithValue(context.Background(), key{}, "v"))
	assert.Equal(t, "v", commandContext(c).Value(key{}))
}
