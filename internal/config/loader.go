package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// An empty path yields the defaults. YAML files get environment variable
// substitution on credentials and paths.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		cfg := DefaultConfig()
		substituteEnvVars(cfg)
		return cfg, nil
	}

	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

func substituteEnvVars(cfg *Config) {
	cfg.Database.Host = expandEnvVar(cfg.Database.Host)
	cfg.Database.User = expandEnvVar(cfg.Database.User)
	cfg.Database.Password = expandEnvVar(cfg.Database.Password)
	cfg.Database.Database = expandEnvVar(cfg.Database.Database)

	cfg.Output.Dir = expandEnvVar(cfg.Output.Dir)
	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
// Unknown variables are left as written.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// Overrides carries command line flags that take precedence over the file.
type Overrides struct {
	LogLevel      string
	LogFormat     string
	Format        string
	OutputDir     string
	BaseName      string
	NamingMode    string
	IncludeEmpty  bool
	GroupSiblings bool
	Autofit       bool
	Freeze        bool
	Filters       bool
	NoDates       bool
	NoTimestamp   bool
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Logging.Format = o.LogFormat
	}
	if o.Format != "" {
		c.Output.Format = strings.ToLower(o.Format)
	}
	if o.OutputDir != "" {
		c.Output.Dir = o.OutputDir
	}
	if o.BaseName != "" {
		c.Output.BaseName = o.BaseName
	}
	if o.NamingMode != "" {
		c.Conversion.NamingMode = o.NamingMode
	}
	if o.IncludeEmpty {
		c.Conversion.IncludeEmptyArrays = true
	}
	if o.GroupSiblings {
		c.Conversion.GroupSiblings = true
	}
	if o.Autofit {
		c.Spreadsheet.Autofit = true
	}
	if o.Freeze {
		c.Spreadsheet.Freeze = true
	}
	if o.Filters {
		c.Spreadsheet.Filters = true
	}
	if o.NoDates {
		c.Dates.Enabled = false
	}
	if o.NoTimestamp {
		c.Output.Timestamp = false
	}
}
