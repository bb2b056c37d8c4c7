// Package config provides configuration structures and loading for jsontables.
package config

import (
	"fmt"

	"github.com/c2h5oh/datasize"
)

// Output formats.
const (
	FormatXLSX   = "xlsx"
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
	FormatMySQL  = "mysql"
)

// Name length limits applied when conversion.max_name_length is 0.
const (
	SheetNameLength = 31 // Excel sheet name limit
	FileNameLength  = 64
)

// Config represents the complete application configuration.
type Config struct {
	Conversion  ConversionConfig  `yaml:"conversion" mapstructure:"conversion"`
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Spreadsheet SpreadsheetConfig `yaml:"spreadsheet" mapstructure:"spreadsheet"`
	Dates       DatesConfig       `yaml:"dates" mapstructure:"dates"`
	Database    DatabaseConfig    `yaml:"database" mapstructure:"database"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// ConversionConfig controls table discovery.
type ConversionConfig struct {
	IncludeEmptyArrays bool   `yaml:"include_empty_arrays" mapstructure:"include_empty_arrays"`
	NamingMode         string `yaml:"naming_mode" mapstructure:"naming_mode"`               // last or full
	MaxNameLength      int    `yaml:"max_name_length" mapstructure:"max_name_length"`       // 0 = by output format
	SchemaSampleSize   int    `yaml:"schema_sample_size" mapstructure:"schema_sample_size"` // rows sampled for schema unions
	GroupSiblings      bool   `yaml:"group_siblings" mapstructure:"group_siblings"`
	Fallback           string `yaml:"fallback" mapstructure:"fallback"` // wrap or none
}

// InputConfig limits what is read.
type InputConfig struct {
	MaxSize string `yaml:"max_size" mapstructure:"max_size"` // e.g. "512MB"; empty = unlimited
}

// OutputConfig selects the writer and where it writes.
type OutputConfig struct {
	Format    string `yaml:"format" mapstructure:"format"` // xlsx, csv, sqlite, mysql
	Dir       string `yaml:"dir" mapstructure:"dir"`
	BaseName  string `yaml:"base_name" mapstructure:"base_name"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
}

// SpreadsheetConfig holds xlsx cosmetics.
type SpreadsheetConfig struct {
	Autofit bool `yaml:"autofit" mapstructure:"autofit"`
	Freeze  bool `yaml:"freeze" mapstructure:"freeze"`
	Filters bool `yaml:"filters" mapstructure:"filters"`
	Summary bool `yaml:"summary" mapstructure:"summary"`
}

// DatesConfig controls the datetime column pass.
type DatesConfig struct {
	Enabled  bool    `yaml:"enabled" mapstructure:"enabled"`
	MinRatio float64 `yaml:"min_ratio" mapstructure:"min_ratio"` // share of rows that must parse
}

// DatabaseConfig represents the MySQL destination used by the mysql format.
type DatabaseConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
	BatchSize          int    `yaml:"batch_size" mapstructure:"batch_size"` // rows per INSERT
	ReplaceExisting    bool   `yaml:"replace_existing" mapstructure:"replace_existing"`
	Verify             bool   `yaml:"verify" mapstructure:"verify"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Conversion: ConversionConfig{
			IncludeEmptyArrays: false,
			NamingMode:         "last",
			MaxNameLength:      0,
			SchemaSampleSize:   500,
			GroupSiblings:      false,
			Fallback:           "wrap",
		},
		Input: InputConfig{
			MaxSize: "512MB",
		},
		Output: OutputConfig{
			Format:    FormatXLSX,
			Dir:       ".",
			BaseName:  "employee_data",
			Timestamp: true,
		},
		Spreadsheet: SpreadsheetConfig{
			Summary: true,
		},
		Dates: DatesConfig{
			Enabled:  true,
			MinRatio: 0.5,
		},
		Database: DatabaseConfig{
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     10,
			MaxIdleConnections: 5,
			BatchSize:          500,
			ReplaceExisting:    true,
			Verify:             true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// NameLength returns the table name limit, resolving 0 from the output format.
func (c *Config) NameLength() int {
	if c.Conversion.MaxNameLength > 0 {
		return c.Conversion.MaxNameLength
	}
	if c.Output.Format == FormatXLSX {
		return SheetNameLength
	}
	return FileNameLength
}

// MaxInputBytes returns the input size limit in bytes, 0 when unlimited.
func (c *InputConfig) MaxInputBytes() (uint64, error) {
	if c.MaxSize == "" {
		return 0, nil
	}
	size, err := datasize.ParseString(c.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("invalid input.max_size %q: %w", c.MaxSize, err)
	}
	return size.Bytes(), nil
}
