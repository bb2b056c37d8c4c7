package config

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Conversion.NamingMode != "last" {
		t.Errorf("expected naming_mode 'last', got %s", cfg.Conversion.NamingMode)
	}
	if cfg.Conversion.IncludeEmptyArrays {
		t.Errorf("expected include_empty_arrays false by default")
	}
	if cfg.Conversion.SchemaSampleSize != 500 {
		t.Errorf("expected schema_sample_size 500, got %d", cfg.Conversion.SchemaSampleSize)
	}
	if cfg.Conversion.Fallback != "wrap" {
		t.Errorf("expected fallback 'wrap', got %s", cfg.Conversion.Fallback)
	}

	if cfg.Output.Format != FormatXLSX {
		t.Errorf("expected format xlsx, got %s", cfg.Output.Format)
	}
	if cfg.Output.BaseName != "employee_data" {
		t.Errorf("expected base_name 'employee_data', got %s", cfg.Output.BaseName)
	}
	if !cfg.Output.Timestamp {
		t.Errorf("expected timestamp enabled by default")
	}

	if !cfg.Spreadsheet.Summary {
		t.Errorf("expected summary sheet enabled by default")
	}
	if cfg.Spreadsheet.Autofit || cfg.Spreadsheet.Freeze || cfg.Spreadsheet.Filters {
		t.Errorf("expected spreadsheet cosmetics off by default")
	}

	if !cfg.Dates.Enabled || cfg.Dates.MinRatio != 0.5 {
		t.Errorf("expected dates enabled with min_ratio 0.5, got %v/%v", cfg.Dates.Enabled, cfg.Dates.MinRatio)
	}

	if cfg.Database.Port != 3306 {
		t.Errorf("expected database port 3306, got %d", cfg.Database.Port)
	}
	if cfg.Database.BatchSize != 500 {
		t.Errorf("expected batch_size 500, got %d", cfg.Database.BatchSize)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected logging format 'text', got %s", cfg.Logging.Format)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestNameLength(t *testing.T) {
	tests := []struct {
		name   string
		format string
		maxLen int
		want   int
	}{
		{"xlsx default", FormatXLSX, 0, 31},
		{"csv default", FormatCSV, 0, 64},
		{"sqlite default", FormatSQLite, 0, 64},
		{"explicit wins", FormatCSV, 20, 20},
		{"explicit xlsx", FormatXLSX, 12, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Output.Format = tt.format
			cfg.Conversion.MaxNameLength = tt.maxLen
			if got := cfg.NameLength(); got != tt.want {
				t.Errorf("NameLength() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMaxInputBytes(t *testing.T) {
	tests := []struct {
		size    string
		want    uint64
		wantErr bool
	}{
		{"", 0, false},
		{"512MB", 512 << 20, false},
		{"1GB", 1 << 30, false},
		{"10KB", 10 << 10, false},
		{"lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.size, func(t *testing.T) {
			in := InputConfig{MaxSize: tt.size}
			got, err := in.MaxInputBytes()
			if (err != nil) != tt.wantErr {
				t.Fatalf("MaxInputBytes() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("MaxInputBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}
