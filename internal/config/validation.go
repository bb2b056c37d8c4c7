package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
// Database settings are only checked when the output format is mysql.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateConversion()...)
	errors = append(errors, c.validateInput()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateDates()...)

	if c.Output.Format == FormatMySQL {
		errors = append(errors, c.validateDatabase()...)
	}

	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateConversion() ValidationErrors {
	var errors ValidationErrors

	validModes := map[string]bool{"last": true, "full": true, "last_segment": true, "full_path": true}
	if !validModes[c.Conversion.NamingMode] {
		errors = append(errors, ValidationError{
			Field:   "conversion.naming_mode",
			Message: "naming_mode must be 'last' or 'full'",
		})
	}

	if c.Conversion.MaxNameLength < 0 {
		errors = append(errors, ValidationError{
			Field:   "conversion.max_name_length",
			Message: "max_name_length cannot be negative",
		})
	} else if c.Output.Format == FormatXLSX && c.Conversion.MaxNameLength > SheetNameLength {
		errors = append(errors, ValidationError{
			Field:   "conversion.max_name_length",
			Message: fmt.Sprintf("max_name_length cannot exceed %d for xlsx output", SheetNameLength),
		})
	} else if c.Conversion.MaxNameLength > 0 && c.Conversion.MaxNameLength < 4 {
		errors = append(errors, ValidationError{
			Field:   "conversion.max_name_length",
			Message: "max_name_length must leave room for a uniqueness suffix (at least 4)",
		})
	}

	if c.Conversion.SchemaSampleSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "conversion.schema_sample_size",
			Message: "schema_sample_size must be positive",
		})
	}

	validFallbacks := map[string]bool{"wrap": true, "none": true}
	if !validFallbacks[c.Conversion.Fallback] {
		errors = append(errors, ValidationError{
			Field:   "conversion.fallback",
			Message: "fallback must be 'wrap' or 'none'",
		})
	}

	return errors
}

func (c *Config) validateInput() ValidationErrors {
	var errors ValidationErrors

	if _, err := c.Input.MaxInputBytes(); err != nil {
		errors = append(errors, ValidationError{
			Field:   "input.max_size",
			Message: "max_size must be a size such as '512MB'",
		})
	}

	return errors
}

func (c *Config) validateOutput() ValidationErrors {
	var errors ValidationErrors

	validFormats := map[string]bool{FormatXLSX: true, FormatCSV: true, FormatSQLite: true, FormatMySQL: true}
	if !validFormats[c.Output.Format] {
		errors = append(errors, ValidationError{
			Field:   "output.format",
			Message: "format must be 'xlsx', 'csv', 'sqlite', or 'mysql'",
		})
	}

	if strings.TrimSpace(c.Output.BaseName) == "" && c.Output.Format != FormatMySQL {
		errors = append(errors, ValidationError{
			Field:   "output.base_name",
			Message: "base_name is required",
		})
	}
	if strings.ContainsAny(c.Output.BaseName, `/\`) {
		errors = append(errors, ValidationError{
			Field:   "output.base_name",
			Message: "base_name cannot contain path separators",
		})
	}

	return errors
}

func (c *Config) validateDates() ValidationErrors {
	var errors ValidationErrors

	if c.Dates.MinRatio <= 0 || c.Dates.MinRatio > 1 {
		errors = append(errors, ValidationError{
			Field:   "dates.min_ratio",
			Message: "min_ratio must be greater than 0 and at most 1",
		})
	}

	return errors
}

func (c *Config) validateDatabase() ValidationErrors {
	var errors ValidationErrors
	db := &c.Database

	if db.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "database.host",
			Message: "host is required",
		})
	}

	if db.Port <= 0 || db.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "database.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if db.User == "" {
		errors = append(errors, ValidationError{
			Field:   "database.user",
			Message: "user is required",
		})
	}

	if db.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "database.database",
			Message: "database name is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[db.TLS] {
		errors = append(errors, ValidationError{
			Field:   "database.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if db.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "database.max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if db.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "database.max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	if db.BatchSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "database.batch_size",
			Message: "batch_size must be positive",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
