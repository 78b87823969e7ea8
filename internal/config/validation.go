package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is matched by every error returned from Validate.
var ErrConfiguration = errors.New("invalid configuration")

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

// Unwrap lets callers test for ErrConfiguration with errors.Is.
func (e ValidationErrors) Unwrap() error {
	return ErrConfiguration
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if err := c.validateInput(); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateStats(); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateOutput(); err != nil {
		errors = append(errors, err...)
	}

	// Validate store if enabled
	if c.Store.Enabled {
		if err := c.validateStore(); err != nil {
			errors = append(errors, err...)
		}
	}

	if err := c.validateLogging(); err != nil {
		errors = append(errors, err...)
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateInput() ValidationErrors {
	var errors ValidationErrors

	if c.Input.MaxDepth < 0 {
		errors = append(errors, ValidationError{
			Field:   "input.max_depth",
			Message: "max_depth cannot be negative",
		})
	}

	for i, f := range c.Input.Files {
		if strings.TrimSpace(f) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("input.files[%d]", i),
				Message: "file pattern cannot be empty",
			})
		}
	}

	return errors
}

func (c *Config) validateStats() ValidationErrors {
	var errors ValidationErrors

	if c.Stats.OnlyTopLevel && c.Stats.ObjectHierarchy {
		errors = append(errors, ValidationError{
			Field:   "stats.only_top_level",
			Message: "only_top_level and object_hierarchy are mutually exclusive",
		})
	}

	for i, id := range c.Stats.IDs {
		if strings.TrimSpace(id) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("stats.ids[%d]", i),
				Message: "object identifier cannot be empty",
			})
		}
	}

	for i, s := range c.Stats.Schemas {
		if strings.TrimSpace(s) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("stats.schemas[%d]", i),
				Message: "schema location cannot be empty",
			})
		}
	}

	return errors
}

func (c *Config) validateOutput() ValidationErrors {
	var errors ValidationErrors

	validFormats := map[string]bool{"json": true, "yaml": true, "": true}
	if !validFormats[c.Output.Format] {
		errors = append(errors, ValidationError{
			Field:   "output.format",
			Message: "format must be 'json' or 'yaml'",
		})
	}

	if c.Output.JSONReport && c.Output.Suffix == "" {
		errors = append(errors, ValidationError{
			Field:   "output.suffix",
			Message: "suffix is required when per-file reports are enabled",
		})
	}

	return errors
}

func (c *Config) validateStore() ValidationErrors {
	var errors ValidationErrors

	if c.Store.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "store.host",
			Message: "host is required when store is enabled",
		})
	}

	if c.Store.Port <= 0 || c.Store.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "store.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if c.Store.User == "" {
		errors = append(errors, ValidationError{
			Field:   "store.user",
			Message: "user is required when store is enabled",
		})
	}

	if c.Store.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "store.database",
			Message: "database name is required when store is enabled",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[c.Store.TLS] {
		errors = append(errors, ValidationError{
			Field:   "store.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if c.Store.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "store.max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if c.Store.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "store.max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	for _, r := range c.Store.TablePrefix {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			errors = append(errors, ValidationError{
				Field:   "store.table_prefix",
				Message: "table_prefix may only contain letters, digits and underscores",
			})
			break
		}
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
