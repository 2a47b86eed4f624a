// Package config provides configuration management for the status generator.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultFileMode is used when report.file_mode is empty.
const DefaultFileMode os.FileMode = 0o644

// ValidationError represents a single validation error with user-friendly message.
type ValidationError struct {
	Field   string      // Field path (e.g., "service.data_dir")
	Tag     string      // Validation tag that failed (e.g., "required", "url")
	Value   interface{} // Actual value that failed validation
	Message string      // User-friendly error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// validate is the package-level validator instance.
var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("timezone", validateTimezone)
	validate.RegisterValidation("filemode", validateFileMode)
}

// Validate validates the configuration and returns user-friendly error messages.
func Validate(cfg *Config) error {
	var validationErrors ValidationErrors

	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrors {
				validationErrors = append(validationErrors, &ValidationError{
					Field:   formatFieldName(fe.Namespace()),
					Tag:     fe.Tag(),
					Value:   fe.Value(),
					Message: translateError(fe),
				})
			}
		}
	}

	// Run custom business logic validations
	if errs := validateThresholds(cfg); len(errs) > 0 {
		validationErrors = append(validationErrors, errs...)
	}

	if errs := validateSource(cfg); len(errs) > 0 {
		validationErrors = append(validationErrors, errs...)
	}

	if errs := validateDurations(cfg); len(errs) > 0 {
		validationErrors = append(validationErrors, errs...)
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

// FileModeValue returns the parsed report.file_mode, DefaultFileMode if empty.
// Validate guarantees the value parses.
func (r *ReportConfig) FileModeValue() os.FileMode {
	mode, err := parseFileMode(r.FileMode)
	if err != nil {
		return DefaultFileMode
	}
	return mode
}

// Location returns the configured report timezone, UTC if empty or invalid.
func (r *ReportConfig) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// validateTimezone is a custom validator for timezone strings.
func validateTimezone(fl validator.FieldLevel) bool {
	tz := fl.Field().String()
	if tz == "" {
		return true // Empty is allowed, will use default
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// validateFileMode accepts octal permission strings such as "0644" or "640".
func validateFileMode(fl validator.FieldLevel) bool {
	_, err := parseFileMode(fl.Field().String())
	return err == nil
}

func parseFileMode(s string) (os.FileMode, error) {
	if s == "" {
		return DefaultFileMode, nil
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0O")
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, err
	}
	if n > 0o777 {
		return 0, fmt.Errorf("mode %o out of range", n)
	}
	return os.FileMode(n), nil
}

// validateThresholds validates that warning thresholds are less than critical thresholds.
func validateThresholds(cfg *Config) ValidationErrors {
	var errors ValidationErrors

	thresholdPairs := []struct {
		name     string
		warning  float64
		critical float64
	}{
		{"thresholds.cpu_usage", cfg.Thresholds.CPUUsage.Warning, cfg.Thresholds.CPUUsage.Critical},
		{"thresholds.memory_usage", cfg.Thresholds.MemoryUsage.Warning, cfg.Thresholds.MemoryUsage.Critical},
		{"thresholds.disk_usage", cfg.Thresholds.DiskUsage.Warning, cfg.Thresholds.DiskUsage.Critical},
	}

	for _, tp := range thresholdPairs {
		if tp.warning >= tp.critical {
			errors = append(errors, &ValidationError{
				Field:   tp.name,
				Tag:     "threshold_order",
				Value:   fmt.Sprintf("warning=%v, critical=%v", tp.warning, tp.critical),
				Message: fmt.Sprintf("warning threshold (%.2f) must be less than critical threshold (%.2f)", tp.warning, tp.critical),
			})
		}
	}

	return errors
}

// validateSource checks settings that depend on the account source.
func validateSource(cfg *Config) ValidationErrors {
	var errors ValidationErrors

	if cfg.Service.Source == SourceXRPC && cfg.Service.Endpoint == "" {
		errors = append(errors, &ValidationError{
			Field:   "service.endpoint",
			Tag:     "required_with_source",
			Value:   "",
			Message: "endpoint is required when source is xrpc",
		})
	}

	if cfg.Service.Source == SourceSQLite && cfg.Service.AccountDB == "" {
		errors = append(errors, &ValidationError{
			Field:   "service.account_db",
			Tag:     "required_with_source",
			Value:   "",
			Message: "account_db is required when source is sqlite",
		})
	}

	return errors
}

// validateDurations rejects negative timeouts and an enumeration budget that
// cannot fit into the run budget.
func validateDurations(cfg *Config) ValidationErrors {
	var errors ValidationErrors

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"service.timeout", cfg.Service.Timeout},
		{"service.enumeration_timeout", cfg.Service.EnumerationTimeout},
		{"host.cpu_sample_interval", cfg.Host.CPUSampleInterval},
		{"run.timeout", cfg.Run.Timeout},
	}
	for _, d := range durations {
		if d.value < 0 {
			errors = append(errors, &ValidationError{
				Field:   d.name,
				Tag:     "gte",
				Value:   d.value,
				Message: "duration must not be negative",
			})
		}
	}

	if cfg.Run.Timeout > 0 && cfg.Service.EnumerationTimeout >= cfg.Run.Timeout {
		errors = append(errors, &ValidationError{
			Field:   "service.enumeration_timeout",
			Tag:     "lt_run_timeout",
			Value:   cfg.Service.EnumerationTimeout,
			Message: fmt.Sprintf("enumeration timeout (%s) must be shorter than run timeout (%s)", cfg.Service.EnumerationTimeout, cfg.Run.Timeout),
		})
	}

	return errors
}

// formatFieldName converts the validator field namespace to a user-friendly format.
// Example: "Config.Service.DataDir" -> "service.data_dir"
func formatFieldName(namespace string) string {
	// Remove the root struct name (e.g., "Config.")
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}

	for i, part := range parts {
		parts[i] = toSnake(part)
	}

	return strings.Join(parts, ".")
}

// toSnake converts a Go field name to its snake_case config key.
// Runs of capitals stay together: "AccountDB" -> "account_db", "HTTP" -> "http".
func toSnake(s string) string {
	var sb strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			prevUpper := runes[i-1] >= 'A' && runes[i-1] <= 'Z'
			if prevLower || (prevUpper && nextLower) {
				sb.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// translateError converts a validator.FieldError to a user-friendly message.
func translateError(fe validator.FieldError) string {
	field := formatFieldName(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "url":
		return fmt.Sprintf("invalid URL format: %v", fe.Value())
	case "gte":
		return fmt.Sprintf("value must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("value must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("value must be one of: %s", fe.Param())
	case "timezone":
		return fmt.Sprintf("invalid timezone: %v", fe.Value())
	case "filemode":
		return fmt.Sprintf("invalid octal file mode: %v", fe.Value())
	default:
		return fmt.Sprintf("validation failed on '%s' tag for field '%s'", fe.Tag(), field)
	}
}
