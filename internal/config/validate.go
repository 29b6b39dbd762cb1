package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/randomizedcoder/go-disc-burn/internal/media"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validWriteModes = map[string]bool{
	"-sao": true, "-tao": true, "-dao": true, "-raw": true, "-raw96r": true, "-raw96p": true, "-raw16": true,
}

// maxLabelLength is the ISO 9660 volume identifier limit.
const maxLabelLength = 32

// Validate checks the configuration for errors and inconsistencies.
// All problems are reported together.
func Validate(cfg *Config) error {
	var errs []error

	switch cfg.Command {
	case CommandBuild, CommandBurn, CommandDVD, CommandInspect:
	case "":
		errs = append(errs, ValidationError{
			Field:   "command",
			Message: "one of build, burn, dvd, inspect is required",
		})
	default:
		errs = append(errs, ValidationError{
			Field:   "command",
			Message: fmt.Sprintf("must be one of: build, burn, dvd, inspect (got %q)", cfg.Command),
		})
	}

	if cfg.Target == "" && cfg.Command != "" {
		errs = append(errs, ValidationError{
			Field:   "target",
			Message: "a folder or image path is required",
		})
	}

	// burn and inspect take an image
	if (cfg.Command == CommandBurn || cfg.Command == CommandInspect) && cfg.Target != "" && !media.IsImageFile(cfg.Target) {
		errs = append(errs, ValidationError{
			Field:   "target",
			Message: fmt.Sprintf("%q is not a disc image (.iso, .img, .image)", cfg.Target),
		})
	}

	if len(cfg.Label) > maxLabelLength {
		errs = append(errs, ValidationError{
			Field:   "label",
			Message: fmt.Sprintf("must be at most %d characters (got %d)", maxLabelLength, len(cfg.Label)),
		})
	}

	if _, err := media.ParseType(cfg.Media); err != nil {
		errs = append(errs, ValidationError{
			Field:   "media",
			Message: err.Error(),
		})
	}

	if cfg.Speed < 0 {
		errs = append(errs, ValidationError{
			Field:   "speed",
			Message: "must not be negative",
		})
	}

	if !validWriteModes[cfg.WriteMode] {
		errs = append(errs, ValidationError{
			Field:   "write_mode",
			Message: fmt.Sprintf("must be one of -sao, -tao, -dao, -raw, -raw96r, -raw96p, -raw16 (got %q)", cfg.WriteMode),
		})
	}

	if needsRecorder(cfg.Command) && strings.TrimSpace(cfg.Device) == "" {
		errs = append(errs, ValidationError{
			Field:   "device",
			Message: "a recorder device is required to burn",
		})
	}

	if needsCache(cfg.Command) {
		if cfg.CacheDir == "" {
			errs = append(errs, ValidationError{
				Field:   "cache_dir",
				Message: "must not be empty",
			})
		}
		if cfg.ImageName == "" || cfg.ImageName != filepath.Base(cfg.ImageName) {
			errs = append(errs, ValidationError{
				Field:   "image_name",
				Message: fmt.Sprintf("must be a plain file name (got %q)", cfg.ImageName),
			})
		}
	}

	for _, tool := range cfg.NeedsTools() {
		if cfg.ToolPath(tool) == "" {
			errs = append(errs, ValidationError{
				Field:   tool + "_path",
				Message: "must not be empty",
			})
		}
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func needsRecorder(command string) bool {
	return command == CommandBurn || command == CommandDVD
}

func needsCache(command string) bool {
	return command == CommandBuild || command == CommandDVD
}
