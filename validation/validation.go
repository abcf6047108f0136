package validation

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nijaru/webm-fix/errors"
	pkgerrors "github.com/pkg/errors"
)

const (
	AllowedExtension = ".webm"
	MaxFileSize      = 10 * 1024 * 1024
)

// ValidateFile checks the extension (case-insensitive) and the size limit.
func ValidateFile(name string, size int64) error {
	const op = "validation.ValidateFile"

	if !strings.EqualFold(filepath.Ext(name), AllowedExtension) {
		return errors.InvalidExtension(op)
	}

	if size > MaxFileSize {
		return errors.FileTooLarge(op, size)
	}

	return nil
}

// ParseDuration parses a non-negative, finite duration in seconds.
func ParseDuration(raw string) (float64, error) {
	const op = "validation.ParseDuration"

	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, errors.InvalidDuration(op, pkgerrors.Wrapf(err, "parse %q", raw))
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.InvalidDuration(op, pkgerrors.Errorf("duration %q is not finite", raw))
	}

	if value < 0 {
		return 0, errors.InvalidDuration(op, pkgerrors.Errorf("duration %v is negative", value))
	}

	// "-0" parses to negative zero
	if value == 0 {
		value = 0
	}

	return value, nil
}
