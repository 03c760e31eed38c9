package vaulterr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks errors caused by a missing set, icon set, or file.
	ErrNotFound = errors.New("not found")
	// ErrInvalid marks errors caused by malformed content, invalid names,
	// bad archive structure, or unsupported media formats.
	ErrInvalid = errors.New("invalid")
	// ErrIO marks copy, write, and delete failures.
	ErrIO = errors.New("io error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// NotFoundf formats a not-found error for the named resource.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Invalidf formats a validation error.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "vault failure"
	}
	return strings.Join(parts, ": ")
}
