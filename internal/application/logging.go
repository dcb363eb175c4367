package application

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/example/device-scheduler/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// serviceLogger prefers the request scoped logger carried by ctx and tags it
// with the service and operation names.
func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = defaultLogger(base)
	}

	tagged := make([]any, 0, 4+len(attrs))
	tagged = append(tagged, "service", serviceName)
	if operation != "" {
		tagged = append(tagged, "operation", operation)
	}
	return logger.With(append(tagged, attrs...)...)
}

// failureAttrs returns the attributes every failed operation is logged with.
func failureAttrs(err error) []any {
	return []any{"error", err, "error_kind", ErrorKind(err)}
}

var errorKinds = []struct {
	target error
	kind   string
}{
	{ErrNotFound, "not_found"},
	{ErrAlreadyExists, "already_exists"},
	{ErrInvalidWindow, "invalid_window"},
	{ErrDeviceUnavailable, "device_unavailable"},
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.kind
		}
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	return "unexpected"
}
