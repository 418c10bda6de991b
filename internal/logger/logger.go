// Package logger sets up the service-wide structured logger (log/slog,
// JSON to stdout) and carries a scan ID through context so every record
// emitted while one universe scan runs can be correlated.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

type ctxKey struct{}

// Init builds the JSON logger for a service and installs it as the slog
// default, so package-level slog.Info etc. emit structured records too.
func Init(service string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	l := slog.New(h).With(slog.String("service", service))
	slog.SetDefault(l)
	return l
}

// NewScanID derives a correlation ID for one scan from its start time.
func NewScanID(start time.Time) string {
	return fmt.Sprintf("scan-%d", start.UnixNano())
}

// WithScanID attaches a scan ID to the context.
func WithScanID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// ScanID returns the scan ID carried by the context, or "".
func ScanID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Attrs returns the context's correlation attributes for appending to a
// slog call. Empty when the context carries no scan ID.
func Attrs(ctx context.Context) []any {
	id := ScanID(ctx)
	if id == "" {
		return nil
	}
	return []any{slog.String("scan_id", id)}
}
