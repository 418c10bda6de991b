package logger

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestInit(t *testing.T) {
	l := Init("test-service", slog.LevelInfo)
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if slog.Default() != l {
		t.Error("Init should install the logger as the slog default")
	}
}

func TestScanID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	if id := ScanID(ctx); id != "" {
		t.Errorf("bare context scan id = %q, want empty", id)
	}

	ctx = WithScanID(ctx, "scan-42")
	if id := ScanID(ctx); id != "scan-42" {
		t.Errorf("scan id = %q, want scan-42", id)
	}
}

func TestNewScanID(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 30, 0, 123456789, time.UTC)
	id := NewScanID(start)
	if !strings.HasPrefix(id, "scan-") {
		t.Errorf("scan id %q missing prefix", id)
	}
	if !strings.Contains(id, "123456789") {
		t.Errorf("scan id %q should embed the start's nanoseconds", id)
	}
}

func TestAttrs(t *testing.T) {
	if got := Attrs(context.Background()); got != nil {
		t.Errorf("Attrs without scan id = %v, want nil", got)
	}

	ctx := WithScanID(context.Background(), "scan-7")
	attrs := Attrs(ctx)
	if len(attrs) != 1 {
		t.Fatalf("Attrs = %v, want one attribute", attrs)
	}
}
