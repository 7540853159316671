package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestWithOperation(t *testing.T) {
	logger := slog.Default()
	result := WithOperation(logger, "test_operation")
	if result == nil {
		t.Error("WithOperation returned nil")
	}
}

func TestWithTool(t *testing.T) {
	logger := slog.Default()
	result := WithTool(logger, "availability_check")
	if result == nil {
		t.Error("WithTool returned nil")
	}
}

func TestWithSession_DoesNotLeakPhone(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	WithSession(logger, "+5215512345678").Info("turn handled")

	out := buf.String()
	if strings.Contains(out, "5512345678") {
		t.Errorf("log output contains the raw phone number: %s", out)
	}
	if !strings.Contains(out, "session=session:") {
		t.Errorf("log output has no anonymized session attribute: %s", out)
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("calendar.events.list"), KeyOperation, "calendar.events.list"},
		{"tool", Tool("availability_check"), KeyTool, "availability_check"},
		{"status", Status(StatusSuccess), KeyStatus, "success"},
		{"stage", Stage("awaiting_date"), KeyStage, "awaiting_date"},
		{"intent", Intent("booking"), KeyIntent, "booking"},
		{"calendar", Calendar("primary"), KeyCalendar, "primary"},
		{"verdict", Verdict(time.Monday), KeyVerdict, "Monday"},
		{"turn id", TurnID("abc"), KeyTurnID, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError || attr.Value.String() != "boom" {
		t.Errorf("Err() = %v, want error=boom", attr)
	}

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("ok", Err(nil))
	if strings.Contains(buf.String(), KeyError) {
		t.Errorf("Err(nil) should be omitted, got %s", buf.String())
	}
}

func TestAnonymizePhone(t *testing.T) {
	if got := AnonymizePhone(""); got != "" {
		t.Errorf("AnonymizePhone(\"\") = %q, want empty", got)
	}

	a := AnonymizePhone("+5215512345678")
	b := AnonymizePhone("+5215512345678")
	c := AnonymizePhone("+5215587654321")

	if a != b {
		t.Error("AnonymizePhone should be deterministic")
	}
	if a == c {
		t.Error("different phones should hash differently")
	}
	if !strings.HasPrefix(a, "session:") || len(a) != len("session:")+16 {
		t.Errorf("unexpected format %q", a)
	}
}

func TestSanitizeText(t *testing.T) {
	if got := SanitizeText(""); got != "<empty>" {
		t.Errorf("SanitizeText(\"\") = %q", got)
	}
	if got := SanitizeText("sí, mañana"); got != "[text:10 chars]" {
		t.Errorf("SanitizeText() = %q, want [text:10 chars]", got)
	}
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer

	h, err := NewHandler(&buf, FormatJSON, slog.LevelInfo)
	if err != nil {
		t.Fatalf("NewHandler(json) error = %v", err)
	}
	slog.New(h).Info("hello", Status(StatusSuccess))
	if !strings.Contains(buf.String(), `"status":"success"`) {
		t.Errorf("expected JSON output, got %s", buf.String())
	}

	if _, err := NewHandler(&buf, "", slog.LevelDebug); err != nil {
		t.Errorf("empty format should default to text, got %v", err)
	}
	if _, err := NewHandler(&buf, "xml", slog.LevelInfo); err == nil {
		t.Error("expected error for unknown format")
	}
}
