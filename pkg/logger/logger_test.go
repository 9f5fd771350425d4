package logger

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
)

func TestNewLogger(t *testing.T) {
	// Create a new logger without webhooks
	l := NewLoggerAt(t.TempDir(), "", "")
	if l == nil {
		t.Fatal("Expected logger to be created, got nil")
	}

	// Test that logger methods don't panic
	l.Info("Test info message", "TEST")
	l.Warn("Test warning message", "TEST")
	l.Debug("Test debug message", "TEST")
	l.System("Test system message", "TEST")
	l.Success("Test success message", "TEST")

	l.Close()
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelCritical, "CRITICAL"},
		{LevelError, "ERROR"},
		{LevelWarn, "WARN"},
		{LevelSuccess, "SUCCESS"},
		{LevelInfo, "INFO"},
		{LevelDebug, "DEBUG"},
		{LevelSystem, "SYSTEM"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLogLevelColor(t *testing.T) {
	levels := []LogLevel{
		LevelCritical,
		LevelError,
		LevelWarn,
		LevelSuccess,
		LevelInfo,
		LevelDebug,
		LevelSystem,
	}

	for _, level := range levels {
		t.Run(level.String(), func(t *testing.T) {
			color := level.Color()
			if color == "" {
				t.Error("Expected color to be non-empty")
			}
		})
	}
}

func TestLogLevelDiscordColor(t *testing.T) {
	tests := []struct {
		level LogLevel
		color int
	}{
		{LevelCritical, 0xFF0000},
		{LevelError, 0xFF0000},
		{LevelWarn, 0xFFFF00},
		{LevelSuccess, 0x00FF00},
		{LevelInfo, 0x0000FF},
		{LevelDebug, 0x800080},
		{LevelSystem, 0x808080},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := tt.level.DiscordColor(); got != tt.color {
				t.Errorf("LogLevel.DiscordColor() = %v, want %v", got, tt.color)
			}
		})
	}
}

func TestLogFileCreation(t *testing.T) {
	logsDir := filepath.Join(t.TempDir(), "logs")

	l := NewLoggerAt(logsDir, "", "")
	l.Info("caso registrado", "CaseLedger")
	l.Error("fallo de la DB", "DB")
	l.Close()

	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		t.Fatal("Expected logs directory to be created")
	}

	combined, err := os.ReadFile(filepath.Join(logsDir, "combined.log"))
	if err != nil {
		t.Fatalf("Expected combined.log to be created: %v", err)
	}
	if !strings.Contains(string(combined), "caso registrado") || !strings.Contains(string(combined), "prefix=CaseLedger") {
		t.Errorf("combined.log missing info entry: %s", combined)
	}

	errorsLog, err := os.ReadFile(filepath.Join(logsDir, "error.log"))
	if err != nil {
		t.Fatalf("Expected error.log to be created: %v", err)
	}
	if strings.Contains(string(errorsLog), "caso registrado") {
		t.Error("error.log should only contain error levels")
	}
	if !strings.Contains(string(errorsLog), "fallo de la DB") {
		t.Error("error.log missing error entry")
	}
}

func TestWebhookRouting(t *testing.T) {
	l := NewLoggerAt(t.TempDir(), "https://errors.example", "")
	defer l.Close()

	if got := l.webhookURL(LevelCritical); got != "https://errors.example" {
		t.Errorf("webhookURL(Critical) = %q, want errors webhook", got)
	}
	if got := l.webhookURL(LevelInfo); got != "" {
		t.Errorf("webhookURL(Info) = %q, want empty", got)
	}
}

func TestSendToWebhook(t *testing.T) {
	var got webhookPayload
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(done)
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	l := NewLoggerAt(t.TempDir(), srv.URL, "")
	defer l.Close()
	l.sendToWebhook(LevelError, "boom", "DB")
	<-done

	if len(got.Embeds) != 1 {
		t.Fatalf("embeds = %d, want 1", len(got.Embeds))
	}
	if got.Embeds[0].Title != "[ERROR] DB" {
		t.Errorf("title = %q, want %q", got.Embeds[0].Title, "[ERROR] DB")
	}
	if got.Embeds[0].Color != 0xFF0000 {
		t.Errorf("color = %#x, want red", got.Embeds[0].Color)
	}
}

func TestGlobalLoggerInit(t *testing.T) {
	// Reset the global logger for this test
	logger = nil
	once = sync.Once{}

	l := Init("", "")
	if l == nil {
		t.Fatal("Expected Init to return a logger")
	}

	// Calling Init again should return the same logger
	l2 := Init("different", "different")
	if l != l2 {
		t.Error("Expected Init to return the same logger on subsequent calls")
	}

	// Get should return the same logger
	l3 := Get()
	if l != l3 {
		t.Error("Expected Get to return the same logger")
	}

	l.Close()
}

func TestWithPrefix(t *testing.T) {
	dir := t.TempDir()
	l := NewLoggerAt(dir, "", "")
	l.WithPrefix("Trials").Warn("etapa completada")
	l.Close()

	data, err := os.ReadFile(filepath.Join(dir, "combined.log"))
	if err != nil {
		t.Fatalf("read combined.log: %v", err)
	}
	if !strings.Contains(string(data), "prefix=Trials") || !strings.Contains(string(data), "tag=WARN") {
		t.Errorf("combined.log = %q, want prefix and tag fields", data)
	}
}
