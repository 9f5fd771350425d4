// Package logger provides a comprehensive logging system with multiple outputs.
// It supports console logging with colors, rotated file logging and Discord webhook logging.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelCritical LogLevel = iota
	LevelError
	LevelWarn
	LevelSuccess
	LevelInfo
	LevelDebug
	LevelSystem
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelCritical:
		return "CRITICAL"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelSuccess:
		return "SUCCESS"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelSystem:
		return "SYSTEM"
	default:
		return "UNKNOWN"
	}
}

// Color returns the ANSI color code for the log level
func (l LogLevel) Color() string {
	switch l {
	case LevelCritical:
		return "\033[1;31m" // Bold Red
	case LevelError:
		return "\033[31m" // Red
	case LevelWarn:
		return "\033[33m" // Yellow
	case LevelSuccess:
		return "\033[32m" // Green
	case LevelInfo:
		return "\033[36m" // Cyan
	case LevelDebug:
		return "\033[35m" // Magenta
	case LevelSystem:
		return "\033[34m" // Blue
	default:
		return "\033[0m" // Reset
	}
}

// DiscordColor returns the Discord embed color for the log level
func (l LogLevel) DiscordColor() int {
	switch l {
	case LevelCritical, LevelError:
		return 0xFF0000 // Red
	case LevelWarn:
		return 0xFFFF00 // Yellow
	case LevelSuccess:
		return 0x00FF00 // Green
	case LevelInfo:
		return 0x0000FF // Blue
	case LevelDebug:
		return 0x800080 // Purple
	case LevelSystem:
		return 0x808080 // Grey
	default:
		return 0xFFFFFF // White
	}
}

const colorReset = "\033[0m"

// logrusLevel maps a level onto the logrus severity written to the log files.
// Critical is written as Fatal through Log, which never exits.
func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case LevelCritical:
		return logrus.FatalLevel
	case LevelError:
		return logrus.ErrorLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelDebug:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger is the main logging structure
type Logger struct {
	combined        *logrus.Logger
	errors          *logrus.Logger
	combinedFile    *lumberjack.Logger
	errorFile       *lumberjack.Logger
	errorWebhookURL string
	logsWebhookURL  string
	httpClient      *http.Client
	mu              sync.Mutex
}

// logger is the global logger instance
var (
	logger *Logger
	once   sync.Once
)

// Init initializes the global logger instance
func Init(errorWebhook, logsWebhook string) *Logger {
	once.Do(func() {
		logger = NewLogger(errorWebhook, logsWebhook)
	})
	return logger
}

// Get returns the global logger instance
func Get() *Logger {
	// Use sync.Once to ensure thread-safe initialization if Init wasn't called
	once.Do(func() {
		logger = NewLogger("", "")
	})
	return logger
}

// NewLogger creates a new Logger writing to ./logs
func NewLogger(errorWebhook, logsWebhook string) *Logger {
	return NewLoggerAt(filepath.Join(".", "logs"), errorWebhook, logsWebhook)
}

// NewLoggerAt creates a new Logger writing rotated files under dir
func NewLoggerAt(dir, errorWebhook, logsWebhook string) *Logger {
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Printf("Error creating logs directory: %v\n", err)
	}

	l := &Logger{
		combinedFile: &lumberjack.Logger{
			Filename:   filepath.Join(dir, "combined.log"),
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		},
		errorFile: &lumberjack.Logger{
			Filename:   filepath.Join(dir, "error.log"),
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     90,
			Compress:   true,
		},
		errorWebhookURL: errorWebhook,
		logsWebhookURL:  logsWebhook,
		httpClient:      &http.Client{Timeout: 5 * time.Second},
	}
	l.combined = newFileLogger(l.combinedFile)
	l.errors = newFileLogger(l.errorFile)
	return l
}

func newFileLogger(out io.Writer) *logrus.Logger {
	fl := logrus.New()
	fl.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})
	fl.SetLevel(logrus.TraceLevel)
	fl.SetOutput(out)
	return fl
}

// log is the internal logging function
func (l *Logger) log(level LogLevel, message string, prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	// Console output with colors
	fmt.Printf("[%s] [%s%s%s] [%s]: %s\n",
		timestamp,
		level.Color(),
		level.String(),
		colorReset,
		prefix,
		message,
	)

	entry := logrus.Fields{"prefix": prefix, "tag": level.String()}
	l.combined.WithFields(entry).Log(level.logrusLevel(), message)
	if level <= LevelError {
		l.errors.WithFields(entry).Log(level.logrusLevel(), message)
	}

	if l.errorWebhookURL != "" || l.logsWebhookURL != "" {
		go l.sendToWebhook(level, message, prefix)
	}
}

// webhookURL picks the destination for level, or "" when none is configured
func (l *Logger) webhookURL(level LogLevel) string {
	if level <= LevelError {
		return l.errorWebhookURL
	}
	return l.logsWebhookURL
}

// sendToWebhook sends the log message to the appropriate Discord webhook
func (l *Logger) sendToWebhook(level LogLevel, message, prefix string) {
	webhookURL := l.webhookURL(level)
	if webhookURL == "" {
		return
	}

	payload := webhookPayload{Embeds: []webhookEmbed{{
		Title:       fmt.Sprintf("[%s] %s", level.String(), prefix),
		Description: fmt.Sprintf("```%s```", message),
		Color:       level.DiscordColor(),
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer:      webhookFooter{Text: "💫 Developed by PancyStudio | PancyTrials"},
	}}}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}

type webhookPayload struct {
	Embeds []webhookEmbed `json:"embeds"`
}

type webhookEmbed struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Color       int           `json:"color"`
	Timestamp   string        `json:"timestamp"`
	Footer      webhookFooter `json:"footer"`
}

type webhookFooter struct {
	Text string `json:"text"`
}

// Close closes the log files
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.combinedFile.Close()
	_ = l.errorFile.Close()
}

// Logging methods

// Critical logs a critical message
func (l *Logger) Critical(message string, prefix string) {
	l.log(LevelCritical, message, prefix)
}

// Error logs an error message
func (l *Logger) Error(message string, prefix string) {
	l.log(LevelError, message, prefix)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, prefix string) {
	l.log(LevelWarn, message, prefix)
}

// Success logs a success message
func (l *Logger) Success(message string, prefix string) {
	l.log(LevelSuccess, message, prefix)
}

// Info logs an info message
func (l *Logger) Info(message string, prefix string) {
	l.log(LevelInfo, message, prefix)
}

// Debug logs a debug message
func (l *Logger) Debug(message string, prefix string) {
	l.log(LevelDebug, message, prefix)
}

// System logs a system message
func (l *Logger) System(message string, prefix string) {
	l.log(LevelSystem, message, prefix)
}

// Package-level functions for convenience

// Critical logs a critical message using the global logger
func Critical(message string, prefix string) {
	Get().Critical(message, prefix)
}

// Error logs an error message using the global logger
func Error(message string, prefix string) {
	Get().Error(message, prefix)
}

// Warn logs a warning message using the global logger
func Warn(message string, prefix string) {
	Get().Warn(message, prefix)
}

// Success logs a success message using the global logger
func Success(message string, prefix string) {
	Get().Success(message, prefix)
}

// Info logs an info message using the global logger
func Info(message string, prefix string) {
	Get().Info(message, prefix)
}

// Debug logs a debug message using the global logger
func Debug(message string, prefix string) {
	Get().Debug(message, prefix)
}

// System logs a system message using the global logger
func System(message string, prefix string) {
	Get().System(message, prefix)
}

// Prefixed is a logger handle bound to a fixed prefix
type Prefixed struct {
	l      *Logger
	prefix string
}

// WithPrefix returns a handle that tags every message with prefix
func (l *Logger) WithPrefix(prefix string) Prefixed {
	return Prefixed{l: l, prefix: prefix}
}

// WithPrefix returns a handle on the global logger
func WithPrefix(prefix string) Prefixed {
	return Prefixed{prefix: prefix}
}

func (p Prefixed) logger() *Logger {
	if p.l != nil {
		return p.l
	}
	return Get()
}

func (p Prefixed) Critical(message string) { p.logger().Critical(message, p.prefix) }
func (p Prefixed) Error(message string)    { p.logger().Error(message, p.prefix) }
func (p Prefixed) Warn(message string)     { p.logger().Warn(message, p.prefix) }
func (p Prefixed) Success(message string)  { p.logger().Success(message, p.prefix) }
func (p Prefixed) Info(message string)     { p.logger().Info(message, p.prefix) }
func (p Prefixed) Debug(message string)    { p.logger().Debug(message, p.prefix) }
