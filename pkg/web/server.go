// Package web provides an HTTP server with routing and middleware.
// It uses Gin framework for high-performance web handling.
package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/PancyStudios/PancyTrials/pkg/logger"
)

// Options configures a Server
type Options struct {
	// WebhookURL receives a copy of every request log. Empty disables it.
	WebhookURL string
	// AllowedHosts is matched against the Host header. Empty allows any host.
	AllowedHosts string
	RateLimit    RateLimitConfig
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
	// MaxClients bounds how many client IPs are tracked at once
	MaxClients int
}

// DefaultRateLimit allows 100 requests per minute per IP
var DefaultRateLimit = RateLimitConfig{
	Window:      60 * time.Second,
	MaxRequests: 100,
	MaxClients:  4096,
}

// Server represents the web server
type Server struct {
	engine           *gin.Engine
	webhookURL       string
	allowedHostRegex *regexp.Regexp
	httpClient       *http.Client

	mu  sync.Mutex
	srv *http.Server
}

var (
	server *Server
)

// Init initializes the global web server
func Init(opts Options) (*Server, error) {
	s, err := NewServer(opts)
	if err != nil {
		return nil, err
	}
	server = s
	return server, nil
}

// Get returns the global web server
func Get() *Server {
	return server
}

// NewServer creates a new web server
func NewServer(opts Options) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	var hostRegex *regexp.Regexp
	if opts.AllowedHosts != "" {
		re, err := regexp.Compile(opts.AllowedHosts)
		if err != nil {
			return nil, fmt.Errorf("allowed hosts: %w", err)
		}
		hostRegex = re
	}

	rl := opts.RateLimit
	if rl.MaxRequests <= 0 {
		rl = DefaultRateLimit
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:           engine,
		webhookURL:       opts.WebhookURL,
		allowedHostRegex: hostRegex,
		httpClient:       &http.Client{Timeout: 5 * time.Second},
	}

	limiter, err := s.rateLimitMiddleware(rl)
	if err != nil {
		return nil, err
	}

	s.engine.Use(s.logsMiddleware())
	s.engine.Use(limiter)

	s.setupErrorHandlers()

	return s, nil
}

// Engine returns the underlying Gin engine
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) hostAllowed(host string) bool {
	return s.allowedHostRegex == nil || s.allowedHostRegex.MatchString(host)
}

// logsMiddleware logs all incoming requests to the webhook
func (s *Server) logsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		entry := newRequestLog(c)

		if s.hostAllowed(c.Request.Host) {
			logger.Info(fmt.Sprintf("[LOG] Nueva solicitud: %s %s", entry.method, entry.path), "WebServer")
			go s.sendLogToWebhook(entry, false)
			c.Next()
			return
		}

		logger.Warn(fmt.Sprintf("[LOG] Solicitud Sospechosa: %s %s | %s", entry.method, entry.path, entry.ip), "WebServer")
		go s.sendLogToWebhook(entry, true)
		c.AbortWithStatus(http.StatusForbidden)
	}
}

// requestLog is copied out of the gin context before the handler
// returns, since the context is reused afterwards.
type requestLog struct {
	method  string
	path    string
	ip      string
	query   string
	headers http.Header
}

func newRequestLog(c *gin.Context) requestLog {
	return requestLog{
		method:  c.Request.Method,
		path:    c.Request.URL.Path,
		ip:      c.ClientIP(),
		query:   c.Request.URL.RawQuery,
		headers: c.Request.Header.Clone(),
	}
}

type webhookPayload struct {
	Embeds []webhookEmbed `json:"embeds"`
}

type webhookEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

// sendLogToWebhook sends a log message to the Discord webhook
func (s *Server) sendLogToWebhook(entry requestLog, suspicious bool) {
	if s.webhookURL == "" {
		return
	}

	title := fmt.Sprintf("💫 | Nueva solicitud al servidor web de tipo %s", entry.method)
	color := 0x00AE86

	if suspicious {
		title = fmt.Sprintf("💫 | Solicitud Sospechosa Rechazada: %s %s", entry.method, entry.path)
		color = 0xFFA500
	}

	headers, _ := json.Marshal(entry.headers)
	query := entry.query
	if query == "" {
		query = "{}"
	}

	jsonData, err := json.Marshal(webhookPayload{Embeds: []webhookEmbed{{
		Title: title,
		Description: fmt.Sprintf(
			"> **Ruta:** `%s`\n> **IP:** `%s`\n> **Headers:** ```%s``` \n> **Query:** ```%s```",
			entry.path, entry.ip, string(headers), query,
		),
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
	}}})
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, s.webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Debug(fmt.Sprintf("Webhook de logs no disponible: %v", err), "WebServer")
		return
	}
	resp.Body.Close()
}

type clientInfo struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// rateLimitMiddleware implements a fixed window limiter per client IP.
// The least recently seen IPs are evicted once MaxClients is reached.
func (s *Server) rateLimitMiddleware(cfg RateLimitConfig) (gin.HandlerFunc, error) {
	clients, err := lru.New[string, *clientInfo](cfg.MaxClients)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	var mu sync.Mutex

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		info, ok := clients.Get(ip)
		if !ok {
			info = &clientInfo{}
			clients.Add(ip, info)
		}
		mu.Unlock()

		info.mu.Lock()
		if now.After(info.resetAt) {
			info.count = 0
			info.resetAt = now.Add(cfg.Window)
		}
		info.count++
		count := info.count
		info.mu.Unlock()

		if count > cfg.MaxRequests {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Demasiadas solicitudes, por favor intente de nuevo más tarde.",
			})
			c.Abort()
			return
		}

		c.Next()
	}, nil
}

// setupErrorHandlers sets up error handling routes
func (s *Server) setupErrorHandlers() {
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "La ruta solicitada no existe.",
			"status":  404,
		})
	})

	s.engine.HandleMethodNotAllowed = true
	s.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":   "Method Not Allowed",
			"message": "El método HTTP no está permitido para esta ruta.",
			"status":  405,
		})
	})
}

// Start starts the web server and blocks until it stops
func (s *Server) Start(port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	logger.Info(fmt.Sprintf("🚀 Servidor escuchando en http://localhost:%s", port), "WebServer")
	return srv.ListenAndServe()
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(port string) {
	go func() {
		if err := s.Start(port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(fmt.Sprintf("Error starting web server: %v", err), "WebServer")
		}
	}()
}

// Shutdown stops accepting requests and waits up to timeout for in-flight ones
func (s *Server) Shutdown(timeout time.Duration) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// GET registers a GET route
func (s *Server) GET(path string, handlers ...gin.HandlerFunc) {
	s.engine.GET(path, handlers...)
}

// Group creates a new router group
func (s *Server) Group(path string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return s.engine.Group(path, handlers...)
}
