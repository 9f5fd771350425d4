// Package config provides configuration management for the bot.
// It loads environment variables and makes them available throughout the application.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	BotToken   string
	DevGuildID string

	// Moderation store
	StoreDriver string
	SQLDsn      string

	// MongoDB
	MongoDBURL string
	DBName     string

	// MQTT
	MQTTHost     string
	MQTTPort     string
	MQTTUser     string
	MQTTPassword string

	// Web Server
	Port           string
	MetricsEnabled bool

	// WebAllowedHosts is a regexp matched against the Host header. Empty allows any host.
	WebAllowedHosts string

	// ModLogChannels maps each guild to its mod-log channel, written as
	// comma separated "guildID:channelID" pairs. Guilds not listed get no mod-log.
	ModLogChannels string

	// Environment
	Environment string

	// Webhooks
	ErrorWebhook      string
	LogsWebhook       string
	LogsWebServerHook string
	GuildsWebhook     string
}

var (
	Version   = "Dev-Local"
	BuildTime = "Hoy"
)

// cfg holds the global configuration instance
var (
	cfg     *Config
	cfgOnce sync.Once
)

// resetForTesting resets the configuration for testing purposes.
// This function should only be called from test code.
func resetForTesting() {
	cfg = nil
	cfgOnce = sync.Once{}
}

// loadConfig performs the actual configuration loading
func loadConfig() {
	// Load .env file if it exists (ignoring error if it doesn't)
	_ = godotenv.Load()

	cfg = &Config{
		// Discord
		BotToken:   getEnv("botToken", ""),
		DevGuildID: getEnv("devGuildId", ""),

		// Moderation store
		StoreDriver: strings.ToLower(getEnv("storeDriver", "mongo")),
		SQLDsn:      getEnv("sqlDsn", "pancytrials.db"),

		// MongoDB
		MongoDBURL: getEnv("mongodbUrl", "mongodb://localhost:27017"),
		DBName:     getEnv("dbName", "PancyTrials"),

		// MQTT
		MQTTHost:     getEnv("MQTT_Host", "localhost"),
		MQTTPort:     getEnv("MQTT_Port", "1883"),
		MQTTUser:     getEnv("MQTT_User", ""),
		MQTTPassword: getEnv("MQTT_Password", ""),

		// Web Server
		Port:            getEnv("PORT", "3000"),
		MetricsEnabled:  getBool("metricsEnabled", true),
		WebAllowedHosts: getEnv("webAllowedHosts", `^(.+\.)?miau\.media`),

		// Moderation
		ModLogChannels: getEnv("modLogChannels", ""),

		// Environment
		Environment: getEnv("enviroment", "dev"),

		// Webhooks
		ErrorWebhook:      getEnv("errorWebhook", ""),
		LogsWebhook:       getEnv("logsWebhook", ""),
		LogsWebServerHook: getEnv("logsWebServerWebhook", ""),
		GuildsWebhook:     getEnv("guildsWebhook", ""),
	}
}

// Load initializes the configuration from environment variables
func Load() (*Config, error) {
	cfgOnce.Do(loadConfig)
	return cfg, nil
}

// Get returns the current configuration
func Get() *Config {
	// Use sync.Once to ensure thread-safe initialization if Load wasn't called
	cfgOnce.Do(loadConfig)
	return cfg
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBool parses a boolean environment variable, falling back on parse errors
func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// Store drivers accepted in storeDriver
const (
	StoreMongo    = "mongo"
	StoreSQLite   = "sqlite"
	StoreMySQL    = "mysql"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Validate checks the values the bot cannot start without
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMongo, StoreSQLite, StoreMySQL, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("storeDriver %q no soportado (mongo, sqlite, mysql, postgres, memory)", c.StoreDriver)
	}
	if c.BotToken == "" {
		return fmt.Errorf("botToken no configurado")
	}
	if _, err := regexp.Compile(c.WebAllowedHosts); err != nil {
		return fmt.Errorf("webAllowedHosts inválido: %w", err)
	}
	if _, err := ParseChannelMap(c.ModLogChannels); err != nil {
		return fmt.Errorf("modLogChannels inválido: %w", err)
	}
	return nil
}

var snowflakeRe = regexp.MustCompile(`^\d{17,20}$`)

// ParseChannelMap parses "guildID:channelID,guildID:channelID" into a map
// keyed by guild. An empty string yields an empty map.
func ParseChannelMap(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		guildID, channelID, ok := strings.Cut(pair, ":")
		guildID, channelID = strings.TrimSpace(guildID), strings.TrimSpace(channelID)
		if !ok || !snowflakeRe.MatchString(guildID) || !snowflakeRe.MatchString(channelID) {
			return nil, fmt.Errorf("entrada %q no tiene la forma guildID:channelID", pair)
		}
		if _, dup := out[guildID]; dup {
			return nil, fmt.Errorf("servidor %s repetido", guildID)
		}
		out[guildID] = channelID
	}
	return out, nil
}

// ModLogChannelMap returns the parsed mod-log mapping. Invalid input, which
// Validate reports, yields an empty map.
func (c *Config) ModLogChannelMap() map[string]string {
	m, err := ParseChannelMap(c.ModLogChannels)
	if err != nil {
		return map[string]string{}
	}
	return m
}

// IsProd returns true if the environment is production
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
