// Package main is the entry point for PancyTrials.
// It initializes all systems and starts the Discord bot.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PancyStudios/PancyTrials/internal/commands"
	"github.com/PancyStudios/PancyTrials/internal/commands/mod"
	"github.com/PancyStudios/PancyTrials/internal/events"
	"github.com/PancyStudios/PancyTrials/pkg/config"
	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/errors"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
	"github.com/PancyStudios/PancyTrials/pkg/mqtt"
	"github.com/PancyStudios/PancyTrials/pkg/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	if err := cfg.Validate(); err != nil {
		logger.Critical(fmt.Sprintf("Configuración inválida: %v", err), "Main")
		os.Exit(1)
	}

	logger.System(fmt.Sprintf("Iniciando PancyTrials %s...", config.Version), "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s", getCurrentDir()), "Main")

	// Initialize error handler
	var discordClient *discord.ExtendedClient
	errHandler := errors.Init(cfg.ErrorWebhook, func() {
		if discordClient != nil {
			_ = discordClient.Stop()
		}
	})
	defer errHandler.Stop()

	// Moderation store
	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error abriendo el almacenamiento (%s): %v", cfg.StoreDriver, err), "Main")
		os.Exit(1)
	}
	defer closeStore()

	ledger := moderation.NewCaseLedger(store)
	services := mod.Services{
		Engine: moderation.NewEngine(store, ledger),
		Ledger: ledger,
		Bots:   moderation.NewBotActionLedger(ledger),
		Stats:  moderation.NewStatsProjector(store),
	}

	// Initialize MQTT
	mqttClientID := "pancytrials"
	if !cfg.IsProd() {
		mqttClientID = "pancytrials_canary"
	}

	mqttClient := mqtt.Init(
		cfg.MQTTHost,
		cfg.MQTTPort,
		cfg.MQTTUser,
		cfg.MQTTPassword,
		mqttClientID,
	)
	defer mqttClient.Destroy()
	ledger.OnCase(mqttClient.CaseHook())
	mqttClient.RegisterModerationHandlers(services.Stats)

	// Initialize Discord client
	discordClient, err = discord.Init(cfg.BotToken, cfg.DevGuildID)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}
	discordClient.StoreAvailable = func() bool {
		_, ok := store.GetStatus()
		return ok
	}

	services.Tempbans = mod.NewTempbanScheduler(mod.ExpireTempban(discordClient.Session, ledger))
	defer services.Tempbans.Stop()

	modLogChannels := cfg.ModLogChannelMap()
	if len(modLogChannels) > 0 {
		ledger.OnCase(mod.ModLogHook(discordClient.Session, modLogChannels))
		logger.Info(fmt.Sprintf("Mod-log activo en %d servidores", len(modLogChannels)), "Main")
	}

	commands.RegisterAll(discordClient, services, store)
	events.RegisterAll(discordClient, events.Deps{
		Stats:          services.Stats,
		ModLogChannels: modLogChannels,
		GuildsWebhook:  cfg.GuildsWebhook,
	})

	// Initialize web server
	webServer, err := web.Init(web.Options{
		WebhookURL:   cfg.LogsWebServerHook,
		AllowedHosts: cfg.WebAllowedHosts,
		RateLimit:    web.DefaultRateLimit,
	})
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creando el servidor web: %v", err), "Main")
		os.Exit(1)
	}
	web.SetupAPIRoutes(webServer, web.API{
		Store:   store,
		Stats:   services.Stats,
		Cases:   ledger,
		Bot:     discord.Get,
		Metrics: cfg.MetricsEnabled,
	})
	webServer.StartAsync(cfg.Port)
	defer func() {
		if err := webServer.Shutdown(5 * time.Second); err != nil {
			logger.Error(fmt.Sprintf("Error apagando el servidor web: %v", err), "Main")
		}
	}()

	// Start the bot
	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := discordClient.Stop(); err != nil {
			logger.Error(fmt.Sprintf("Error cerrando la sesión de Discord: %v", err), "Main")
		}
	}()

	logger.Success("PancyTrials iniciado correctamente!", "Main")

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Apagando PancyTrials...", "Main")
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
