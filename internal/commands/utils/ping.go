package utils

import (
	"fmt"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
)

// createPingCommand creates the /utils ping subcommand. Besides the gateway
// heartbeat it times one health check of the moderation store.
func createPingCommand(status StatusChecker) *discord.Command {
	return discord.NewCommand(
		"ping",
		"Comprueba la latencia del bot y de la base de datos",
		"utils",
		func(ctx *discord.CommandContext) error {
			gateway := ctx.Client.Session.HeartbeatLatency()
			store, ok := timeStatus(status)
			return ctx.Reply(pingText(gateway, store, ok))
		},
	)
}

// timeStatus measures a GetStatus round-trip. ok is false when the store
// is missing or reports itself down.
func timeStatus(status StatusChecker) (time.Duration, bool) {
	if status == nil {
		return 0, false
	}
	start := time.Now()
	_, ok := status.GetStatus()
	return time.Since(start), ok
}

func pingText(gateway, store time.Duration, storeOK bool) string {
	db := "🔴 sin conexión"
	if storeOK {
		db = fmt.Sprintf("%dms", store.Milliseconds())
	}
	return fmt.Sprintf("🏓 Pong!\n• Gateway: %dms\n• Base de datos: %s", gateway.Milliseconds(), db)
}
