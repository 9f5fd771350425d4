// Package web provides API routes for the web server.
package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PancyStudios/PancyTrials/pkg/discord"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
)

// requestTimeout bounds the store calls made by a single API request
const requestTimeout = 5 * time.Second

// StatusChecker reports the state of the moderation store
type StatusChecker interface {
	GetStatus() (string, bool)
}

// StatsReader builds the stats view of a subject
type StatsReader interface {
	GetUserStats(ctx context.Context, guildID, subjectID string) (*moderation.StatsView, error)
}

// CaseReader reads the case ledger
type CaseReader interface {
	History(ctx context.Context, guildID, subjectID string) ([]*models.ActionRecord, error)
	ByCaseNumber(ctx context.Context, guildID string, caseNumber int64) (*models.ActionRecord, error)
}

// API holds what the routes read from. Bot may be nil until the
// Discord client is created.
type API struct {
	Store   StatusChecker
	Stats   StatsReader
	Cases   CaseReader
	Bot     func() *discord.ExtendedClient
	Metrics bool
}

// SetupAPIRoutes sets up the API routes
func SetupAPIRoutes(s *Server, a API) {
	api := s.Group("/api")
	{
		api.GET("/status", a.statusHandler)
		api.GET("/health", healthHandler)
		api.GET("/bot", a.botInfoHandler)

		guilds := api.Group("/guilds/:guild")
		guilds.GET("/users/:user/stats", a.userStatsHandler)
		guilds.GET("/users/:user/history", a.userHistoryHandler)
		guilds.GET("/cases/:case", a.caseHandler)
	}

	if a.Metrics {
		s.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

func (a API) bot() *discord.ExtendedClient {
	if a.Bot == nil {
		return nil
	}
	return a.Bot()
}

// statusHandler returns the bot and database status
func (a API) statusHandler(c *gin.Context) {
	dbStatus, dbOnline := "🔴 | Desconectado", false
	if a.Store != nil {
		dbStatus, dbOnline = a.Store.GetStatus()
	}

	botOnline := false
	if client := a.bot(); client != nil {
		botOnline = client.IsReady()
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"database": gin.H{
			"status":   dbStatus,
			"isOnline": dbOnline,
		},
		"bot": gin.H{
			"isOnline": botOnline,
		},
	})
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "PancyTrials is running",
	})
}

// botInfoHandler returns information about the bot
func (a API) botInfoHandler(c *gin.Context) {
	client := a.bot()
	if client == nil || !client.IsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Bot Offline",
			"message": "El bot no está disponible en este momento.",
		})
		return
	}

	user := client.Session.State.User

	c.JSON(http.StatusOK, gin.H{
		"id":            user.ID,
		"username":      user.Username,
		"discriminator": user.Discriminator,
		"avatar":        user.Avatar,
		"guilds":        client.GuildCount(),
		"isReady":       client.IsReady(),
	})
}

func (a API) userStatsHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	view, err := a.Stats.GetUserStats(ctx, c.Param("guild"), c.Param("user"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a API) userHistoryHandler(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, "limit debe ser un entero positivo")
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	history, err := a.Cases.History(ctx, c.Param("guild"), c.Param("user"))
	if err != nil {
		storeError(c, err)
		return
	}

	total := len(history)
	if limit > 0 && limit < total {
		history = history[:limit]
	}
	if history == nil {
		history = []*models.ActionRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"guildId": c.Param("guild"),
		"userId":  c.Param("user"),
		"total":   total,
		"actions": history,
	})
}

func (a API) caseHandler(c *gin.Context) {
	n, err := strconv.ParseInt(c.Param("case"), 10, 64)
	if err != nil || n < 1 {
		badRequest(c, "El número de caso debe ser un entero positivo")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	rec, err := a.Cases.ByCaseNumber(ctx, c.Param("guild"), n)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Bad Request",
		"message": msg,
		"status":  http.StatusBadRequest,
	})
}

func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, moderation.ErrCaseNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "El caso solicitado no existe.",
			"status":  http.StatusNotFound,
		})
	case errors.Is(err, moderation.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Service Unavailable",
			"message": "La base de datos no está disponible en este momento.",
			"status":  http.StatusServiceUnavailable,
		})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "No se pudo completar la consulta.",
			"status":  http.StatusInternalServerError,
		})
	}
}
