package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexwar/api/internal/auth"
	"github.com/freeeve/hexwar/api/internal/config"
	"github.com/freeeve/hexwar/api/internal/handler"
	"github.com/freeeve/hexwar/api/internal/logger"
	"github.com/freeeve/hexwar/api/internal/middleware"
	"github.com/freeeve/hexwar/api/internal/repository"
	"github.com/freeeve/hexwar/api/internal/repository/postgres"
	redisrepo "github.com/freeeve/hexwar/api/internal/repository/redis"
	"github.com/freeeve/hexwar/api/internal/repository/sqlite"
	"github.com/freeeve/hexwar/api/internal/service"
	"github.com/freeeve/hexwar/api/internal/sim"
	"github.com/freeeve/hexwar/api/pkg/world"
)

func main() {
	logger.Init("threatd")
	cfg := config.Load()

	gameID := cfg.GameID
	if gameID == "" {
		gameID = uuid.NewString()
	}
	log.Info().Str("gameId", gameID).Int("width", cfg.MapWidth).Int("height", cfg.MapHeight).
		Int64("seed", cfg.MapSeed).Str("archive", cfg.Archive).Msg("Config loaded")

	// World
	gen := world.DefaultGenConfig()
	gen.Width, gen.Height, gen.Seed = cfg.MapWidth, cfg.MapHeight, cfg.MapSeed
	state := world.Generate(gen)
	scen := world.DefaultScenario()
	scen.Factions, scen.Seed = cfg.Factions, cfg.MapSeed
	if err := world.Populate(state, scen); err != nil {
		log.Fatal().Err(err).Msg("Scenario setup failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	redisClient, err := redisrepo.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Enable Redis keyspace notifications for turn timer expiry events.
	if err := redisClient.Underlying().ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to set Redis keyspace notifications (turns will advance on the poller only)")
	}

	// Archive
	var archive repository.ThreatArchive
	switch cfg.Archive {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Database connection failed")
		}
		defer db.Close()
		archive = postgres.NewMemoryRepo(db)
	case "sqlite":
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("Save file open failed")
		}
		defer store.Close()
		archive = store
	case "none":
	default:
		log.Fatal().Str("archive", cfg.Archive).Msg("Unknown archive backend")
	}

	// Services
	wsHub := handler.NewHub()
	svc := service.NewTurnService(gameID, sim.NewRules(state), cfg.Policy, wsHub)
	svc.SetMemoryStore(redisClient)
	svc.SetOverlayCache(redisClient, cfg.OverlayTTL)
	if archive != nil {
		svc.SetArchive(archive)
	}

	// A restarted game picks its attacker memory back up before the first turn.
	restored, err := svc.LoadMemory(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to restore threat memory (non-fatal)")
	}
	if err := svc.BeginTurn(ctx); err != nil {
		log.Fatal().Err(err).Msg("First turn failed")
	}
	log.Info().Int("restored", restored).Int("factions", len(svc.Factions())).Msg("Game ready")

	timer := service.NewTurnTimer(redisClient.Underlying(), redisClient, svc, cfg.TurnDuration)

	// Router
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	mux := handler.NewRouter(svc, jwtMgr, wsHub)
	mux.Handle("GET /metrics", promhttp.Handler())

	root := middleware.Chain(mux, middleware.Recover, middleware.Logger, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go timer.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	if cfg.GameID == "" {
		// A generated game id cannot be resumed, so nothing stored for it is reachable again.
		if err := svc.EndGame(shutdownCtx); err != nil {
			log.Error().Err(err).Str("gameId", gameID).Msg("Failed to delete game data")
		}
	} else if err := svc.SaveMemory(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Final memory save failed")
	}
	log.Info().Msg("Server stopped")
}
