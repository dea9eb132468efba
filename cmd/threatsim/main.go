// Command threatsim plays a generated skirmish offline and prints one
// faction's danger overlay after every turn.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexwar/api/internal/config"
	"github.com/freeeve/hexwar/api/internal/logger"
	"github.com/freeeve/hexwar/api/internal/model"
	"github.com/freeeve/hexwar/api/internal/repository/postgres"
	redisrepo "github.com/freeeve/hexwar/api/internal/repository/redis"
	"github.com/freeeve/hexwar/api/internal/repository/sqlite"
	"github.com/freeeve/hexwar/api/internal/service"
	"github.com/freeeve/hexwar/api/internal/sim"
	"github.com/freeeve/hexwar/api/pkg/world"
)

func main() {
	logger.Init("threatsim")
	cfg := config.Load()

	var (
		turns    int
		seed     int64
		faction  int
		store    string
		twoPass  bool
		factions int
		jsonOut  bool
		quiet    bool
		keep     bool
	)

	flag.IntVar(&turns, "turns", 10, "Number of turns to play")
	flag.Int64Var(&seed, "seed", cfg.MapSeed, "Map and scenario seed (0 = random)")
	flag.IntVar(&faction, "faction", 0, "Faction whose overlay is printed")
	flag.StringVar(&store, "store", "none", "Where threat memory is saved (sqlite, postgres, redis, none)")
	flag.BoolVar(&twoPass, "two-pass", cfg.Policy.TwoPass, "Run the extra zone of control pass")
	flag.IntVar(&factions, "factions", cfg.Factions, "Number of factions")
	flag.BoolVar(&jsonOut, "json", false, "Print overlays as JSON lines")
	flag.BoolVar(&quiet, "q", false, "Only print the final overlay")
	flag.BoolVar(&keep, "keep", false, "Keep the stored threat memory after the run")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	gen := world.DefaultGenConfig()
	gen.Width, gen.Height, gen.Seed = cfg.MapWidth, cfg.MapHeight, seed
	state := world.Generate(gen)
	scen := world.DefaultScenario()
	scen.Factions, scen.Seed = factions, seed
	if err := world.Populate(state, scen); err != nil {
		log.Fatal().Err(err).Msg("Scenario setup failed")
	}

	policy := cfg.Policy
	policy.TwoPass = twoPass
	gameID := uuid.NewString()
	svc := service.NewTurnService(gameID, sim.NewRules(state), policy, service.NoopBroadcaster{})

	switch store {
	case "sqlite":
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("Save file open failed")
		}
		defer s.Close()
		svc.SetArchive(s)
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Database connection failed")
		}
		defer db.Close()
		svc.SetArchive(postgres.NewMemoryRepo(db))
	case "redis":
		rc, err := redisrepo.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		defer rc.Close()
		svc.SetMemoryStore(rc)
		svc.SetOverlayCache(rc, cfg.OverlayTTL)
	case "none":
	default:
		log.Fatal().Str("store", store).Msg("Unknown store")
	}

	me := world.FactionID(faction)
	log.Info().Str("gameId", gameID).Int64("seed", seed).Int("turns", turns).
		Int("faction", faction).Bool("twoPass", twoPass).Msg("Simulation starting")

	if err := svc.BeginTurn(ctx); err != nil {
		log.Fatal().Err(err).Msg("First turn failed")
	}
	for turn := 1; ; turn++ {
		if ctx.Err() != nil {
			break
		}
		if !quiet || turn == turns {
			o, err := svc.Overlay(ctx, me)
			if err != nil {
				log.Fatal().Err(err).Int("faction", faction).Msg("Overlay unavailable")
			}
			if err := printOverlay(os.Stdout, o, jsonOut); err != nil {
				log.Fatal().Err(err).Msg("Print failed")
			}
		}
		if turn >= turns {
			break
		}
		if err := svc.Step(ctx); err != nil {
			log.Fatal().Err(err).Int("turn", turn).Msg("Turn failed")
		}
	}

	log.Info().Int("turn", svc.Turn()).Int("units", len(state.UnitsOf(me))).Msg("Simulation finished")

	if keep {
		log.Info().Str("gameId", gameID).Msg("Stored threat memory kept")
		return
	}
	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cleanupCancel()
	if err := svc.EndGame(cleanupCtx); err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Failed to delete game data")
	}
}

func printOverlay(w io.Writer, o *model.Overlay, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(o)
	}
	_, err := fmt.Fprintf(w, "turn %d, faction %d\n%s\n", o.Turn, o.Faction, renderOverlay(o))
	return err
}

// renderOverlay draws the overlay as offset rows, odd rows shifted half a
// cell. Safe tiles print as a dot.
func renderOverlay(o *model.Overlay) string {
	const cell = 4
	var b strings.Builder
	for row := range o.Height {
		if row%2 == 1 {
			b.WriteString(strings.Repeat(" ", cell/2))
		}
		for col := range o.Width {
			d := o.Danger[row*o.Width+col]
			switch {
			case d == 0:
				fmt.Fprintf(&b, "%*s", cell, ".")
			case d > 999:
				fmt.Fprintf(&b, "%*s", cell, "+++")
			default:
				fmt.Fprintf(&b, "%*d", cell, d)
			}
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
