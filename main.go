// Command server runs the authoritative arena: a fixed-cadence
// simulation loop, a websocket transport for input frames and snapshot
// broadcast, and optional match logging and replay recording.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"run-and-gun/server/internal/config"
	"run-and-gun/server/internal/matchlog"
	"run-and-gun/server/internal/net/ws"
	"run-and-gun/server/internal/replay"
	"run-and-gun/server/internal/sim"
	"run-and-gun/server/internal/telemetry"
	"run-and-gun/server/logging"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "listen address")
		configPath = flag.String("config", "", "path to YAML config; defaults apply when empty")
		dataDir    = flag.String("data", "data", "directory for the match database and replays")
		logFile    = flag.String("log", "", "optional rotating log file path")
		record     = flag.Bool("record", false, "record the snapshot stream to a replay file")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logger := logging.New(*logFile, *debug)
	defer logging.Sync(logger)

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatalw("config load failed", "path", *configPath, "err", err)
		}
		cfg = loaded
	}

	counters := telemetry.NewCounters()

	matchLog, err := matchlog.Open(filepath.Join(*dataDir, "match.db"), counters)
	if err != nil {
		logger.Fatalw("match log open failed", "err", err)
	}
	defer matchLog.Close()

	var recorder *replay.Recorder
	if *record {
		recorder, err = replay.NewRecorder(filepath.Join(*dataDir, "match.replay"))
		if err != nil {
			logger.Fatalw("replay recorder open failed", "err", err)
		}
		defer recorder.Close()
	}

	engine := sim.NewEngine(sim.EngineConfig{
		Arena:             cfg.Arena(),
		MaxPlayers:        cfg.MaxPlayers,
		BotCount:          cfg.BotCount,
		SpiderCount:       cfg.SpiderCount,
		IdleTimeoutTicks:  cfg.IdleTimeoutTicks,
		RespawnDelayTicks: cfg.RespawnDelayTicks,
		Weapons:           cfg.Weapons,
		Seed:              cfg.Seed,
	}, sim.Deps{
		Logger:  telemetry.WrapZap(logger),
		Metrics: counters,
		OnEvent: matchLog.Record,
	})

	hub := newHub(cfg, engine, logger, counters, recorder)
	loop := sim.NewLoop(engine, sim.LoopConfig{
		TickRate:        cfg.TickRate,
		CommandCapacity: cfg.InputQueueCapacity,
	}, sim.LoopHooks{AfterStep: hub.afterStep})
	hub.setLoop(loop)

	stop := make(chan struct{})
	go loop.Run(stop)

	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewHandler(hub, ws.HandlerConfig{
		Logger:  telemetry.WrapZap(logger),
		Metrics: counters,
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(counters.Snapshot())
	})

	server := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		logger.Infow("listening", "addr", *addr, "tick_rate", cfg.TickRate, "bots", cfg.BotCount)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("http server failed", "err", err)
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	<-signals
	logger.Infow("shutting down")

	close(stop)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warnw("http shutdown incomplete", "err", err)
	}
}
