// Command bot is a headless client for load testing and soak runs. It
// connects like a real player, sends wandering input at the tick rate,
// and runs the client-side predictor against the snapshot stream so
// reconciliation drift shows up in the logs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"run-and-gun/server/internal/phys"
	"run-and-gun/server/internal/predict"
	"run-and-gun/server/internal/proto"
	"run-and-gun/server/logging"
)

func main() {
	var (
		url      = flag.String("url", "ws://127.0.0.1:8080/ws", "server websocket endpoint")
		fire     = flag.Bool("fire", true, "fire the weapon while wandering")
		duration = flag.Duration("duration", 0, "exit after this long; 0 runs until interrupted")
		debug    = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logger := logging.New("", *debug)
	defer logging.Sync(logger)

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalw("dial failed", "url", *url, "err", err)
	}
	defer conn.Close()

	_, payload, err := conn.ReadMessage()
	if err != nil {
		logger.Fatalw("handshake read failed", "err", err)
	}
	var welcome proto.Welcome
	if err := json.Unmarshal(payload, &welcome); err != nil || welcome.Type != proto.WelcomeType {
		logger.Fatalw("unexpected handshake payload", "err", err)
	}
	logger.Infow("connected", "id", welcome.ID, "tick_rate", welcome.TickRate)

	arena := arenaFromWelcome(welcome)
	predictor := predict.New(arena)

	// Snapshot reader: reconcile on every frame carrying our record.
	snapshots := make(chan proto.Snapshot, 4)
	go func() {
		defer close(snapshots)
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind != websocket.BinaryMessage {
				continue
			}
			snap, err := proto.DecodeSnapshot(data)
			if err != nil {
				continue
			}
			select {
			case snapshots <- snap:
			default:
			}
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	var deadline <-chan time.Time
	if *duration > 0 {
		deadline = time.After(*duration)
	}

	tickRate := welcome.TickRate
	if tickRate <= 0 {
		tickRate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	yaw := rng.Float32() * 2 * math.Pi
	var sent, frames uint64

	report := time.NewTicker(5 * time.Second)
	defer report.Stop()

	for {
		select {
		case <-signals:
			logger.Infow("interrupted", "sent", sent, "snapshots", frames)
			return
		case <-deadline:
			logger.Infow("duration elapsed", "sent", sent, "snapshots", frames)
			return
		case snap, ok := <-snapshots:
			if !ok {
				logger.Warnw("server closed the connection", "sent", sent)
				return
			}
			frames++
			for _, rec := range snap.Players {
				if rec.ID == welcome.ID {
					predictor.OnSnapshot(rec)
					break
				}
			}
		case <-report.C:
			body := predictor.Body()
			logger.Infow("status",
				"pos", fmt.Sprintf("(%.1f, %.1f, %.1f)", body.X, body.Y, body.Z),
				"pending", predictor.Pending(),
				"divergence", predictor.LastDivergence(),
				"hard_snaps", predictor.HardSnaps(),
			)
		case <-ticker.C:
			// Drunkard's walk with occasional jumps.
			yaw += (rng.Float32() - 0.5) * 0.2
			cmd := phys.Command{
				MoveZ: 1,
				Yaw:   yaw,
				Jump:  rng.Float32() < 0.01,
			}
			seq := predictor.Sample(cmd)

			frame := proto.InputFrame{
				Seq:   seq,
				MoveX: cmd.MoveX,
				MoveZ: cmd.MoveZ,
				Yaw:   cmd.Yaw,
				Pitch: cmd.Pitch,
				Fire:  *fire && rng.Float32() < 0.05,
				Jump:  cmd.Jump,
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, proto.AppendInput(nil, frame)); err != nil {
				logger.Warnw("write failed", "err", err)
				return
			}
			sent++
		}
	}
}

func arenaFromWelcome(w proto.Welcome) *phys.Arena {
	arena := &phys.Arena{HalfExtent: w.WorldHalfExtent}
	for _, wall := range w.Walls {
		arena.Walls = append(arena.Walls, phys.Wall{
			MinX: wall.MinX, MaxX: wall.MaxX, MinZ: wall.MinZ, MaxZ: wall.MaxZ,
		})
	}
	for _, p := range w.Platforms {
		arena.Platforms = append(arena.Platforms, phys.Platform{
			MinX: p.MinX, MaxX: p.MaxX, MinZ: p.MinZ, MaxZ: p.MaxZ, Height: p.Height,
		})
	}
	return arena
}
