// Command replay inspects a recorded snapshot stream: by default it
// prints a per-recording summary, with -dump it prints every frame.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"run-and-gun/server/internal/proto"
	"run-and-gun/server/internal/replay"
)

func main() {
	dump := flag.Bool("dump", false, "print every frame instead of a summary")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-dump] <file.replay>\n", os.Args[0])
		os.Exit(2)
	}

	reader, err := replay.OpenReader(flag.Arg(0))
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer reader.Close()

	var (
		frames     int
		firstTick  uint32
		lastTick   uint32
		totalBytes int
		maxPlayers int
	)

	for {
		tick, payload, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("read: %v", err)
		}
		snap, err := proto.DecodeSnapshot(payload)
		if err != nil {
			log.Fatalf("frame at tick %d: %v", tick, err)
		}

		if frames == 0 {
			firstTick = tick
		}
		frames++
		lastTick = tick
		totalBytes += len(payload)
		if len(snap.Players) > maxPlayers {
			maxPlayers = len(snap.Players)
		}

		if *dump {
			fmt.Printf("tick %d (%d bytes, %d players)\n", tick, len(payload), len(snap.Players))
			for _, p := range snap.Players {
				state := "alive"
				if !p.Active {
					state = "down"
				}
				kind := "player"
				if p.IsBot {
					kind = "bot"
				}
				fmt.Printf("  #%d %s %s hp=%d pos=(%.2f, %.2f, %.2f) seq=%d\n",
					p.ID, kind, state, p.Health, p.X, p.Y, p.Z, p.LastSeq)
			}
		}
	}

	if frames == 0 {
		fmt.Println("empty recording")
		return
	}
	fmt.Printf("%d frames, ticks %d..%d, %d bytes of snapshots, up to %d players\n",
		frames, firstTick, lastTick, totalBytes, maxPlayers)
}
