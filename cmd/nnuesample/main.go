// Command nnuesample draws positions from a directory of training-data
// files through the sampler's rejection filter chain, and optionally
// checkpoints its file cursors so a later run resumes rather than
// re-seeding from random offsets.
package main

import (
	"flag"
	"log"
	"math/rand"
	"time"

	"github.com/hailam/nnueval/internal/checkpoint"
	"github.com/hailam/nnueval/internal/sampler"
)

func main() {
	dataDir := flag.String("data", "", "directory of PositionEntry training files")
	checkpointDir := flag.String("checkpoint", "", "BadgerDB directory for cursor checkpoints (optional)")
	count := flag.Int("count", 10, "number of positions to sample")
	kingBucket := flag.Int("king-bucket", -1, "restrict to this 32-slot king bucket, or -1 for the default king-rank filter")
	seed := flag.Int64("seed", time.Now().UnixNano(), "RNG seed")
	flag.Parse()

	if *dataDir == "" {
		log.Fatal("-data is required")
	}

	var store *checkpoint.Store
	if *checkpointDir != "" {
		var err error
		store, err = checkpoint.Open(*checkpointDir)
		if err != nil {
			log.Fatalf("open checkpoint store: %v", err)
		}
		defer store.Close()
	}

	loader := sampler.NewLoader(rand.New(rand.NewSource(*seed)))
	ok, err := loader.Init(*dataDir)
	if err != nil {
		log.Fatalf("init loader: %v", err)
	}
	if !ok {
		log.Fatalf("no usable training files found in %s", *dataDir)
	}
	defer loader.Close()

	if store != nil {
		for fileName := range loader.Cursors() {
			if cursor, found, err := store.LoadCursor(fileName); err == nil && found {
				loader.RestoreCursor(fileName, cursor)
			}
		}
	}

	for i := 0; i < *count; i++ {
		entry, pos, err := loader.FetchNext(*kingBucket)
		if err != nil {
			log.Fatalf("fetch next: %v", err)
		}
		log.Printf("[%d] score=%d wdl=%s halfMoveCount=%d moveCount=%d sideToMove=%v pieces=%d",
			i, entry.Score, entry.WDL, entry.HalfMoveCount, entry.MoveCount, pos.SideToMove, pos.NumPieces())
	}

	if store != nil {
		for fileName, cursor := range loader.Cursors() {
			if err := store.SaveCursor(fileName, cursor); err != nil {
				log.Printf("save cursor for %s: %v", fileName, err)
			}
		}
	}
}
