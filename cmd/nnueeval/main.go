// Command nnueeval loads a network weight file and prints its
// evaluation of a FEN position, comparing the incremental evaluator's
// output against the classical fallback.
package main

import (
	"flag"
	"log"

	"github.com/hailam/nnueval/internal/chess"
	"github.com/hailam/nnueval/internal/classical"
	"github.com/hailam/nnueval/internal/evaluator"
	"github.com/hailam/nnueval/internal/nnue"
)

func main() {
	weightsPath := flag.String("weights", "", "path to a network weight file (random weights if empty)")
	fen := flag.String("fen", chess.StartFEN, "FEN of the position to evaluate")
	seed := flag.Int64("seed", 1, "seed for random weights, when -weights is empty")
	flag.Parse()

	pos, err := chess.ParseFEN(*fen)
	if err != nil {
		log.Fatalf("invalid FEN %q: %v", *fen, err)
	}

	network := nnue.NewNetwork()
	if *weightsPath != "" {
		if err := network.LoadWeights(*weightsPath); err != nil {
			log.Fatalf("load weights: %v", err)
		}
		log.Printf("loaded weights from %s", *weightsPath)
	} else {
		network.InitRandom(*seed)
		log.Printf("no -weights given, using random weights (seed %d)", *seed)
	}

	node := evaluator.NewNode(pos)
	nnScore := evaluator.Evaluate(network, node)
	classicalScore := classical.Evaluate(pos)

	log.Printf("nnue:      %+d cp (side to move: %v)", nnScore, pos.SideToMove)
	log.Printf("classical: %+d cp", classicalScore)
}
