// Package classical implements the static, non-NNUE evaluation the
// sampler's rejection filter needs (spec.md §6's "Evaluate(position)
// capability required by the sampler"): tapered material plus
// piece-square tables, condensed from the search engine's full
// evaluation into the handful of terms a filter's confirmation check
// needs.
package classical

import "github.com/hailam/nnueval/internal/chess"

// Piece-square tables, White's perspective; mirrored for Black. Values
// in centipawns.
var (
	pawnPST = [64]int32{
		0, 0, 0, 0, 0, 0, 0, 0,
		50, 50, 50, 50, 50, 50, 50, 50,
		10, 10, 20, 30, 30, 20, 10, 10,
		5, 5, 10, 25, 25, 10, 5, 5,
		0, 0, 0, 20, 20, 0, 0, 0,
		5, -5, -10, 0, 0, -10, -5, 5,
		5, 10, 10, -20, -20, 10, 10, 5,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	knightPST = [64]int32{
		-50, -40, -30, -30, -30, -30, -40, -50,
		-40, -20, 0, 0, 0, 0, -20, -40,
		-30, 0, 10, 15, 15, 10, 0, -30,
		-30, 5, 15, 20, 20, 15, 5, -30,
		-30, 0, 15, 20, 20, 15, 0, -30,
		-30, 5, 10, 15, 15, 10, 5, -30,
		-40, -20, 0, 5, 5, 0, -20, -40,
		-50, -40, -30, -30, -30, -30, -40, -50,
	}
	bishopPST = [64]int32{
		-20, -10, -10, -10, -10, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 10, 10, 5, 0, -10,
		-10, 5, 5, 10, 10, 5, 5, -10,
		-10, 0, 10, 10, 10, 10, 0, -10,
		-10, 10, 10, 10, 10, 10, 10, -10,
		-10, 5, 0, 0, 0, 0, 5, -10,
		-20, -10, -10, -10, -10, -10, -10, -20,
	}
	rookPST = [64]int32{
		0, 0, 0, 0, 0, 0, 0, 0,
		5, 10, 10, 10, 10, 10, 10, 5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		0, 0, 0, 5, 5, 0, 0, 0,
	}
	queenPST = [64]int32{
		-20, -10, -10, -5, -5, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 5, 5, 5, 0, -10,
		-5, 0, 5, 5, 5, 5, 0, -5,
		0, 0, 5, 5, 5, 5, 0, -5,
		-10, 5, 5, 5, 5, 5, 0, -10,
		-10, 0, 5, 0, 0, 0, 0, -10,
		-20, -10, -10, -5, -5, -10, -10, -20,
	}
	kingMidgamePST = [64]int32{
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-20, -30, -30, -40, -40, -30, -30, -20,
		-10, -20, -20, -20, -20, -20, -20, -10,
		20, 20, 0, 0, 0, 0, 20, 20,
		20, 30, 10, 0, 0, 10, 30, 20,
	}
	kingEndgamePST = [64]int32{
		-50, -40, -30, -20, -20, -30, -40, -50,
		-30, -20, -10, 0, 0, -10, -20, -30,
		-30, -10, 20, 30, 30, 20, -10, -30,
		-30, -10, 30, 40, 40, 30, -10, -30,
		-30, -10, 30, 40, 40, 30, -10, -30,
		-30, -10, 20, 30, 30, 20, -10, -30,
		-30, -30, 0, 0, 0, 0, -30, -30,
		-50, -30, -30, -30, -30, -30, -30, -50,
	}

	pieceSquareTables = [5][64]int32{pawnPST, knightPST, bishopPST, rookPST, queenPST}

	// phaseWeight scales each piece type's contribution to the tapered
	// middlegame/endgame blend; totalPhase is the sum at the starting
	// position (4 knights + 4 bishops + 4 rooks*2 + 2 queens*4).
	phaseWeight = [6]int32{0, 1, 1, 2, 4, 0}
	totalPhase  = int32(4*1 + 4*1 + 4*2 + 2*4)
)

func mirror(sq chess.Square) chess.Square {
	return chess.NewSquare(sq.File(), 7-sq.Rank())
}

// Evaluate returns a tapered material-plus-PST score for pos in
// centipawns from pos.SideToMove's point of view, matching the sign
// convention every consumer downstream (the sampler's filter, the WDL
// confirmation term) expects.
func Evaluate(pos *chess.Position) int32 {
	var mg, eg, phase int32

	for c := chess.White; c <= chess.Black; c++ {
		sign := int32(1)
		if c == chess.Black {
			sign = -1
		}
		for pt := chess.Pawn; pt <= chess.King; pt++ {
			bb := pos.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				mg += sign * chess.PieceValue[pt]
				eg += sign * chess.PieceValue[pt]

				pstSq := sq
				if c == chess.Black {
					pstSq = mirror(sq)
				}
				if pt == chess.King {
					mg += sign * kingMidgamePST[pstSq]
					eg += sign * kingEndgamePST[pstSq]
				} else {
					v := pieceSquareTables[pt][pstSq]
					mg += sign * v
					eg += sign * v
				}
				phase += phaseWeight[pt]
			}
		}
	}

	if phase > totalPhase {
		phase = totalPhase
	}
	score := (mg*phase + eg*(totalPhase-phase)) / totalPhase

	if pos.SideToMove == chess.Black {
		score = -score
	}
	return score
}
