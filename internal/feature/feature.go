// Package feature implements the sparse position encoder: mapping a
// (position, perspective) pair to indices into the network's 736-wide
// input space.
//
// Layout, in order (see NeuralNetworkEvaluator.cpp PositionToFeaturesVector
// in the original engine this was distilled from):
//
//	own pawns/knights/bishops/rooks/queens   5*64 = 320
//	own king (file < 4 after flip)                 32
//	opponent pawns/knights/bishops/rooks/queens  5*64 = 320
//	opponent king                                  64
//	                                        total  736
package feature

import "github.com/hailam/nnueval/internal/chess"

const (
	squaresPerPieceType = 64
	ownKingSlots        = 32
	pieceTypesExOwnKing = 5 // pawn, knight, bishop, rook, queen

	// Size is the total input feature-space width.
	Size = 32 + 64 + 10*64

	// MaxFeatures bounds the number of active features a single
	// perspective can ever emit: one per piece on the board (both kings
	// included, so 32 at most from a legal position), with room up to 64.
	MaxFeatures = 64

	ownBlockSize = pieceTypesExOwnKing*squaresPerPieceType + ownKingSlots // 352
)

// pieceOrder is the fixed pawn/knight/bishop/rook/queen iteration order
// that both Indices and DeltaIndex must agree on.
var pieceOrder = [5]chess.PieceType{chess.Pawn, chess.Knight, chess.Bishop, chess.Rook, chess.Queen}

// flipMask returns the combined square XOR mask for perspective p in
// position pos: rank-flip if p is Black, file-flip if p's king sits on
// files e-h. Both may apply; they compose by XOR.
func flipMask(pos *chess.Position, p chess.Color) chess.Square {
	var mask chess.Square
	if p == chess.Black {
		mask ^= 0b111000
	}
	if pos.KingSquare[p].File() >= 4 {
		mask ^= 0b000111
	}
	return mask
}

func flip(sq chess.Square, mask chess.Square) chess.Square {
	return sq ^ mask
}

// Indices writes the active feature indices for (pos, perspective) into
// dst (which must have capacity >= MaxFeatures) and returns the slice of
// indices actually written. Two calls for the same (pos, perspective)
// always produce the same multiset (spec property 1).
func Indices(pos *chess.Position, perspective chess.Color, dst []uint16) []uint16 {
	dst = dst[:0]
	mask := flipMask(pos, perspective)
	opponent := perspective.Other()

	base := uint16(0)
	for _, pt := range pieceOrder {
		bb := pos.Pieces[perspective][pt]
		for bb != 0 {
			sq := bb.PopLSB()
			dst = append(dst, base+uint16(flip(sq, mask)))
		}
		base += squaresPerPieceType
	}

	// Own king: 32-slot subspace, requires file < 4 post-flip.
	{
		ksq := flip(pos.KingSquare[perspective], mask)
		dst = append(dst, base+uint16(4*ksq.Rank()+ksq.File()))
		base += ownKingSlots
	}

	for _, pt := range pieceOrder {
		bb := pos.Pieces[opponent][pt]
		for bb != 0 {
			sq := bb.PopLSB()
			dst = append(dst, base+uint16(flip(sq, mask)))
		}
		base += squaresPerPieceType
	}

	// Opponent king: full 64 slots.
	{
		ksq := flip(pos.KingSquare[opponent], mask)
		dst = append(dst, base+uint16(ksq))
	}

	return dst
}

// DeltaIndex computes the single feature index that a piece of type
// pieceType/pieceColor placed on square would occupy in perspective p's
// feature vector for position pos. It must agree exactly with what
// Indices would emit for that piece — the cross-cut invariant between the
// refresh and incremental-update paths (spec property 5).
//
// pos must be the position in whose frame the index is computed — for
// incremental updates that is always the *descendant* node's position,
// since king-square dependence has to be resolved in the target frame.
func DeltaIndex(pt chess.PieceType, pieceColor chess.Color, sq chess.Square, pos *chess.Position, perspective chess.Color) uint32 {
	mask := flipMask(pos, perspective)
	rel := flip(sq, mask)

	if pt == chess.King && pieceColor == perspective {
		// Own king: 32-slot subspace, no opponent-block offset.
		return uint32(pieceTypesExOwnKing*squaresPerPieceType) + uint32(4*rel.Rank()+rel.File())
	}

	var relIndex uint32
	if pt == chess.King {
		// Opponent king: full 64 slots, placed after the opponent's five
		// non-king piece types within its block.
		relIndex = uint32(pieceTypesExOwnKing*squaresPerPieceType) + uint32(rel)
	} else {
		relIndex = uint32(pieceTypeOrderIndex(pt))*squaresPerPieceType + uint32(rel)
	}

	if pieceColor != perspective {
		relIndex += ownBlockSize
	}
	return relIndex
}

func pieceTypeOrderIndex(pt chess.PieceType) int {
	for i, p := range pieceOrder {
		if p == pt {
			return i
		}
	}
	return -1
}

// Bucket computes the network-variant bucket in [0, 16) for pos: 8 piece
// count buckets crossed with queen presence.
func Bucket(pos *chess.Position) uint32 {
	const numPieceCountBuckets = 8
	nonKing := pos.NumNonKingPieces()
	if nonKing < 0 {
		nonKing = 0
	}
	pieceCountBucket := uint32(nonKing / 4)
	if pieceCountBucket > numPieceCountBuckets-1 {
		pieceCountBucket = numPieceCountBuckets - 1
	}
	var queenBucket uint32
	if pos.HasQueens() {
		queenBucket = 1
	}
	return queenBucket*numPieceCountBuckets + pieceCountBucket
}
