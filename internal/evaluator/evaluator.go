// Package evaluator implements the incremental NNUE evaluator: given a
// search-tree node with a parent chain, it resolves each perspective's
// accumulator either by walking back to a cached ancestor and applying
// incremental feature updates, or by refreshing from scratch, whichever
// is cheaper, then runs the network to a score.
//
// This mirrors NNEvaluator::Evaluate(NodeInfo&) and UpdateAccumulator in
// the original engine's NeuralNetworkEvaluator.cpp: the same refresh-cost
// vs update-cost race, the same king-side-crossing refresh trigger, and
// the same two-stage update that shares work with sibling nodes by
// updating the parent's accumulator first when it is also stale.
package evaluator

import (
	"sync/atomic"

	"github.com/hailam/nnueval/internal/chess"
	"github.com/hailam/nnueval/internal/feature"
	"github.com/hailam/nnueval/internal/nnue"
)

// StatsEnabled gates the accumulator-update/refresh counters below.
// spec.md §9 calls these an optional, compile-time-switched diagnostic
// that must never sit on the hot path when disabled — checking a single
// bool is the cost paid either way.
var StatsEnabled = false

var (
	numAccumulatorUpdates   atomic.Uint64
	numAccumulatorRefreshes atomic.Uint64
)

// Stats returns the process-wide accumulator update/refresh counts.
func Stats() (updates, refreshes uint64) {
	return numAccumulatorUpdates.Load(), numAccumulatorRefreshes.Load()
}

// ResetStats zeroes the process-wide accumulator update/refresh counts.
func ResetStats() {
	numAccumulatorUpdates.Store(0)
	numAccumulatorRefreshes.Store(0)
}

// invalidScore marks a node's cached NNScore as not-yet-computed. Real
// centipawn scores fit comfortably away from this sentinel.
const invalidScore = int32(1 << 30)

// leftFiles is the a-d file mask, used to detect a king crossing the
// e-h/a-d boundary between a node and its ancestor — such a crossing
// changes the file-flip applied to every feature index, invalidating any
// accumulator computed on the other side of it.
const leftFiles = chess.Bitboard(0x0F0F0F0F0F0F0F0F)

// NNContext is the per-node NNUE state a search tree attaches to every
// node it visits: the two perspective accumulators, whether each is
// stale relative to node.Position, the dirty pieces that produced this
// node from its parent, and a cached final score.
type NNContext struct {
	Accumulator [2]nnue.Accumulator
	AccumDirty  [2]bool
	DirtyPieces []chess.DirtyPiece
	NNScore     int32
}

// NewNNContext returns a context with both accumulators marked dirty and
// no cached score, as a freshly visited node should start.
func NewNNContext() *NNContext {
	return &NNContext{
		AccumDirty: [2]bool{true, true},
		NNScore:    invalidScore,
	}
}

// Node is one position in the search tree, linked to its parent so the
// evaluator can walk back over the move history looking for a reusable
// accumulator.
type Node struct {
	Position   *chess.Position
	ParentNode *Node
	NN         *NNContext
}

// NewNode wraps pos as a root node with no parent and a fresh NN context.
func NewNode(pos *chess.Position) *Node {
	return &Node{Position: pos, NN: NewNNContext()}
}

// Child links a new node for childPos below n, recording the dirty
// pieces ApplyMove produced. The child's accumulators start dirty; they
// are populated lazily by the next Evaluate call on it or a descendant.
func (n *Node) Child(childPos *chess.Position, dirty []chess.DirtyPiece) *Node {
	return &Node{
		Position:   childPos,
		ParentNode: n,
		NN:         &NNContext{AccumDirty: [2]bool{true, true}, NNScore: invalidScore, DirtyPieces: dirty},
	}
}

// Evaluate returns node's NNUE score, resolving accumulators along the
// parent chain as needed and running network for the selected variant
// bucket. Repeated calls on the same node are cheap: the score is cached
// in node.NN.NNScore (spec property: idempotent evaluation).
func Evaluate(network *nnue.Network, node *Node) int32 {
	if node.NN.NNScore != invalidScore {
		return node.NN.NNScore
	}

	refreshCost := node.Position.NumPieces()

	var kingSide [2]bool
	kingSide[chess.White] = leftFiles&chess.SquareBB(node.Position.KingSquare[chess.White]) != 0
	kingSide[chess.Black] = leftFiles&chess.SquareBB(node.Position.KingSquare[chess.Black]) != 0

	for _, perspective := range [2]chess.Color{chess.White, chess.Black} {
		resolvePerspective(network, node, perspective, refreshCost, kingSide[perspective])
	}

	own := &node.NN.Accumulator[node.Position.SideToMove]
	their := &node.NN.Accumulator[node.Position.SideToMove.Other()]
	variant := feature.Bucket(node.Position)

	score := network.Run(own, their, variant)
	node.NN.NNScore = score
	return score
}

// resolvePerspective finds the closest ancestor with a valid accumulator
// for perspective, decides whether to refresh or incrementally update,
// and leaves node.NN.Accumulator[perspective] populated and non-dirty.
func resolvePerspective(network *nnue.Network, node *Node, perspective chess.Color, refreshCost int, wantKingSide bool) {
	updateCost := 0
	var prevAccumNode *Node
	for n := node; n != nil; n = n.ParentNode {
		updateCost += len(n.NN.DirtyPieces)
		if updateCost > refreshCost {
			// Incremental update would touch more feature rows than a
			// from-scratch refresh; not worth walking further.
			break
		}

		kingSide := leftFiles&chess.SquareBB(n.Position.KingSquare[perspective]) != 0
		if kingSide != wantKingSide {
			// The king crossed the file-flip boundary somewhere between
			// n and node; any accumulator on n's side of it is invalid
			// for node's frame.
			break
		}

		if !n.NN.AccumDirty[perspective] {
			prevAccumNode = n
			break
		}
	}

	if prevAccumNode == node {
		return
	}

	if node.ParentNode != nil && prevAccumNode != nil &&
		node.ParentNode != prevAccumNode &&
		node.ParentNode.NN.AccumDirty[perspective] {
		// Two-stage update: bring the parent's accumulator current first
		// so sibling nodes (other moves from the same parent) can reuse
		// it instead of each re-walking back to prevAccumNode.
		updateAccumulator(network, prevAccumNode, node.ParentNode, perspective)
		updateAccumulator(network, node.ParentNode, node, perspective)
	} else {
		updateAccumulator(network, prevAccumNode, node, perspective)
	}
}

// updateAccumulator populates node.NN.Accumulator[perspective] either by
// refreshing from scratch (prevAccumNode == nil) or by walking the chain
// of dirty-piece lists from prevAccumNode down to node, translating them
// into feature index deltas and applying a single incremental update.
func updateAccumulator(network *nnue.Network, prevAccumNode, node *Node, perspective chess.Color) {
	acc := &node.NN.Accumulator[perspective]

	if prevAccumNode == nil {
		if StatsEnabled {
			numAccumulatorRefreshes.Add(1)
		}
		var features [feature.MaxFeatures]uint16
		idx := feature.Indices(node.Position, perspective, features[:0])
		acc.Refresh(network.AccumulatorWeights(), network.AccumulatorBiases(), idx)
		node.NN.AccumDirty[perspective] = false
		return
	}

	var added, removed []uint16
	for n := node; n != prevAccumNode; n = n.ParentNode {
		for _, dp := range n.NN.DirtyPieces {
			if dp.To.IsValid() {
				idx := feature.DeltaIndex(dp.Piece.Type(), dp.Piece.Color(), dp.To, node.Position, perspective)
				added = append(added, uint16(idx))
			}
			if dp.From.IsValid() {
				idx := feature.DeltaIndex(dp.Piece.Type(), dp.Piece.Color(), dp.From, node.Position, perspective)
				removed = append(removed, uint16(idx))
			}
		}
	}

	added, removed = cancelPairs(added, removed)

	if StatsEnabled {
		numAccumulatorUpdates.Add(1)
	}

	if len(added) == 0 && len(removed) == 0 {
		acc.Assign(&prevAccumNode.NN.Accumulator[perspective])
	} else {
		acc.Update(&prevAccumNode.NN.Accumulator[perspective], network.AccumulatorWeights(), added, removed)
	}
	node.NN.AccumDirty[perspective] = false
}

// cancelPairs removes matching index pairs present in both added and
// removed: a piece that both left and returned to the same feature slot
// across the walked segment contributes nothing to the final delta.
func cancelPairs(added, removed []uint16) ([]uint16, []uint16) {
	for i := 0; i < len(added); i++ {
		for j := 0; j < len(removed); j++ {
			if added[i] == removed[j] {
				added[i] = added[len(added)-1]
				added = added[:len(added)-1]
				removed[j] = removed[len(removed)-1]
				removed = removed[:len(removed)-1]
				i--
				break
			}
		}
	}
	return added, removed
}

// EvaluateStateless runs the network directly from pos with no
// accumulator reuse: the reference implementation resolvePerspective's
// incremental path is checked against, and the entry point for contexts
// with no search tree at all (e.g. the sampler's confirmation filter).
func EvaluateStateless(network *nnue.Network, pos *chess.Position) int32 {
	var ownBuf, theirBuf [feature.MaxFeatures]uint16
	own := feature.Indices(pos, pos.SideToMove, ownBuf[:0])
	their := feature.Indices(pos, pos.SideToMove.Other(), theirBuf[:0])
	return network.RunFeatures(own, their, feature.Bucket(pos))
}
