// Package sampler implements the training-data sampling stream: a
// directory of flat binary files of codec.PositionEntry records, sampled
// file-size-weighted, filtered through a chain of Bernoulli rejection
// tests intended to flatten a self-play corpus into a distribution more
// useful for training (fewer duplicate near-drawn endgames, fewer
// degenerate low-material positions, fewer already-correctly-scored
// extremes).
//
// Grounded on TrainingDataLoader / InputFileContext::FetchNextPosition in
// the original engine's utils/TrainerCommon.cpp.
package sampler

import (
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/hailam/nnueval/internal/chess"
	"github.com/hailam/nnueval/internal/classical"
	"github.com/hailam/nnueval/internal/codec"
)

// CheckmateValue mirrors the search's mate-score sentinel range; any
// stored score at or beyond it names a forced mate, not a static
// evaluation, and is unusable as a training target.
const CheckmateValue = 32000

const maxEarlyMoveCount = 10

// InputFileContext owns one training-data file: its handle, its total
// size, its current read cursor, and its per-stream jitter probability.
type InputFileContext struct {
	file                *os.File
	name                string
	size                int64
	cursor              int64
	skippingProbability float64
}

// Loader owns N file streams and the size-weighted CDF used to pick
// among them on every fetch.
type Loader struct {
	contexts []*InputFileContext
	cdf      []float64
	rng      *rand.Rand
}

// NewLoader constructs an empty Loader seeded from rng. Call Init to
// populate it from a directory.
func NewLoader(rng *rand.Rand) *Loader {
	return &Loader{rng: rng}
}

// Init scans dir for regular files larger than codec.EntrySize, opens
// each, seeks to a random entry-aligned offset, and assigns it a random
// per-stream skipping probability in [0, 0.1). It reports false if no
// file qualified — the caller should treat the loader as unusable.
func (l *Loader) Init(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("sampler: read training directory: %w", err)
	}

	var totalSize int64
	l.cdf = []float64{0}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil || info.Size() <= codec.EntrySize {
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			continue
		}

		ctx := &InputFileContext{
			file: f,
			name: path,
			size: info.Size(),
		}

		numEntries := info.Size() / codec.EntrySize
		entryIndex := l.rng.Int63n(numEntries)
		ctx.cursor = entryIndex * codec.EntrySize
		ctx.skippingProbability = l.rng.Float64() * 0.1

		l.contexts = append(l.contexts, ctx)
		totalSize += info.Size()
		l.cdf = append(l.cdf, float64(totalSize))
		log.Printf("sampler: using %s (%s)", path, humanize.Bytes(uint64(info.Size())))
	}

	if totalSize == 0 {
		return false, nil
	}
	log.Printf("sampler: admitted %d files, %s total", len(l.contexts), humanize.Bytes(uint64(totalSize)))
	for i := range l.cdf {
		l.cdf[i] /= float64(totalSize)
	}
	return len(l.contexts) > 0, nil
}

// Close releases every open file handle.
func (l *Loader) Close() error {
	var firstErr error
	for _, ctx := range l.contexts {
		if err := ctx.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Cursors returns each admitted file's current byte offset, keyed by
// path — the state a checkpoint store needs to resume sampling later
// instead of reseeding a fresh random offset per stream.
func (l *Loader) Cursors() map[string]int64 {
	cursors := make(map[string]int64, len(l.contexts))
	for _, ctx := range l.contexts {
		cursors[ctx.name] = ctx.cursor
	}
	return cursors
}

// RestoreCursor overrides fileName's cursor if it is one of the files
// Init admitted; it is a no-op otherwise (the file may have been removed
// or renamed since the checkpoint was written).
func (l *Loader) RestoreCursor(fileName string, cursor int64) {
	for _, ctx := range l.contexts {
		if ctx.name == fileName {
			ctx.cursor = cursor
			return
		}
	}
}

// sampleFileIndex returns the largest i with cdf[i] <= u, via binary
// search — files are chosen weighted by their share of total bytes.
func (l *Loader) sampleFileIndex(u float64) int {
	i := sort.Search(len(l.contexts), func(i int) bool {
		return u < l.cdf[i+1]
	})
	if i >= len(l.contexts) {
		i = len(l.contexts) - 1
	}
	return i
}

// FetchNext draws a position, applying the full rejection filter chain,
// re-drawing until one survives. kingBucket, if >= 0, restricts to
// positions where either king occupies that 32-slot bucket; if negative
// a softer king-rank preference filter runs instead.
func (l *Loader) FetchNext(kingBucket int) (codec.PositionEntry, *chess.Position, error) {
	if len(l.contexts) == 0 {
		return codec.PositionEntry{}, nil, fmt.Errorf("sampler: no input files loaded")
	}
	for {
		u := l.rng.Float64()
		idx := l.sampleFileIndex(u)
		entry, pos, ok, err := l.contexts[idx].fetchOne(l.rng, kingBucket)
		if err != nil {
			return codec.PositionEntry{}, nil, err
		}
		if ok {
			return entry, pos, nil
		}
	}
}

// bernoulli reports true with probability p (clamped to [0,1]).
func bernoulli(rng *rand.Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return rng.Float64() < p
}

// fetchOne reads one entry from the file's current cursor and runs it
// through the filter chain. ok is false if the entry was rejected by a
// filter (caller should try again, possibly from a different file); err
// is non-nil only on an unrecoverable I/O or format failure.
func (ctx *InputFileContext) fetchOne(rng *rand.Rand, kingBucket int) (codec.PositionEntry, *chess.Position, bool, error) {
	entry, err := ctx.readEntry()
	if err != nil {
		if err == io.EOF && ctx.cursor > 0 {
			ctx.cursor = 0
			entry, err = ctx.readEntry()
		}
		if err != nil {
			return codec.PositionEntry{}, nil, false, fmt.Errorf("sampler: read %s: %w", ctx.name, err)
		}
	}

	if int(entry.Score) >= CheckmateValue || int(entry.Score) <= -CheckmateValue {
		return codec.PositionEntry{}, nil, false, nil
	}

	if bernoulli(rng, ctx.skippingProbability) {
		return codec.PositionEntry{}, nil, false, nil
	}

	if entry.WDL == codec.Draw {
		if bernoulli(rng, float64(entry.HalfMoveCount)/200.0) {
			return codec.PositionEntry{}, nil, false, nil
		}
	}

	moveCount := int(entry.MoveCount)
	if moveCount < maxEarlyMoveCount {
		p := 0.5 * float64(maxEarlyMoveCount-moveCount-1) / float64(maxEarlyMoveCount)
		if bernoulli(rng, p) {
			return codec.PositionEntry{}, nil, false, nil
		}
	}

	numPieces := chess.Bitboard(entry.Occupied).PopCount()
	if numPieces <= 3 {
		return codec.PositionEntry{}, nil, false, nil
	}
	if numPieces == 4 && bernoulli(rng, 0.9) {
		return codec.PositionEntry{}, nil, false, nil
	}
	if crowded := float64(numPieces-26) / 25.0; crowded > 0 {
		if bernoulli(rng, crowded*crowded) {
			return codec.PositionEntry{}, nil, false, nil
		}
	}

	pos, score, wdl, err := codec.UnpackPosition(&entry)
	if err != nil {
		return codec.PositionEntry{}, nil, false, err
	}

	if kingBucket >= 0 {
		_, whiteBucket := kingSideAndBucket(pos.KingSquare[chess.White])
		_, blackBucket := kingSideAndBucket(pos.KingSquare[chess.Black].FlipRank())
		if whiteBucket != kingBucket && blackBucket != kingBucket {
			return codec.PositionEntry{}, nil, false, nil
		}
	} else {
		whiteKingProb := 1.0 - float64(pos.KingSquare[chess.White].Rank())/7.0
		blackKingProb := float64(pos.KingSquare[chess.Black].Rank()) / 7.0
		m := math.Min(whiteKingProb, blackKingProb)
		if bernoulli(rng, 0.25*m*m) {
			return codec.PositionEntry{}, nil, false, nil
		}
	}

	ply := 2 * moveCount
	w := EvalToWinProbability(float64(score)/100.0, ply)
	lprob := EvalToWinProbability(-float64(score)/100.0, ply)
	d := 1.0 - w - lprob
	actual := d
	if wdl == codec.WhiteWins {
		actual = w
	} else if wdl == codec.BlackWins {
		actual = lprob
	}
	if bernoulli(rng, 0.25*(1.0-actual)) {
		return codec.PositionEntry{}, nil, false, nil
	}

	s := EvalToExpectedGameScore(float64(score) / 100.0)
	e := EvalToExpectedGameScore(float64(classical.Evaluate(pos)) / 100.0)
	extremeProb := 4.0 * (s - 0.5) * (s - 0.5) * math.Max(0, 1.0-6.0*math.Abs(e-s))
	if bernoulli(rng, extremeProb) {
		return codec.PositionEntry{}, nil, false, nil
	}

	return entry, pos, true, nil
}

func (ctx *InputFileContext) readEntry() (codec.PositionEntry, error) {
	var buf [codec.EntrySize]byte
	if _, err := ctx.file.Seek(ctx.cursor, io.SeekStart); err != nil {
		return codec.PositionEntry{}, err
	}
	n, err := io.ReadFull(ctx.file, buf[:])
	if err != nil {
		return codec.PositionEntry{}, io.EOF
	}
	ctx.cursor += int64(n)
	return codec.UnmarshalPositionEntry(buf[:])
}

// kingSideAndBucket returns which half of the board sq's file falls in
// (0 = a-d, 1 = e-h) and the 32-slot king bucket index (rank*4 + file,
// file folded into 0-3), matching the own-king feature subspace.
func kingSideAndBucket(sq chess.Square) (side, bucket int) {
	file := sq.File()
	if file >= 4 {
		side = 1
		file = 7 - file
	}
	return side, sq.Rank()*4 + file
}

// EvalToWinProbability converts a centipawn-scale evaluation (in pawns)
// and ply count into a win probability via a logistic model whose slope
// widens slightly as the game progresses (endgame evaluations are noisier
// per unit of material than opening ones).
func EvalToWinProbability(evalPawns float64, ply int) float64 {
	scale := 1.5 + float64(ply)/120.0
	return 1.0 / (1.0 + math.Pow(10, -evalPawns/scale))
}

// EvalToExpectedGameScore converts a pawn-scale evaluation into an
// expected game score in [0,1], using the same logistic family as
// EvalToWinProbability at a fixed mid-game scale.
func EvalToExpectedGameScore(evalPawns float64) float64 {
	const scale = 2.5
	return 1.0 / (1.0 + math.Pow(10, -evalPawns/scale))
}
