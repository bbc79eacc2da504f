package feature

import (
	"sort"
	"testing"

	"github.com/hailam/nnueval/internal/chess"
)

func TestIndicesDeterministic(t *testing.T) {
	pos := chess.NewPosition()
	var a, b [MaxFeatures]uint16

	ia := Indices(pos, chess.White, a[:0])
	ib := Indices(pos, chess.White, b[:0])

	if len(ia) != len(ib) {
		t.Fatalf("two calls produced different lengths: %d vs %d", len(ia), len(ib))
	}
	for i := range ia {
		if ia[i] != ib[i] {
			t.Fatalf("index %d differs between calls: %d vs %d", i, ia[i], ib[i])
		}
	}
}

func TestIndicesStartingPositionWhiteKingIndex(t *testing.T) {
	pos := chess.NewPosition()
	var buf [MaxFeatures]uint16
	idx := Indices(pos, chess.White, buf[:0])

	own := 0
	for _, v := range idx {
		if v < ownBlockSize {
			own++
		}
	}
	if len(idx) != 32 || own != 16 {
		t.Fatalf("expected 32 active features for White's perspective, 16 of them White's own pieces, got %d (%d own)", len(idx), own)
	}

	const wantKingIndex = 323 // 5*64 + 3, per the worked starting-position example
	found := false
	for _, v := range idx {
		if v == wantKingIndex {
			found = true
		}
	}
	if !found {
		t.Errorf("expected feature index %d (own king, e1 file-flipped to d1) among %v", wantKingIndex, idx)
	}
}

func TestIndicesAndDeltaIndexAgree(t *testing.T) {
	pos, err := chess.ParseFEN("r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	for _, perspective := range []chess.Color{chess.White, chess.Black} {
		var buf [MaxFeatures]uint16
		want := append([]uint16{}, Indices(pos, perspective, buf[:0])...)
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

		var got []uint16
		bb := pos.AllOccupied
		for bb != 0 {
			sq := bb.PopLSB()
			piece := pos.PieceAt(sq)
			got = append(got, uint16(DeltaIndex(piece.Type(), piece.Color(), sq, pos, perspective)))
		}
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })

		if len(want) != len(got) {
			t.Fatalf("perspective %v: Indices produced %d entries, DeltaIndex sum produced %d", perspective, len(want), len(got))
		}
		for i := range want {
			if want[i] != got[i] {
				t.Errorf("perspective %v: mismatch at position %d: Indices=%d DeltaIndex=%d", perspective, i, want[i], got[i])
			}
		}
	}
}

func TestBucketRange(t *testing.T) {
	pos := chess.NewPosition()
	b := Bucket(pos)
	if b >= 16 {
		t.Errorf("bucket %d out of [0,16) range", b)
	}

	// Starting position: 30 non-king pieces, queens present.
	nonKing := pos.NumNonKingPieces()
	if nonKing != 30 {
		t.Fatalf("expected 30 non-king pieces in starting position, got %d", nonKing)
	}
	wantBucket := uint32(1*8 + 7) // queenBucket=1, pieceCountBucket capped at 7
	if b != wantBucket {
		t.Errorf("expected bucket %d, got %d", wantBucket, b)
	}
}

func TestBucketNoQueens(t *testing.T) {
	pos, err := chess.ParseFEN("4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if Bucket(pos) != 0 {
		t.Errorf("expected bucket 0 for bare kings, got %d", Bucket(pos))
	}
}
