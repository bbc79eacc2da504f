package chess

import "testing"

func TestNewPositionStartingSetup(t *testing.T) {
	pos := NewPosition()

	if pos.SideToMove != White {
		t.Errorf("expected White to move, got %v", pos.SideToMove)
	}
	if pos.NumPieces() != 32 {
		t.Errorf("expected 32 pieces, got %d", pos.NumPieces())
	}
	if pos.KingSquare[White] != E1 {
		t.Errorf("expected white king on e1, got %v", pos.KingSquare[White])
	}
	if pos.KingSquare[Black] != E8 {
		t.Errorf("expected black king on e8, got %v", pos.KingSquare[Black])
	}
	if !pos.HasQueens() {
		t.Error("starting position should have queens")
	}
}

func TestApplyMoveQuietPawnPush(t *testing.T) {
	pos := NewPosition()
	dirty := pos.ApplyMove(NewMove(E2, E4))

	if len(dirty) != 1 {
		t.Fatalf("expected 1 dirty piece for a quiet move, got %d", len(dirty))
	}
	if pos.PieceAt(E4) != WhitePawn {
		t.Errorf("expected white pawn on e4, got %v", pos.PieceAt(E4))
	}
	if pos.PieceAt(E2) != NoPiece {
		t.Errorf("expected e2 to be empty")
	}
	if pos.EnPassant != E3 {
		t.Errorf("expected en passant square e3, got %v", pos.EnPassant)
	}
	if pos.HalfMoveClock != 0 {
		t.Errorf("pawn move should reset half-move clock, got %d", pos.HalfMoveClock)
	}
}

func TestApplyMoveCapture(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/pppp1ppp/8/4p3/3P4/8/PPP1PPPP/RNBQKBNR w KQkq - 0 2")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	dirty := pos.ApplyMove(NewMove(D4, E5))
	if len(dirty) != 2 {
		t.Fatalf("expected 2 dirty pieces for a capture, got %d", len(dirty))
	}
	if pos.NumPieces() != 31 {
		t.Errorf("expected 31 pieces after capture, got %d", pos.NumPieces())
	}
}

func TestApplyMoveCastlingProducesTwoDirtyPiecesNoCapture(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	dirty := pos.ApplyMove(Move{From: E1, To: G1, Castling: true})
	if len(dirty) != 2 {
		t.Fatalf("expected 2 dirty pieces for castling, got %d", len(dirty))
	}
	if pos.HalfMoveClock != 1 {
		t.Errorf("castling is not a capture or pawn move, half-move clock should increment, got %d", pos.HalfMoveClock)
	}
	if pos.PieceAt(F1) != WhiteRook {
		t.Errorf("expected rook on f1 after kingside castle, got %v", pos.PieceAt(F1))
	}
}

func TestApplyMoveEnPassant(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	dirty := pos.ApplyMove(Move{From: E5, To: D6, EnPassant: true})
	if len(dirty) != 2 {
		t.Fatalf("expected 2 dirty pieces for en passant, got %d", len(dirty))
	}
	if pos.PieceAt(D5) != NoPiece {
		t.Error("captured pawn should be removed from d5")
	}
	if pos.PieceAt(D6) != WhitePawn {
		t.Error("capturing pawn should land on d6")
	}
}

func TestParseFENRoundTripsPieceCount(t *testing.T) {
	fen := "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3"
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if pos.NumPieces() != 32 {
		t.Errorf("expected 32 pieces, got %d", pos.NumPieces())
	}
	if pos.FullMoveNumber != 3 {
		t.Errorf("expected full move number 3, got %d", pos.FullMoveNumber)
	}
}
