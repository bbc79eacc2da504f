// Package codec implements the fixed 32-byte on-disk PositionEntry format
// training data is stored in, and its round trip to/from chess.Position.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/hailam/nnueval/internal/chess"
)

// EntrySize is the fixed, binding wire size of a PositionEntry.
const EntrySize = 32

// WDL is the game result recorded alongside a position, from White's
// point of view.
type WDL uint8

const (
	WhiteWins WDL = 0
	Draw      WDL = 1
	BlackWins WDL = 2
)

func (w WDL) String() string {
	switch w {
	case WhiteWins:
		return "1-0"
	case Draw:
		return "1/2-1/2"
	case BlackWins:
		return "0-1"
	default:
		return "?"
	}
}

// PositionEntry is the fixed-size training record: a packed board plus
// the score/result/counters a training pipeline needs. Layout, little
// endian, no padding:
//
//	occupied      uint64   8   bitboard of occupied squares
//	pieces        [16]byte 16  4-bit piece code per occupied square, in
//	                            ascending square order (LSB to MSB scan)
//	flags         uint8    1   bits 0-3 castling rights, bit 4 side to move
//	enPassant     uint8    1   0xff if none, else square index
//	score         int16    2   centipawns, side-to-move POV
//	wdl           uint8    1   WDL
//	halfMoveCount uint8    1   half-move clock
//	moveCount     uint16   2   full move number
//
// Total: 32 bytes.
type PositionEntry struct {
	Occupied      uint64
	Pieces        [16]byte
	Flags         uint8
	EnPassant     uint8
	Score         int16
	WDL           WDL
	HalfMoveCount uint8
	MoveCount     uint16
}

const noEnPassant = 0xff

// PackPosition encodes pos, score, and result into a PositionEntry.
// score is centipawns from pos.SideToMove's point of view.
func PackPosition(pos *chess.Position, score int16, wdl WDL) PositionEntry {
	var e PositionEntry
	e.Occupied = uint64(pos.AllOccupied)

	nibbleIndex := 0
	bb := pos.AllOccupied
	for bb != 0 {
		sq := bb.PopLSB()
		piece := pos.PieceAt(sq)
		setNibble(&e.Pieces, nibbleIndex, byte(piece))
		nibbleIndex++
	}

	e.Flags = uint8(pos.CastlingRights)
	if pos.SideToMove == chess.Black {
		e.Flags |= 1 << 4
	}

	if pos.EnPassant.IsValid() {
		e.EnPassant = uint8(pos.EnPassant)
	} else {
		e.EnPassant = noEnPassant
	}

	e.Score = score
	e.WDL = wdl
	e.HalfMoveCount = uint8(clampByte(pos.HalfMoveClock))
	e.MoveCount = uint16(pos.FullMoveNumber)
	return e
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func setNibble(dst *[16]byte, index int, value byte) {
	b := index / 2
	if index%2 == 0 {
		dst[b] = (dst[b] &^ 0x0f) | (value & 0x0f)
	} else {
		dst[b] = (dst[b] &^ 0xf0) | ((value & 0x0f) << 4)
	}
}

func getNibble(src *[16]byte, index int) byte {
	b := src[index/2]
	if index%2 == 0 {
		return b & 0x0f
	}
	return b >> 4
}

// UnpackPosition decodes e into a chess.Position, along with the score
// and result it carried. It returns an error if the packed board is
// internally inconsistent (e.g. more than 32 occupied squares, or a
// nibble naming an invalid piece) — a fatal consistency error for a
// training pipeline, per spec.
func UnpackPosition(e *PositionEntry) (*chess.Position, int16, WDL, error) {
	occupied := chess.Bitboard(e.Occupied)
	if occupied.PopCount() > 32 {
		return nil, 0, 0, fmt.Errorf("codec: packed board has %d occupied squares, want <= 32", occupied.PopCount())
	}

	pos := &chess.Position{EnPassant: chess.NoSquare, FullMoveNumber: 1}
	pos.KingSquare[chess.White] = chess.NoSquare
	pos.KingSquare[chess.Black] = chess.NoSquare

	bb := occupied
	nibbleIndex := 0
	for bb != 0 {
		sq := bb.PopLSB()
		piece := chess.Piece(getNibble(&e.Pieces, nibbleIndex))
		if piece >= chess.NoPiece {
			return nil, 0, 0, fmt.Errorf("codec: invalid piece code %d at square %d", piece, sq)
		}
		c, pt := piece.Color(), piece.Type()
		bit := chess.SquareBB(sq)
		pos.Pieces[c][pt] |= bit
		pos.Occupied[c] |= bit
		pos.AllOccupied |= bit
		if pt == chess.King {
			pos.KingSquare[c] = sq
		}
		nibbleIndex++
	}

	if !pos.KingSquare[chess.White].IsValid() || !pos.KingSquare[chess.Black].IsValid() {
		return nil, 0, 0, fmt.Errorf("codec: packed board missing a king")
	}

	pos.CastlingRights = chess.CastlingRights(e.Flags & 0x0f)
	if e.Flags&(1<<4) != 0 {
		pos.SideToMove = chess.Black
	} else {
		pos.SideToMove = chess.White
	}

	if e.EnPassant == noEnPassant {
		pos.EnPassant = chess.NoSquare
	} else {
		sq := chess.Square(e.EnPassant)
		if !sq.IsValid() {
			return nil, 0, 0, fmt.Errorf("codec: invalid en passant square %d", e.EnPassant)
		}
		pos.EnPassant = sq
	}

	pos.HalfMoveClock = int(e.HalfMoveCount)
	pos.FullMoveNumber = int(e.MoveCount)
	if pos.FullMoveNumber == 0 {
		pos.FullMoveNumber = 1
	}

	return pos, e.Score, e.WDL, nil
}

// Marshal encodes e into a 32-byte little-endian buffer.
func (e *PositionEntry) Marshal() [EntrySize]byte {
	var buf [EntrySize]byte
	binary.LittleEndian.PutUint64(buf[0:8], e.Occupied)
	copy(buf[8:24], e.Pieces[:])
	buf[24] = e.Flags
	buf[25] = e.EnPassant
	binary.LittleEndian.PutUint16(buf[26:28], uint16(e.Score))
	buf[28] = uint8(e.WDL)
	buf[29] = e.HalfMoveCount
	binary.LittleEndian.PutUint16(buf[30:32], e.MoveCount)
	return buf
}

// UnmarshalPositionEntry decodes a 32-byte little-endian buffer.
func UnmarshalPositionEntry(buf []byte) (PositionEntry, error) {
	var e PositionEntry
	if len(buf) != EntrySize {
		return e, fmt.Errorf("codec: PositionEntry must be %d bytes, got %d", EntrySize, len(buf))
	}
	e.Occupied = binary.LittleEndian.Uint64(buf[0:8])
	copy(e.Pieces[:], buf[8:24])
	e.Flags = buf[24]
	e.EnPassant = buf[25]
	e.Score = int16(binary.LittleEndian.Uint16(buf[26:28]))
	e.WDL = WDL(buf[28])
	e.HalfMoveCount = buf[29]
	e.MoveCount = binary.LittleEndian.Uint16(buf[30:32])
	return e, nil
}
