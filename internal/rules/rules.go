// Package rules adapts the external move-generator library
// (github.com/corentings/chess/v2) to the data shapes in internal/chess.
//
// spec.md §1 and §6 treat full legal move generation as an external
// collaborator ("the move-generator library (assumed available)"); this
// package is the single seam where chessd depends on it. Every other
// package operates on internal/chess.Board, internal/chess.Move and plain
// FEN strings, and never imports corentings/chess/v2 directly.
package rules

import (
	"fmt"
	"strings"

	extchess "github.com/corentings/chess/v2"

	"github.com/eloinsight/chessd/internal/chess"
)

// Status is the coarse game status after a position.
type Status string

const (
	Ongoing Status = "ongoing"
	Won     Status = "won"
	Drawn   Status = "drawn"
)

// Outcome describes the terminal state of a position, if any.
type Outcome struct {
	Status Status
	Winner *chess.Color // nil unless Status == Won
	Reason string       // e.g. "checkmate", "stalemate", "insufficient material"
}

// PushResult is the result of applying a legal move to a position.
type PushResult struct {
	FENAfter string
	SAN      string
	Captured *chess.PieceType
	Outcome  Outcome
}

func newExtGame(fen string) (*extchess.Game, error) {
	opt, err := extchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid fen %q: %w", fen, err)
	}
	return extchess.NewGame(opt), nil
}

// LegalMoves returns every legal move in the position, optionally filtered
// to moves originating from `from`.
func LegalMoves(fen string, from *chess.Square) ([]chess.Move, error) {
	g, err := newExtGame(fen)
	if err != nil {
		return nil, err
	}

	valid := g.ValidMoves()
	out := make([]chess.Move, 0, len(valid))
	for _, vm := range valid {
		mv, err := internalMoveFromUCI(vm.String())
		if err != nil {
			// Fall back to UCI notation encoding if String() isn't UCI.
			mv, err = internalMoveFromUCI(extchess.UCINotation{}.Encode(g.Position(), vm))
			if err != nil {
				continue
			}
		}
		if from != nil && mv.From != *from {
			continue
		}
		out = append(out, mv)
	}
	return out, nil
}

// IsForced reports whether the position has exactly one legal move, the
// "forced-move detection" signal used by the review worker (spec.md §4.7).
func IsForced(fen string) (bool, error) {
	moves, err := LegalMoves(fen, nil)
	if err != nil {
		return false, err
	}
	return len(moves) == 1, nil
}

// IsCheck reports whether the side to move is in check.
func IsCheck(fen string) (bool, error) {
	g, err := newExtGame(fen)
	if err != nil {
		return false, err
	}
	return g.Position().InCheck(), nil
}

// StatusOf classifies a position without requiring a move to have been
// played into it (used by the review worker to detect terminal positions
// whose `bestmove (none)` must never be requested from the engine).
func StatusOf(fen string) (Outcome, error) {
	g, err := newExtGame(fen)
	if err != nil {
		return Outcome{}, err
	}
	return outcomeOf(g), nil
}

// Push applies a legal move to the position and returns the resulting FEN,
// SAN and any terminal outcome.
func Push(fen string, mv chess.Move) (*PushResult, error) {
	g, err := newExtGame(fen)
	if err != nil {
		return nil, err
	}

	posBefore := g.Position()
	destPiece := posBefore.Board().Piece(squareIndexToExt(mv.To))

	uci := chess.FormatUCIMove(mv)
	decoded, err := extchess.UCINotation{}.Decode(posBefore, uci)
	if err != nil {
		return nil, fmt.Errorf("illegal move %s: %w", uci, err)
	}

	san := extchess.AlgebraicNotation{}.Encode(posBefore, decoded)

	if err := g.PushNotationMove(uci, extchess.UCINotation{}, nil); err != nil {
		return nil, fmt.Errorf("illegal move %s: %w", uci, err)
	}

	res := &PushResult{
		FENAfter: g.Position().String(),
		SAN:      san,
		Outcome:  outcomeOf(g),
	}
	if destPiece != extchess.NoPiece {
		pt := pieceTypeFromExt(destPiece)
		res.Captured = &pt
	}
	return res, nil
}

// SANForUCI converts a UCI move string into SAN against fen, without
// mutating any shared state. Used by the review worker to render the
// engine's best move as SAN (spec.md §4.7).
func SANForUCI(fen, uci string) (string, error) {
	g, err := newExtGame(fen)
	if err != nil {
		return "", err
	}
	pos := g.Position()
	mv, err := extchess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		return "", fmt.Errorf("invalid uci move %q for fen %q: %w", uci, fen, err)
	}
	return extchess.AlgebraicNotation{}.Encode(pos, mv), nil
}

func outcomeOf(g *extchess.Game) Outcome {
	switch g.Outcome() {
	case extchess.WhiteWon:
		w := chess.White
		return Outcome{Status: Won, Winner: &w, Reason: strings.ToLower(g.Method().String())}
	case extchess.BlackWon:
		b := chess.Black
		return Outcome{Status: Won, Winner: &b, Reason: strings.ToLower(g.Method().String())}
	case extchess.Draw:
		return Outcome{Status: Drawn, Reason: strings.ToLower(g.Method().String())}
	default:
		return Outcome{Status: Ongoing}
	}
}

func internalMoveFromUCI(s string) (chess.Move, error) {
	return chess.ParseUCIMove(s)
}

// squareIndexToExt converts our Square to the external library's Square,
// relying on the shared little-endian rank-file convention (a1=0..h8=63)
// used throughout the retrieval pack's bitboard engines.
func squareIndexToExt(sq chess.Square) extchess.Square {
	return extchess.Square(sq.Index())
}

func pieceTypeFromExt(p extchess.Piece) chess.PieceType {
	switch p.Type() {
	case extchess.Pawn:
		return chess.Pawn
	case extchess.Knight:
		return chess.Knight
	case extchess.Bishop:
		return chess.Bishop
	case extchess.Rook:
		return chess.Rook
	case extchess.Queen:
		return chess.Queen
	case extchess.King:
		return chess.King
	default:
		return chess.NoPieceType
	}
}
