package session

import "github.com/eloinsight/chessd/internal/chess"

// ReconcileCastlingMove rewrites an engine-reported move into the board
// library's castling encoding when the two disagree. Stockfish (and the
// UCI protocol generally) encodes castling as the king moving two squares
// (e1g1), which is also what internal/rules expects via the external move
// generator, but some configurations report the king-captures-rook form
// (e1h1). Detect and normalize that case (spec.md §4.6: "reconciling UCI
// castling encoding with the board library's encoding if they differ").
func ReconcileCastlingMove(board *chess.Board, mv chess.Move) chess.Move {
	piece := board.Piece(mv.From)
	if piece.Type != chess.King {
		return mv
	}

	homeRank := 0
	if piece.Color == chess.Black {
		homeRank = 7
	}
	if mv.From.Rank != homeRank || mv.From.File != 4 {
		return mv
	}

	rook := board.Piece(mv.To)
	if rook.Type != chess.Rook || rook.Color != piece.Color {
		return mv
	}

	// King "captures" its own rook: king-side if rook is right of the king,
	// queen-side otherwise.
	if mv.To.File > mv.From.File {
		return chess.Move{From: mv.From, To: chess.NewSquare(6, homeRank)}
	}
	return chess.Move{From: mv.From, To: chess.NewSquare(2, homeRank)}
}
