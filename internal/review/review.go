// Package review implements the review worker pool (C7, C8): a bounded set
// of workers that consume review jobs from a shared queue, drive a
// Stockfish instance through every ply of a finished game, classify moves
// and persist partial progress for crash recovery (spec.md §4.7).
package review

import (
	"github.com/eloinsight/chessd/internal/analysis"
	"github.com/eloinsight/chessd/internal/chess"
)

// StoredMove is one ply of a finished game, as persisted by
// FinishedGameRepository.
type StoredMove struct {
	Ply      int
	From     chess.Square
	To       chess.Square
	Piece    chess.PieceType
	Captured *chess.PieceType
	Promotion *chess.PieceType
	SAN      string
	FENAfter string
	ClockMs  *int
}

// FinishedGame is a completed game as loaded for review.
type FinishedGame struct {
	GameID       string
	StartFEN     string
	Result       chess.GameResult
	ResultReason string
	GameMode     chess.GameMode
	SkillLevel   int
	CreatedAt    int64
	Moves        []StoredMove
}

// ReviewJob is one unit of work handed to a worker.
type ReviewJob struct {
	GameID   string
	GameData FinishedGame
}

// FinishedGameRepository is the subset of storage review needs to load a
// game to analyze.
type FinishedGameRepository interface {
	LoadByID(gameID string) (*FinishedGame, error)
}

// ReviewRepository persists GameReview aggregates incrementally.
type ReviewRepository interface {
	LoadByID(gameID string) (*chess.GameReview, error)
	Save(review *chess.GameReview) error
}

// AdvancedAnalysisRepository persists AdvancedGameAnalysis aggregates.
type AdvancedAnalysisRepository interface {
	Save(gameID string, analysis analysis.AdvancedGameAnalysis) error
}
