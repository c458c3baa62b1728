package sqlite

import (
	"database/sql"
	"errors"

	"github.com/eloinsight/chessd/internal/apperr"
	"github.com/eloinsight/chessd/internal/chess"
	"github.com/eloinsight/chessd/internal/review"
)

// GameRepo implements review.FinishedGameRepository plus the broader
// save/list/delete surface spec.md §4.8 requires of every repository.
type GameRepo struct{ db *DB }

func NewGameRepo(db *DB) *GameRepo { return &GameRepo{db: db} }

// Save persists the game header and its moves atomically (spec.md §4.8:
// "one transaction spanning a games header table and a moves table").
func (r *GameRepo) Save(g review.FinishedGame) error {
	tx, err := r.db.conn.Begin()
	if err != nil {
		return apperr.Wrap(apperr.PersistenceUnavailable, "begin save finished game", err)
	}

	mode, humanSide := encodeGameMode(g.GameMode)
	_, err = r.db.builder.
		Insert("finished_games").
		Columns("game_id", "start_fen", "result", "result_reason", "game_mode", "human_side", "skill_level", "move_count", "created_at").
		Values(g.GameID, g.StartFEN, string(g.Result), g.ResultReason, mode, humanSide, g.SkillLevel, len(g.Moves), g.CreatedAt).
		Suffix(`ON CONFLICT(game_id) DO UPDATE SET result=excluded.result, result_reason=excluded.result_reason,
			move_count=excluded.move_count`).
		RunWith(tx).
		Exec()
	if err != nil {
		tx.Rollback()
		return apperr.Wrap(apperr.PersistenceUnavailable, "save finished game header", err)
	}

	for _, mv := range g.Moves {
		var captured, promotion *string
		if mv.Captured != nil {
			s := mv.Captured.String()
			captured = &s
		}
		if mv.Promotion != nil {
			s := mv.Promotion.String()
			promotion = &s
		}
		_, err = r.db.builder.
			Insert("stored_moves").
			Columns("game_id", "ply", "from_sq", "to_sq", "piece", "captured", "promotion", "san", "fen_after", "clock_ms").
			Values(g.GameID, mv.Ply, mv.From.String(), mv.To.String(), mv.Piece.String(), captured, promotion, mv.SAN, mv.FENAfter, mv.ClockMs).
			Suffix(`ON CONFLICT(game_id, ply) DO UPDATE SET san=excluded.san, fen_after=excluded.fen_after`).
			RunWith(tx).
			Exec()
		if err != nil {
			tx.Rollback()
			return apperr.Wrap(apperr.PersistenceUnavailable, "save stored move", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.PersistenceUnavailable, "commit save finished game", err)
	}
	return nil
}

// LoadByID satisfies review.FinishedGameRepository.
func (r *GameRepo) LoadByID(gameID string) (*review.FinishedGame, error) {
	row := r.db.builder.
		Select("game_id", "start_fen", "result", "result_reason", "game_mode", "human_side", "skill_level", "created_at").
		From("finished_games").
		Where("game_id = ?", gameID).
		RunWith(r.db.conn).
		QueryRow()

	var g review.FinishedGame
	var result, mode string
	var resultReason, humanSide sql.NullString
	if err := row.Scan(&g.GameID, &g.StartFEN, &result, &resultReason, &mode, &humanSide, &g.SkillLevel, &g.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "finished game "+gameID+" not found")
		}
		return nil, apperr.Wrap(apperr.PersistenceUnavailable, "scan finished game", err)
	}
	g.Result = chess.GameResult(result)
	g.ResultReason = resultReason.String
	var humanSidePtr *string
	if humanSide.Valid {
		humanSidePtr = &humanSide.String
	}
	g.GameMode = decodeGameMode(mode, humanSidePtr)

	moves, err := r.loadMoves(gameID)
	if err != nil {
		return nil, err
	}
	g.Moves = moves
	return &g, nil
}

func (r *GameRepo) loadMoves(gameID string) ([]review.StoredMove, error) {
	rows, err := r.db.builder.
		Select("ply", "from_sq", "to_sq", "piece", "captured", "promotion", "san", "fen_after", "clock_ms").
		From("stored_moves").
		Where("game_id = ?", gameID).
		OrderBy("ply ASC").
		RunWith(r.db.conn).
		Query()
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceUnavailable, "load stored moves", err)
	}
	defer rows.Close()

	var out []review.StoredMove
	for rows.Next() {
		var mv review.StoredMove
		var from, to, piece string
		var captured, promotion sql.NullString
		var clockMs sql.NullInt64
		if err := rows.Scan(&mv.Ply, &from, &to, &piece, &captured, &promotion, &mv.SAN, &mv.FENAfter, &clockMs); err != nil {
			return nil, apperr.Wrap(apperr.PersistenceUnavailable, "scan stored move", err)
		}
		mv.From, _ = chess.ParseSquare(from)
		mv.To, _ = chess.ParseSquare(to)
		mv.Piece = pieceTypeFromString(piece)
		if captured.Valid {
			pt := pieceTypeFromString(captured.String)
			mv.Captured = &pt
		}
		if promotion.Valid {
			pt := pieceTypeFromString(promotion.String)
			mv.Promotion = &pt
		}
		if clockMs.Valid {
			ms := int(clockMs.Int64)
			mv.ClockMs = &ms
		}
		out = append(out, mv)
	}
	return out, rows.Err()
}

func (r *GameRepo) List() ([]review.FinishedGame, error) {
	rows, err := r.db.builder.
		Select("game_id").
		From("finished_games").
		OrderBy("created_at DESC").
		RunWith(r.db.conn).
		Query()
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceUnavailable, "list finished games", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, apperr.Wrap(apperr.PersistenceUnavailable, "scan finished game id", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]review.FinishedGame, 0, len(ids))
	for _, id := range ids {
		g, err := r.LoadByID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, nil
}

func (r *GameRepo) Delete(gameID string) error {
	_, err := r.db.builder.Delete("finished_games").Where("game_id = ?", gameID).RunWith(r.db.conn).Exec()
	if err != nil {
		return apperr.Wrap(apperr.PersistenceUnavailable, "delete finished game", err)
	}
	return nil
}

func pieceTypeFromString(s string) chess.PieceType {
	switch s {
	case "pawn":
		return chess.Pawn
	case "knight":
		return chess.Knight
	case "bishop":
		return chess.Bishop
	case "rook":
		return chess.Rook
	case "queen":
		return chess.Queen
	case "king":
		return chess.King
	default:
		return chess.NoPieceType
	}
}
