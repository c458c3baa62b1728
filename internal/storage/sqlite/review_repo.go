package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/eloinsight/chessd/internal/apperr"
	"github.com/eloinsight/chessd/internal/chess"
)

// ReviewRepo implements review.ReviewRepository.
type ReviewRepo struct{ db *DB }

func NewReviewRepo(db *DB) *ReviewRepo { return &ReviewRepo{db: db} }

func (r *ReviewRepo) Save(review *chess.GameReview) error {
	tx, err := r.db.conn.Begin()
	if err != nil {
		return apperr.Wrap(apperr.PersistenceUnavailable, "begin save review", err)
	}

	var winner *string
	if review.Winner != nil {
		s := review.Winner.String()
		winner = &s
	}

	_, err = r.db.builder.
		Insert("game_reviews").
		Columns("game_id", "status", "current_ply", "total_plies", "error", "white_accuracy", "black_accuracy",
			"analysis_depth", "started_at", "completed_at", "winner").
		Values(review.GameID, review.Status.Kind.String(), review.Status.CurrentPly, review.Status.TotalPlies,
			nullIfEmpty(review.Status.Error), review.WhiteAccuracy, review.BlackAccuracy, review.AnalysisDepth,
			review.StartedAt, review.CompletedAt, winner).
		Suffix(`ON CONFLICT(game_id) DO UPDATE SET status=excluded.status, current_ply=excluded.current_ply,
			total_plies=excluded.total_plies, error=excluded.error, white_accuracy=excluded.white_accuracy,
			black_accuracy=excluded.black_accuracy, completed_at=excluded.completed_at, winner=excluded.winner`).
		RunWith(tx).
		Exec()
	if err != nil {
		tx.Rollback()
		return apperr.Wrap(apperr.PersistenceUnavailable, "save game review header", err)
	}

	for _, pr := range review.Positions {
		_, err = r.db.builder.
			Insert("position_reviews").
			Columns("game_id", "ply", "fen", "played_san", "best_move_san", "best_move_uci",
				"eval_before_type", "eval_before_value", "eval_after_type", "eval_after_value",
				"eval_best_type", "eval_best_value", "classification", "cp_loss", "pv", "depth", "clock_ms").
			Values(review.GameID, pr.Ply, pr.FEN, pr.PlayedSAN, pr.BestMoveSAN, pr.BestMoveUCI,
				scoreKindString(pr.EvalBefore), scoreValue(pr.EvalBefore),
				scoreKindString(pr.EvalAfter), scoreValue(pr.EvalAfter),
				scoreKindString(pr.EvalBest), scoreValue(pr.EvalBest),
				string(pr.Classification), pr.CpLoss, strings.Join(pr.PV, " "), pr.Depth, pr.ClockMs).
			Suffix(`ON CONFLICT(game_id, ply) DO UPDATE SET classification=excluded.classification,
				cp_loss=excluded.cp_loss`).
			RunWith(tx).
			Exec()
		if err != nil {
			tx.Rollback()
			return apperr.Wrap(apperr.PersistenceUnavailable, "save position review", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.PersistenceUnavailable, "commit save review", err)
	}
	return nil
}

func (r *ReviewRepo) LoadByID(gameID string) (*chess.GameReview, error) {
	row := r.db.builder.
		Select("game_id", "status", "current_ply", "total_plies", "error", "white_accuracy", "black_accuracy",
			"analysis_depth", "started_at", "completed_at", "winner").
		From("game_reviews").
		Where("game_id = ?", gameID).
		RunWith(r.db.conn).
		QueryRow()

	var review chess.GameReview
	var status string
	var currentPly, totalPlies sql.NullInt64
	var errStr, winner sql.NullString
	var startedAt, completedAt sql.NullInt64
	if err := row.Scan(&review.GameID, &status, &currentPly, &totalPlies, &errStr, &review.WhiteAccuracy,
		&review.BlackAccuracy, &review.AnalysisDepth, &startedAt, &completedAt, &winner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.PersistenceUnavailable, "scan game review", err)
	}
	review.Status = chess.ReviewStatus{
		Kind:       chess.ParseReviewStatusKind(status),
		CurrentPly: int(currentPly.Int64),
		TotalPlies: int(totalPlies.Int64),
		Error:      errStr.String,
	}
	review.TotalPlies = int(totalPlies.Int64)
	if startedAt.Valid {
		v := startedAt.Int64
		review.StartedAt = &v
	}
	if completedAt.Valid {
		v := completedAt.Int64
		review.CompletedAt = &v
	}
	if winner.Valid {
		c := colorFromString(winner.String)
		review.Winner = &c
	}

	positions, analyzed, err := r.loadPositions(gameID)
	if err != nil {
		return nil, err
	}
	review.Positions = positions
	review.AnalyzedPlies = analyzed
	return &review, nil
}

func (r *ReviewRepo) loadPositions(gameID string) ([]chess.PositionReview, int, error) {
	rows, err := r.db.builder.
		Select("ply", "fen", "played_san", "best_move_san", "best_move_uci",
			"eval_before_type", "eval_before_value", "eval_after_type", "eval_after_value",
			"eval_best_type", "eval_best_value", "classification", "cp_loss", "pv", "depth", "clock_ms").
		From("position_reviews").
		Where("game_id = ?", gameID).
		OrderBy("ply ASC").
		RunWith(r.db.conn).
		Query()
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.PersistenceUnavailable, "load position reviews", err)
	}
	defer rows.Close()

	var out []chess.PositionReview
	for rows.Next() {
		var pr chess.PositionReview
		var beforeType, afterType, bestType, classification, pv string
		var beforeValue, afterValue, bestValue int
		var clockMs sql.NullInt64
		if err := rows.Scan(&pr.Ply, &pr.FEN, &pr.PlayedSAN, &pr.BestMoveSAN, &pr.BestMoveUCI,
			&beforeType, &beforeValue, &afterType, &afterValue, &bestType, &bestValue,
			&classification, &pr.CpLoss, &pv, &pr.Depth, &clockMs); err != nil {
			return nil, 0, apperr.Wrap(apperr.PersistenceUnavailable, "scan position review", err)
		}
		pr.EvalBefore = scoreFromColumns(beforeType, beforeValue)
		pr.EvalAfter = scoreFromColumns(afterType, afterValue)
		pr.EvalBest = scoreFromColumns(bestType, bestValue)
		pr.Classification = chess.MoveClassification(classification)
		if pv != "" {
			pr.PV = strings.Fields(pv)
		}
		if clockMs.Valid {
			ms := int(clockMs.Int64)
			pr.ClockMs = &ms
		}
		out = append(out, pr)
	}
	return out, len(out), rows.Err()
}

func (r *ReviewRepo) Delete(gameID string) error {
	_, err := r.db.builder.Delete("game_reviews").Where("game_id = ?", gameID).RunWith(r.db.conn).Exec()
	if err != nil {
		return apperr.Wrap(apperr.PersistenceUnavailable, "delete game review", err)
	}
	return nil
}

func scoreKindString(s chess.AnalysisScore) string {
	if s.Kind == chess.ScoreMate {
		return "mate"
	}
	return "cp"
}

func scoreValue(s chess.AnalysisScore) int {
	if s.Kind == chess.ScoreMate {
		return s.MateIn
	}
	return s.Centipawns
}

func scoreFromColumns(kind string, value int) chess.AnalysisScore {
	if kind == "mate" {
		return chess.Mate(value)
	}
	return chess.Cp(value)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
