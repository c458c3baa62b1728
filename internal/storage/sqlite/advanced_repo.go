package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/eloinsight/chessd/internal/analysis"
	"github.com/eloinsight/chessd/internal/apperr"
)

// AdvancedRepo implements review.AdvancedAnalysisRepository. Per-ply tactical
// tags, king safety and psychology profiles are nested structures with no
// natural relational shape spec.md pins down, so they are stored as JSON
// text columns rather than further normalized tables.
type AdvancedRepo struct{ db *DB }

func NewAdvancedRepo(db *DB) *AdvancedRepo { return &AdvancedRepo{db: db} }

func (r *AdvancedRepo) Save(gameID string, a analysis.AdvancedGameAnalysis) error {
	whitePsych, err := json.Marshal(a.WhitePsychology)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "marshal white psychology", err)
	}
	blackPsych, err := json.Marshal(a.BlackPsychology)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "marshal black psychology", err)
	}

	tx, err := r.db.conn.Begin()
	if err != nil {
		return apperr.Wrap(apperr.PersistenceUnavailable, "begin save advanced analysis", err)
	}

	_, err = r.db.builder.
		Insert("advanced_analyses").
		Columns("game_id", "pipeline_version", "shallow_depth", "deep_depth", "critical_positions_count",
			"computed_at", "white_psychology", "black_psychology").
		Values(gameID, a.PipelineVersion, a.ShallowDepth, a.DeepDepth, a.CriticalPositionsCount,
			a.ComputedAt, string(whitePsych), string(blackPsych)).
		Suffix(`ON CONFLICT(game_id) DO UPDATE SET shallow_depth=excluded.shallow_depth,
			deep_depth=excluded.deep_depth, critical_positions_count=excluded.critical_positions_count,
			computed_at=excluded.computed_at, white_psychology=excluded.white_psychology,
			black_psychology=excluded.black_psychology`).
		RunWith(tx).
		Exec()
	if err != nil {
		tx.Rollback()
		return apperr.Wrap(apperr.PersistenceUnavailable, "save advanced analysis header", err)
	}

	for _, pos := range a.Positions {
		tagsBefore, err := json.Marshal(pos.TacticalTagsBefore)
		if err != nil {
			tx.Rollback()
			return apperr.Wrap(apperr.Internal, "marshal tactical tags before", err)
		}
		tagsAfter, err := json.Marshal(pos.TacticalTagsAfter)
		if err != nil {
			tx.Rollback()
			return apperr.Wrap(apperr.Internal, "marshal tactical tags after", err)
		}
		kingSafety, err := json.Marshal(pos.KingSafety)
		if err != nil {
			tx.Rollback()
			return apperr.Wrap(apperr.Internal, "marshal king safety", err)
		}
		tension, err := json.Marshal(pos.Tension)
		if err != nil {
			tx.Rollback()
			return apperr.Wrap(apperr.Internal, "marshal tension", err)
		}

		_, err = r.db.builder.
			Insert("position_advanced_entries").
			Columns("game_id", "ply", "tactical_tags_before", "tactical_tags_after", "king_safety", "tension",
				"is_critical", "deep_depth").
			Values(gameID, pos.Ply, string(tagsBefore), string(tagsAfter), string(kingSafety), string(tension),
				pos.IsCritical, pos.DeepDepth).
			Suffix(`ON CONFLICT(game_id, ply) DO UPDATE SET is_critical=excluded.is_critical`).
			RunWith(tx).
			Exec()
		if err != nil {
			tx.Rollback()
			return apperr.Wrap(apperr.PersistenceUnavailable, "save position advanced entry", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.PersistenceUnavailable, "commit save advanced analysis", err)
	}
	return nil
}

func (r *AdvancedRepo) LoadByID(gameID string) (*analysis.AdvancedGameAnalysis, error) {
	row := r.db.builder.
		Select("pipeline_version", "shallow_depth", "deep_depth", "critical_positions_count", "computed_at",
			"white_psychology", "black_psychology").
		From("advanced_analyses").
		Where("game_id = ?", gameID).
		RunWith(r.db.conn).
		QueryRow()

	var a analysis.AdvancedGameAnalysis
	a.GameID = gameID
	var whitePsych, blackPsych string
	if err := row.Scan(&a.PipelineVersion, &a.ShallowDepth, &a.DeepDepth, &a.CriticalPositionsCount, &a.ComputedAt,
		&whitePsych, &blackPsych); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "advanced analysis "+gameID+" not found")
		}
		return nil, apperr.Wrap(apperr.PersistenceUnavailable, "scan advanced analysis", err)
	}
	if err := json.Unmarshal([]byte(whitePsych), &a.WhitePsychology); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "unmarshal white psychology", err)
	}
	if err := json.Unmarshal([]byte(blackPsych), &a.BlackPsychology); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "unmarshal black psychology", err)
	}

	positions, err := r.loadPositions(gameID)
	if err != nil {
		return nil, err
	}
	a.Positions = positions
	return &a, nil
}

func (r *AdvancedRepo) loadPositions(gameID string) ([]analysis.PositionAdvancedEntry, error) {
	rows, err := r.db.builder.
		Select("ply", "tactical_tags_before", "tactical_tags_after", "king_safety", "tension", "is_critical", "deep_depth").
		From("position_advanced_entries").
		Where("game_id = ?", gameID).
		OrderBy("ply ASC").
		RunWith(r.db.conn).
		Query()
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceUnavailable, "load position advanced entries", err)
	}
	defer rows.Close()

	var out []analysis.PositionAdvancedEntry
	for rows.Next() {
		var pos analysis.PositionAdvancedEntry
		var tagsBefore, tagsAfter, kingSafety, tension string
		var deepDepth sql.NullInt64
		if err := rows.Scan(&pos.Ply, &tagsBefore, &tagsAfter, &kingSafety, &tension, &pos.IsCritical, &deepDepth); err != nil {
			return nil, apperr.Wrap(apperr.PersistenceUnavailable, "scan position advanced entry", err)
		}
		if err := json.Unmarshal([]byte(tagsBefore), &pos.TacticalTagsBefore); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "unmarshal tactical tags before", err)
		}
		if err := json.Unmarshal([]byte(tagsAfter), &pos.TacticalTagsAfter); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "unmarshal tactical tags after", err)
		}
		if err := json.Unmarshal([]byte(kingSafety), &pos.KingSafety); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "unmarshal king safety", err)
		}
		if err := json.Unmarshal([]byte(tension), &pos.Tension); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "unmarshal tension", err)
		}
		if deepDepth.Valid {
			d := int(deepDepth.Int64)
			pos.DeepDepth = &d
		}
		out = append(out, pos)
	}
	return out, rows.Err()
}
