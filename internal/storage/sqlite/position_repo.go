package sqlite

import (
	"database/sql"
	"errors"

	"github.com/eloinsight/chessd/internal/apperr"
	"github.com/eloinsight/chessd/internal/chess"
)

// PositionRepo implements storage.PositionRepository.
type PositionRepo struct{ db *DB }

func NewPositionRepo(db *DB) *PositionRepo { return &PositionRepo{db: db} }

func (r *PositionRepo) Save(p chess.SavedPosition) error {
	_, err := r.db.builder.
		Insert("saved_positions").
		Columns("position_id", "name", "fen", "is_default", "created_at").
		Values(p.ID, p.Name, p.FEN, p.IsDefault, p.CreatedAt).
		Suffix(`ON CONFLICT(position_id) DO UPDATE SET name=excluded.name, fen=excluded.fen, is_default=excluded.is_default`).
		RunWith(r.db.conn).
		Exec()
	if err != nil {
		return apperr.Wrap(apperr.PersistenceUnavailable, "save position", err)
	}
	return nil
}

func (r *PositionRepo) LoadByID(id string) (*chess.SavedPosition, error) {
	row := r.db.builder.
		Select("position_id", "name", "fen", "is_default", "created_at").
		From("saved_positions").
		Where("position_id = ?", id).
		RunWith(r.db.conn).
		QueryRow()
	return scanSavedPosition(row)
}

func (r *PositionRepo) List() ([]chess.SavedPosition, error) {
	rows, err := r.db.builder.
		Select("position_id", "name", "fen", "is_default", "created_at").
		From("saved_positions").
		OrderBy("created_at DESC").
		RunWith(r.db.conn).
		Query()
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceUnavailable, "list positions", err)
	}
	defer rows.Close()

	var out []chess.SavedPosition
	for rows.Next() {
		p, err := scanSavedPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Delete removes a saved position. Default positions are protected
// (spec.md §4.8) and rejected with apperr.DefaultPositionProtected.
func (r *PositionRepo) Delete(id string) error {
	existing, err := r.LoadByID(id)
	if err != nil {
		return err
	}
	if existing.IsDefault {
		return apperr.New(apperr.DefaultPositionProtected, "position "+id+" is a default position")
	}
	_, err = r.db.builder.Delete("saved_positions").Where("position_id = ?", id).RunWith(r.db.conn).Exec()
	if err != nil {
		return apperr.Wrap(apperr.PersistenceUnavailable, "delete position", err)
	}
	return nil
}

func scanSavedPosition(row scanner) (*chess.SavedPosition, error) {
	var p chess.SavedPosition
	var isDefault int
	if err := row.Scan(&p.ID, &p.Name, &p.FEN, &isDefault, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "position not found")
		}
		return nil, apperr.Wrap(apperr.PersistenceUnavailable, "scan position", err)
	}
	p.IsDefault = isDefault != 0
	return &p, nil
}
