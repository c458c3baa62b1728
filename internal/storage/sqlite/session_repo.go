package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/eloinsight/chessd/internal/apperr"
	"github.com/eloinsight/chessd/internal/chess"
)

// SessionRepo implements storage.SessionRepository.
type SessionRepo struct{ db *DB }

func NewSessionRepo(db *DB) *SessionRepo { return &SessionRepo{db: db} }

func (r *SessionRepo) Save(s chess.SuspendedSession) error {
	mode, humanSide := encodeGameMode(s.GameMode)
	_, err := r.db.builder.
		Insert("suspended_sessions").
		Columns("suspended_id", "fen", "side_to_move", "move_count", "game_mode", "human_side", "skill_level", "created_at").
		Values(s.ID, s.FEN, s.SideToMove.String(), s.MoveCount, mode, humanSide, s.SkillLevel, s.CreatedAt).
		Suffix(`ON CONFLICT(suspended_id) DO UPDATE SET fen=excluded.fen, side_to_move=excluded.side_to_move,
			move_count=excluded.move_count, game_mode=excluded.game_mode, human_side=excluded.human_side,
			skill_level=excluded.skill_level`).
		RunWith(r.db.conn).
		Exec()
	if err != nil {
		return apperr.Wrap(apperr.PersistenceUnavailable, "save suspended session", err)
	}
	return nil
}

func (r *SessionRepo) LoadByID(id string) (*chess.SuspendedSession, error) {
	row := r.db.builder.
		Select("suspended_id", "fen", "side_to_move", "move_count", "game_mode", "human_side", "skill_level", "created_at").
		From("suspended_sessions").
		Where("suspended_id = ?", id).
		RunWith(r.db.conn).
		QueryRow()
	return scanSuspendedSession(row)
}

func (r *SessionRepo) List() ([]chess.SuspendedSession, error) {
	rows, err := r.db.builder.
		Select("suspended_id", "fen", "side_to_move", "move_count", "game_mode", "human_side", "skill_level", "created_at").
		From("suspended_sessions").
		OrderBy("created_at DESC").
		RunWith(r.db.conn).
		Query()
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceUnavailable, "list suspended sessions", err)
	}
	defer rows.Close()

	var out []chess.SuspendedSession
	for rows.Next() {
		s, err := scanSuspendedSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SessionRepo) Delete(id string) error {
	_, err := r.db.builder.Delete("suspended_sessions").Where("suspended_id = ?", id).RunWith(r.db.conn).Exec()
	if err != nil {
		return apperr.Wrap(apperr.PersistenceUnavailable, "delete suspended session", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSuspendedSession(row scanner) (*chess.SuspendedSession, error) {
	var s chess.SuspendedSession
	var sideToMove, mode string
	var humanSide sql.NullString
	if err := row.Scan(&s.ID, &s.FEN, &sideToMove, &s.MoveCount, &mode, &humanSide, &s.SkillLevel, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "suspended session not found")
		}
		return nil, apperr.Wrap(apperr.PersistenceUnavailable, "scan suspended session", err)
	}
	s.SideToMove = colorFromString(sideToMove)
	var humanSidePtr *string
	if humanSide.Valid {
		humanSidePtr = &humanSide.String
	}
	s.GameMode = decodeGameMode(mode, humanSidePtr)
	return &s, nil
}

func colorFromString(s string) chess.Color {
	if s == "black" {
		return chess.Black
	}
	return chess.White
}

// encodeGameMode splits a GameMode into its stored (kind, human_side)
// columns, stripping the legacy "Kind:Side" suffix encoding some callers
// still pass (spec.md §4.8 game-mode normalization).
func encodeGameMode(m chess.GameMode) (mode string, humanSide *string) {
	mode = string(m.Kind)
	if i := strings.IndexByte(mode, ':'); i >= 0 {
		mode = mode[:i]
	}
	if chess.GameModeKind(mode) == chess.HumanVsEngine {
		side := m.HumanSide.String()
		humanSide = &side
	}
	return mode, humanSide
}

func decodeGameMode(mode string, humanSide *string) chess.GameMode {
	m := chess.GameMode{Kind: chess.GameModeKind(mode)}
	if humanSide != nil {
		m.HumanSide = colorFromString(*humanSide)
	}
	return m
}
