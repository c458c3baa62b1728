// Package storage declares the repository interfaces persistence-backed
// components depend on (spec.md §4.8). Concrete implementations live in
// internal/storage/sqlite; internal/review declares its own narrower
// repository interfaces at the point of use to avoid an import cycle with
// internal/analysis.
package storage

import "github.com/eloinsight/chessd/internal/chess"

// SessionRepository persists suspended sessions, resumable later via
// resume_suspended_session.
type SessionRepository interface {
	Save(s chess.SuspendedSession) error
	LoadByID(id string) (*chess.SuspendedSession, error)
	List() ([]chess.SuspendedSession, error)
	Delete(id string) error
}

// PositionRepository persists named starting positions. Records with
// IsDefault set must reject Delete.
type PositionRepository interface {
	Save(p chess.SavedPosition) error
	LoadByID(id string) (*chess.SavedPosition, error)
	List() ([]chess.SavedPosition, error)
	Delete(id string) error
}
