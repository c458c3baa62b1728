package chess

// SuspendedSession is a session's state captured by suspend_session, enough
// to reconstruct an Actor on resume_suspended_session (spec.md §4.8).
type SuspendedSession struct {
	ID         string
	FEN        string
	SideToMove Color
	MoveCount  int
	GameMode   GameMode
	SkillLevel int
	CreatedAt  int64
}

// SavedPosition is a named starting position. Positions with IsDefault set
// are protected: delete_position must reject them (spec.md §4.8).
type SavedPosition struct {
	ID        string
	Name      string
	FEN       string
	IsDefault bool
	CreatedAt int64
}
