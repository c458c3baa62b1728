package chess

import "time"

// GameResult is the outcome of a finished game.
type GameResult string

const (
	WhiteWins GameResult = "white_wins"
	BlackWins GameResult = "black_wins"
	Draw      GameResult = "draw"
)

// PhaseKind tags the GamePhase variant.
type PhaseKind string

const (
	PhaseSetup    PhaseKind = "setup"
	PhasePlaying  PhaseKind = "playing"
	PhasePaused   PhaseKind = "paused"
	PhaseEnded    PhaseKind = "ended"
	PhaseAnalyzing PhaseKind = "analyzing"
)

// GamePhase is a tagged union over the session's lifecycle phases
// (spec.md §3). Only the fields relevant to Kind are meaningful.
type GamePhase struct {
	Kind PhaseKind

	// PhasePlaying
	Turn Color

	// PhasePaused
	ResumeTurn Color

	// PhaseEnded
	Result GameResult
	Reason string
}

func SetupPhase() GamePhase { return GamePhase{Kind: PhaseSetup} }

func PlayingPhase(turn Color) GamePhase {
	return GamePhase{Kind: PhasePlaying, Turn: turn}
}

func PausedPhase(resumeTurn Color) GamePhase {
	return GamePhase{Kind: PhasePaused, ResumeTurn: resumeTurn}
}

func EndedPhase(result GameResult, reason string) GamePhase {
	return GamePhase{Kind: PhaseEnded, Result: result, Reason: reason}
}

func AnalyzingPhase() GamePhase { return GamePhase{Kind: PhaseAnalyzing} }

// GameModeKind tags the GameMode variant.
type GameModeKind string

const (
	HumanVsHuman   GameModeKind = "human_vs_human"
	HumanVsEngine  GameModeKind = "human_vs_engine"
	EngineVsEngine GameModeKind = "engine_vs_engine"
	AnalysisMode   GameModeKind = "analysis"
	ReviewMode     GameModeKind = "review"
)

// GameMode determines whether the auto-trigger rule (spec.md §4.6) fires.
type GameMode struct {
	Kind GameModeKind

	// HumanVsEngine only.
	HumanSide Color
}

// AutoTriggerSide reports whether this mode allows the engine to move on
// its own when turn is to move (spec.md §4.6).
func (m GameMode) AutoTriggerSide(turn Color) bool {
	switch m.Kind {
	case EngineVsEngine:
		return true
	case HumanVsEngine:
		return turn != m.HumanSide
	default:
		return false
	}
}

// TimerState is the pair of chess clocks plus which side is currently
// charging time.
type TimerState struct {
	WhiteMs         int64
	BlackMs         int64
	ActiveSide      *Color
	LastTickInstant time.Time
}

// RemainingMs returns the remaining time for c.
func (t *TimerState) RemainingMs(c Color) int64 {
	if c == White {
		return t.WhiteMs
	}
	return t.BlackMs
}

func (t *TimerState) setRemainingMs(c Color, ms int64) {
	if ms < 0 {
		ms = 0
	}
	if c == White {
		t.WhiteMs = ms
	} else {
		t.BlackMs = ms
	}
}

// SwitchTo flushes elapsed wall-clock time into the previously active side
// and begins charging side.
func (t *TimerState) SwitchTo(side Color, now time.Time) {
	if t.ActiveSide != nil {
		t.Tick(now)
	}
	t.ActiveSide = &side
	t.LastTickInstant = now
}

// Tick decrements the active side's remaining time by the elapsed wall clock
// since LastTickInstant. Returns the side that just ran out, if any.
func (t *TimerState) Tick(now time.Time) (expired *Color) {
	if t.ActiveSide == nil {
		return nil
	}
	elapsed := now.Sub(t.LastTickInstant)
	t.LastTickInstant = now
	if elapsed <= 0 {
		return nil
	}
	side := *t.ActiveSide
	remaining := t.RemainingMs(side) - elapsed.Milliseconds()
	t.setRemainingMs(side, remaining)
	if remaining <= 0 {
		return &side
	}
	return nil
}

// Stop halts the clock.
func (t *TimerState) Stop() {
	t.ActiveSide = nil
}

// EngineConfig is the per-session UCI engine configuration.
type EngineConfig struct {
	Enabled    bool
	SkillLevel int  // 0..20
	Threads    *int // 1..16
	HashMB     *int // 1..2048
}

// HistoryEntry is one completed move, retained per session. It is created on
// make_move, never mutated, and destroyed only by reset.
type HistoryEntry struct {
	Move        Move
	Piece       PieceType
	PieceColor  Color
	Captured    *PieceType
	Promotion   *PieceType
	SAN         string
	FENAfter    string
	BoardBefore *Board
}
