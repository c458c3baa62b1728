// Package session implements the per-game session actor: a single
// goroutine with exclusive ownership of one game's state, driven by a
// command channel and publishing a broadcast event stream (spec.md §4.6).
package session

import (
	"time"

	"github.com/eloinsight/chessd/internal/chess"
	"github.com/eloinsight/chessd/internal/uci"
)

// Game is the current position, history and redo stack.
type Game struct {
	Board   *chess.Board
	History []chess.HistoryEntry
	Redo    []chess.HistoryEntry
}

// Snapshot is the read-only view broadcast to subscribers and returned by
// GetSnapshot.
type Snapshot struct {
	FEN        string
	SideToMove chess.Color
	MoveCount  int
	Phase      chess.GamePhase
	GameMode   chess.GameMode
	Timer      *chess.TimerState
	EngineConfig *chess.EngineConfig
	EngineThinking bool
	LastAnalysis *uci.EngineInfo
}

// State is everything one session owns exclusively (spec.md §4.6).
type State struct {
	Game           Game
	Phase          chess.GamePhase
	GameMode       chess.GameMode
	EngineConfig   *chess.EngineConfig
	Engine         *uci.Driver
	EngineThinking bool
	LastAnalysis   *uci.EngineInfo
	Timer          *chess.TimerState
}

// NewState returns a fresh session state at the given starting FEN (the
// standard start position if fen is empty).
func NewState(fen string, mode chess.GameMode) (*State, error) {
	var board *chess.Board
	var err error
	if fen == "" {
		board = chess.NewStartBoard()
	} else {
		board, err = chess.ParseFEN(fen)
		if err != nil {
			return nil, err
		}
	}
	return &State{
		Game:     Game{Board: board},
		Phase:    chess.SetupPhase(),
		GameMode: mode,
	}, nil
}

// Snapshot renders the current state.
func (s *State) Snapshot() Snapshot {
	moveCount := len(s.Game.History)
	snap := Snapshot{
		FEN:            s.Game.Board.FEN(),
		SideToMove:     s.Game.Board.SideToMove,
		MoveCount:      moveCount,
		Phase:          s.Phase,
		GameMode:       s.GameMode,
		EngineThinking: s.EngineThinking,
		LastAnalysis:   s.LastAnalysis,
	}
	if s.Timer != nil {
		t := *s.Timer
		snap.Timer = &t
	}
	if s.EngineConfig != nil {
		c := *s.EngineConfig
		snap.EngineConfig = &c
	}
	return snap
}

// recomputePhase derives Phase from Game after a mutation, preserving any
// terminal Ended phase a caller already set.
func (s *State) recomputePhase() {
	if s.Phase.Kind == chess.PhaseEnded {
		return
	}
	s.Phase = chess.PlayingPhase(s.Game.Board.SideToMove)
}

// shouldAutoTrigger implements spec.md §4.6's auto-trigger rule.
func (s *State) shouldAutoTrigger() bool {
	if s.EngineThinking || s.Engine == nil || s.EngineConfig == nil || !s.EngineConfig.Enabled {
		return false
	}
	if s.Phase.Kind != chess.PhasePlaying {
		return false
	}
	return s.GameMode.AutoTriggerSide(s.Game.Board.SideToMove)
}

// skillToGoParams maps skill level to search bounds per spec.md §4.6.
func skillToGoParams(skill int) uci.GoParams {
	switch {
	case skill <= 3:
		return uci.GoParams{Depth: 4}
	case skill <= 7:
		return uci.GoParams{Depth: 8}
	case skill <= 12:
		return uci.GoParams{MoveTimeMs: 500}
	case skill <= 17:
		return uci.GoParams{MoveTimeMs: 1000}
	default:
		return uci.GoParams{MoveTimeMs: 2000}
	}
}

// tickTimer applies elapsed wall-clock time to the active side, returning
// the side whose clock expired, if any.
func (s *State) tickTimer(now time.Time) *chess.Color {
	if s.Timer == nil {
		return nil
	}
	return s.Timer.Tick(now)
}
