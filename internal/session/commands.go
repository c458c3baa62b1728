package session

import "github.com/eloinsight/chessd/internal/chess"

// CommandKind discriminates Command.
type CommandKind int

const (
	CmdMakeMove CommandKind = iota
	CmdUndo
	CmdRedo
	CmdReset
	CmdConfigureEngine
	CmdStopEngine
	CmdPause
	CmdResume
	CmdSetTimer
	CmdGetSnapshot
	CmdGetLegalMoves
	CmdSubscribe
	CmdTriggerEngineMove
	CmdShutdown
)

// Reply is the one-shot result every command carries a channel for.
type Reply struct {
	Snapshot    Snapshot
	LegalMoves  []chess.Move
	Subscriber  <-chan Event
	Err         error
}

// Command is one typed instruction sent to a session actor (spec.md §4.6).
// Every command carries a one-shot reply channel; only the fields relevant
// to Kind are meaningful.
type Command struct {
	Kind CommandKind

	Move chess.Move // CmdMakeMove

	ResetFEN *string // CmdReset

	EngineConfig chess.EngineConfig // CmdConfigureEngine

	WhiteMs int64 // CmdSetTimer
	BlackMs int64 // CmdSetTimer

	From *chess.Square // CmdGetLegalMoves

	Reply chan Reply
}
