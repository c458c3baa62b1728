package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eloinsight/chessd/internal/apperr"
	"github.com/eloinsight/chessd/internal/chess"
	"github.com/eloinsight/chessd/internal/rules"
	"github.com/eloinsight/chessd/internal/uci"
)

// tickInterval is the timer poll rate (spec.md §4.6: "~10 Hz").
const tickInterval = 100 * time.Millisecond

// Actor owns one session's state exclusively. All external operations go
// through Commands; nothing else holds a reference to State.
type Actor struct {
	state       *State
	commands    chan Command
	broadcaster broadcaster
	logger      *zap.Logger

	engineBinaryPath       string
	engineHandshakeTimeout time.Duration
}

// NewActor constructs an actor for a freshly created session.
func NewActor(fen string, mode chess.GameMode, engineBinaryPath string, handshakeTimeout time.Duration, logger *zap.Logger) (*Actor, error) {
	state, err := NewState(fen, mode)
	if err != nil {
		return nil, err
	}
	return &Actor{
		state:                  state,
		commands:               make(chan Command, 32),
		logger:                 logger,
		engineBinaryPath:       engineBinaryPath,
		engineHandshakeTimeout: handshakeTimeout,
	}, nil
}

// Send enqueues a command. The caller owns cmd.Reply and should read from
// it for the result.
func (a *Actor) Send(cmd Command) { a.commands <- cmd }

// Run is the actor's main loop (spec.md §4.6): one select over commands,
// engine events and timer ticks. When several are ready at once Go picks
// among them at random, so commands are not given priority over the others.
func (a *Actor) Run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		var engineEvents <-chan uci.Event
		if a.state.Engine != nil {
			engineEvents = a.state.Engine.Events()
		}

		select {
		case cmd, ok := <-a.commands:
			if !ok {
				return
			}
			if cmd.Kind == CmdShutdown {
				a.shutdown()
				if cmd.Reply != nil {
					cmd.Reply <- Reply{}
				}
				return
			}
			a.handleCommand(cmd)

		case ev, ok := <-engineEvents:
			if !ok {
				continue
			}
			a.handleEngineEvent(ev)

		case now := <-ticker.C:
			a.handleTick(now)
		}
	}
}

func (a *Actor) handleCommand(cmd Command) {
	var err error
	mutates := true
	reply := Reply{}

	switch cmd.Kind {
	case CmdMakeMove:
		err = a.applyMove(cmd.Move)
	case CmdUndo:
		err = a.undo()
	case CmdRedo:
		err = a.redo()
	case CmdReset:
		err = a.reset(cmd.ResetFEN)
	case CmdConfigureEngine:
		err = a.configureEngine(cmd.EngineConfig)
	case CmdStopEngine:
		a.stopEngine()
	case CmdPause:
		err = a.pause()
	case CmdResume:
		err = a.resume()
	case CmdSetTimer:
		a.setTimer(cmd.WhiteMs, cmd.BlackMs)
	case CmdGetSnapshot:
		mutates = false
		reply.Snapshot = a.state.Snapshot()
	case CmdGetLegalMoves:
		mutates = false
		reply.LegalMoves, err = a.legalMoves(cmd.From)
	case CmdSubscribe:
		mutates = false
		reply.Subscriber = a.broadcaster.subscribe()
		reply.Snapshot = a.state.Snapshot()
	case CmdTriggerEngineMove:
		mutates = false
		err = a.triggerEngineMove()
	}

	reply.Err = err
	if cmd.Reply != nil {
		cmd.Reply <- reply
	}
	if err != nil {
		a.broadcaster.publish(Event{Kind: EvtError, Message: err.Error()})
		return
	}
	if mutates {
		a.broadcaster.publish(Event{Kind: EvtStateChanged, Snapshot: a.state.Snapshot()})
		a.autoTriggerCheck()
	}
}

func (a *Actor) handleEngineEvent(ev uci.Event) {
	switch ev.Kind {
	case uci.EvtBestMove:
		a.state.EngineThinking = false
		if a.state.Phase.Kind == chess.PhasePaused || ev.BestMove == nil {
			return // stale from a prior Stop, or the engine reported (none)
		}
		mv := ReconcileCastlingMove(a.state.Game.Board, *ev.BestMove)
		if err := a.applyMove(mv); err != nil {
			a.broadcaster.publish(Event{Kind: EvtError, Message: err.Error()})
			return
		}
		a.broadcaster.publish(Event{Kind: EvtStateChanged, Snapshot: a.state.Snapshot()})
		a.autoTriggerCheck()

	case uci.EvtInfo:
		info := ev.Info
		a.state.LastAnalysis = &info
		a.broadcaster.publish(Event{Kind: EvtEngineThinking, Analysis: &info})

	case uci.EvtRawMessage:
		a.broadcaster.publish(Event{Kind: EvtUciMessage, UciEntry: ev.Message})

	case uci.EvtError:
		a.broadcaster.publish(Event{Kind: EvtError, Message: ev.Err})
	}
}

func (a *Actor) handleTick(now time.Time) {
	expired := a.state.tickTimer(now)
	if expired == nil {
		return
	}
	winner := chess.BlackWins
	if *expired == chess.Black {
		winner = chess.WhiteWins
	}
	a.state.Phase = chess.EndedPhase(winner, "time expired")
	a.state.Timer.Stop()
	a.broadcaster.publish(Event{Kind: EvtStateChanged, Snapshot: a.state.Snapshot()})
}

func (a *Actor) shutdown() {
	if a.state.Engine != nil {
		a.state.Engine.Quit()
		a.state.Engine = nil
	}
}

// applyMove validates and applies mv, updating history, phase and timer.
func (a *Actor) applyMove(mv chess.Move) error {
	if a.state.Phase.Kind != chess.PhasePlaying && a.state.Phase.Kind != chess.PhaseSetup {
		return apperr.New(apperr.InvalidPhaseTransition, "cannot move outside Playing/Setup")
	}

	boardBefore := a.state.Game.Board.Clone()
	fenBefore := boardBefore.FEN()

	legal, err := rules.LegalMoves(fenBefore, &mv.From)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "legal move generation failed", err)
	}
	found := false
	for _, m := range legal {
		if m == mv {
			found = true
			break
		}
	}
	if !found {
		return apperr.New(apperr.IllegalMove, chess.FormatUCIMove(mv))
	}

	res, err := rules.Push(fenBefore, mv)
	if err != nil {
		return apperr.Wrap(apperr.IllegalMove, "engine rejected move", err)
	}
	newBoard, err := chess.ParseFEN(res.FENAfter)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "corrupt fen after push", err)
	}

	movedPiece := boardBefore.Piece(mv.From)
	entry := chess.HistoryEntry{
		Move:        mv,
		Piece:       movedPiece.Type,
		PieceColor:  movedPiece.Color,
		Captured:    res.Captured,
		Promotion:   mv.Promotion,
		SAN:         res.SAN,
		FENAfter:    res.FENAfter,
		BoardBefore: boardBefore,
	}

	a.state.Game.Board = newBoard
	a.state.Game.History = append(a.state.Game.History, entry)
	a.state.Game.Redo = nil

	a.applyOutcome(res.Outcome)
	if a.state.Timer != nil && a.state.Phase.Kind == chess.PhasePlaying {
		a.state.Timer.SwitchTo(a.state.Game.Board.SideToMove, time.Now())
	}
	return nil
}

func (a *Actor) applyOutcome(o rules.Outcome) {
	switch o.Status {
	case rules.Won:
		result := chess.WhiteWins
		if o.Winner != nil && *o.Winner == chess.Black {
			result = chess.BlackWins
		}
		a.state.Phase = chess.EndedPhase(result, o.Reason)
		if a.state.Timer != nil {
			a.state.Timer.Stop()
		}
	case rules.Drawn:
		a.state.Phase = chess.EndedPhase(chess.Draw, o.Reason)
		if a.state.Timer != nil {
			a.state.Timer.Stop()
		}
	default:
		a.state.recomputePhase()
	}
}

func (a *Actor) undo() error {
	n := len(a.state.Game.History)
	if n == 0 {
		return apperr.New(apperr.NothingToUndo, "history is empty")
	}
	entry := a.state.Game.History[n-1]
	a.state.Game.History = a.state.Game.History[:n-1]
	a.state.Game.Redo = append(a.state.Game.Redo, entry)
	a.state.Game.Board = entry.BoardBefore
	a.state.recomputePhase()
	return nil
}

func (a *Actor) redo() error {
	n := len(a.state.Game.Redo)
	if n == 0 {
		return apperr.New(apperr.NothingToRedo, "redo stack is empty")
	}
	entry := a.state.Game.Redo[n-1]
	a.state.Game.Redo = a.state.Game.Redo[:n-1]
	newBoard, err := chess.ParseFEN(entry.FENAfter)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "corrupt history entry", err)
	}
	a.state.Game.Board = newBoard
	a.state.Game.History = append(a.state.Game.History, entry)
	a.state.recomputePhase()
	return nil
}

func (a *Actor) reset(fen *string) error {
	f := chess.StartFEN
	if fen != nil && *fen != "" {
		f = *fen
	}
	board, err := chess.ParseFEN(f)
	if err != nil {
		return apperr.Wrap(apperr.InvalidFen, "bad fen", err)
	}
	a.state.Game = Game{Board: board}
	a.state.Phase = chess.SetupPhase()
	a.state.Timer = nil
	return nil
}

func (a *Actor) configureEngine(cfg chess.EngineConfig) error {
	if a.state.Engine != nil {
		a.state.Engine.Quit()
		a.state.Engine = nil
	}
	a.state.EngineConfig = &cfg
	a.state.EngineThinking = false
	if !cfg.Enabled {
		return nil
	}

	threads := 1
	if cfg.Threads != nil {
		threads = *cfg.Threads
	}
	hash := 64
	if cfg.HashMB != nil {
		hash = *cfg.HashMB
	}

	driver, err := uci.Start(context.Background(), a.engineBinaryPath, uci.Options{
		SkillLevel: cfg.SkillLevel,
		Threads:    threads,
		HashMB:     hash,
	}, a.engineHandshakeTimeout, a.logger)
	if err != nil {
		a.state.EngineConfig = nil
		return apperr.Wrap(apperr.EngineProtocol, "engine start failed", err)
	}
	a.state.Engine = driver
	return nil
}

func (a *Actor) stopEngine() {
	if a.state.Engine != nil {
		a.state.Engine.Quit()
		a.state.Engine = nil
	}
	a.state.EngineConfig = nil
	a.state.EngineThinking = false
}

func (a *Actor) pause() error {
	if a.state.Phase.Kind != chess.PhasePlaying {
		return apperr.New(apperr.InvalidPhaseTransition, "not playing")
	}
	resumeTurn := a.state.Phase.Turn
	a.state.Phase = chess.PausedPhase(resumeTurn)
	if a.state.Timer != nil {
		a.state.Timer.Stop()
	}
	if a.state.Engine != nil {
		a.state.Engine.Stop()
	}
	return nil
}

func (a *Actor) resume() error {
	if a.state.Phase.Kind != chess.PhasePaused {
		return apperr.New(apperr.InvalidPhaseTransition, "not paused")
	}
	a.state.Phase = chess.PlayingPhase(a.state.Phase.ResumeTurn)
	if a.state.Timer != nil {
		a.state.Timer.SwitchTo(a.state.Phase.Turn, time.Now())
	}
	return nil
}

func (a *Actor) setTimer(whiteMs, blackMs int64) {
	t := &chess.TimerState{WhiteMs: whiteMs, BlackMs: blackMs}
	if a.state.Phase.Kind == chess.PhasePlaying {
		t.SwitchTo(a.state.Game.Board.SideToMove, time.Now())
	}
	a.state.Timer = t
}

func (a *Actor) legalMoves(from *chess.Square) ([]chess.Move, error) {
	moves, err := rules.LegalMoves(a.state.Game.Board.FEN(), from)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "legal move generation failed", err)
	}
	return moves, nil
}

// triggerEngineMove forces an engine search on the current position,
// bypassing the game-mode gate in shouldAutoTrigger (spec.md §6's
// trigger_engine_move RPC). Still refuses while the engine is already
// thinking or the game has ended.
func (a *Actor) triggerEngineMove() error {
	if a.state.Engine == nil || a.state.EngineConfig == nil || !a.state.EngineConfig.Enabled {
		return apperr.New(apperr.EngineNotConfigured, "no engine configured for this session")
	}
	if a.state.EngineThinking {
		return nil
	}
	if a.state.Phase.Kind != chess.PhasePlaying {
		return apperr.New(apperr.InvalidPhaseTransition, "not playing")
	}
	status, err := rules.StatusOf(a.state.Game.Board.FEN())
	if err != nil {
		return apperr.Wrap(apperr.Internal, "status check failed", err)
	}
	if status.Status != rules.Ongoing {
		return apperr.New(apperr.InvalidPhaseTransition, "game has ended")
	}
	a.state.Engine.SetPosition(a.state.Game.Board.FEN(), nil)
	a.state.Engine.Go(skillToGoParams(a.state.EngineConfig.SkillLevel))
	a.state.EngineThinking = true
	return nil
}

// autoTriggerCheck implements spec.md §4.6's auto-trigger rule.
func (a *Actor) autoTriggerCheck() {
	if !a.state.shouldAutoTrigger() {
		return
	}
	status, err := rules.StatusOf(a.state.Game.Board.FEN())
	if err != nil || status.Status != rules.Ongoing {
		return
	}
	a.state.Engine.SetPosition(a.state.Game.Board.FEN(), nil)
	a.state.Engine.Go(skillToGoParams(a.state.EngineConfig.SkillLevel))
	a.state.EngineThinking = true
}
