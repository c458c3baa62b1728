// Package rpcservice is the RPC surface of chessd (spec.md §6): one
// exported method per operation, taking a context and a plain request
// struct and returning a plain response struct or an error. The wire format
// is explicitly out of scope ("wire format not specified here"), so this
// package stands in for generated protobuf service code the way
// internal/session.Command/Reply already stands in for the actor's
// message-passing boundary. cmd/server wires a real google.golang.org/grpc
// server for health-check and reflection only; business RPCs are exposed
// through this Go API directly (e.g. to an in-process HTTP or gRPC gateway
// layered on top, which is out of scope here).
package rpcservice

import (
	"context"

	"go.uber.org/zap"

	"github.com/eloinsight/chessd/internal/analysis"
	"github.com/eloinsight/chessd/internal/apperr"
	"github.com/eloinsight/chessd/internal/chess"
	"github.com/eloinsight/chessd/internal/review"
	"github.com/eloinsight/chessd/internal/session"
	"github.com/eloinsight/chessd/internal/storage"
)

// Service wires the session manager, review manager and storage
// repositories into the operations spec.md §6 requires.
type Service struct {
	sessions    *session.Manager
	reviews     *review.Manager
	positions   storage.PositionRepository
	suspended   storage.SessionRepository
	games       gameStore
	gameReviews review.ReviewRepository
	advanced    advancedStore

	logger *zap.Logger
}

// gameStore is the narrow surface Service needs over the finished-games
// repository, satisfied by *sqlite.GameRepo without importing it here
// (storage and review already own that dependency).
type gameStore interface {
	Save(g review.FinishedGame) error
	LoadByID(gameID string) (*review.FinishedGame, error)
	List() ([]review.FinishedGame, error)
	Delete(gameID string) error
}

// advancedStore widens review.AdvancedAnalysisRepository (Save only, used
// by the worker pool) with the LoadByID the get_game_review RPC needs;
// *sqlite.AdvancedRepo implements both.
type advancedStore interface {
	review.AdvancedAnalysisRepository
	LoadByID(gameID string) (*analysis.AdvancedGameAnalysis, error)
}

// New constructs a Service over already-running managers and repositories.
func New(
	sessions *session.Manager,
	reviews *review.Manager,
	positions storage.PositionRepository,
	suspended storage.SessionRepository,
	games gameStore,
	gameReviews review.ReviewRepository,
	advanced advancedStore,
	logger *zap.Logger,
) *Service {
	return &Service{
		sessions:    sessions,
		reviews:     reviews,
		positions:   positions,
		suspended:   suspended,
		games:       games,
		gameReviews: gameReviews,
		advanced:    advanced,
		logger:      logger,
	}
}

// send issues cmd against handle and waits for its reply, or ctx expiring.
func send(ctx context.Context, h *session.Handle, cmd session.Command) (session.Reply, error) {
	reply := make(chan session.Reply, 1)
	cmd.Reply = reply
	h.Send(cmd)
	select {
	case r := <-reply:
		return r, r.Err
	case <-ctx.Done():
		return session.Reply{}, apperr.Wrap(apperr.Internal, "rpc timed out", ctx.Err())
	}
}

// CreateSessionRequest starts a new session.
type CreateSessionRequest struct {
	FEN  string // empty = standard start position
	Mode chess.GameMode
}

type SessionResponse struct {
	SessionID string
	Snapshot  session.Snapshot
}

func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionResponse, error) {
	h, err := s.sessions.Create(req.FEN, req.Mode)
	if err != nil {
		return nil, err
	}
	r, err := send(ctx, h, session.Command{Kind: session.CmdGetSnapshot})
	if err != nil {
		return nil, err
	}
	return &SessionResponse{SessionID: h.ID, Snapshot: r.Snapshot}, nil
}

func (s *Service) GetSession(ctx context.Context, sessionID string) (*SessionResponse, error) {
	h, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	r, err := send(ctx, h, session.Command{Kind: session.CmdGetSnapshot})
	if err != nil {
		return nil, err
	}
	return &SessionResponse{SessionID: sessionID, Snapshot: r.Snapshot}, nil
}

func (s *Service) CloseSession(ctx context.Context, sessionID string) error {
	return s.sessions.Close(sessionID)
}

type MakeMoveRequest struct {
	SessionID string
	Move      chess.Move
}

func (s *Service) MakeMove(ctx context.Context, req MakeMoveRequest) (*SessionResponse, error) {
	h, err := s.sessions.Get(req.SessionID)
	if err != nil {
		return nil, err
	}
	if _, err := send(ctx, h, session.Command{Kind: session.CmdMakeMove, Move: req.Move}); err != nil {
		return nil, err
	}
	return s.snapshotAfter(ctx, h, req.SessionID)
}

// snapshotAfter re-reads the snapshot once a mutating command has already
// been applied; every mutating RPC returns the post-mutation snapshot this
// way rather than threading state through each command's own reply.
func (s *Service) snapshotAfter(ctx context.Context, h *session.Handle, sessionID string) (*SessionResponse, error) {
	r, err := send(ctx, h, session.Command{Kind: session.CmdGetSnapshot})
	if err != nil {
		return nil, err
	}
	return &SessionResponse{SessionID: sessionID, Snapshot: r.Snapshot}, nil
}

type GetLegalMovesRequest struct {
	SessionID string
	From      *chess.Square
}

func (s *Service) GetLegalMoves(ctx context.Context, req GetLegalMovesRequest) ([]chess.Move, error) {
	h, err := s.sessions.Get(req.SessionID)
	if err != nil {
		return nil, err
	}
	r, err := send(ctx, h, session.Command{Kind: session.CmdGetLegalMoves, From: req.From})
	if err != nil {
		return nil, err
	}
	return r.LegalMoves, nil
}

func (s *Service) UndoMove(ctx context.Context, sessionID string) (*SessionResponse, error) {
	h, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := send(ctx, h, session.Command{Kind: session.CmdUndo}); err != nil {
		return nil, err
	}
	return s.snapshotAfter(ctx, h, sessionID)
}

func (s *Service) RedoMove(ctx context.Context, sessionID string) (*SessionResponse, error) {
	h, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := send(ctx, h, session.Command{Kind: session.CmdRedo}); err != nil {
		return nil, err
	}
	return s.snapshotAfter(ctx, h, sessionID)
}

type ResetGameRequest struct {
	SessionID string
	FEN       *string
}

func (s *Service) ResetGame(ctx context.Context, req ResetGameRequest) (*SessionResponse, error) {
	h, err := s.sessions.Get(req.SessionID)
	if err != nil {
		return nil, err
	}
	if _, err := send(ctx, h, session.Command{Kind: session.CmdReset, ResetFEN: req.FEN}); err != nil {
		return nil, err
	}
	return s.snapshotAfter(ctx, h, req.SessionID)
}

type SetEngineRequest struct {
	SessionID string
	Config    chess.EngineConfig
}

func (s *Service) SetEngine(ctx context.Context, req SetEngineRequest) (*SessionResponse, error) {
	h, err := s.sessions.Get(req.SessionID)
	if err != nil {
		return nil, err
	}
	if _, err := send(ctx, h, session.Command{Kind: session.CmdConfigureEngine, EngineConfig: req.Config}); err != nil {
		return nil, err
	}
	return s.snapshotAfter(ctx, h, req.SessionID)
}

func (s *Service) TriggerEngineMove(ctx context.Context, sessionID string) error {
	h, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	_, err = send(ctx, h, session.Command{Kind: session.CmdTriggerEngineMove})
	return err
}

func (s *Service) StopEngine(ctx context.Context, sessionID string) error {
	h, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	_, err = send(ctx, h, session.Command{Kind: session.CmdStopEngine})
	return err
}

func (s *Service) PauseGame(ctx context.Context, sessionID string) (*SessionResponse, error) {
	h, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := send(ctx, h, session.Command{Kind: session.CmdPause}); err != nil {
		return nil, err
	}
	return s.snapshotAfter(ctx, h, sessionID)
}

func (s *Service) ResumeGame(ctx context.Context, sessionID string) (*SessionResponse, error) {
	h, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := send(ctx, h, session.Command{Kind: session.CmdResume}); err != nil {
		return nil, err
	}
	return s.snapshotAfter(ctx, h, sessionID)
}

type SetTimerRequest struct {
	SessionID string
	WhiteMs   int64
	BlackMs   int64
}

func (s *Service) SetTimer(ctx context.Context, req SetTimerRequest) (*SessionResponse, error) {
	h, err := s.sessions.Get(req.SessionID)
	if err != nil {
		return nil, err
	}
	if _, err := send(ctx, h, session.Command{Kind: session.CmdSetTimer, WhiteMs: req.WhiteMs, BlackMs: req.BlackMs}); err != nil {
		return nil, err
	}
	return s.snapshotAfter(ctx, h, req.SessionID)
}

// StreamEvents subscribes to a session's broadcast stream (spec.md §6's
// streaming stream_events). The returned snapshot predates every event
// delivered on the channel.
func (s *Service) StreamEvents(ctx context.Context, sessionID string) (session.Snapshot, <-chan session.Event, error) {
	h, err := s.sessions.Get(sessionID)
	if err != nil {
		return session.Snapshot{}, nil, err
	}
	r, err := send(ctx, h, session.Command{Kind: session.CmdSubscribe})
	if err != nil {
		return session.Snapshot{}, nil, err
	}
	return r.Snapshot, r.Subscriber, nil
}

// SuspendSession persists a session's resumable state and closes its actor.
func (s *Service) SuspendSession(ctx context.Context, sessionID string, now int64) (string, error) {
	h, err := s.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}
	r, err := send(ctx, h, session.Command{Kind: session.CmdGetSnapshot})
	if err != nil {
		return "", err
	}
	snap := r.Snapshot

	skill := 0
	if snap.EngineConfig != nil {
		skill = snap.EngineConfig.SkillLevel
	}
	suspended := chess.SuspendedSession{
		ID:         sessionID,
		FEN:        snap.FEN,
		SideToMove: snap.SideToMove,
		MoveCount:  snap.MoveCount,
		GameMode:   snap.GameMode,
		SkillLevel: skill,
		CreatedAt:  now,
	}
	if err := s.suspended.Save(suspended); err != nil {
		return "", err
	}
	if err := s.sessions.Close(sessionID); err != nil {
		return "", err
	}
	return sessionID, nil
}

func (s *Service) ListSuspendedSessions(ctx context.Context) ([]chess.SuspendedSession, error) {
	return s.suspended.List()
}

// ResumeSuspendedSession reconstructs a live session from a suspended record
// and deletes the suspended record.
func (s *Service) ResumeSuspendedSession(ctx context.Context, suspendedID string) (*SessionResponse, error) {
	rec, err := s.suspended.LoadByID(suspendedID)
	if err != nil {
		return nil, err
	}
	h, err := s.sessions.Create(rec.FEN, rec.GameMode)
	if err != nil {
		return nil, err
	}
	if err := s.suspended.Delete(suspendedID); err != nil {
		s.logger.Warn("failed to delete resumed suspended session", zap.String("suspended_id", suspendedID), zap.Error(err))
	}
	r, err := send(ctx, h, session.Command{Kind: session.CmdGetSnapshot})
	if err != nil {
		return nil, err
	}
	return &SessionResponse{SessionID: h.ID, Snapshot: r.Snapshot}, nil
}

func (s *Service) DeleteSuspendedSession(ctx context.Context, suspendedID string) error {
	return s.suspended.Delete(suspendedID)
}

type SavePositionRequest struct {
	ID        string
	Name      string
	FEN       string
	IsDefault bool
	CreatedAt int64
}

func (s *Service) SavePosition(ctx context.Context, req SavePositionRequest) error {
	return s.positions.Save(chess.SavedPosition{
		ID:        req.ID,
		Name:      req.Name,
		FEN:       req.FEN,
		IsDefault: req.IsDefault,
		CreatedAt: req.CreatedAt,
	})
}

func (s *Service) ListPositions(ctx context.Context) ([]chess.SavedPosition, error) {
	return s.positions.List()
}

func (s *Service) DeletePosition(ctx context.Context, positionID string) error {
	return s.positions.Delete(positionID)
}

func (s *Service) ListFinishedGames(ctx context.Context) ([]review.FinishedGame, error) {
	return s.games.List()
}

func (s *Service) DeleteFinishedGame(ctx context.Context, gameID string) error {
	return s.games.Delete(gameID)
}

// EnqueueReview submits a finished game for background analysis.
func (s *Service) EnqueueReview(ctx context.Context, gameID string) error {
	return s.reviews.Enqueue(gameID)
}

type ReviewStatusResponse struct {
	GameID string
	Status chess.ReviewStatus
}

func (s *Service) GetReviewStatus(ctx context.Context, gameID string) (*ReviewStatusResponse, error) {
	rev, err := s.gameReviews.LoadByID(gameID)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return nil, apperr.New(apperr.NotFound, "review "+gameID+" not found")
	}
	return &ReviewStatusResponse{GameID: gameID, Status: rev.Status}, nil
}

func (s *Service) GetGameReview(ctx context.Context, gameID string) (*chess.GameReview, error) {
	rev, err := s.gameReviews.LoadByID(gameID)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return nil, apperr.New(apperr.NotFound, "review "+gameID+" not found")
	}
	return rev, nil
}

// GetAdvancedAnalysis fetches the tactical/psychological aggregate a
// completed review computed (spec.md §6 groups this under get_game_review's
// response; exposed as its own call since not every caller needs it).
func (s *Service) GetAdvancedAnalysis(ctx context.Context, gameID string) (*analysis.AdvancedGameAnalysis, error) {
	return s.advanced.LoadByID(gameID)
}
