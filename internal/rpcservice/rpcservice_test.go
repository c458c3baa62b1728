package rpcservice

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eloinsight/chessd/internal/analysis"
	"github.com/eloinsight/chessd/internal/apperr"
	"github.com/eloinsight/chessd/internal/chess"
	"github.com/eloinsight/chessd/internal/review"
	"github.com/eloinsight/chessd/internal/session"
)

type fakePositionRepo struct {
	byID map[string]chess.SavedPosition
}

func (f *fakePositionRepo) Save(p chess.SavedPosition) error {
	if f.byID == nil {
		f.byID = map[string]chess.SavedPosition{}
	}
	f.byID[p.ID] = p
	return nil
}
func (f *fakePositionRepo) LoadByID(id string) (*chess.SavedPosition, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "position "+id)
	}
	return &p, nil
}
func (f *fakePositionRepo) List() ([]chess.SavedPosition, error) {
	var out []chess.SavedPosition
	for _, p := range f.byID {
		out = append(out, p)
	}
	return out, nil
}
func (f *fakePositionRepo) Delete(id string) error {
	delete(f.byID, id)
	return nil
}

type fakeSessionRepo struct {
	byID map[string]chess.SuspendedSession
}

func (f *fakeSessionRepo) Save(s chess.SuspendedSession) error {
	if f.byID == nil {
		f.byID = map[string]chess.SuspendedSession{}
	}
	f.byID[s.ID] = s
	return nil
}
func (f *fakeSessionRepo) LoadByID(id string) (*chess.SuspendedSession, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "suspended session "+id)
	}
	return &s, nil
}
func (f *fakeSessionRepo) List() ([]chess.SuspendedSession, error) {
	var out []chess.SuspendedSession
	for _, s := range f.byID {
		out = append(out, s)
	}
	return out, nil
}
func (f *fakeSessionRepo) Delete(id string) error {
	delete(f.byID, id)
	return nil
}

type fakeGameStore struct {
	byID map[string]review.FinishedGame
}

func (f *fakeGameStore) Save(g review.FinishedGame) error {
	if f.byID == nil {
		f.byID = map[string]review.FinishedGame{}
	}
	f.byID[g.GameID] = g
	return nil
}
func (f *fakeGameStore) LoadByID(id string) (*review.FinishedGame, error) {
	g, ok := f.byID[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "game "+id)
	}
	return &g, nil
}
func (f *fakeGameStore) List() ([]review.FinishedGame, error) {
	var out []review.FinishedGame
	for _, g := range f.byID {
		out = append(out, g)
	}
	return out, nil
}
func (f *fakeGameStore) Delete(id string) error {
	delete(f.byID, id)
	return nil
}

type fakeReviewRepo struct {
	byID map[string]*chess.GameReview
}

func (f *fakeReviewRepo) Save(r *chess.GameReview) error {
	if f.byID == nil {
		f.byID = map[string]*chess.GameReview{}
	}
	f.byID[r.GameID] = r
	return nil
}
func (f *fakeReviewRepo) LoadByID(id string) (*chess.GameReview, error) {
	return f.byID[id], nil
}

type fakeAdvancedStore struct {
	byID map[string]analysis.AdvancedGameAnalysis
}

func (f *fakeAdvancedStore) Save(gameID string, a analysis.AdvancedGameAnalysis) error {
	if f.byID == nil {
		f.byID = map[string]analysis.AdvancedGameAnalysis{}
	}
	f.byID[gameID] = a
	return nil
}
func (f *fakeAdvancedStore) LoadByID(gameID string) (*analysis.AdvancedGameAnalysis, error) {
	a, ok := f.byID[gameID]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "advanced analysis "+gameID)
	}
	return &a, nil
}

func newTestService(t *testing.T) (*Service, *fakeGameStore) {
	t.Helper()
	sessions := session.NewManager("", 0, zap.NewNop())
	games := &fakeGameStore{byID: map[string]review.FinishedGame{}}
	reviews := review.NewManager(games, 4, zap.NewNop())
	svc := New(sessions, reviews, &fakePositionRepo{}, &fakeSessionRepo{}, games, &fakeReviewRepo{}, &fakeAdvancedStore{}, zap.NewNop())
	return svc, games
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

func TestServiceCreateAndGetSession(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.CreateSession(ctx(t), CreateSessionRequest{Mode: chess.GameMode{Kind: chess.HumanVsHuman}})
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}
	if created.SessionID == "" {
		t.Fatal("CreateSession returned empty SessionID")
	}
	t.Cleanup(func() { svc.CloseSession(ctx(t), created.SessionID) })

	got, err := svc.GetSession(ctx(t), created.SessionID)
	if err != nil {
		t.Fatalf("GetSession error: %v", err)
	}
	if got.Snapshot.FEN != chess.StartFEN {
		t.Errorf("Snapshot.FEN = %q, want start position", got.Snapshot.FEN)
	}
}

func TestServiceGetSessionUnknownIDFails(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.GetSession(ctx(t), "missing"); err == nil {
		t.Error("GetSession(missing) expected an error, got nil")
	}
}

func TestServiceMakeMoveAdvancesGame(t *testing.T) {
	svc, _ := newTestService(t)
	created, _ := svc.CreateSession(ctx(t), CreateSessionRequest{Mode: chess.GameMode{Kind: chess.HumanVsHuman}})
	t.Cleanup(func() { svc.CloseSession(ctx(t), created.SessionID) })

	e2, _ := chess.ParseSquare("e2")
	e4, _ := chess.ParseSquare("e4")
	got, err := svc.MakeMove(ctx(t), MakeMoveRequest{SessionID: created.SessionID, Move: chess.Move{From: e2, To: e4}})
	if err != nil {
		t.Fatalf("MakeMove error: %v", err)
	}
	if got.Snapshot.SideToMove != chess.Black {
		t.Errorf("SideToMove after e4 = %v, want Black", got.Snapshot.SideToMove)
	}
	if got.Snapshot.MoveCount != 1 {
		t.Errorf("MoveCount = %d, want 1", got.Snapshot.MoveCount)
	}
}

func TestServiceUndoRedoRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	created, _ := svc.CreateSession(ctx(t), CreateSessionRequest{Mode: chess.GameMode{Kind: chess.HumanVsHuman}})
	t.Cleanup(func() { svc.CloseSession(ctx(t), created.SessionID) })

	e2, _ := chess.ParseSquare("e2")
	e4, _ := chess.ParseSquare("e4")
	svc.MakeMove(ctx(t), MakeMoveRequest{SessionID: created.SessionID, Move: chess.Move{From: e2, To: e4}})

	undone, err := svc.UndoMove(ctx(t), created.SessionID)
	if err != nil {
		t.Fatalf("UndoMove error: %v", err)
	}
	if undone.Snapshot.FEN != chess.StartFEN {
		t.Errorf("FEN after undo = %q, want start position", undone.Snapshot.FEN)
	}

	redone, err := svc.RedoMove(ctx(t), created.SessionID)
	if err != nil {
		t.Fatalf("RedoMove error: %v", err)
	}
	if redone.Snapshot.SideToMove != chess.Black {
		t.Errorf("SideToMove after redo = %v, want Black", redone.Snapshot.SideToMove)
	}
}

func TestServiceCloseSessionThenGetFails(t *testing.T) {
	svc, _ := newTestService(t)
	created, _ := svc.CreateSession(ctx(t), CreateSessionRequest{Mode: chess.GameMode{Kind: chess.HumanVsHuman}})

	if err := svc.CloseSession(ctx(t), created.SessionID); err != nil {
		t.Fatalf("CloseSession error: %v", err)
	}
	if _, err := svc.GetSession(ctx(t), created.SessionID); err == nil {
		t.Error("GetSession after CloseSession expected an error, got nil")
	}
}

func TestServiceSuspendAndResumeSession(t *testing.T) {
	svc, _ := newTestService(t)
	created, _ := svc.CreateSession(ctx(t), CreateSessionRequest{Mode: chess.GameMode{Kind: chess.HumanVsHuman}})

	suspendedID, err := svc.SuspendSession(ctx(t), created.SessionID, 1000)
	if err != nil {
		t.Fatalf("SuspendSession error: %v", err)
	}
	if _, err := svc.GetSession(ctx(t), created.SessionID); err == nil {
		t.Error("GetSession after SuspendSession expected an error (actor should be closed), got nil")
	}

	list, err := svc.ListSuspendedSessions(ctx(t))
	if err != nil {
		t.Fatalf("ListSuspendedSessions error: %v", err)
	}
	if len(list) != 1 || list[0].ID != suspendedID {
		t.Errorf("ListSuspendedSessions = %+v, want one entry with ID %q", list, suspendedID)
	}

	resumed, err := svc.ResumeSuspendedSession(ctx(t), suspendedID)
	if err != nil {
		t.Fatalf("ResumeSuspendedSession error: %v", err)
	}
	t.Cleanup(func() { svc.CloseSession(ctx(t), resumed.SessionID) })
	if resumed.Snapshot.FEN != chess.StartFEN {
		t.Errorf("resumed Snapshot.FEN = %q, want start position", resumed.Snapshot.FEN)
	}

	remaining, err := svc.ListSuspendedSessions(ctx(t))
	if err != nil {
		t.Fatalf("ListSuspendedSessions after resume error: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("ListSuspendedSessions after resume = %+v, want empty (record consumed)", remaining)
	}
}

func TestServiceSavePositionListAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.SavePosition(ctx(t), SavePositionRequest{ID: "p1", Name: "Start", FEN: chess.StartFEN}); err != nil {
		t.Fatalf("SavePosition error: %v", err)
	}
	list, err := svc.ListPositions(ctx(t))
	if err != nil {
		t.Fatalf("ListPositions error: %v", err)
	}
	if len(list) != 1 || list[0].ID != "p1" {
		t.Errorf("ListPositions = %+v, want one entry p1", list)
	}
	if err := svc.DeletePosition(ctx(t), "p1"); err != nil {
		t.Fatalf("DeletePosition error: %v", err)
	}
	list, _ = svc.ListPositions(ctx(t))
	if len(list) != 0 {
		t.Errorf("ListPositions after delete = %+v, want empty", list)
	}
}

func TestServiceEnqueueReviewAndGetStatus(t *testing.T) {
	svc, games := newTestService(t)
	games.byID["g1"] = review.FinishedGame{GameID: "g1", StartFEN: chess.StartFEN}

	if err := svc.EnqueueReview(ctx(t), "g1"); err != nil {
		t.Fatalf("EnqueueReview error: %v", err)
	}

	if _, err := svc.GetReviewStatus(ctx(t), "g1"); err == nil {
		t.Error("GetReviewStatus before any review is saved expected NotFound, got nil")
	} else if apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("KindOf(err) = %v, want NotFound", apperr.KindOf(err))
	}
}

func TestServiceEnqueueReviewUnknownGameFails(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.EnqueueReview(ctx(t), "missing"); err == nil {
		t.Error("EnqueueReview(missing game) expected an error, got nil")
	}
}

func TestServiceGetAdvancedAnalysisNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.GetAdvancedAnalysis(ctx(t), "missing"); err == nil {
		t.Error("GetAdvancedAnalysis(missing) expected an error, got nil")
	}
}

func TestServiceStreamEventsReceivesStateChanged(t *testing.T) {
	svc, _ := newTestService(t)
	created, _ := svc.CreateSession(ctx(t), CreateSessionRequest{Mode: chess.GameMode{Kind: chess.HumanVsHuman}})
	t.Cleanup(func() { svc.CloseSession(ctx(t), created.SessionID) })

	_, events, err := svc.StreamEvents(ctx(t), created.SessionID)
	if err != nil {
		t.Fatalf("StreamEvents error: %v", err)
	}

	e2, _ := chess.ParseSquare("e2")
	e4, _ := chess.ParseSquare("e4")
	if _, err := svc.MakeMove(ctx(t), MakeMoveRequest{SessionID: created.SessionID, Move: chess.Move{From: e2, To: e4}}); err != nil {
		t.Fatalf("MakeMove error: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Kind != session.EvtStateChanged {
			t.Errorf("event kind = %v, want EvtStateChanged", ev.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a state-changed event")
	}
}
