package sqlite

import (
	"testing"

	"github.com/eloinsight/chessd/internal/chess"
	"github.com/eloinsight/chessd/internal/review"
)

func TestGameRepoSaveLoadRoundTrip(t *testing.T) {
	repo := NewGameRepo(openTestDB(t))
	e2, _ := chess.ParseSquare("e2")
	e4, _ := chess.ParseSquare("e4")
	clock := 59000

	g := review.FinishedGame{
		GameID:       "g1",
		StartFEN:     chess.StartFEN,
		Result:       chess.WhiteWins,
		ResultReason: "checkmate",
		GameMode:     chess.GameMode{Kind: chess.HumanVsHuman},
		SkillLevel:   0,
		CreatedAt:    1000,
		Moves: []review.StoredMove{
			{Ply: 1, From: e2, To: e4, Piece: chess.Pawn, SAN: "e4",
				FENAfter: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", ClockMs: &clock},
		},
	}

	if err := repo.Save(g); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := repo.LoadByID("g1")
	if err != nil {
		t.Fatalf("LoadByID error: %v", err)
	}
	if got.GameID != g.GameID || got.Result != g.Result || got.ResultReason != g.ResultReason {
		t.Errorf("header mismatch: %+v", got)
	}
	if len(got.Moves) != 1 {
		t.Fatalf("len(Moves) = %d, want 1", len(got.Moves))
	}
	mv := got.Moves[0]
	if mv.From != e2 || mv.To != e4 || mv.SAN != "e4" {
		t.Errorf("move mismatch: %+v", mv)
	}
	if mv.ClockMs == nil || *mv.ClockMs != clock {
		t.Errorf("ClockMs = %v, want %d", mv.ClockMs, clock)
	}
}

func TestGameRepoSaveWithCaptureAndPromotion(t *testing.T) {
	repo := NewGameRepo(openTestDB(t))
	a7, _ := chess.ParseSquare("a7")
	b8, _ := chess.ParseSquare("b8")
	captured := chess.Rook
	promotion := chess.Queen

	g := review.FinishedGame{
		GameID: "g2", StartFEN: chess.StartFEN, Result: chess.WhiteWins,
		GameMode: chess.GameMode{Kind: chess.HumanVsHuman}, CreatedAt: 1000,
		Moves: []review.StoredMove{
			{Ply: 1, From: a7, To: b8, Piece: chess.Pawn, Captured: &captured, Promotion: &promotion,
				SAN: "axb8=Q", FENAfter: chess.StartFEN},
		},
	}
	if err := repo.Save(g); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, err := repo.LoadByID("g2")
	if err != nil {
		t.Fatalf("LoadByID error: %v", err)
	}
	mv := got.Moves[0]
	if mv.Captured == nil || *mv.Captured != chess.Rook {
		t.Errorf("Captured = %v, want Rook", mv.Captured)
	}
	if mv.Promotion == nil || *mv.Promotion != chess.Queen {
		t.Errorf("Promotion = %v, want Queen", mv.Promotion)
	}
}

func TestGameRepoListAndDelete(t *testing.T) {
	repo := NewGameRepo(openTestDB(t))
	repo.Save(review.FinishedGame{GameID: "g1", StartFEN: chess.StartFEN, Result: chess.Draw,
		GameMode: chess.GameMode{Kind: chess.HumanVsHuman}, CreatedAt: 100})
	repo.Save(review.FinishedGame{GameID: "g2", StartFEN: chess.StartFEN, Result: chess.Draw,
		GameMode: chess.GameMode{Kind: chess.HumanVsHuman}, CreatedAt: 200})

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(list))
	}
	if list[0].GameID != "g2" {
		t.Errorf("List()[0].GameID = %q, want g2 (newest first)", list[0].GameID)
	}

	if err := repo.Delete("g1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := repo.LoadByID("g1"); err == nil {
		t.Error("LoadByID after Delete expected an error, got nil")
	}
}

func TestGameRepoLoadByIDNotFound(t *testing.T) {
	repo := NewGameRepo(openTestDB(t))
	if _, err := repo.LoadByID("missing"); err == nil {
		t.Error("LoadByID(missing) expected an error, got nil")
	}
}

// seedFinishedGame inserts a minimal finished game so rows referencing
// finished_games(game_id) can be saved with foreign keys enforced.
func seedFinishedGame(t *testing.T, db *DB, gameID string) {
	t.Helper()
	g := review.FinishedGame{GameID: gameID, StartFEN: chess.StartFEN, Result: chess.Draw,
		GameMode: chess.GameMode{Kind: chess.HumanVsHuman}, CreatedAt: 1}
	if err := NewGameRepo(db).Save(g); err != nil {
		t.Fatalf("seed finished game %s: %v", gameID, err)
	}
}
