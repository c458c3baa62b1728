package rules

import (
	"testing"

	"github.com/eloinsight/chessd/internal/chess"
)

const foolsMateFEN = "rnbqkbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"

func TestLegalMovesStartingPosition(t *testing.T) {
	moves, err := LegalMoves(chess.StartFEN, nil)
	if err != nil {
		t.Fatalf("LegalMoves error: %v", err)
	}
	if len(moves) != 20 {
		t.Errorf("len(LegalMoves(start)) = %d, want 20", len(moves))
	}
}

func TestLegalMovesFilteredByFrom(t *testing.T) {
	e2 := chess.NewSquare(4, 1)
	moves, err := LegalMoves(chess.StartFEN, &e2)
	if err != nil {
		t.Fatalf("LegalMoves error: %v", err)
	}
	if len(moves) != 2 {
		t.Errorf("len(LegalMoves(start, from=e2)) = %d, want 2 (e3, e4)", len(moves))
	}
	for _, mv := range moves {
		if mv.From != e2 {
			t.Errorf("move %+v does not originate from e2", mv)
		}
	}
}

func TestIsForcedStartingPositionIsFalse(t *testing.T) {
	forced, err := IsForced(chess.StartFEN)
	if err != nil {
		t.Fatalf("IsForced error: %v", err)
	}
	if forced {
		t.Errorf("IsForced(start) = true, want false (20 legal moves)")
	}
}

func TestIsCheckStartingPositionIsFalse(t *testing.T) {
	inCheck, err := IsCheck(chess.StartFEN)
	if err != nil {
		t.Fatalf("IsCheck error: %v", err)
	}
	if inCheck {
		t.Errorf("IsCheck(start) = true, want false")
	}
}

func TestStatusOfFoolsMate(t *testing.T) {
	outcome, err := StatusOf(foolsMateFEN)
	if err != nil {
		t.Fatalf("StatusOf error: %v", err)
	}
	if outcome.Status != Won {
		t.Fatalf("StatusOf(fool's mate) = %v, want Won", outcome.Status)
	}
	if outcome.Winner == nil || *outcome.Winner != chess.Black {
		t.Errorf("StatusOf(fool's mate) winner = %v, want Black", outcome.Winner)
	}
}

func TestStatusOfOngoingPosition(t *testing.T) {
	outcome, err := StatusOf(chess.StartFEN)
	if err != nil {
		t.Fatalf("StatusOf error: %v", err)
	}
	if outcome.Status != Ongoing {
		t.Errorf("StatusOf(start) = %v, want Ongoing", outcome.Status)
	}
}

func TestPushPawnOpeningSetsEnPassantTarget(t *testing.T) {
	e2 := chess.NewSquare(4, 1)
	e4 := chess.NewSquare(4, 3)
	res, err := Push(chess.StartFEN, chess.Move{From: e2, To: e4})
	if err != nil {
		t.Fatalf("Push error: %v", err)
	}
	if res.SAN != "e4" {
		t.Errorf("Push SAN = %q, want e4", res.SAN)
	}
	if res.Captured != nil {
		t.Errorf("Push Captured = %v, want nil", res.Captured)
	}

	after, err := chess.ParseFEN(res.FENAfter)
	if err != nil {
		t.Fatalf("ParseFEN(FENAfter) error: %v", err)
	}
	if after.SideToMove != chess.Black {
		t.Errorf("side to move after 1.e4 = %v, want Black", after.SideToMove)
	}
	if after.EnPassant == nil || after.EnPassant.String() != "e3" {
		t.Errorf("en passant target after 1.e4 = %v, want e3", after.EnPassant)
	}
}

func TestPushRejectsIllegalMove(t *testing.T) {
	// There is no legal move from e2 to e5 (pawns can't jump two ranks
	// plus one) in the starting position.
	e2 := chess.NewSquare(4, 1)
	e5 := chess.NewSquare(4, 4)
	if _, err := Push(chess.StartFEN, chess.Move{From: e2, To: e5}); err == nil {
		t.Errorf("Push(illegal move) expected error, got nil")
	}
}

func TestSANForUCIStartingPawnPush(t *testing.T) {
	san, err := SANForUCI(chess.StartFEN, "e2e4")
	if err != nil {
		t.Fatalf("SANForUCI error: %v", err)
	}
	if san != "e4" {
		t.Errorf("SANForUCI(start, e2e4) = %q, want e4", san)
	}
}

func TestSANForUCIRejectsIllegalMove(t *testing.T) {
	if _, err := SANForUCI(chess.StartFEN, "e2e5"); err == nil {
		t.Errorf("SANForUCI(illegal move) expected error, got nil")
	}
}
