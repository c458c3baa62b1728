package review

import (
	"math"
	"testing"

	"github.com/eloinsight/chessd/internal/chess"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestAccuracyFromLossesNoMovesIsPerfect(t *testing.T) {
	if got := accuracyFromLosses(nil); got != 100 {
		t.Errorf("accuracyFromLosses(nil) = %v, want 100", got)
	}
}

func TestAccuracyFromLossesZeroLossIsPerfect(t *testing.T) {
	if got := accuracyFromLosses([]int{0, 0, 0}); got != 100 {
		t.Errorf("accuracyFromLosses(all zero) = %v, want 100", got)
	}
}

func TestAccuracyFromLossesPenaltyIsClampedAtZero(t *testing.T) {
	// A cp-loss of 300+ saturates the per-move penalty at 100.
	got := accuracyFromLosses([]int{600})
	if !almostEqual(got, 0, 1e-9) {
		t.Errorf("accuracyFromLosses([600]) = %v, want 0 (penalty clamped at 100)", got)
	}
}

func TestAccuracyFromLossesAverages(t *testing.T) {
	// penalty(30) = 10, penalty(60) = 20 -> accuracies 90, 80 -> mean 85.
	got := accuracyFromLosses([]int{30, 60})
	if !almostEqual(got, 85, 1e-9) {
		t.Errorf("accuracyFromLosses([30,60]) = %v, want 85", got)
	}
}

func TestComputeAccuraciesSplitsPliesByParity(t *testing.T) {
	positions := []chess.PositionReview{
		{Ply: 1, CpLoss: 0},  // white
		{Ply: 2, CpLoss: 30}, // black
		{Ply: 3, CpLoss: 0},  // white
		{Ply: 4, CpLoss: 60}, // black
	}
	white, black := computeAccuracies(positions)
	if white != 100 {
		t.Errorf("white accuracy = %v, want 100 (zero loss on every white ply)", white)
	}
	wantBlack := (100 - 10.0 + 100 - 20.0) / 2
	if !almostEqual(black, wantBlack, 1e-9) {
		t.Errorf("black accuracy = %v, want %v", black, wantBlack)
	}
}

func TestResultToColor(t *testing.T) {
	if c := resultToColor(chess.WhiteWins); c == nil || *c != chess.White {
		t.Errorf("resultToColor(WhiteWins) = %v, want White", c)
	}
	if c := resultToColor(chess.BlackWins); c == nil || *c != chess.Black {
		t.Errorf("resultToColor(BlackWins) = %v, want Black", c)
	}
	if c := resultToColor(chess.Draw); c != nil {
		t.Errorf("resultToColor(Draw) = %v, want nil", c)
	}
}
