package analysis

import (
	"testing"

	"github.com/eloinsight/chessd/internal/chess"
)

func TestComputeProfileWhiteErrorStreakAndMomentum(t *testing.T) {
	positions := []chess.PositionReview{
		{Ply: 1, EvalAfter: chess.Cp(0), Classification: chess.ClassBest},
		{Ply: 2, EvalAfter: chess.Cp(-200), Classification: chess.ClassBlunder},
		{Ply: 3, EvalAfter: chess.Cp(50), Classification: chess.ClassMistake},
		{Ply: 4, EvalAfter: chess.Cp(-100), Classification: chess.ClassGood},
		{Ply: 5, EvalAfter: chess.Cp(-50), Classification: chess.ClassBlunder},
	}

	profile := ComputeProfile(positions, chess.White)

	if profile.MaxConsecutiveErrors != 2 {
		t.Errorf("MaxConsecutiveErrors = %d, want 2 (ply 3 mistake, ply 5 blunder)", profile.MaxConsecutiveErrors)
	}
	if profile.ErrorStreakStartPly != 3 {
		t.Errorf("ErrorStreakStartPly = %d, want 3", profile.ErrorStreakStartPly)
	}
	if profile.FavorableSwings != 1 {
		t.Errorf("FavorableSwings = %d, want 1", profile.FavorableSwings)
	}
	if profile.UnfavorableSwings != 0 {
		t.Errorf("UnfavorableSwings = %d, want 0", profile.UnfavorableSwings)
	}
	if profile.MaxMomentumStreak != 1 {
		t.Errorf("MaxMomentumStreak = %d, want 1", profile.MaxMomentumStreak)
	}
	if profile.BlunderClusterDensity != 1 {
		t.Errorf("BlunderClusterDensity = %d, want 1 (fewer than 5 own plies, falls back to total count)", profile.BlunderClusterDensity)
	}
	if profile.BlunderClusterRange != nil {
		t.Errorf("BlunderClusterRange = %v, want nil for the <5-ply fallback", profile.BlunderClusterRange)
	}
	if profile.OpeningAvgCpLoss != 0 || profile.MiddlegameAvgCpLoss != 0 || profile.EndgameAvgCpLoss != 0 {
		t.Errorf("phase cp-loss averages = %v/%v/%v, want 0/0/0 (no CpLoss set)",
			profile.OpeningAvgCpLoss, profile.MiddlegameAvgCpLoss, profile.EndgameAvgCpLoss)
	}
}

func TestComputeProfileNoClockDataLeavesTimingNil(t *testing.T) {
	positions := []chess.PositionReview{
		{Ply: 1, EvalAfter: chess.Cp(0), Classification: chess.ClassBest},
		{Ply: 2, EvalAfter: chess.Cp(10), Classification: chess.ClassGood},
	}
	profile := ComputeProfile(positions, chess.White)
	if profile.AvgBlunderTimeMs != nil || profile.AvgGoodMoveTimeMs != nil || profile.TimeQualityCorrelation != nil {
		t.Errorf("expected nil timing fields without ClockMs data, got %v/%v/%v",
			profile.AvgBlunderTimeMs, profile.AvgGoodMoveTimeMs, profile.TimeQualityCorrelation)
	}
}

func TestComputeProfilePhaseBuckets(t *testing.T) {
	positions := []chess.PositionReview{
		{Ply: 1, EvalAfter: chess.Cp(0), Classification: chess.ClassBest, CpLoss: 10},
		{Ply: 45, EvalAfter: chess.Cp(0), Classification: chess.ClassBest, CpLoss: 40},
		{Ply: 91, EvalAfter: chess.Cp(0), Classification: chess.ClassBest, CpLoss: 70},
	}
	profile := ComputeProfile(positions, chess.White)
	if profile.OpeningAvgCpLoss != 10 {
		t.Errorf("OpeningAvgCpLoss = %v, want 10", profile.OpeningAvgCpLoss)
	}
	if profile.MiddlegameAvgCpLoss != 40 {
		t.Errorf("MiddlegameAvgCpLoss = %v, want 40", profile.MiddlegameAvgCpLoss)
	}
	if profile.EndgameAvgCpLoss != 70 {
		t.Errorf("EndgameAvgCpLoss = %v, want 70", profile.EndgameAvgCpLoss)
	}
}
