package analysis

import (
	"testing"

	"github.com/eloinsight/chessd/internal/chess"
	"github.com/eloinsight/chessd/internal/rules"
)

func TestComputeKingSafetyStartingPositionIsFullyShielded(t *testing.T) {
	b := chess.NewStartBoard()
	am := Compute(b)
	ks := ComputeKingSafety(b, am, chess.White)

	if ks.PawnShieldCount != 3 {
		t.Errorf("PawnShieldCount = %d, want 3", ks.PawnShieldCount)
	}
	if ks.OpenFilesNearKing != 0 {
		t.Errorf("OpenFilesNearKing = %d, want 0", ks.OpenFilesNearKing)
	}
	if ks.AttackerCount != 0 {
		t.Errorf("AttackerCount = %d, want 0", ks.AttackerCount)
	}
	if ks.ExposureScore != 0 {
		t.Errorf("ExposureScore = %v, want 0", ks.ExposureScore)
	}
}

func TestComputeTensionStartingPositionIsZero(t *testing.T) {
	b := chess.NewStartBoard()
	am := Compute(b)
	legal, err := rules.LegalMoves(chess.StartFEN, nil)
	if err != nil {
		t.Fatalf("LegalMoves error: %v", err)
	}

	tm := ComputeTension(b, am, legal, 0)
	if tm.CapturesAvailable != 0 {
		t.Errorf("CapturesAvailable = %d, want 0", tm.CapturesAvailable)
	}
	if tm.ContestedSquares != 0 {
		t.Errorf("ContestedSquares = %d, want 0", tm.ContestedSquares)
	}
	if tm.MutuallyAttackedPairs != 0 {
		t.Errorf("MutuallyAttackedPairs = %d, want 0", tm.MutuallyAttackedPairs)
	}
	if tm.VolatilityScore != 0 {
		t.Errorf("VolatilityScore = %v, want 0", tm.VolatilityScore)
	}
}
