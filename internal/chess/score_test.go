package chess

import "testing"

func TestAnalysisScoreNegateInvolution(t *testing.T) {
	tests := []AnalysisScore{
		Cp(0),
		Cp(150),
		Cp(-150),
		Mate(1),
		Mate(-1),
		Mate(7),
	}
	for _, s := range tests {
		got := s.Negate().ToCp()
		want := -s.ToCp()
		if got != want {
			t.Errorf("Negate().ToCp() = %d, want %d (for %+v)", got, want, s)
		}
	}
}

func TestAnalysisScoreToCpMateOrdering(t *testing.T) {
	mateIn1 := Mate(1).ToCp()
	mateIn5 := Mate(5).ToCp()
	bigCp := Cp(9000).ToCp()
	if !(mateIn1 > mateIn5 && mateIn5 > bigCp) {
		t.Errorf("expected Mate(1) > Mate(5) > Cp(9000), got %d, %d, %d", mateIn1, mateIn5, bigCp)
	}

	gettingMatedIn1 := Mate(-1).ToCp()
	gettingMatedIn5 := Mate(-5).ToCp()
	smallCp := Cp(-9000).ToCp()
	if !(gettingMatedIn1 < gettingMatedIn5 && gettingMatedIn5 < smallCp) {
		t.Errorf("expected Mate(-1) < Mate(-5) < Cp(-9000), got %d, %d, %d", gettingMatedIn1, gettingMatedIn5, smallCp)
	}
}

func TestClassifyMoveForcedOverridesEverything(t *testing.T) {
	got := ClassifyMove(500, true, false)
	if got != ClassForced {
		t.Errorf("ClassifyMove() = %v, want ClassForced", got)
	}
}

func TestClassifyMoveBestMoveOverridesCpLoss(t *testing.T) {
	// Engines sometimes report a non-zero cp swing for the best move itself
	// (e.g. a multi-PV rounding artifact); matching the best move always wins.
	got := ClassifyMove(80, false, true)
	if got != ClassBest {
		t.Errorf("ClassifyMove() = %v, want ClassBest", got)
	}
}

func TestClassifyMoveBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		cpLoss int
		want   MoveClassification
	}{
		{"zero loss", 0, ClassBest},
		{"at best threshold", BestThreshold, ClassBest},
		{"just over best threshold", BestThreshold + 1, ClassExcellent},
		{"at excellent threshold", ExcellentThreshold, ClassExcellent},
		{"just over excellent threshold", ExcellentThreshold + 1, ClassGood},
		{"at good threshold", GoodThreshold, ClassGood},
		{"just over good threshold", GoodThreshold + 1, ClassInaccuracy},
		{"at inaccuracy threshold", InaccuracyThreshold, ClassInaccuracy},
		{"just over inaccuracy threshold", InaccuracyThreshold + 1, ClassMistake},
		{"at mistake threshold", MistakeThreshold, ClassMistake},
		{"just over mistake threshold", MistakeThreshold + 1, ClassBlunder},
		{"catastrophic loss", 2000, ClassBlunder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyMove(tt.cpLoss, false, false)
			if got != tt.want {
				t.Errorf("ClassifyMove(%d) = %v, want %v", tt.cpLoss, got, tt.want)
			}
		})
	}
}

func TestClassifyMoveMonotone(t *testing.T) {
	rank := map[MoveClassification]int{
		ClassBest:       0,
		ClassExcellent:  1,
		ClassGood:       2,
		ClassInaccuracy: 3,
		ClassMistake:    4,
		ClassBlunder:    5,
	}
	prev := -1
	for cp := 0; cp <= MistakeThreshold+50; cp++ {
		cls := ClassifyMove(cp, false, false)
		r, ok := rank[cls]
		if !ok {
			t.Fatalf("unexpected classification %v at cpLoss=%d", cls, cp)
		}
		if r < prev {
			t.Fatalf("classification rank decreased at cpLoss=%d: got rank %d after %d", cp, r, prev)
		}
		prev = r
	}
}
