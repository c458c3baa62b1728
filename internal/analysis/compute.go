package analysis

import (
	"github.com/eloinsight/chessd/internal/chess"
	"github.com/eloinsight/chessd/internal/rules"
)

// PositionAdvancedEntry is the per-ply advanced-analysis record stored
// alongside an AdvancedGameAnalysis.
type PositionAdvancedEntry struct {
	Ply               int
	TacticalTagsBefore []TacticalTag
	TacticalTagsAfter  []TacticalTag
	KingSafety         map[chess.Color]KingSafety
	Tension            TensionMetrics
	IsCritical          bool
	DeepDepth           *int
}

// AdvancedGameAnalysis is the full C6 output for one finished, reviewed
// game.
type AdvancedGameAnalysis struct {
	GameID                 string
	Positions              []PositionAdvancedEntry
	WhitePsychology        PsychologicalProfile
	BlackPsychology        PsychologicalProfile
	PipelineVersion        string
	ShallowDepth           int
	DeepDepth              int
	CriticalPositionsCount int
	ComputedAt             int64
}

const PipelineVersion = "1"

// MaxResultsPerPosition caps tactical tags stored per ply after reduction.
const MaxResultsPerPosition = 8

// IsCritical applies spec.md §4.3's "at least 2 of" critical-position
// signal.
func IsCritical(cpLoss int, evalSwing int, tagCount int, tension TensionMetrics, whiteSafety, blackSafety KingSafety) bool {
	signals := 0
	if cpLoss > 50 {
		signals++
	}
	if evalSwing > 150 || evalSwing < -150 {
		signals++
	}
	if tagCount >= 1 {
		signals++
	}
	if tension.VolatilityScore > 0.6 {
		signals++
	}
	if whiteSafety.ExposureScore > 0.7 || blackSafety.ExposureScore > 0.7 {
		signals++
	}
	return signals >= 2
}

// ComputeForReview runs the full advanced-analysis pipeline (C1-C6) over a
// finished review's persisted positions. startFEN is the position before
// positions[0]; the position before every later entry is the previous
// entry's FEN. The now argument is not used.
func ComputeForReview(gameID string, positions []chess.PositionReview, startFEN string, computedAt int64, now func() int64) (AdvancedGameAnalysis, error) {
	result := AdvancedGameAnalysis{
		GameID:          gameID,
		PipelineVersion: PipelineVersion,
		ComputedAt:      computedAt,
	}

	prevFEN := startFEN
	for i, pr := range positions {
		before, err := chess.ParseFEN(prevFEN)
		if err != nil {
			return result, err
		}
		after, err := chess.ParseFEN(pr.FEN)
		if err != nil {
			return result, err
		}
		prevFEN = pr.FEN

		beforeAttack := Compute(before)
		afterAttack := Compute(after)

		legalAfter, err := rules.LegalMoves(pr.FEN, nil)
		if err != nil {
			return result, err
		}
		var captures []chess.Move
		for _, mv := range legalAfter {
			if !after.Piece(mv.To).IsEmpty() {
				captures = append(captures, mv)
			}
		}
		inCheckAfter, err := rules.IsCheck(pr.FEN)
		if err != nil {
			return result, err
		}

		pipeline := DefaultPipeline()

		staticCtx := &TacticalContext{
			Before:       before,
			After:        before,
			SideToMove:   before.SideToMove,
			BeforeAttack: beforeAttack,
			AfterAttack:  beforeAttack,
		}
		tagsBefore := Reduce(pipeline.Run(staticCtx), MaxResultsPerPosition)

		var mv *chess.Move
		if uciMv, err := chess.ParseUCIMove(pr.BestMoveUCI); err == nil {
			mv = &uciMv
		}
		moveCtx := &TacticalContext{
			Before:          before,
			After:           after,
			Move:            mv,
			SideToMove:      before.SideToMove,
			BeforeAttack:    beforeAttack,
			AfterAttack:     afterAttack,
			EvalBefore:      &pr.EvalBefore,
			EvalAfter:       &pr.EvalAfter,
			LegalMovesAfter: legalAfter,
			CapturesAfter:   captures,
			InCheckAfter:    inCheckAfter,
		}
		tagsAfter := Reduce(pipeline.Run(moveCtx), MaxResultsPerPosition)

		whiteSafety := ComputeKingSafety(after, afterAttack, chess.White)
		blackSafety := ComputeKingSafety(after, afterAttack, chess.Black)

		checksAvailable := 0
		for _, mv := range legalAfter {
			clone := after.Clone()
			clone.SetPiece(mv.To, clone.Piece(mv.From))
			clone.SetPiece(mv.From, chess.Piece{})
			clone.SideToMove = clone.SideToMove.Opposite()
			if gives, err := rules.IsCheck(clone.FEN()); err == nil && gives {
				checksAvailable++
			}
		}
		tension := ComputeTension(after, afterAttack, legalAfter, checksAvailable)

		evalSwing := pr.EvalAfter.ToCp() - pr.EvalBefore.ToCp()
		critical := IsCritical(pr.CpLoss, evalSwing, len(tagsAfter), tension, whiteSafety, blackSafety)
		if critical {
			result.CriticalPositionsCount++
		}

		result.Positions = append(result.Positions, PositionAdvancedEntry{
			Ply:                pr.Ply,
			TacticalTagsBefore: tagsBefore,
			TacticalTagsAfter:  tagsAfter,
			KingSafety:         map[chess.Color]KingSafety{chess.White: whiteSafety, chess.Black: blackSafety},
			Tension:            tension,
			IsCritical:         critical,
		})
	}

	result.WhitePsychology = ComputeProfile(positions, chess.White)
	result.BlackPsychology = ComputeProfile(positions, chess.Black)

	return result, nil
}
