package analysis

import "github.com/eloinsight/chessd/internal/chess"

// TacticalContext is the shared, read-only context every detector receives.
// Built once per pipeline invocation and reused across all detectors
// (spec.md §9: "pre-computed attack maps are shared by every detector").
type TacticalContext struct {
	Before       *chess.Board
	After        *chess.Board
	Move         *chess.Move // nil for a static (no-move) invocation
	SideToMove   chess.Color // side to move on Before
	BeforeAttack *AttackMap
	AfterAttack  *AttackMap
	EvalBefore   *chess.AnalysisScore // White-perspective, optional
	EvalAfter    *chess.AnalysisScore // White-perspective, optional
	BestLine     []chess.Move         // optional, engine's best line from Before
	LegalMovesAfter []chess.Move      // side to move's legal moves on After
	CapturesAfter   []chess.Move      // subset of LegalMovesAfter that capture
	InCheckAfter    bool
}

// Detector is the single-method capability every tactical detector
// implements (spec.md §9: "no inheritance; no dynamic dispatch beyond the
// pipeline boundary"). Adding a detector requires no change elsewhere.
type Detector interface {
	Detect(ctx *TacticalContext) []TacticalTag
}

// Pipeline runs a list of detectors over one context, in spec order.
type Pipeline struct {
	Detectors []Detector
}

// DefaultPipeline is the full set of detectors from spec.md §4.3.
func DefaultPipeline() Pipeline {
	return Pipeline{Detectors: []Detector{
		ForkDetector{},
		PinDetector{},
		SkewerDetector{},
		DiscoveredAttackDetector{},
		DoubleAttackDetector{},
		HangingPieceDetector{},
		BackRankWeaknessDetector{},
		MateThreatDetector{},
		SacrificeDetector{},
		ZwischenzugDetector{},
	}}
}

// Run executes every detector and returns the unreduced tag list.
func (p Pipeline) Run(ctx *TacticalContext) []TacticalTag {
	var tags []TacticalTag
	for _, d := range p.Detectors {
		tags = append(tags, d.Detect(ctx)...)
	}
	return tags
}
