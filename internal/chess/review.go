package chess

// PositionReview is one analyzed ply, stored from White's perspective for
// every evaluation field (spec.md §3).
type PositionReview struct {
	Ply          int
	FEN          string
	PlayedSAN    string
	BestMoveSAN  string
	BestMoveUCI  string
	EvalBefore   AnalysisScore
	EvalAfter    AnalysisScore
	EvalBest     AnalysisScore
	Classification MoveClassification
	CpLoss       int
	PV           []string
	Depth        int
	ClockMs      *int
}

// ReviewStatusKind discriminates GameReview.Status.
type ReviewStatusKind uint8

const (
	ReviewQueued ReviewStatusKind = iota
	ReviewAnalyzing
	ReviewComplete
	ReviewFailed
)

// ReviewStatus is the tagged status of a GameReview.
type ReviewStatus struct {
	Kind         ReviewStatusKind
	CurrentPly   int
	TotalPlies   int
	Error        string
}

func (k ReviewStatusKind) String() string {
	switch k {
	case ReviewQueued:
		return "queued"
	case ReviewAnalyzing:
		return "analyzing"
	case ReviewComplete:
		return "complete"
	case ReviewFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseReviewStatusKind is the inverse of ReviewStatusKind.String.
func ParseReviewStatusKind(s string) ReviewStatusKind {
	switch s {
	case "analyzing":
		return ReviewAnalyzing
	case "complete":
		return ReviewComplete
	case "failed":
		return ReviewFailed
	default:
		return ReviewQueued
	}
}

func QueuedStatus() ReviewStatus { return ReviewStatus{Kind: ReviewQueued} }

func AnalyzingStatus(current, total int) ReviewStatus {
	return ReviewStatus{Kind: ReviewAnalyzing, CurrentPly: current, TotalPlies: total}
}

func CompleteStatus() ReviewStatus { return ReviewStatus{Kind: ReviewComplete} }

func FailedStatus(err string) ReviewStatus { return ReviewStatus{Kind: ReviewFailed, Error: err} }

// GameReview is the per-game aggregate the review worker builds and
// persists incrementally.
type GameReview struct {
	GameID        string
	Status        ReviewStatus
	Positions     []PositionReview
	WhiteAccuracy *float64
	BlackAccuracy *float64
	TotalPlies    int
	AnalyzedPlies int
	AnalysisDepth int
	StartedAt     *int64
	CompletedAt   *int64
	Winner        *Color
}
