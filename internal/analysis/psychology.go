package analysis

import (
	"math"

	"github.com/eloinsight/chessd/internal/chess"
)

// PsychologicalProfile aggregates per-side statistics from a finished
// review's PositionReviews (C5, spec.md §4.4).
type PsychologicalProfile struct {
	MaxConsecutiveErrors int
	ErrorStreakStartPly  int

	FavorableSwings   int
	UnfavorableSwings int
	MaxMomentumStreak int

	BlunderClusterDensity int
	BlunderClusterRange   *[2]int

	AvgBlunderTimeMs       *float64
	AvgGoodMoveTimeMs      *float64
	TimeQualityCorrelation *float64

	OpeningAvgCpLoss    float64
	MiddlegameAvgCpLoss float64
	EndgameAvgCpLoss    float64
}

// isSidePly reports whether ply (1-indexed: 1=White's first move, 2=Black's
// first move, ...) belongs to side.
func isSidePly(ply int, side chess.Color) bool {
	if side == chess.White {
		return ply%2 == 1
	}
	return ply%2 == 0
}

func sidePositions(positions []chess.PositionReview, side chess.Color) []chess.PositionReview {
	out := make([]chess.PositionReview, 0, len(positions))
	for _, p := range positions {
		if isSidePly(p.Ply, side) {
			out = append(out, p)
		}
	}
	return out
}

func isError(c chess.MoveClassification) bool {
	switch c {
	case chess.ClassInaccuracy, chess.ClassMistake, chess.ClassBlunder:
		return true
	default:
		return false
	}
}

// ComputeProfile builds the PsychologicalProfile for side from a completed
// review's positions (in ply order).
func ComputeProfile(positions []chess.PositionReview, side chess.Color) PsychologicalProfile {
	var profile PsychologicalProfile
	own := sidePositions(positions, side)

	profile.MaxConsecutiveErrors, profile.ErrorStreakStartPly = consecutiveErrorStreak(own)
	profile.FavorableSwings, profile.UnfavorableSwings, profile.MaxMomentumStreak = momentumSwings(positions, side)
	profile.BlunderClusterDensity, profile.BlunderClusterRange = blunderCluster(own)
	profile.AvgBlunderTimeMs, profile.AvgGoodMoveTimeMs, profile.TimeQualityCorrelation = timeQuality(own)
	profile.OpeningAvgCpLoss, profile.MiddlegameAvgCpLoss, profile.EndgameAvgCpLoss = phaseAvgCpLoss(own)

	return profile
}

func consecutiveErrorStreak(own []chess.PositionReview) (int, int) {
	best, bestStart := 0, 0
	cur, curStart := 0, 0
	for _, p := range own {
		if isError(p.Classification) {
			if cur == 0 {
				curStart = p.Ply
			}
			cur++
			if cur > best {
				best = cur
				bestStart = curStart
			}
		} else {
			cur = 0
		}
	}
	return best, bestStart
}

// momentumSwings walks successive ply pairs across the whole game, counting
// only swings that land on side's plies, comparing White-perspective evals
// (inverted for Black).
func momentumSwings(positions []chess.PositionReview, side chess.Color) (favorable, unfavorable, maxStreak int) {
	streak := 0
	for i := 1; i < len(positions); i++ {
		p := positions[i]
		if !isSidePly(p.Ply, side) {
			continue
		}
		prev := positions[i-1].EvalAfter.ToCp()
		cur := p.EvalAfter.ToCp()
		delta := cur - prev
		if side == chess.Black {
			delta = -delta
		}
		switch {
		case delta > 100:
			favorable++
			streak++
			if streak > maxStreak {
				maxStreak = streak
			}
		case delta < -100:
			unfavorable++
			streak = 0
		default:
			streak = 0
		}
	}
	return favorable, unfavorable, maxStreak
}

// blunderCluster slides a 5-ply window over own's plies, reporting the
// maximum blunder count and the ply range of the first window achieving it.
// For fewer than 5 own-side plies, falls back to the total blunder count.
func blunderCluster(own []chess.PositionReview) (int, *[2]int) {
	if len(own) < 5 {
		total := 0
		for _, p := range own {
			if p.Classification == chess.ClassBlunder {
				total++
			}
		}
		return total, nil
	}

	best := 0
	var bestRange *[2]int
	for start := 0; start+5 <= len(own); start++ {
		count := 0
		for i := start; i < start+5; i++ {
			if own[i].Classification == chess.ClassBlunder {
				count++
			}
		}
		if count > best {
			best = count
			r := [2]int{own[start].Ply, own[start+4].Ply}
			bestRange = &r
		}
	}
	return best, bestRange
}

func timeQuality(own []chess.PositionReview) (*float64, *float64, *float64) {
	hasClock := false
	for _, p := range own {
		if p.ClockMs != nil {
			hasClock = true
			break
		}
	}
	if !hasClock {
		return nil, nil, nil
	}

	var blunderTimes, goodTimes []float64
	var times, cpLosses []float64
	var prevClock *int
	for _, p := range own {
		if p.ClockMs == nil {
			prevClock = nil
			continue
		}
		if prevClock == nil {
			prevClock = p.ClockMs
			continue
		}
		spent := float64(*prevClock - *p.ClockMs)
		if spent < 0 {
			spent = 0
		}
		prevClock = p.ClockMs

		times = append(times, spent)
		cpLosses = append(cpLosses, float64(p.CpLoss))

		switch p.Classification {
		case chess.ClassBlunder:
			blunderTimes = append(blunderTimes, spent)
		case chess.ClassBest, chess.ClassExcellent, chess.ClassGood:
			goodTimes = append(goodTimes, spent)
		}
	}

	var avgBlunder, avgGood *float64
	if len(blunderTimes) > 0 {
		v := mean(blunderTimes)
		avgBlunder = &v
	}
	if len(goodTimes) > 0 {
		v := mean(goodTimes)
		avgGood = &v
	}

	var correlation *float64
	if len(times) >= 3 {
		c := pearson(times, cpLosses)
		correlation = &c
	}

	return avgBlunder, avgGood, correlation
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func pearson(xs, ys []float64) float64 {
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / (math.Sqrt(sxx) * math.Sqrt(syy))
}

func phaseAvgCpLoss(own []chess.PositionReview) (opening, middlegame, endgame float64) {
	var openingLosses, middlegameLosses, endgameLosses []float64
	for _, p := range own {
		switch {
		case p.Ply <= 30:
			openingLosses = append(openingLosses, float64(p.CpLoss))
		case p.Ply <= 70:
			middlegameLosses = append(middlegameLosses, float64(p.CpLoss))
		default:
			endgameLosses = append(endgameLosses, float64(p.CpLoss))
		}
	}
	if len(openingLosses) > 0 {
		opening = mean(openingLosses)
	}
	if len(middlegameLosses) > 0 {
		middlegame = mean(middlegameLosses)
	}
	if len(endgameLosses) > 0 {
		endgame = mean(endgameLosses)
	}
	return opening, middlegame, endgame
}
