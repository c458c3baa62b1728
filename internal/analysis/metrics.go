package analysis

import "github.com/eloinsight/chessd/internal/chess"

// KingSafety is the per-side king exposure metric computer (C2, spec.md
// §4.2).
type KingSafety struct {
	PawnShieldCount      int
	PawnShieldMax        int
	OpenFilesNearKing    int
	AttackerCount        int
	AttackWeight         int
	AttackedZoneSquares  int
	KingZoneSize         int
	ExposureScore        float64
}

func attackWeight(pt chess.PieceType) int {
	switch pt {
	case chess.Queen:
		return 4
	case chess.Rook:
		return 3
	case chess.Bishop, chess.Knight:
		return 2
	default:
		return 1 // Pawn, King
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ComputeKingSafety evaluates king safety for `side` on `board`, using `am`
// (built over the same board) for attacker lookups.
func ComputeKingSafety(board *chess.Board, am *AttackMap, side chess.Color) KingSafety {
	ks := KingSafety{PawnShieldMax: 3}

	kingSq, ok := board.KingSquare(side)
	if !ok {
		return ks
	}

	shieldRank, advancedRank := 1, 2 // 0-indexed ranks 2 and 3 for white
	if side == chess.Black {
		shieldRank, advancedRank = 6, 5 // ranks 7 and 6
	}

	files := []int{kingSq.File - 1, kingSq.File, kingSq.File + 1}
	for _, f := range files {
		if f < 0 || f > 7 {
			continue
		}
		natural := board.Piece(chess.NewSquare(f, shieldRank))
		advanced := board.Piece(chess.NewSquare(f, advancedRank))
		hasShield := (natural.Type == chess.Pawn && natural.Color == side) ||
			(advanced.Type == chess.Pawn && advanced.Color == side)
		if hasShield {
			ks.PawnShieldCount++
		}

		fileHasFriendlyPawn := false
		for r := 0; r < 8; r++ {
			p := board.Piece(chess.NewSquare(f, r))
			if p.Type == chess.Pawn && p.Color == side {
				fileHasFriendlyPawn = true
				break
			}
		}
		if !fileHasFriendlyPawn {
			ks.OpenFilesNearKing++
		}
	}

	zone := kingZone(kingSq)
	ks.KingZoneSize = len(zone)

	enemy := side.Opposite()
	seen := map[chess.Square]bool{}
	weight := 0
	attackedZone := 0
	for _, sq := range zone {
		attackers := am.AttackersOf(sq, enemy)
		if len(attackers) > 0 {
			attackedZone++
		}
		for _, a := range attackers {
			if !seen[a.From] {
				seen[a.From] = true
				weight += attackWeight(a.Piece)
			}
		}
	}
	ks.AttackerCount = len(seen)
	ks.AttackWeight = weight
	ks.AttackedZoneSquares = attackedZone

	shieldTerm := 0.25 * (1 - float64(ks.PawnShieldCount)/3)
	openTerm := 0.20 * float64(ks.OpenFilesNearKing) / 3
	weightTerm := 0.30 * minFloat(1, float64(weight)/20)
	zoneTerm := 0.0
	if ks.KingZoneSize > 0 {
		zoneTerm = 0.25 * float64(attackedZone) / float64(ks.KingZoneSize)
	}
	ks.ExposureScore = clamp01(shieldTerm + openTerm + weightTerm + zoneTerm)

	return ks
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// kingZone is the king's square plus every square it could move to.
func kingZone(kingSq chess.Square) []chess.Square {
	zone := []chess.Square{kingSq}
	for _, d := range kingDeltas {
		sq := chess.NewSquare(kingSq.File+d[0], kingSq.Rank+d[1])
		if sq.Valid() {
			zone = append(zone, sq)
		}
	}
	return zone
}

// TensionMetrics is the positional tension/volatility metric computer (C2,
// spec.md §4.2).
type TensionMetrics struct {
	MutuallyAttackedPairs int
	ContestedSquares      int
	AttackedButDefended   int
	ForcingMoves          int
	ChecksAvailable       int
	CapturesAvailable     int
	VolatilityScore       float64
}

// ComputeTension evaluates tension on `board`. legalMoves are the side to
// move's legal moves and checksAvailable counts how many of them deliver
// check; both are obtained from internal/rules by the caller (C6) since
// this function does not itself compute move legality.
func ComputeTension(board *chess.Board, am *AttackMap, legalMoves []chess.Move, checksAvailable int) TensionMetrics {
	tm := TensionMetrics{ChecksAvailable: checksAvailable}

	whiteAttackSquares := map[chess.Square]bool{}
	blackAttackSquares := map[chess.Square]bool{}
	for idx := 0; idx < 64; idx++ {
		sq := chess.SquareFromIndex(idx)
		if am.IsAttacked(sq, chess.White) {
			whiteAttackSquares[sq] = true
		}
		if am.IsAttacked(sq, chess.Black) {
			blackAttackSquares[sq] = true
		}
	}

	contested := 0
	for sq := range whiteAttackSquares {
		if blackAttackSquares[sq] {
			contested++
		}
	}
	tm.ContestedSquares = contested

	whiteAttackedByBlack := 0
	for idx := 0; idx < 64; idx++ {
		sq := chess.SquareFromIndex(idx)
		p := board.Piece(sq)
		if p.IsEmpty() || p.Color != chess.White {
			continue
		}
		if blackAttackSquares[sq] {
			whiteAttackedByBlack++
		}
	}
	blackAttackedByWhite := 0
	for idx := 0; idx < 64; idx++ {
		sq := chess.SquareFromIndex(idx)
		p := board.Piece(sq)
		if p.IsEmpty() || p.Color != chess.Black {
			continue
		}
		if whiteAttackSquares[sq] {
			blackAttackedByWhite++
		}
	}
	tm.MutuallyAttackedPairs = minInt(whiteAttackedByBlack, blackAttackedByWhite)

	abd := 0
	for _, color := range []chess.Color{chess.White, chess.Black} {
		enemy := color.Opposite()
		for idx := 0; idx < 64; idx++ {
			sq := chess.SquareFromIndex(idx)
			p := board.Piece(sq)
			if p.IsEmpty() || p.Color != color {
				continue
			}
			if am.IsAttacked(sq, enemy) && am.IsAttacked(sq, color) {
				abd++
			}
		}
	}
	tm.AttackedButDefended = abd

	for _, mv := range legalMoves {
		isCapture := !board.Piece(mv.To).IsEmpty()
		if isCapture {
			tm.CapturesAvailable++
		}
	}
	tm.ForcingMoves = tm.CapturesAvailable + tm.ChecksAvailable

	tm.VolatilityScore = clamp01(
		0.30*minFloat(1, float64(tm.MutuallyAttackedPairs)/5) +
			0.25*minFloat(1, float64(tm.ForcingMoves)/15) +
			0.25*minFloat(1, float64(tm.ContestedSquares)/30) +
			0.20*minFloat(1, float64(tm.AttackedButDefended)/8),
	)

	return tm
}
