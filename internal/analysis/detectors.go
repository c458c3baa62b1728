package analysis

import "github.com/eloinsight/chessd/internal/chess"

func sq(s chess.Square) *chess.Square { return &s }

// minorOrMajorSquares returns every occupied square of color holding one of
// the knight/bishop/rook/queen types (the "minor or major piece" set used
// by several detectors).
func minorOrMajorSquares(board *chess.Board, color chess.Color) []chess.Square {
	var out []chess.Square
	for idx := 0; idx < 64; idx++ {
		s := chess.SquareFromIndex(idx)
		p := board.Piece(s)
		if p.IsEmpty() || p.Color != color {
			continue
		}
		switch p.Type {
		case chess.Knight, chess.Bishop, chess.Rook, chess.Queen:
			out = append(out, s)
		}
	}
	return out
}

// ForkDetector finds a single piece attacking two or more enemy pieces.
type ForkDetector struct{}

func (ForkDetector) Detect(ctx *TacticalContext) []TacticalTag {
	var tags []TacticalTag
	mover := ctx.SideToMove
	enemy := mover.Opposite()

	for idx := 0; idx < 64; idx++ {
		from := chess.SquareFromIndex(idx)
		p := ctx.After.Piece(from)
		if p.IsEmpty() || p.Color != mover {
			continue
		}

		var victims []chess.Square
		hasKing := false
		for vIdx := 0; vIdx < 64; vIdx++ {
			victimSq := chess.SquareFromIndex(vIdx)
			victim := ctx.After.Piece(victimSq)
			if victim.IsEmpty() || victim.Color != enemy {
				continue
			}
			attackers := ctx.AfterAttack.AttackersOf(victimSq, mover)
			for _, a := range attackers {
				if a.From == from {
					victims = append(victims, victimSq)
					if victim.Type == chess.King {
						hasKing = true
					}
					break
				}
			}
		}

		if len(victims) < 2 {
			continue
		}

		higherValue := false
		for _, v := range victims {
			if ctx.After.Piece(v).Type.Value() > p.Type.Value() {
				higherValue = true
				break
			}
		}
		if !hasKing && !higherValue {
			continue
		}

		confidence := 0.85
		if hasKing {
			confidence = 0.95
		}
		tags = append(tags, TacticalTag{
			Kind:       TagFork,
			Attacker:   sq(from),
			Victims:    victims,
			Confidence: confidence,
		})
	}
	return tags
}

// PinDetector surfaces every pin pinned by the mover.
type PinDetector struct{}

func (PinDetector) Detect(ctx *TacticalContext) []TacticalTag {
	var tags []TacticalTag
	for _, pin := range ctx.AfterAttack.Pins() {
		if pin.Pinner.Color != ctx.SideToMove {
			continue
		}
		confidence := 0.8
		pinnedTo := ctx.After.Piece(pin.PinnedToSquare)
		if pinnedTo.Type == chess.King {
			confidence = 1.0
		}
		tags = append(tags, TacticalTag{
			Kind:         TagPin,
			Attacker:     sq(pin.Pinner.From),
			Victims:      []chess.Square{pin.PinnedSquare},
			TargetSquare: sq(pin.PinnedToSquare),
			Confidence:   confidence,
			Evidence:     Evidence{Lines: [][]chess.Square{pin.Ray}},
		})
	}
	return tags
}

// SkewerDetector finds a sliding piece attacking a higher (or equal, if
// king) valued piece with a lower-valued piece directly behind it.
type SkewerDetector struct{}

func (SkewerDetector) Detect(ctx *TacticalContext) []TacticalTag {
	var tags []TacticalTag
	mover := ctx.SideToMove
	enemy := mover.Opposite()
	board := ctx.After

	slideDirs := func(pt chess.PieceType) [][2]int {
		switch pt {
		case chess.Bishop:
			return bishopDirs[:]
		case chess.Rook:
			return rookDirs[:]
		case chess.Queen:
			dirs := append([][2]int{}, bishopDirs[:]...)
			return append(dirs, rookDirs[:]...)
		default:
			return nil
		}
	}

	for idx := 0; idx < 64; idx++ {
		from := chess.SquareFromIndex(idx)
		p := board.Piece(from)
		if p.IsEmpty() || p.Color != mover {
			continue
		}
		for _, dir := range slideDirs(p.Type) {
			f, r := from.File, from.Rank
			var front *chess.Square
			var frontPiece chess.Piece
			for {
				f += dir[0]
				r += dir[1]
				to := chess.NewSquare(f, r)
				if !to.Valid() {
					break
				}
				occ := board.Piece(to)
				if occ.IsEmpty() {
					continue
				}
				if front == nil {
					if occ.Color != enemy {
						break
					}
					t := to
					front = &t
					frontPiece = occ
					continue
				}
				// second occupied square: candidate piece behind.
				if occ.Color == enemy && (frontPiece.Type == chess.King || frontPiece.Type.Value() > occ.Type.Value()) {
					confidence := 0.75
					if frontPiece.Type == chess.King {
						confidence = 0.9
					}
					tags = append(tags, TacticalTag{
						Kind:         TagSkewer,
						Attacker:     sq(from),
						Victims:      []chess.Square{*front},
						TargetSquare: sq(to),
						Confidence:   confidence,
					})
				}
				break
			}
		}
	}
	return tags
}

// DiscoveredAttackDetector finds a sliding piece, other than the piece that
// moved, whose attack on an enemy piece was unmasked by the move.
type DiscoveredAttackDetector struct{}

func (DiscoveredAttackDetector) Detect(ctx *TacticalContext) []TacticalTag {
	if ctx.Move == nil {
		return nil
	}
	var tags []TacticalTag
	mover := ctx.SideToMove
	enemy := mover.Opposite()

	for idx := 0; idx < 64; idx++ {
		from := chess.SquareFromIndex(idx)
		if from == ctx.Move.To {
			continue
		}
		p := ctx.After.Piece(from)
		if p.IsEmpty() || p.Color != mover {
			continue
		}
		switch p.Type {
		case chess.Bishop, chess.Rook, chess.Queen:
		default:
			continue
		}

		for vIdx := 0; vIdx < 64; vIdx++ {
			victimSq := chess.SquareFromIndex(vIdx)
			victim := ctx.After.Piece(victimSq)
			if victim.IsEmpty() || victim.Color != enemy {
				continue
			}
			attacksAfter := attackerFromSquare(ctx.AfterAttack, victimSq, from)
			attacksBefore := attackerFromSquare(ctx.BeforeAttack, victimSq, from)
			if attacksAfter && !attacksBefore {
				confidence := 0.65
				if victim.Type.Value() >= chess.Rook.Value() {
					confidence = 0.8
				}
				tags = append(tags, TacticalTag{
					Kind:       TagDiscoveredAttack,
					Attacker:   sq(from),
					Victims:    []chess.Square{victimSq},
					Confidence: confidence,
				})
			}
		}
	}
	return tags
}

func attackerFromSquare(am *AttackMap, victim, from chess.Square) bool {
	for _, a := range am.attackers[victim.Index()] {
		if a.From == from {
			return true
		}
	}
	return false
}

// DoubleAttackDetector finds a piece attacking two enemy pieces that are
// each under-defended relative to their own attacker count.
type DoubleAttackDetector struct{}

func (DoubleAttackDetector) Detect(ctx *TacticalContext) []TacticalTag {
	var tags []TacticalTag
	mover := ctx.SideToMove
	enemy := mover.Opposite()

	for idx := 0; idx < 64; idx++ {
		from := chess.SquareFromIndex(idx)
		p := ctx.After.Piece(from)
		if p.IsEmpty() || p.Color != mover {
			continue
		}

		var victims []chess.Square
		for vIdx := 0; vIdx < 64; vIdx++ {
			victimSq := chess.SquareFromIndex(vIdx)
			victim := ctx.After.Piece(victimSq)
			if victim.IsEmpty() || victim.Color != enemy {
				continue
			}
			if !attackerFromSquare(ctx.AfterAttack, victimSq, from) {
				continue
			}
			attackers := len(ctx.AfterAttack.AttackersOf(victimSq, mover))
			defenders := len(ctx.AfterAttack.AttackersOf(victimSq, enemy))
			if attackers > defenders {
				victims = append(victims, victimSq)
			}
		}
		if len(victims) >= 2 {
			tags = append(tags, TacticalTag{
				Kind:       TagDoubleAttack,
				Attacker:   sq(from),
				Victims:    victims,
				Confidence: 0.7,
			})
		}
	}
	return tags
}

// HangingPieceDetector finds enemy minor/major pieces with no or
// insufficient defense.
type HangingPieceDetector struct{}

func (HangingPieceDetector) Detect(ctx *TacticalContext) []TacticalTag {
	var tags []TacticalTag
	mover := ctx.SideToMove
	enemy := mover.Opposite()

	for _, victimSq := range minorOrMajorSquares(ctx.After, enemy) {
		attackers := len(ctx.AfterAttack.AttackersOf(victimSq, mover))
		if attackers == 0 {
			continue
		}
		defenders := len(ctx.AfterAttack.AttackersOf(victimSq, enemy))
		if defenders == 0 {
			tags = append(tags, TacticalTag{
				Kind:       TagHangingPiece,
				Victims:    []chess.Square{victimSq},
				Confidence: 0.95,
			})
		} else if attackers > defenders {
			tags = append(tags, TacticalTag{
				Kind:       TagHangingPiece,
				Victims:    []chess.Square{victimSq},
				Confidence: 0.7,
			})
		}
	}
	return tags
}

// BackRankWeaknessDetector finds an enemy king trapped on its own back rank.
type BackRankWeaknessDetector struct{}

func (BackRankWeaknessDetector) Detect(ctx *TacticalContext) []TacticalTag {
	mover := ctx.SideToMove
	enemy := mover.Opposite()
	board := ctx.After

	kingSq, ok := board.KingSquare(enemy)
	if !ok {
		return nil
	}
	backRank := 0
	if enemy == chess.Black {
		backRank = 7
	}
	if kingSq.Rank != backRank {
		return nil
	}

	for _, d := range kingDeltas {
		to := chess.NewSquare(kingSq.File+d[0], kingSq.Rank+d[1])
		if !to.Valid() || to.Rank == backRank {
			continue
		}
		// a king move that leaves the back rank must be blocked by an own piece.
		occ := board.Piece(to)
		if occ.IsEmpty() || occ.Color != enemy {
			return nil
		}
	}

	for idx := 0; idx < 64; idx++ {
		from := chess.SquareFromIndex(idx)
		p := board.Piece(from)
		if p.IsEmpty() || p.Color != mover {
			continue
		}
		if p.Type != chess.Rook && p.Type != chess.Queen {
			continue
		}
		for file := 0; file < 8; file++ {
			target := chess.NewSquare(file, backRank)
			if attackerFromSquare(ctx.AfterAttack, target, from) {
				return []TacticalTag{{
					Kind:         TagBackRankWeakness,
					Attacker:     sq(from),
					TargetSquare: sq(target),
					Confidence:   0.85,
				}}
			}
		}
	}
	return nil
}

// MateThreatDetector flags delivered mate, near-mate, and (via the already
// computed engine eval) undelivered forced mates.
type MateThreatDetector struct{}

func (MateThreatDetector) Detect(ctx *TacticalContext) []TacticalTag {
	if ctx.InCheckAfter {
		n := len(ctx.LegalMovesAfter)
		switch {
		case n == 0:
			return []TacticalTag{{Kind: TagMateThreat, Confidence: 1.0, Note: "checkmate"}}
		case n <= 2:
			return []TacticalTag{{Kind: TagMateThreat, Confidence: 0.9, Note: "near-mate"}}
		}
		return nil
	}

	// Not in check: use the already-computed engine eval for `after` as the
	// one-ply-deeper mate signal, rather than searching further ourselves.
	// EvalAfter is White-perspective; a positive mate distance from the
	// mover's perspective means the mover has a forced mate.
	if ctx.EvalAfter != nil && ctx.EvalAfter.Kind == chess.ScoreMate {
		moverMate := ctx.EvalAfter.MateIn
		if ctx.SideToMove == chess.Black {
			moverMate = -moverMate
		}
		if moverMate > 0 {
			return []TacticalTag{{Kind: TagMateThreat, Confidence: 0.95, Note: "forced mate in engine line"}}
		}
	}
	return nil
}

// SacrificeDetector flags material given up without an immediate eval drop.
type SacrificeDetector struct{}

func (SacrificeDetector) Detect(ctx *TacticalContext) []TacticalTag {
	if ctx.Move == nil {
		return nil
	}
	movedBefore := ctx.Before.Piece(ctx.Move.From)
	if movedBefore.IsEmpty() {
		return nil
	}

	isCapture := false
	capturedValue := 0
	destPieceBefore := ctx.Before.Piece(ctx.Move.To)
	if !destPieceBefore.IsEmpty() {
		isCapture = true
		capturedValue = destPieceBefore.Type.Value()
	}

	landedOnAttackedSquare := false
	lowerAttackerValue := 0
	for _, a := range ctx.AfterAttack.AttackersOf(ctx.Move.To, ctx.SideToMove.Opposite()) {
		if a.Piece.Value() < movedBefore.Type.Value() {
			landedOnAttackedSquare = true
			if lowerAttackerValue == 0 || a.Piece.Value() < lowerAttackerValue {
				lowerAttackerValue = a.Piece.Value()
			}
		}
	}

	isLowerCapture := isCapture && capturedValue < movedBefore.Type.Value()
	if !isLowerCapture && !landedOnAttackedSquare {
		return nil
	}

	if ctx.EvalBefore == nil || ctx.EvalAfter == nil {
		return nil
	}
	perspective := ctx.SideToMove
	before := ctx.EvalBefore.ToCp()
	after := ctx.EvalAfter.ToCp()
	if perspective == chess.Black {
		before, after = -before, -after
	}
	if before-after > 100 {
		return nil
	}

	return []TacticalTag{{
		Kind:       TagSacrifice,
		Attacker:   sq(ctx.Move.From),
		Victims:    []chess.Square{ctx.Move.To},
		Confidence: 0.6,
	}}
}

// ZwischenzugDetector flags a checking move that departs from the engine's
// expected best line.
type ZwischenzugDetector struct{}

func (ZwischenzugDetector) Detect(ctx *TacticalContext) []TacticalTag {
	if ctx.Move == nil || !ctx.InCheckAfter {
		return nil
	}
	if len(ctx.BestLine) > 0 && ctx.BestLine[0] == *ctx.Move {
		return nil
	}
	return []TacticalTag{{
		Kind:       TagZwischenzug,
		Attacker:   sq(ctx.Move.From),
		TargetSquare: sq(ctx.Move.To),
		Confidence: 0.5,
	}}
}
