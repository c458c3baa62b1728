// Package analysis implements the tactical analysis pipeline: the attack
// map (C1), king-safety and tension metric computers (C2), the tactical
// detectors and reducer (C3, C4), the psychological profiler (C5) and the
// advanced-compute glue that ties them together for a finished review (C6).
//
// Every type here is pure and stateless; it operates on *chess.Board
// snapshots and produces value types. None of it depends on the session
// actor or the review worker, and only the advanced-compute glue reaches the
// external move generator, through internal/rules, for legal moves and check
// detection. The geometric reasoning (attackers, pins, rays) is original to
// this package, grounded on
// the bitboard engines in the retrieval pack (hailam-chessplay's
// internal/board/attacks.go, blunext-chess's magic package) but expressed
// over a plain 8x8 array instead of bitboards, since this pipeline runs
// offline per finished game rather than inside a search hot loop.
package analysis

import "github.com/eloinsight/chessd/internal/chess"

// Attacker is one piece attacking a square.
type Attacker struct {
	From  chess.Square
	Piece chess.PieceType
	Color chess.Color
}

// PinInfo describes one absolute or relative pin currently on the board.
type PinInfo struct {
	Pinner         Attacker
	PinnedSquare   chess.Square
	PinnedToSquare chess.Square
	Ray            []chess.Square // inclusive, pinner -> pinned-to square
}

// AttackMap is the pre-computed per-square attacker/pin index for one board.
// It is shared by every detector in a single pipeline invocation (spec.md
// §9): recomputing it per detector would dominate cost.
type AttackMap struct {
	board     *chess.Board
	attackers [64][]Attacker
	pins      []PinInfo
}

var (
	knightDeltas = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingDeltas   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	bishopDirs   = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	rookDirs     = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
)

func slidingDirs(pt chess.PieceType) [][2]int {
	switch pt {
	case chess.Bishop:
		return bishopDirs[:]
	case chess.Rook:
		return rookDirs[:]
	case chess.Queen:
		dirs := make([][2]int, 0, 8)
		dirs = append(dirs, bishopDirs[:]...)
		dirs = append(dirs, rookDirs[:]...)
		return dirs
	default:
		return nil
	}
}

// Compute builds the AttackMap for board. Pure.
func Compute(board *chess.Board) *AttackMap {
	am := &AttackMap{board: board}

	for idx := 0; idx < 64; idx++ {
		from := chess.SquareFromIndex(idx)
		p := board.Piece(from)
		if p.IsEmpty() {
			continue
		}
		for _, to := range attackSquares(board, from, p) {
			am.attackers[to.Index()] = append(am.attackers[to.Index()], Attacker{From: from, Piece: p.Type, Color: p.Color})
		}
	}

	am.pins = computePins(board)
	return am
}

// attackSquares returns every square attacked by the piece on `from`,
// ignoring whether the attacked square is occupied by a friendly piece
// (attack maps track geometric reach, not legal captures).
func attackSquares(board *chess.Board, from chess.Square, p chess.Piece) []chess.Square {
	var out []chess.Square
	switch p.Type {
	case chess.Pawn:
		dir := 1
		if p.Color == chess.Black {
			dir = -1
		}
		for _, df := range []int{-1, 1} {
			to := chess.NewSquare(from.File+df, from.Rank+dir)
			if to.Valid() {
				out = append(out, to)
			}
		}
	case chess.Knight:
		for _, d := range knightDeltas {
			to := chess.NewSquare(from.File+d[0], from.Rank+d[1])
			if to.Valid() {
				out = append(out, to)
			}
		}
	case chess.King:
		for _, d := range kingDeltas {
			to := chess.NewSquare(from.File+d[0], from.Rank+d[1])
			if to.Valid() {
				out = append(out, to)
			}
		}
	default:
		for _, dir := range slidingDirs(p.Type) {
			f, r := from.File, from.Rank
			for {
				f += dir[0]
				r += dir[1]
				to := chess.NewSquare(f, r)
				if !to.Valid() {
					break
				}
				out = append(out, to)
				if !board.Piece(to).IsEmpty() {
					break
				}
			}
		}
	}
	return out
}

// AttackersOf returns every attacker of `square` with the given color.
func (am *AttackMap) AttackersOf(square chess.Square, color chess.Color) []Attacker {
	all := am.attackers[square.Index()]
	out := make([]Attacker, 0, len(all))
	for _, a := range all {
		if a.Color == color {
			out = append(out, a)
		}
	}
	return out
}

// IsAttacked reports whether any piece of `color` attacks `square`.
func (am *AttackMap) IsAttacked(square chess.Square, color chess.Color) bool {
	return len(am.AttackersOf(square, color)) > 0
}

// Pins returns every absolute/relative pin on the board.
func (am *AttackMap) Pins() []PinInfo {
	return am.pins
}

// computePins walks every sliding piece's rays looking for "pinner -> F ->
// B" patterns per spec.md §4.1.
func computePins(board *chess.Board) []PinInfo {
	var pins []PinInfo

	for idx := 0; idx < 64; idx++ {
		from := chess.SquareFromIndex(idx)
		p := board.Piece(from)
		if p.IsEmpty() {
			continue
		}
		dirs := slidingDirs(p.Type)
		if dirs == nil {
			continue
		}

		for _, dir := range dirs {
			f, r := from.File, from.Rank
			var ray []chess.Square
			var firstOccupied chess.Square
			foundFirst := false

			for {
				f += dir[0]
				r += dir[1]
				sq := chess.NewSquare(f, r)
				if !sq.Valid() {
					break
				}
				ray = append(ray, sq)
				occ := board.Piece(sq)
				if occ.IsEmpty() {
					continue
				}
				if !foundFirst {
					if occ.Color == p.Color {
						break // own piece blocks the ray before any enemy target
					}
					firstOccupied = sq
					foundFirst = true
					continue
				}
				// second occupied square on the ray: candidate "behind" piece.
				front := board.Piece(firstOccupied)
				back := occ
				if back.Color != front.Color && back.Color == p.Color {
					// behind piece is friendly to the pinner's side, not a pin target.
					break
				}
				isAbsolute := back.Type == chess.King
				isRelative := back.Type.Value() > front.Type.Value()
				if back.Color == p.Color.Opposite() && (isAbsolute || isRelative) {
					pins = append(pins, PinInfo{
						Pinner:         Attacker{From: from, Piece: p.Type, Color: p.Color},
						PinnedSquare:   firstOccupied,
						PinnedToSquare: sq,
						Ray:            append([]chess.Square{from}, ray...),
					})
				}
				break
			}
		}
	}

	return pins
}
