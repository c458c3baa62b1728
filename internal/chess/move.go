package chess

import "fmt"

// Move is a from/to pair with an optional promotion piece.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType // NoPieceType if not a promotion
}

// UCI formats the move as a UCI move string, e.g. "e2e4" or "a7a8q".
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoPieceType {
		s += string(promotionLetter(m.Promotion))
	}
	return s
}

func promotionLetter(pt PieceType) byte {
	switch pt {
	case Queen:
		return 'q'
	case Rook:
		return 'r'
	case Bishop:
		return 'b'
	case Knight:
		return 'n'
	default:
		return 0
	}
}

func promotionFromLetter(b byte) PieceType {
	switch b {
	case 'q':
		return Queen
	case 'r':
		return Rook
	case 'b':
		return Bishop
	case 'n':
		return Knight
	default:
		return NoPieceType
	}
}

// ParseUCIMove parses a well-formed UCI move string such as "e2e4" or
// "e7e8q" into a Move. FormatUCIMove(ParseUCIMove(x)) == x for every
// well-formed input, per spec.md §8.
func ParseUCIMove(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("invalid uci move %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("invalid uci move %q: %w", s, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("invalid uci move %q: %w", s, err)
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		promo := promotionFromLetter(s[4])
		if promo == NoPieceType {
			return Move{}, fmt.Errorf("invalid uci move %q: bad promotion letter", s)
		}
		m.Promotion = promo
	}
	return m, nil
}

// FormatUCIMove is the inverse of ParseUCIMove.
func FormatUCIMove(m Move) string {
	return m.UCI()
}
