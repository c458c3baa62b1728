package chess

import "testing"

func TestParseFENRoundTrip(t *testing.T) {
	tests := []string{
		StartFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
		"8/8/8/4k3/8/8/4K3/8 w - - 0 1",
		"rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 2",
	}
	for _, fen := range tests {
		b, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q) error: %v", fen, err)
		}
		if got := b.FEN(); got != fen {
			t.Errorf("round trip mismatch: ParseFEN(%q).FEN() = %q", fen, got)
		}
	}
}

func TestParseFENRejectsMalformed(t *testing.T) {
	tests := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",            // 7 ranks
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",    // bad side to move
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNRR w KQkq - 0 1",   // rank overflow
	}
	for _, fen := range tests {
		if _, err := ParseFEN(fen); err == nil {
			t.Errorf("ParseFEN(%q) expected error, got nil", fen)
		}
	}
}

func TestNewStartBoardMatchesStartFEN(t *testing.T) {
	b := NewStartBoard()
	if b.FEN() != StartFEN {
		t.Errorf("NewStartBoard().FEN() = %q, want %q", b.FEN(), StartFEN)
	}
	if b.SideToMove != White {
		t.Errorf("NewStartBoard().SideToMove = %v, want White", b.SideToMove)
	}
}

func TestBoardCloneIsIndependent(t *testing.T) {
	b := NewStartBoard()
	ep := NewSquare(4, 2)
	b.EnPassant = &ep

	clone := b.Clone()
	clone.EnPassant.File = 0
	clone.SetPiece(NewSquare(0, 0), Piece{})

	if b.EnPassant.File != 4 {
		t.Errorf("mutating clone's en passant square mutated the original")
	}
	if b.Piece(NewSquare(0, 0)).IsEmpty() {
		t.Errorf("mutating clone's board mutated the original")
	}
}

func TestBoardKingSquare(t *testing.T) {
	b := NewStartBoard()
	wk, ok := b.KingSquare(White)
	if !ok || wk != mustParseSquare("e1") {
		t.Errorf("white king square = %v, ok=%v, want e1", wk, ok)
	}
	bk, ok := b.KingSquare(Black)
	if !ok || bk != mustParseSquare("e8") {
		t.Errorf("black king square = %v, ok=%v, want e8", bk, ok)
	}
}

func TestBoardPieces(t *testing.T) {
	b := NewStartBoard()
	pawns := b.Pieces(Pawn, White)
	if len(pawns) != 8 {
		t.Errorf("len(white pawns) = %d, want 8", len(pawns))
	}
	knights := b.Pieces(Knight, Black)
	if len(knights) != 2 {
		t.Errorf("len(black knights) = %d, want 2", len(knights))
	}
}

func TestBoardEqual(t *testing.T) {
	a := NewStartBoard()
	b := NewStartBoard()
	if !a.Equal(b) {
		t.Errorf("two fresh start boards should be equal")
	}
	b.SetPiece(NewSquare(4, 3), Piece{Type: Pawn, Color: White})
	if a.Equal(b) {
		t.Errorf("boards differing by one piece should not be equal")
	}
}

func mustParseSquare(s string) Square {
	sq, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return sq
}

func TestSquareIndexRoundTrip(t *testing.T) {
	for i := 0; i < 64; i++ {
		sq := SquareFromIndex(i)
		if sq.Index() != i {
			t.Errorf("SquareFromIndex(%d).Index() = %d, want %d", i, sq.Index(), i)
		}
	}
}

func TestParseSquare(t *testing.T) {
	tests := []struct {
		in   string
		want Square
	}{
		{"a1", Square{File: 0, Rank: 0}},
		{"h8", Square{File: 7, Rank: 7}},
		{"e4", Square{File: 4, Rank: 3}},
	}
	for _, tt := range tests {
		got, err := ParseSquare(tt.in)
		if err != nil {
			t.Fatalf("ParseSquare(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseSquare(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseSquareRejectsInvalid(t *testing.T) {
	tests := []string{"", "a", "a9", "i1", "z0"}
	for _, in := range tests {
		if _, err := ParseSquare(in); err == nil {
			t.Errorf("ParseSquare(%q) expected error, got nil", in)
		}
	}
}
