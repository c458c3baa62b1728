package analysis

import "github.com/eloinsight/chessd/internal/chess"

// TagKind is the detected tactical motif kind.
type TagKind string

const (
	TagMateThreat        TagKind = "mate_threat"
	TagFork              TagKind = "fork"
	TagPin               TagKind = "pin"
	TagSkewer            TagKind = "skewer"
	TagDiscoveredAttack  TagKind = "discovered_attack"
	TagDoubleAttack      TagKind = "double_attack"
	TagSacrifice         TagKind = "sacrifice"
	TagBackRankWeakness  TagKind = "back_rank_weakness"
	TagHangingPiece      TagKind = "hanging_piece"
	TagZwischenzug       TagKind = "zwischenzug"
)

// kindPriority orders tags of equal confidence, per spec.md §4.3 step 2.
var kindPriority = map[TagKind]int{
	TagMateThreat:       0,
	TagFork:             1,
	TagPin:              2,
	TagSkewer:           3,
	TagDiscoveredAttack: 4,
	TagDoubleAttack:     5,
	TagSacrifice:        6,
	TagBackRankWeakness: 7,
	TagHangingPiece:     8,
	TagZwischenzug:      9,
}

// Evidence is supporting detail attached to a tag.
type Evidence struct {
	Lines             [][]chess.Square
	ThreatenedPieces  []chess.Square
	DefendedBy        []chess.Square
}

// TacticalTag is one detected motif.
type TacticalTag struct {
	Kind          TagKind
	Attacker      *chess.Square
	Victims       []chess.Square
	TargetSquare  *chess.Square
	Confidence    float64
	Note          string
	Evidence      Evidence
}

// sortedVictimsKey is the reducer's dedupe key component: victims sorted by
// board index, rendered as a comparable string.
func sortedVictimsKey(victims []chess.Square) string {
	idx := make([]int, len(victims))
	for i, v := range victims {
		idx[i] = v.Index()
	}
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && idx[j-1] > idx[j]; j-- {
			idx[j-1], idx[j] = idx[j], idx[j-1]
		}
	}
	var buf []byte
	for _, v := range idx {
		buf = append(buf, byte(v))
		buf = append(buf, ',')
	}
	return string(buf)
}

type tagKey struct {
	kind     TagKind
	attacker int // -1 if nil
	victims  string
}

func keyOf(t TacticalTag) tagKey {
	attacker := -1
	if t.Attacker != nil {
		attacker = t.Attacker.Index()
	}
	return tagKey{kind: t.Kind, attacker: attacker, victims: sortedVictimsKey(t.Victims)}
}
