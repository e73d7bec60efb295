package chess

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"

	nchess "github.com/notnil/chess"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
)

type Variant string

const (
	Standard      Variant = "standard"
	Chess960      Variant = "chess960"
	ThreeCheck    Variant = "threecheck"
	KingOfTheHill Variant = "kingofthehill"
	Suicide       Variant = "suicide"
	Crazyhouse    Variant = "crazyhouse"
	Atomic        Variant = "atomic"
	Antichess     Variant = "antichess"
	Horde         Variant = "horde"
	RacingKings   Variant = "racingkings"
)

var supported = map[Variant]bool{
	Standard:      true,
	Chess960:      true,
	ThreeCheck:    true,
	KingOfTheHill: true,
	Suicide:       false,
	Crazyhouse:    false,
	Atomic:        false,
	Antichess:     false,
	Horde:         false,
	RacingKings:   true,
}

// ParseVariant accepts names case-insensitively, ignoring spaces, dashes and underscores.
// An empty name is Standard. Known variants without a rule implementation are rejected.
func ParseVariant(name string) (Variant, error) {
	normalized := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(name))
	if normalized == "" {
		return Standard, nil
	}

	v := Variant(normalized)
	ok, known := supported[v]
	if !known {
		return "", fmt.Errorf("%w: unknown variant %q", apperror.ErrInvalidSettings, name)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", apperror.ErrUnsupportedVariant, v)
	}

	return v, nil
}

const (
	StandardFEN    = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	RacingKingsFEN = "8/8/8/8/8/8/krbnNBRK/qrbnNBRQ w - - 0 1"
)

// knightPlacements enumerates the ten ways to put two knights on five free squares.
var knightPlacements = [10][2]int{
	{0, 1}, {0, 2}, {0, 3}, {0, 4}, {1, 2}, {1, 3}, {1, 4}, {2, 3}, {2, 4}, {3, 4},
}

// Chess960FEN builds the start position with the given Scharnagl index (0..959).
// Castling rights are dropped since the rules engine only knows standard castling.
func Chess960FEN(index int) string {
	var rank [8]byte

	n := index % 960
	rank[(n%4)*2+1] = 'b'
	n /= 4
	rank[(n%4)*2] = 'b'
	n /= 4

	place := func(piece byte, nth int) {
		for file := range rank {
			if rank[file] != 0 {
				continue
			}
			if nth == 0 {
				rank[file] = piece
				return
			}
			nth--
		}
	}

	place('q', n%6)
	n /= 6

	knights := knightPlacements[n]
	place('n', knights[1])
	place('n', knights[0])

	place('r', 0)
	place('k', 0)
	place('r', 0)

	black := string(rank[:])

	return black + "/pppppppp/8/8/8/8/PPPPPPPP/" + strings.ToUpper(black) + " w - - 0 1"
}

func startFEN(v Variant, rng *rand.Rand) string {
	switch v {
	case Chess960:
		return Chess960FEN(rng.Intn(960))
	case RacingKings:
		return RacingKingsFEN
	default:
		return StandardFEN
	}
}

// LegalMoves is the library's move list narrowed by the variant. In racing kings no move may
// give check.
func LegalMoves(v Variant, pos *nchess.Position) []*nchess.Move {
	moves := pos.ValidMoves()
	if v != RacingKings {
		return moves
	}

	return slices.DeleteFunc(moves, func(m *nchess.Move) bool {
		return m.HasTag(nchess.Check)
	})
}

// KingRank returns the 0-based rank of color's king, or -1 when it has none.
func KingRank(pos *nchess.Position, color nchess.Color) int {
	sq, ok := kingSquare(pos, color)
	if !ok {
		return -1
	}

	return int(sq.Rank())
}

func kingSquare(pos *nchess.Position, color nchess.Color) (nchess.Square, bool) {
	for sq, piece := range pos.Board().SquareMap() {
		if piece.Type() == nchess.King && piece.Color() == color {
			return sq, true
		}
	}

	return nchess.NoSquare, false
}

// RaceResult applies the racing kings finish to pos. A king on the eighth rank wins, except that
// when white gets there first black has one move to follow, which draws.
func RaceResult(pos *nchess.Position) *game.Result {
	whiteHome := KingRank(pos, nchess.White) == int(nchess.Rank8)
	blackHome := KingRank(pos, nchess.Black) == int(nchess.Rank8)

	switch {
	case whiteHome && blackHome:
		return game.Draw("both kings home")
	case blackHome:
		return game.Win(1, "race won")
	case whiteHome && (pos.Turn() == nchess.White || !blackCanFollow(pos)):
		return game.Win(0, "race won")
	case whiteHome:
		return nil
	}

	if len(LegalMoves(RacingKings, pos)) == 0 {
		return game.Draw("stalemate")
	}

	return nil
}

func blackCanFollow(pos *nchess.Position) bool {
	for _, m := range LegalMoves(RacingKings, pos) {
		if pos.Board().Piece(m.S1()) == nchess.BlackKing && m.S2().Rank() == nchess.Rank8 {
			return true
		}
	}

	return false
}
