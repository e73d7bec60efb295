package chess

import (
	"encoding/json"
	"fmt"
	"strings"

	nchess "github.com/notnil/chess"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
)

// Move is a chess move in UCI notation, e.g. "e2e4" or "e7e8q".
type Move struct {
	UCI string
}

func (that Move) String() string {
	return that.UCI
}

// ParseMove checks the UCI shape of s. Legality is decided by the board.
func ParseMove(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%w: %q is not a UCI move", apperror.ErrInvalidMoveFormat, s)
	}

	for i := 0; i < 4; i += 2 {
		if s[i] < 'a' || s[i] > 'h' || s[i+1] < '1' || s[i+1] > '8' {
			return Move{}, fmt.Errorf("%w: %q has a bad square", apperror.ErrInvalidMoveFormat, s)
		}
	}

	if len(s) == 5 && !strings.ContainsRune("qrbn", rune(s[4])) {
		return Move{}, fmt.Errorf("%w: %q has a bad promotion piece", apperror.ErrInvalidMoveFormat, s)
	}

	return Move{UCI: s}, nil
}

// DecodeMove reads a move posted as a JSON string.
func DecodeMove(raw json.RawMessage) (Move, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return Move{}, fmt.Errorf("%w: chess moves are UCI strings", apperror.ErrInvalidMoveFormat)
	}

	return ParseMove(s)
}

// UCI renders a library move without depending on its notation encoders.
func UCI(m *nchess.Move) string {
	return m.S1().String() + m.S2().String() + promoLetter(m.Promo())
}

func promoLetter(pt nchess.PieceType) string {
	switch pt {
	case nchess.Queen:
		return "q"
	case nchess.Rook:
		return "r"
	case nchess.Bishop:
		return "b"
	case nchess.Knight:
		return "n"
	default:
		return ""
	}
}

// findMove returns the legal move matching uci, or nil.
func findMove(moves []*nchess.Move, uci string) *nchess.Move {
	for _, m := range moves {
		if UCI(m) == uci {
			return m
		}
	}

	return nil
}

func pieceLetter(p nchess.Piece) string {
	var letter string

	switch p.Type() {
	case nchess.King:
		letter = "k"
	case nchess.Queen:
		letter = "q"
	case nchess.Rook:
		letter = "r"
	case nchess.Bishop:
		letter = "b"
	case nchess.Knight:
		letter = "n"
	case nchess.Pawn:
		letter = "p"
	default:
		return ""
	}

	if p.Color() == nchess.White {
		return strings.ToUpper(letter)
	}

	return letter
}
