package checkers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
)

type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (that Square) valid() bool {
	return that.Row >= 0 && that.Col >= 0 && that.Row < Size && that.Col < Size
}

func (that Square) String() string {
	return fmt.Sprintf("%d %d", that.Row, that.Col)
}

// Move is a single step, a single jump, or a chain of jumps by one piece.
type Move struct {
	Path []Square `json:"path"`
}

func NewMove(path ...Square) Move {
	return Move{Path: path}
}

func (that Move) String() string {
	parts := make([]string, len(that.Path))
	for i, sq := range that.Path {
		parts[i] = sq.String()
	}

	return strings.Join(parts, " ")
}

// ParseMove reads "row col row col [row col ...]".
func ParseMove(s string) (Move, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields) < 4 || len(fields)%2 != 0 {
		return Move{}, fmt.Errorf("%w: %q needs row and column pairs", apperror.ErrInvalidMoveFormat, s)
	}

	var m Move
	for i := 0; i < len(fields); i += 2 {
		row, err := strconv.Atoi(fields[i])
		if err != nil {
			return Move{}, fmt.Errorf("%w: %q", apperror.ErrInvalidMoveFormat, fields[i])
		}
		col, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return Move{}, fmt.Errorf("%w: %q", apperror.ErrInvalidMoveFormat, fields[i+1])
		}
		m.Path = append(m.Path, Square{Row: row, Col: col})
	}

	return m, nil
}

// DecodeMove accepts the string form or {"path":[{"row":5,"col":0},{"row":4,"col":1}]}.
func DecodeMove(raw json.RawMessage) (Move, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseMove(s)
	}

	var m Move
	if err := json.Unmarshal(raw, &m); err != nil || len(m.Path) < 2 {
		return Move{}, fmt.Errorf("%w: checkers moves are square paths", apperror.ErrInvalidMoveFormat)
	}

	return m, nil
}
