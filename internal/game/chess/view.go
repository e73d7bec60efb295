package chess

import (
	nchess "github.com/notnil/chess"

	"github.com/rocketscienceinc/gameroom-server/internal/game"
)

type View struct {
	Game       game.Type      `json:"game"`
	Variant    Variant        `json:"variant"`
	FEN        string         `json:"fen"`
	Board      [8][8]string   `json:"board"`
	Turn       string         `json:"turn"`
	YourColor  string         `json:"your_color,omitempty"`
	LastMove   string         `json:"last_move,omitempty"`
	InCheck    bool           `json:"in_check"`
	Captured   Captured       `json:"captured"`
	Checks     [2]int         `json:"checks,omitempty"`
	LegalMoves []string       `json:"legal_moves,omitempty"`
	Clock      game.ClockView `json:"clock"`
	Result     *game.Result   `json:"result,omitempty"`
}

// Captured lists the pieces each side has taken, as FEN letters.
type Captured struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

// EncodeFor renders the board. Chess has no hidden information; the viewer only
// decides whether legal moves are listed.
func (that *Board) EncodeFor(viewer game.Viewer) any {
	pos := that.game.Position()

	view := View{
		Game:    game.TypeChess,
		Variant: that.variant,
		FEN:     pos.String(),
		Board:   grid(pos.Board()),
		Turn:    colorName(pos.Turn()),
		InCheck: that.inCheck,
		Captured: Captured{
			White: append([]string{}, that.captured[0]...),
			Black: append([]string{}, that.captured[1]...),
		},
		Clock:  that.clock.view(that.ToMove(), that.now()),
		Result: that.result,
	}

	if that.variant == ThreeCheck {
		view.Checks = that.checks
	}

	if len(that.history) > 0 {
		view.LastMove = that.history[len(that.history)-1]
	}

	if !viewer.IsSpectator() {
		view.YourColor = colorName(colorOf(viewer.Seat))

		if that.result == nil && viewer.Seat == seatOf(pos.Turn()) {
			for _, m := range that.legalMoves() {
				view.LegalMoves = append(view.LegalMoves, UCI(m))
			}
		}
	}

	return view
}

// grid lays the board out with rank 8 first, as a player with white sees it.
func grid(board *nchess.Board) [8][8]string {
	var out [8][8]string

	for sq, piece := range board.SquareMap() {
		out[7-int(sq.Rank())][int(sq.File())] = pieceLetter(piece)
	}

	return out
}

func colorName(c nchess.Color) string {
	if c == nchess.Black {
		return "black"
	}

	return "white"
}
