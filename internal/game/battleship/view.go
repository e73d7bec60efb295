package battleship

import "github.com/rocketscienceinc/gameroom-server/internal/game"

// ShipView omits position and damage when fogged.
type ShipView struct {
	ID          int         `json:"id"`
	Size        int         `json:"size"`
	Placed      bool        `json:"placed"`
	Sunk        bool        `json:"sunk"`
	Origin      *Cell       `json:"origin,omitempty"`
	Orientation Orientation `json:"orientation,omitempty"`
	Hits        []bool      `json:"hits,omitempty"`
}

type BoardView struct {
	Seat   int        `json:"seat"`
	Fogged bool       `json:"fogged"`
	Ready  bool       `json:"ready"`
	Size   int        `json:"size"`
	Shots  [][]Mark   `json:"shots"`
	Ships  []ShipView `json:"ships"`
}

type View struct {
	Game   game.Type    `json:"game"`
	Phase  string       `json:"phase"`
	Turn   int          `json:"turn"`
	You    int          `json:"you"`
	Boards [2]BoardView `json:"boards"`
	Result *game.Result `json:"result,omitempty"`
}

// Encode renders the board as its owner sees it, or fogged as the opponent sees it.
func (that *Board) Encode(seat int, fog bool) BoardView {
	view := BoardView{
		Seat:   seat,
		Fogged: fog,
		Ready:  that.Ready(),
		Size:   that.size,
		Shots:  grid[Mark](that.size),
	}

	for y := range that.shots {
		copy(view.Shots[y], that.shots[y])
	}

	for _, ship := range that.ships {
		sv := ShipView{ID: ship.ID, Size: ship.Size, Placed: ship.Placed, Sunk: ship.Sunk()}
		if !fog && ship.Placed {
			origin := ship.Origin
			sv.Origin = &origin
			sv.Orientation = ship.Orientation
			sv.Hits = make([]bool, ship.Size)
			for i := range sv.Hits {
				sv.Hits[i] = ship.SegmentHit(i)
			}
		}
		view.Ships = append(view.Ships, sv)
	}

	return view
}

// EncodeFor shows a player their own fleet and the opponent's fogged waters. Spectators see
// everything unless fog of war is on, in which case both boards are fogged.
func (that *Game) EncodeFor(viewer game.Viewer) any {
	view := View{
		Game:   game.TypeBattleship,
		Phase:  "play",
		Turn:   that.ToMove(),
		You:    viewer.Seat,
		Result: that.result,
	}
	if that.Phase() == game.PhaseSetup {
		view.Phase = "setup"
	}

	for seat, b := range that.boards {
		fog := viewer.Fog
		if !viewer.IsSpectator() {
			fog = seat != viewer.Seat
		}
		view.Boards[seat] = b.Encode(seat, fog)
	}

	return view
}
