package battleship

// Ship is a placed or pending ship. hits is a per segment bitset, bit i set once segment i is hit.
type Ship struct {
	ID          int         `json:"id"`
	Size        int         `json:"size"`
	Placed      bool        `json:"placed"`
	Origin      Cell        `json:"origin"`
	Orientation Orientation `json:"orientation"`

	hits uint32
}

func (that *Ship) Cells() []Cell {
	if !that.Placed {
		return nil
	}

	return cells(that.Origin, that.Orientation, that.Size)
}

func (that *Ship) segment(c Cell) int {
	if that.Orientation == Vertical {
		return c.Y - that.Origin.Y
	}

	return c.X - that.Origin.X
}

func (that *Ship) hit(c Cell) {
	that.hits |= 1 << uint(that.segment(c))
}

// SegmentHit reports whether segment i has been hit.
func (that *Ship) SegmentHit(i int) bool {
	return that.hits&(1<<uint(i)) != 0
}

func (that *Ship) Sunk() bool {
	return that.Placed && that.hits == 1<<uint(that.Size)-1
}
