package pond

// Space is toroidal; it wraps at the edges. Neighbor lookup is computed
// from grid arithmetic, never stored. The grid supports 4-, 6- and
// 8-connected variants selected by the Directions config value.

// dirmap remaps a 5-bit facing value onto one of the six hexagonal
// directions. The table is a fixed constant of the hex variant; it biases
// certain facing values toward certain directions.
var dirmap = [NumInst]uint8{
	0, 1, 2, 3, 4, 5,
	0, 1, 2, 3, 3, 4, 5,
	0, 1, 2, 3, 4, 5,
	0, 1, 2, 2, 3, 4, 5,
	0, 1, 2, 3, 4, 5,
}

func (s *Simulation) idx(x, y uint64) int {
	return int(x)*s.h + int(y)
}

func (s *Simulation) cell(x, y uint64) *Cell {
	return &s.cells[s.idx(x, y)]
}

// neighborIndex returns the cell store index of the neighbor of (x, y) in
// direction dir, wrapping toroidally on both axes.
func (s *Simulation) neighborIndex(x, y, dir uint64) int {
	w := uint64(s.w)
	h := uint64(s.h)

	xEast := func() uint64 {
		if x < w-1 {
			return x + 1
		}
		return 0
	}
	xWest := func() uint64 {
		if x > 0 {
			return x - 1
		}
		return w - 1
	}
	ySouth := func() uint64 {
		if y < h-1 {
			return y + 1
		}
		return 0
	}
	yNorth := func() uint64 {
		if y > 0 {
			return y - 1
		}
		return h - 1
	}

	switch s.directions {
	case 4:
		switch dir & 0x3 {
		case 0: // north
			return s.idx(x, yNorth())
		case 1: // east
			return s.idx(xEast(), y)
		case 2: // south
			return s.idx(x, ySouth())
		default: // west
			return s.idx(xWest(), y)
		}
	case 6:
		if y&1 != 0 {
			switch dirmap[dir&InstMask] {
			case 0:
				return s.idx(xEast(), yNorth())
			case 1:
				return s.idx(xEast(), y)
			case 2:
				return s.idx(xEast(), ySouth())
			case 3:
				return s.idx(x, ySouth())
			case 4:
				return s.idx(xWest(), y)
			default:
				return s.idx(x, yNorth())
			}
		}
		switch dirmap[dir&InstMask] {
		case 0:
			return s.idx(x, yNorth())
		case 1:
			return s.idx(xEast(), y)
		case 2:
			return s.idx(x, ySouth())
		case 3:
			return s.idx(xWest(), ySouth())
		case 4:
			return s.idx(xWest(), y)
		default:
			return s.idx(xWest(), yNorth())
		}
	default: // 8
		switch dir & 0x7 {
		case 0: // north
			return s.idx(x, yNorth())
		case 1: // northeast
			return s.idx(xEast(), yNorth())
		case 2: // east
			return s.idx(xEast(), y)
		case 3: // southeast
			return s.idx(xEast(), ySouth())
		case 4: // south
			return s.idx(x, ySouth())
		case 5: // southwest
			return s.idx(xWest(), ySouth())
		case 6: // west
			return s.idx(xWest(), y)
		default: // northwest
			return s.idx(xWest(), yNorth())
		}
	}
}

// neighbor returns the neighboring cell of (x, y) in direction dir.
func (s *Simulation) neighbor(x, y, dir uint64) *Cell {
	return &s.cells[s.neighborIndex(x, y, dir)]
}
