package pond

// The 5-bit memory pointer addresses 32 logical slots: 8 special slots
// (identity and energy summary), 8 private RAM bytes, 8 public RAM bytes
// and the 8 public RAM bytes of the facing neighbor. Reads of the
// neighbor bank are unrestricted; writes to it are permission-gated.

// readMem reads the mapped slot ptrMem of the cell at (x, y).
func (s *Simulation) readMem(c *Cell, x, y, ptrMem uint64) uint8 {
	switch {
	case ptrMem == 0x00: // logo
		s.stats.MemSpecialReads++
		return uint8(c.Logo)
	case ptrMem == 0x01: // facing
		s.stats.MemSpecialReads++
		return uint8(c.Facing)
	case ptrMem == 0x02: // energy bucket
		s.stats.MemSpecialReads++
		switch {
		case c.Energy == 0:
			return 0
		case c.Energy > 126975:
			return 31
		default:
			return uint8(1 + (c.Energy >> 12))
		}
	case ptrMem == 0x03:
		return uint8(c.Lineage & RegMask)
	case ptrMem == 0x04:
		return uint8(c.ID & RegMask)
	case ptrMem == 0x05:
		return uint8(c.ParentID & RegMask)
	case ptrMem == 0x06:
		return uint8((c.Generation >> RegBits) & RegMask)
	case ptrMem == 0x07:
		return uint8(c.Generation & RegMask)

	case ptrMem <= 0x0f: // private RAM
		s.stats.MemPrivateReads++
		return c.Ram[ptrMem&0x7]

	case ptrMem <= 0x17: // public RAM
		s.stats.MemOutputReads++
		return c.Ram[8+(ptrMem&0x7)]

	default: // facing neighbor's public RAM
		s.stats.MemInputReads++
		n := s.neighbor(x, y, c.Facing)
		return n.Ram[8+(ptrMem&0x7)]
	}
}

// writeMem writes value to the mapped slot ptrMem of the cell at (x, y).
// Slots 0x02..0x07 are read-only; writes to them are counted but ignored.
func (s *Simulation) writeMem(c *Cell, x, y, ptrMem, value uint64) {
	switch {
	case ptrMem == 0x00: // logo
		s.stats.MemSpecialWrites++
		c.Logo = value & LogoMask
	case ptrMem == 0x01: // facing
		s.stats.MemSpecialWrites++
		c.Facing = value & FacingMask
	case ptrMem <= 0x07: // read only
		s.stats.MemSpecialWrites++

	case ptrMem <= 0x0f: // private RAM
		s.stats.MemPrivateWrites++
		c.Ram[ptrMem&0x7] = uint8(value & RegMask)

	case ptrMem <= 0x17: // public RAM
		s.stats.MemOutputWrites++
		c.Ram[8+(ptrMem&0x7)] = uint8(value & RegMask)

	default: // facing neighbor's public RAM, if the logo permits
		s.stats.MemInputWrites++
		n := s.neighbor(x, y, c.Facing)
		if s.accessAllowed(n, c.Logo, 1) {
			n.Ram[8+(ptrMem&0x7)] = uint8(value & RegMask)
		}
	}
}
