package pond

import "math/bits"

// accessAllowed determines whether a cell presenting guess may access c.
// Access permission is more probable the more different logo and guess
// are in sense 0, and more probable the more similar they are in sense 1.
// Sense 0 is used for "negative" interactions (KILL, reproduce-overwrite,
// combine) and sense 1 for "positive" ones (SHARE, neighbor RAM writes).
// Cells with no parent are always accessible.
func (s *Simulation) accessAllowed(c *Cell, guess uint64, sense int) bool {
	d := uint64(bits.OnesCount64((c.Logo ^ guess) & LogoMask))
	r := s.rng.Word() & 0xf
	if sense != 0 {
		return r >= d || c.ParentID == 0
	}
	return r <= d || c.ParentID == 0
}
