package pond

import "fmt"

// --- Snapshots ---
// A SimState captures the grid, the clock, id and seeding counters and
// the full PRNG state. The per-report statistics counters and the energy
// totals cached by the last report sweep are not captured; Restore
// leaves the simulation's own values for them in place until its next
// report. The parameter block travels separately so a resumed run can be
// validated against it.

// SimState is the serializable state of a simulation. All fields are
// exported for gob encoding.
type SimState struct {
	Clock                 uint64
	CellIDCounter         uint64
	SeededCells           uint64
	LastViableReplicators uint64
	Rand                  RandState
	Scheme                ColorScheme
	Cells                 []Cell
}

// Snapshot copies the current simulation state. The returned state
// shares no memory with the live grid.
func (s *Simulation) Snapshot() SimState {
	st := SimState{
		Clock:                 s.clock,
		CellIDCounter:         s.cellIDCounter,
		SeededCells:           s.seededCells,
		LastViableReplicators: s.lastViableReplicators,
		Rand:                  s.rng.State(),
		Scheme:                s.colorScheme,
		Cells:                 make([]Cell, len(s.cells)),
	}
	for i := range s.cells {
		c := s.cells[i]
		c.Genome = append([]uint8(nil), c.Genome...)
		st.Cells[i] = c
	}
	return st
}

// Restore resumes the simulation from a snapshot. The snapshot must
// have been taken with the same grid geometry the simulation was built
// with.
func (s *Simulation) Restore(st SimState) error {
	if len(st.Cells) != s.w*s.h {
		return fmt.Errorf("snapshot has %d cells, grid wants %d", len(st.Cells), s.w*s.h)
	}
	for i := range st.Cells {
		if len(st.Cells[i].Genome) != s.depth {
			return fmt.Errorf("snapshot cell %d has genome length %d, want %d", i, len(st.Cells[i].Genome), s.depth)
		}
	}
	s.clock = st.Clock
	s.cellIDCounter = st.CellIDCounter
	s.seededCells = st.SeededCells
	s.lastViableReplicators = st.LastViableReplicators
	s.rng.SetState(st.Rand)
	s.colorScheme = st.Scheme
	for i := range s.cells {
		g := s.cells[i].Genome
		copy(g, st.Cells[i].Genome)
		s.cells[i] = st.Cells[i]
		s.cells[i].Genome = g
	}
	return nil
}
