package pond

import (
	"fmt"
	"io"
)

// --- Statistics ---
// Counters accumulate between reports and are reset after each CSV
// line is emitted. The grid sweep also refreshes the energy totals the
// inflow cap and the energy color schemes depend on.

// StatCounters accumulates per-interval activity counts.
type StatCounters struct {
	// InstructionExecutions counts executed instructions per opcode.
	InstructionExecutions [NumInst]float64

	// CellExecutions counts VM activations, including dead cells.
	CellExecutions float64

	ViableCellsReplaced uint64
	ViableCellsKilled   uint64
	ViableCellShares    uint64

	MemSpecialReads  uint64
	MemPrivateReads  uint64
	MemOutputReads   uint64
	MemInputReads    uint64
	MemSpecialWrites uint64
	MemPrivateWrites uint64
	MemOutputWrites  uint64
	MemInputWrites   uint64
}

// Report is one statistics snapshot, the in-memory form of a CSV line.
type Report struct {
	Clock uint64 `json:"clock"`

	TotalEnergy         uint64  `json:"totalEnergy"`
	MaxCellEnergy       uint64  `json:"maxCellEnergy"`
	MaxLivingCellEnergy uint64  `json:"maxLivingCellEnergy"`
	AvgLivingEnergy     float64 `json:"avgLivingEnergy"`
	AvgViableEnergy     float64 `json:"avgViableEnergy"`

	TotalActiveCells       uint64 `json:"totalActiveCells"`
	TotalLivingCells       uint64 `json:"totalLivingCells"`
	TotalViableReplicators uint64 `json:"totalViableReplicators"`
	MaxGeneration          uint64 `json:"maxGeneration"`

	Counters StatCounters `json:"counters"`

	// ExecFreq is InstructionExecutions normalized by CellExecutions.
	ExecFreq [NumInst]float64 `json:"execFreq"`

	// AvgMetabolism is the mean instructions executed per activation.
	AvgMetabolism float64 `json:"avgMetabolism"`
}

// doReport sweeps the grid, writes one CSV line, notifies sinks and
// resets the interval counters.
func (s *Simulation) doReport() {
	var (
		totalActiveCells       uint64
		totalLivingCells       uint64
		totalViableReplicators uint64
		maxGeneration          uint64
		totalEnergy            uint64
		livingEnergy           uint64
		viableEnergy           uint64
		maxCellEnergy          uint64
		maxLivingCellEnergy    uint64
	)

	for i := range s.cells {
		c := &s.cells[i]
		totalEnergy += c.Energy
		if c.Energy > maxCellEnergy {
			maxCellEnergy = c.Energy
		}
		if c.Energy > 0 {
			totalActiveCells++
			// Generation 1 or less is inflow noise, not life.
			if c.Generation > 1 {
				totalLivingCells++
				livingEnergy += c.Energy
				if c.Energy > maxLivingCellEnergy {
					maxLivingCellEnergy = c.Energy
				}
			}
			if c.Generation > 2 {
				totalViableReplicators++
				viableEnergy += c.Energy
			}
			if c.Generation > maxGeneration {
				maxGeneration = c.Generation
			}
		}
	}

	s.totalEnergy = totalEnergy
	s.maxCellEnergy = maxCellEnergy
	s.maxLivingCellEnergy = maxLivingCellEnergy

	r := Report{
		Clock:                  s.clock,
		TotalEnergy:            totalEnergy,
		MaxCellEnergy:          maxCellEnergy,
		MaxLivingCellEnergy:    maxLivingCellEnergy,
		TotalActiveCells:       totalActiveCells,
		TotalLivingCells:       totalLivingCells,
		TotalViableReplicators: totalViableReplicators,
		MaxGeneration:          maxGeneration,
		Counters:               s.stats,
	}
	if totalLivingCells > 0 {
		r.AvgLivingEnergy = float64(livingEnergy) / float64(totalLivingCells)
	}
	if totalViableReplicators > 0 {
		r.AvgViableEnergy = float64(viableEnergy) / float64(totalViableReplicators)
	}
	var totalMetabolism float64
	if s.stats.CellExecutions > 0.0 {
		for i := range s.stats.InstructionExecutions {
			r.ExecFreq[i] = s.stats.InstructionExecutions[i] / s.stats.CellExecutions
			totalMetabolism += s.stats.InstructionExecutions[i]
		}
		r.AvgMetabolism = totalMetabolism / s.stats.CellExecutions
	}

	if totalViableReplicators == 0 && s.lastViableReplicators > 0 {
		s.diagnosis.Printf("[EVENT] viable replicators have gone extinct at clock %d", s.clock)
	} else if totalViableReplicators > 0 && s.lastViableReplicators == 0 {
		s.diagnosis.Printf("[EVENT] viable replicators have appeared at clock %d", s.clock)
	}
	s.lastViableReplicators = totalViableReplicators

	if s.reportW != nil {
		writeReportCSV(s.reportW, &r)
	}
	for _, sink := range s.reports {
		if err := sink.RecordReport(r); err != nil {
			s.diagnosis.Printf("[WARNING] report sink: %v", err)
		}
	}

	s.stats = StatCounters{}
}

// writeReportCSV renders one report as a CSV line with pipe section
// markers.
func writeReportCSV(w io.Writer, r *Report) {
	c := &r.Counters
	fmt.Fprintf(w, "%d,%d,%d,%d,%.2f,%.2f,|,%d,%d,%d,%d,|,%d,%d,%d,%d,%d,%d,%d,%d,|,%d,%d,%d,|",
		r.Clock,
		r.TotalEnergy,
		r.MaxCellEnergy,
		r.MaxLivingCellEnergy,
		r.AvgLivingEnergy,
		r.AvgViableEnergy,
		r.TotalActiveCells,
		r.TotalLivingCells,
		r.TotalViableReplicators,
		r.MaxGeneration,
		c.MemSpecialReads,
		c.MemPrivateReads,
		c.MemOutputReads,
		c.MemInputReads,
		c.MemSpecialWrites,
		c.MemPrivateWrites,
		c.MemOutputWrites,
		c.MemInputWrites,
		c.ViableCellsReplaced,
		c.ViableCellsKilled,
		c.ViableCellShares,
	)
	for i := range r.ExecFreq {
		fmt.Fprintf(w, ",%.4f", r.ExecFreq[i])
	}
	fmt.Fprintf(w, ",%.4f\n", r.AvgMetabolism)
}
