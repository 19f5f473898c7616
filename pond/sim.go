package pond

import (
	"fmt"
	"io"
	"log"

	"nanopond/config"
)

// Frontend services the visualization surface at refresh boundaries.
// Refresh runs inline in the simulation loop so the instruction trace
// stays single-threaded; returning false terminates the run.
type Frontend interface {
	Refresh(s *Simulation) bool
}

// ReportSink observes the statistics snapshot emitted at each report
// boundary.
type ReportSink interface {
	RecordReport(r Report) error
}

// DumpSink observes genome dump files as they are written.
type DumpSink interface {
	RecordDump(clock uint64, path string, cells int) error
}

// Simulation owns the cell store, the PRNG and all statistics counters
// for the lifetime of a run. It is not safe for concurrent use; the
// whole loop is a single logical control flow.
type Simulation struct {
	cfg        config.Config
	w, h       int
	depth      int
	directions int

	rng   *Rand
	cells []Cell

	clock         uint64
	cellIDCounter uint64
	seededCells   uint64

	// Scratch buffers reused across activations.
	outputBuf []uint8
	loopStack []uint64

	stats StatCounters

	// Grid totals as of the most recent report sweep. The inflow energy
	// cap and the energy color schemes read these.
	totalEnergy         uint64
	maxCellEnergy       uint64
	maxLivingCellEnergy uint64

	lastViableReplicators uint64

	colorScheme ColorScheme

	reportW   io.Writer
	frontend  Frontend
	reports   []ReportSink
	dumps     []DumpSink
	diagnosis *log.Logger
}

// New allocates a simulation: the full grid with every genome set to
// STOP and zero energy, and a warmed-up PRNG.
func New(cfg config.Config, seed uint32, reportW io.Writer) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	s := &Simulation{
		cfg:        cfg,
		w:          cfg.PondSizeX,
		h:          cfg.PondSizeY,
		depth:      cfg.PondDepth,
		directions: cfg.Directions,
		rng:        NewRand(seed),
		cells:      make([]Cell, cfg.PondSizeX*cfg.PondSizeY),
		outputBuf:  make([]uint8, cfg.PondDepth),
		loopStack:  make([]uint64, cfg.PondDepth),
		reportW:    reportW,
		diagnosis:  log.Default(),
	}
	for i := range s.cells {
		c := &s.cells[i]
		c.Genome = make([]uint8, cfg.PondDepth)
		for j := range c.Genome {
			c.Genome[j] = OP_STOP
		}
	}
	return s, nil
}

// SetFrontend attaches the visualization surface.
func (s *Simulation) SetFrontend(f Frontend) { s.frontend = f }

// AddReportSink registers an observer of report snapshots.
func (s *Simulation) AddReportSink(r ReportSink) { s.reports = append(s.reports, r) }

// AddDumpSink registers an observer of genome dump files.
func (s *Simulation) AddDumpSink(d DumpSink) { s.dumps = append(s.dumps, d) }

// Clock returns the current tick counter.
func (s *Simulation) Clock() uint64 { return s.clock }

// SeededCells returns how many inflow seedings have occurred.
func (s *Simulation) SeededCells() uint64 { return s.seededCells }

// Config returns the parameter block the simulation was built with.
func (s *Simulation) Config() config.Config { return s.cfg }

// Size returns the grid dimensions.
func (s *Simulation) Size() (int, int) { return s.w, s.h }

// CellAt returns the cell at (x, y). The pointer stays valid for the
// lifetime of the simulation; callers must not hold it across ticks.
func (s *Simulation) CellAt(x, y int) *Cell {
	return s.cell(uint64(x), uint64(y))
}

// Tick runs one iteration of the core loop: periodic report, refresh
// and dump hooks, inflow seeding, then one random cell execution. It
// returns false when the run is over.
func (s *Simulation) Tick() bool {
	if s.cfg.StopAt > 0 && s.clock >= s.cfg.StopAt {
		if s.cfg.DumpFrequency > 0 {
			s.doDump()
		}
		s.diagnosis.Printf("[QUIT] stop_at clock value reached")
		return false
	}

	if s.clock%s.cfg.ReportFrequency == 0 {
		s.doReport()
	}
	if s.frontend != nil && s.clock%s.cfg.RefreshFrequency == 0 {
		if !s.frontend.Refresh(s) {
			s.diagnosis.Printf("[QUIT] quit signal received")
			return false
		}
	}
	if s.cfg.DumpFrequency > 0 && s.clock%s.cfg.DumpFrequency == 0 {
		s.doDump()
	}

	// Seeding introduces both energy and entropy into the substrate.
	if s.clock%s.cfg.InflowFrequency == 0 {
		s.seedCell()
	}

	x := s.rng.Word() % uint64(s.w)
	y := s.rng.Word() % uint64(s.h)
	s.runCell(x, y)

	s.clock++
	return true
}

// Run ticks until the simulation terminates.
func (s *Simulation) Run() {
	for s.Tick() {
	}
}

// seedCell resets the identity of a random cell and fills its genome
// with random codons. Energy is added only under the configured caps,
// but the identity rewrite happens regardless.
func (s *Simulation) seedCell() {
	x := s.rng.Word() % uint64(s.w)
	y := s.rng.Word() % uint64(s.h)
	c := s.cell(x, y)

	c.ID = s.cellIDCounter
	c.ParentID = 0
	c.Lineage = s.cellIDCounter
	c.Generation = 0
	c.Logo = 0
	c.Facing = 0

	if s.cfg.TotalEnergyCap == 0 || s.totalEnergy < s.cfg.TotalEnergyCap {
		if s.cfg.CellEnergyCap == 0 || c.Energy < s.cfg.CellEnergyCap {
			add := s.cfg.InflowRateBase
			if s.cfg.InflowRateVariation > 0 {
				add += s.rng.Word() % s.cfg.InflowRateVariation
			}
			c.Energy += add
		}
	}

	for i := range c.Genome {
		c.Genome[i] = uint8(s.rng.Word() & InstMask)
	}
	for i := range c.Ram {
		if s.cfg.ClearRam {
			c.Ram[i] = 0
		} else {
			c.Ram[i] = uint8(s.rng.Word() & RegMask)
		}
	}

	s.cellIDCounter++
	s.seededCells++
}

// InspectCell dumps the genome of a viable cell to the diagnostic log.
func (s *Simulation) InspectCell(x, y int) {
	if x < 0 || y < 0 || x >= s.w || y >= s.h {
		return
	}
	c := s.cell(uint64(x), uint64(y))
	if c.Energy > 0 && c.Generation > 2 {
		s.diagnosis.Printf("[INTERFACE] genome of cell at (%d, %d):", x, y)
		s.diagnosis.Printf("%s", dumpCellString(c))
	}
}

// CycleColorScheme advances to the next color scheme and returns its name.
func (s *Simulation) CycleColorScheme() string {
	s.colorScheme = (s.colorScheme + 1) % maxColorScheme
	name := s.colorScheme.String()
	s.diagnosis.Printf("[INTERFACE] switching to color scheme %q", name)
	return name
}

// ColorSchemeName returns the active color scheme's name.
func (s *Simulation) ColorSchemeName() string { return s.colorScheme.String() }
