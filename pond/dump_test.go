package pond

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDumpCellStringAbbreviatesStopRuns(t *testing.T) {
	c := &Cell{
		ID:         12,
		ParentID:   7,
		Lineage:    3,
		Generation: 9,
		Logo:       1,
		Facing:     2,
		Genome: []uint8{
			OP_INC,
			OP_STOP, OP_STOP, OP_STOP, OP_STOP, OP_STOP, OP_STOP, OP_STOP,
			OP_FWD,
			OP_STOP, OP_STOP,
			OP_RAND,
		},
	}

	got := dumpCellString(c)
	// Seven STOPs render as the STOP character plus three dots, then
	// the run is cut off until the FWD resumes.
	want := "12,7,3,9,1,2," +
		string(InstChars[OP_INC]) +
		string(InstChars[OP_STOP]) + "..." +
		string(InstChars[OP_FWD]) +
		string(InstChars[OP_STOP]) + "." +
		string(InstChars[OP_RAND])
	if got != want {
		t.Fatalf("dump line:\n got %q\nwant %q", got, want)
	}
}

func TestDoDumpWritesViableCellsOnly(t *testing.T) {
	cfg := testConfig()
	cfg.DumpDir = t.TempDir()
	s := newTestSim(t, cfg, 1)
	s.clock = 42

	viable := s.cell(1, 1)
	viable.ID = 10
	viable.Generation = 5
	viable.Energy = 100
	viable.Genome[0] = OP_INC

	young := s.cell(2, 2)
	young.ID = 11
	young.Generation = 1
	young.Energy = 100

	dead := s.cell(3, 3)
	dead.ID = 12
	dead.Generation = 9
	dead.Energy = 0

	var recorded struct {
		clock uint64
		path  string
		cells int
	}
	s.AddDumpSink(dumpSinkFunc(func(clock uint64, path string, cells int) error {
		recorded.clock, recorded.path, recorded.cells = clock, path, cells
		return nil
	}))

	s.doDump()

	path := filepath.Join(cfg.DumpDir, "42.dump.csv")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading dump: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("dump has %d lines, want 1: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "10,0,0,5,") {
		t.Fatalf("dump line: %q", lines[0])
	}

	if recorded.clock != 42 || recorded.path != path || recorded.cells != 1 {
		t.Fatalf("dump sink saw %+v", recorded)
	}
}

type dumpSinkFunc func(clock uint64, path string, cells int) error

func (f dumpSinkFunc) RecordDump(clock uint64, path string, cells int) error {
	return f(clock, path, cells)
}
