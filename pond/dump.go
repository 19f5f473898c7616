package pond

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// --- Genome Dumps ---
// A dump file lists every viable cell as one CSV line: identity fields
// followed by the genome rendered as instruction characters. Long STOP
// runs are abbreviated so dominant dead tails stay readable.

// dumpCellString renders one cell's dump line without the trailing
// newline.
func dumpCellString(c *Cell) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d,%d,%d,%d,%c,%c,",
		c.ID,
		c.ParentID,
		c.Lineage,
		c.Generation,
		InstChars[c.Logo&InstMask],
		InstChars[c.Facing&InstMask],
	)
	stopCount := 0
	for _, g := range c.Genome {
		inst := g & InstMask
		if inst == OP_STOP {
			stopCount++
			if stopCount < 5 {
				if stopCount > 1 {
					b.WriteByte('.')
				} else {
					b.WriteByte(InstChars[inst])
				}
			}
			continue
		}
		stopCount = 0
		b.WriteByte(InstChars[inst])
	}
	return b.String()
}

// doDump writes every viable cell to <clock>.dump.csv in the dump
// directory. File errors are diagnostic only; the run continues.
func (s *Simulation) doDump() {
	path := filepath.Join(s.cfg.DumpDir, fmt.Sprintf("%d.dump.csv", s.clock))
	s.diagnosis.Printf("[INFO] dumping viable cells to %s", path)

	f, err := os.Create(path)
	if err != nil {
		s.diagnosis.Printf("[WARNING] could not open %s for writing: %v", path, err)
		return
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	dumped := 0
	for x := 0; x < s.w; x++ {
		for y := 0; y < s.h; y++ {
			c := &s.cells[x*s.h+y]
			if c.Energy > 0 && c.Generation > 2 {
				w.WriteString(dumpCellString(c))
				w.WriteByte('\n')
				dumped++
			}
		}
	}
	if err := w.Flush(); err != nil {
		s.diagnosis.Printf("[WARNING] writing %s: %v", path, err)
		return
	}

	for _, sink := range s.dumps {
		if err := sink.RecordDump(s.clock, path, dumped); err != nil {
			s.diagnosis.Printf("[WARNING] dump sink: %v", err)
		}
	}
}
