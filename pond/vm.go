package pond

// --- Virtual Machine ---
// One activation executes a single cell until it stops or runs out of
// energy. All per-activation state lives in locals; the output buffer
// and loop stack are scratch slices owned by the Simulation and reused
// across activations.

// runCell executes the cell at (x, y) and applies any post-activation
// reproduction or RAM decay.
func (s *Simulation) runCell(x, y uint64) {
	c := s.cell(x, y)
	depth := uint64(s.depth)

	for i := range s.outputBuf {
		s.outputBuf[i] = OP_STOP
	}

	var (
		reg            uint64
		ptrIO          uint64
		ptrMem         uint64
		loopStackPtr   uint64
		falseLoopDepth uint64
		stop           bool
	)
	instPtr := uint64(s.cfg.ExecStartInst)

	// Dead cells count as an execution too; selection pressure is
	// measured against every activation, not just living ones.
	s.stats.CellExecutions += 1.0

	for c.Energy > 0 && !stop {
		inst := uint64(c.Genome[instPtr])

		if s.rng.Word()&0xffffffff < uint64(s.cfg.MutationRate) {
			t := s.rng.Word()
			if t&0x20000 != 0 {
				if t&0x10000 != 0 {
					inst = t & InstMask
				} else {
					reg = t & RegMask
				}
			} else {
				if t&0x10000 != 0 {
					ptrMem = t & MemMask
				} else {
					c.Ram[(t>>8)&RamMask] = uint8(t & RegMask)
				}
			}
		}

		c.Energy--

		if falseLoopDepth > 0 {
			// Inside a never-taken loop body only the loop brackets
			// matter; everything else is skipped uncounted.
			switch inst {
			case OP_LOOP:
				falseLoopDepth++
			case OP_REP:
				falseLoopDepth--
			}
		} else {
			s.stats.InstructionExecutions[inst] += 1.0

			switch inst {
			case OP_STOP:
				stop = true

			case OP_FWD:
				ptrIO++
				if ptrIO >= depth {
					ptrIO = 0
				}

			case OP_BACK:
				if ptrIO > 0 {
					ptrIO--
				} else {
					ptrIO = depth - 1
				}

			case OP_INC:
				reg = (reg + 1) & RegMask

			case OP_DEC:
				reg = (reg - 1) & RegMask

			case OP_READG:
				reg = uint64(c.Genome[ptrIO])

			case OP_WRITEG:
				c.Genome[ptrIO] = uint8(reg & InstMask)

			case OP_READO:
				reg = uint64(s.outputBuf[ptrIO])

			case OP_WRITEO:
				s.outputBuf[ptrIO] = uint8(reg & InstMask)

			case OP_LOOP:
				if reg != 0 {
					if loopStackPtr >= depth {
						stop = true
					} else {
						s.loopStack[loopStackPtr] = instPtr
						loopStackPtr++
					}
				} else {
					falseLoopDepth = 1
				}

			case OP_REP:
				if loopStackPtr > 0 {
					loopStackPtr--
					if reg != 0 {
						instPtr = s.loopStack[loopStackPtr]
						// Re-execute the loop head without the normal
						// advance.
						continue
					}
				}

			case OP_TURN:
				// Combine: borrow a genome byte from a compatible
				// neighbor. Falls back to the cell's own genome when
				// either party is too young or access is denied.
				combined := false
				if c.Generation > 2 {
					n := s.neighbor(x, y, c.Facing)
					if n.Generation > 2 && s.accessAllowed(n, reg, s.cfg.CombineSense) {
						if s.rng.Word()&0x8 != 0 {
							reg = uint64(c.Genome[ptrIO])
						} else {
							reg = uint64(n.Genome[ptrIO])
						}
						combined = true
					}
				}
				if !combined {
					reg = uint64(c.Genome[ptrIO])
				}

			case OP_XCHG:
				instPtr++
				if instPtr >= depth {
					instPtr = uint64(s.cfg.ExecStartInst)
				}
				t := reg
				reg = uint64(c.Genome[instPtr])
				c.Genome[instPtr] = uint8(t & InstMask)

			case OP_KILL:
				n := s.neighbor(x, y, c.Facing)
				if s.accessAllowed(n, reg, 0) {
					if n.Generation > 2 {
						s.stats.ViableCellsKilled++
					}
					for i := range n.Genome {
						n.Genome[i] = OP_STOP
					}
					n.ID = s.cellIDCounter
					n.ParentID = 0
					n.Lineage = s.cellIDCounter
					n.Generation = 0
					n.Logo = 0
					n.Facing = 0
					s.cellIDCounter++
				} else if n.Generation > 2 {
					t := c.Energy / s.cfg.FailedKillPenalty
					if c.Energy > t {
						c.Energy -= t
					} else {
						c.Energy = 0
					}
				}

			case OP_SHARE:
				n := s.neighbor(x, y, c.Facing)
				if s.accessAllowed(n, reg, 1) {
					if n.Generation > 2 {
						s.stats.ViableCellShares++
					}
					t := c.Energy + n.Energy
					n.Energy = t / 2
					c.Energy = t - n.Energy
				}

			case OP_ZERO:
				reg = 0

			case OP_SETP:
				ptrIO = reg % depth

			case OP_NEXTB:
				ptrMem = (ptrMem + 8) & MemMask

			case OP_PREVB:
				ptrMem = (ptrMem - 8) & MemMask

			case OP_NEXTM:
				ptrMem = (ptrMem + 1) & MemMask

			case OP_PREVM:
				ptrMem = (ptrMem - 1) & MemMask

			case OP_READM:
				reg = uint64(s.readMem(c, x, y, ptrMem))

			case OP_WRITEM:
				s.writeMem(c, x, y, ptrMem, reg)

			case OP_CLEARM:
				for i := range c.Ram {
					c.Ram[i] = 0
				}

			case OP_ADD:
				reg = (reg + uint64(s.readMem(c, x, y, ptrMem))) & RegMask

			case OP_SUB:
				reg = (reg - uint64(s.readMem(c, x, y, ptrMem))) & RegMask

			case OP_MUL:
				reg = (reg * uint64(s.readMem(c, x, y, ptrMem))) & RegMask

			case OP_DIV:
				// The divisor is read twice; a volatile special slot
				// may yield different values between the reads.
				if s.readMem(c, x, y, ptrMem) == 0 {
					reg = 0
				} else {
					reg = (reg / uint64(s.readMem(c, x, y, ptrMem))) & RegMask
				}

			case OP_SHL:
				reg = (reg << 1) & RegMask

			case OP_SHR:
				reg = reg >> 1

			case OP_SETMP:
				ptrMem = reg & MemMask

			case OP_RAND:
				reg = s.rng.Word() & RegMask
			}
		}

		instPtr++
		if instPtr >= depth {
			instPtr = uint64(s.cfg.ExecStartInst)
		}
	}

	if c.Energy == 0 {
		if s.cfg.DecayRam {
			t := s.rng.Word()
			c.Ram[(t>>8)&RamMask] = uint8(t & RegMask)
		}
		return
	}

	if c.Energy >= s.cfg.ReproductionCost && s.outputBuf[0] != OP_STOP {
		n := s.neighbor(x, y, c.Facing)
		if n.Energy > 0 && s.accessAllowed(n, reg, 0) {
			if n.Generation > 2 {
				s.stats.ViableCellsReplaced++
			}
			s.cellIDCounter++
			n.ID = s.cellIDCounter
			n.ParentID = c.ID
			n.Lineage = c.Lineage
			n.Generation = c.Generation + 1
			n.Logo = 0
			n.Facing = 0
			copy(n.Genome, s.outputBuf)
			for i := range n.Ram {
				if s.cfg.ClearRam {
					n.Ram[i] = 0
				} else {
					n.Ram[i] = uint8(s.rng.Word() & RegMask)
				}
			}
			c.Energy -= s.cfg.ReproductionCost
		}
	}
}
