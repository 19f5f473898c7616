package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full parameter block of a simulation run. Zero values for
// the optional caps (TotalEnergyCap, CellEnergyCap, InflowRateVariation,
// StopAt, DumpFrequency) disable the corresponding behavior.
type Config struct {
	PondSizeX int `yaml:"pond_size_x"`
	PondSizeY int `yaml:"pond_size_y"`

	// PondDepth is the genome length in codons. Must be a multiple of 16.
	PondDepth int `yaml:"pond_depth"`

	// Directions selects the grid topology: 4, 6 (hexagonal) or 8.
	Directions int `yaml:"directions"`

	// MutationRate is a probability out of 2^32.
	MutationRate uint32 `yaml:"mutation_rate"`

	InflowFrequency     uint64 `yaml:"inflow_frequency"`
	InflowRateBase      uint64 `yaml:"inflow_rate_base"`
	InflowRateVariation uint64 `yaml:"inflow_rate_variation"`

	TotalEnergyCap uint64 `yaml:"total_energy_cap"`
	CellEnergyCap  uint64 `yaml:"cell_energy_cap"`

	FailedKillPenalty uint64 `yaml:"failed_kill_penalty"`
	ReproductionCost  uint64 `yaml:"reproduction_cost"`

	ReportFrequency  uint64 `yaml:"report_frequency"`
	DumpFrequency    uint64 `yaml:"dump_frequency"`
	RefreshFrequency uint64 `yaml:"refresh_frequency"`

	StopAt uint64 `yaml:"stop_at"`

	ExecStartInst int `yaml:"exec_start_inst"`

	// CombineSense is the access sense used by the combine instruction.
	CombineSense int `yaml:"combine_sense"`

	// ClearRam zeroes the RAM of new cells instead of randomizing it.
	ClearRam bool `yaml:"clear_ram"`

	// DecayRam scrambles one RAM byte whenever a dead cell is selected.
	DecayRam bool `yaml:"decay_ram"`

	// InitSeed seeds the PRNG. Zero means the launcher picks a
	// wall-clock seed.
	InitSeed uint32 `yaml:"init_seed"`

	// DumpDir is the directory genome dump files are written to.
	DumpDir string `yaml:"dump_dir"`
}

// Default returns the stock parameter block.
func Default() Config {
	return Config{
		PondSizeX:           640,
		PondSizeY:           480,
		PondDepth:           512,
		Directions:          6,
		MutationRate:        100000,
		InflowFrequency:     100,
		InflowRateBase:      2000,
		InflowRateVariation: 4000,
		CellEnergyCap:       10000,
		FailedKillPenalty:   3,
		ReproductionCost:    20,
		ReportFrequency:     1000000,
		DumpFrequency:       10000000,
		RefreshFrequency:    20000,
		DumpDir:             ".",
	}
}

// Load reads a YAML parameter file over the defaults.
func Load(path string) (Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks the parameter block for values the simulation cannot
// run with.
func (c Config) Validate() error {
	if c.PondSizeX <= 0 || c.PondSizeY <= 0 {
		return fmt.Errorf("pond size must be positive, got %dx%d", c.PondSizeX, c.PondSizeY)
	}
	if c.PondDepth <= 0 || c.PondDepth%16 != 0 {
		return fmt.Errorf("pond_depth must be a positive multiple of 16, got %d", c.PondDepth)
	}
	switch c.Directions {
	case 4, 6, 8:
	default:
		return fmt.Errorf("directions must be 4, 6 or 8, got %d", c.Directions)
	}
	if c.InflowFrequency == 0 {
		return fmt.Errorf("inflow_frequency must be positive")
	}
	if c.ReportFrequency == 0 {
		return fmt.Errorf("report_frequency must be positive")
	}
	if c.RefreshFrequency == 0 {
		return fmt.Errorf("refresh_frequency must be positive")
	}
	if c.FailedKillPenalty == 0 {
		return fmt.Errorf("failed_kill_penalty must be positive")
	}
	if c.ExecStartInst < 0 || c.ExecStartInst >= c.PondDepth {
		return fmt.Errorf("exec_start_inst %d out of range [0, %d)", c.ExecStartInst, c.PondDepth)
	}
	if c.CombineSense != 0 && c.CombineSense != 1 {
		return fmt.Errorf("combine_sense must be 0 or 1, got %d", c.CombineSense)
	}
	return nil
}
