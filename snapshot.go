package main

import (
	"encoding/gob"
	"fmt"
	"os"

	"nanopond/config"
	"nanopond/pond"
)

// RunSnapshot represents the entire state of a run to be saved: the
// parameter block alongside the simulation state, so a resumed run
// needs nothing but the snapshot file.
type RunSnapshot struct {
	Config config.Config
	Seed   uint32
	State  pond.SimState
}

// saveSnapshot saves the current run state to a .gob file.
func saveSnapshot(filename string, snap RunSnapshot) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// loadSnapshot loads a run state from a .gob file.
func loadSnapshot(filename string) (RunSnapshot, error) {
	var snap RunSnapshot
	file, err := os.Open(filename)
	if err != nil {
		return snap, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&snap); err != nil {
		return snap, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}
