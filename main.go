package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"nanopond/archive"
	"nanopond/config"
	"nanopond/pond"
)

func main() {
	fmt.Println("--- Nanopond: An Artificial Life Simulation ---")

	// --- Command-line flags ---
	configPath := flag.String("config", "", "Path to a YAML parameter file.")
	seedFlag := flag.Uint("seed", 0, "PRNG seed. Zero keeps the config's init_seed; a wall-clock seed is used if both are zero.")
	stopAt := flag.Uint64("stop-at", 0, "Stop when the clock reaches this value. Zero keeps the config's stop_at (zero there runs forever).")
	listen := flag.String("listen", ":8080", "Address for the visualization web server.")
	headless := flag.Bool("headless", false, "Run without the visualization web server.")
	snapshotFilename := flag.String("snapshot", "", "Save a snapshot to this file when the run ends.")
	loadFilename := flag.String("load", "", "Load a snapshot file to continue an experiment.")
	archiveDB := flag.String("archive-db", "", "SQLite database indexing reports and dumps.")
	eventsDir := flag.String("events-dir", "", "Directory for the compressed JSONL event log.")
	flag.Parse()

	// --- 1. Build the parameter block ---
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *stopAt > 0 {
		cfg.StopAt = *stopAt
	}

	seed := cfg.InitSeed
	if *seedFlag != 0 {
		seed = uint32(*seedFlag)
	}

	var snap RunSnapshot
	loaded := false
	if *loadFilename != "" {
		var err error
		snap, err = loadSnapshot(*loadFilename)
		if err != nil {
			log.Fatalf("Failed to load snapshot: %v", err)
		}
		// The snapshot's parameter block wins; flags still override the
		// stop point so a resumed run can be extended.
		cfg = snap.Config
		if *stopAt > 0 {
			cfg.StopAt = *stopAt
		}
		seed = snap.Seed
		loaded = true
		fmt.Printf("Loaded snapshot: %s (clock %d)\n", *loadFilename, snap.State.Clock)
	}

	if seed == 0 {
		seed = uint32(time.Now().Unix())
	}

	// --- 2. Initialize the simulation ---
	sim, err := pond.New(cfg, seed, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to initialize simulation: %v", err)
	}
	if loaded {
		if err := sim.Restore(snap.State); err != nil {
			log.Fatalf("Failed to restore snapshot: %v", err)
		}
	}
	fmt.Printf("Simulation grid %dx%d, depth %d, directions %d. Seed: %d\n",
		cfg.PondSizeX, cfg.PondSizeY, cfg.PondDepth, cfg.Directions, seed)

	// --- 3. Attach archive sinks ---
	if *archiveDB != "" {
		db, err := archive.OpenSQLite(*archiveDB)
		if err != nil {
			log.Fatalf("Failed to open archive db: %v", err)
		}
		defer db.Close()
		if err := db.SetMeta("seed", fmt.Sprintf("%d", seed)); err != nil {
			log.Printf("Failed to record seed in archive: %v", err)
		}
		sim.AddReportSink(db)
		sim.AddDumpSink(db)
	}
	if *eventsDir != "" {
		events := archive.NewEventLog(*eventsDir)
		defer events.Close()
		sim.AddReportSink(events)
		sim.AddDumpSink(events)
	}

	// --- 4. Create and run the WebSocket hub ---
	if !*headless {
		hub := NewHub()
		go hub.Run()
		go StartServer(hub, *listen)
		sim.SetFrontend(newWSFrontend(hub, cfg.PondSizeX, cfg.PondSizeY))
		sim.AddReportSink(reportBroadcaster{hub: hub})
	}

	// --- 5. Run until StopAt, quit event or signal ---
	var interrupted atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		interrupted.Store(true)
	}()

	for sim.Tick() {
		if interrupted.Load() {
			log.Println("[QUIT] interrupt received")
			break
		}
	}

	// --- 6. Save final state ---
	if *snapshotFilename != "" {
		snap := RunSnapshot{Config: cfg, Seed: seed, State: sim.Snapshot()}
		if err := saveSnapshot(*snapshotFilename, snap); err != nil {
			log.Fatalf("failed to save final snapshot: %v", err)
		}
		fmt.Printf("--- Run finished at clock %d. Snapshot saved to %s ---\n", sim.Clock(), *snapshotFilename)
	} else {
		fmt.Printf("--- Run finished at clock %d ---\n", sim.Clock())
	}
}
