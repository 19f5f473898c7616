package main

import (
	"encoding/json"
	"log"

	"nanopond/pond"
)

// StatusMessage is the per-refresh JSON status sent to the front end.
type StatusMessage struct {
	Type        string `json:"type"`
	Clock       uint64 `json:"clock"`
	SeededCells uint64 `json:"seededCells"`
	ColorScheme string `json:"colorScheme"`
	Paused      bool   `json:"paused"`
}

// ReportMessage wraps a report snapshot for the front end.
type ReportMessage struct {
	Type   string      `json:"type"`
	Report pond.Report `json:"report"`
}

// wsFrontend drives the websocket visualization from inside the
// simulation loop. Refresh runs on the loop's goroutine; the hub
// goroutines only move bytes, so the instruction trace stays
// deterministic.
type wsFrontend struct {
	hub    *Hub
	frame  []uint8
	paused bool
}

func newWSFrontend(hub *Hub, w, h int) *wsFrontend {
	return &wsFrontend{
		hub:   hub,
		frame: make([]uint8, w*h),
	}
}

// Refresh handles any pending UI events, then broadcasts a frame and a
// status line. While paused it blocks on the event channel so the
// simulation makes no progress. Returns false on a quit event.
func (f *wsFrontend) Refresh(s *pond.Simulation) bool {
	for {
		if f.paused {
			if !f.handleEvent(s, <-f.hub.Events) {
				return false
			}
			continue
		}
		select {
		case msg := <-f.hub.Events:
			if !f.handleEvent(s, msg) {
				return false
			}
		default:
			f.broadcast(s)
			return true
		}
	}
}

func (f *wsFrontend) handleEvent(s *pond.Simulation, msg UIMessage) bool {
	switch msg.Type {
	case "inspect":
		s.InspectCell(msg.X, msg.Y)
	case "cycle_scheme":
		s.CycleColorScheme()
		f.broadcast(s)
	case "pause":
		if !f.paused {
			log.Println("Pausing simulation")
			f.paused = true
			f.broadcast(s)
		}
	case "resume":
		if f.paused {
			log.Println("Resuming simulation")
			f.paused = false
		}
	case "quit":
		return false
	}
	return true
}

func (f *wsFrontend) broadcast(s *pond.Simulation) {
	s.FrameInto(f.frame)
	frame := make([]byte, len(f.frame))
	copy(frame, f.frame)
	f.hub.Broadcast <- frame

	status := StatusMessage{
		Type:        "status",
		Clock:       s.Clock(),
		SeededCells: s.SeededCells(),
		ColorScheme: s.ColorSchemeName(),
		Paused:      f.paused,
	}
	jsonData, err := json.Marshal(status)
	if err != nil {
		log.Printf("error marshalling status: %v", err)
		return
	}
	f.hub.Broadcast <- jsonData
}

// reportBroadcaster forwards report snapshots to connected clients.
type reportBroadcaster struct{ hub *Hub }

func (b reportBroadcaster) RecordReport(r pond.Report) error {
	jsonData, err := json.Marshal(ReportMessage{Type: "report", Report: r})
	if err != nil {
		return err
	}
	select {
	case b.hub.Broadcast <- jsonData:
	default:
	}
	return nil
}
