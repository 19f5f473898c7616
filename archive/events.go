package archive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"nanopond/pond"
)

// JSONLZstdWriter appends JSON lines to hourly-rotated zstd files.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

// NewJSONLZstdWriter returns a writer that creates files lazily on the
// first Write.
func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// eventEntry is one line in the event log.
type eventEntry struct {
	Kind   string       `json:"kind"`
	Clock  uint64       `json:"clock"`
	Report *pond.Report `json:"report,omitempty"`
	Path   string       `json:"path,omitempty"`
	Cells  int          `json:"cells,omitempty"`
}

// EventLog records report snapshots and dump events as compressed
// JSONL.
type EventLog struct{ w *JSONLZstdWriter }

// NewEventLog writes under dir/events.
func NewEventLog(dir string) *EventLog {
	return &EventLog{w: NewJSONLZstdWriter(filepath.Join(dir, "events"), "events")}
}

// RecordReport appends one report snapshot.
func (l *EventLog) RecordReport(r pond.Report) error {
	return l.w.Write(eventEntry{Kind: "report", Clock: r.Clock, Report: &r})
}

// RecordDump appends one dump-file event.
func (l *EventLog) RecordDump(clock uint64, path string, cells int) error {
	return l.w.Write(eventEntry{Kind: "dump", Clock: clock, Path: path, Cells: cells})
}

// Close flushes and closes the current file.
func (l *EventLog) Close() error { return l.w.Close() }
