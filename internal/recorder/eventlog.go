package recorder

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// LogVersion is written in every header.
const LogVersion = "1"

// Entry types.
const (
	EntryHeader    = "header"
	EntryKey       = "key"
	EntryPointer   = "pointer"
	EntryButton    = "button"
	EntrySmartCube = "smartcube"
	EntryCommit    = "commit"
)

var ErrNoHeader = errors.New("recorder: log has no header")

// Header is the first line of a stimulus log. It carries everything needed
// to rebuild the starting cube.
type Header struct {
	Type            string    `json:"type"`
	Version         string    `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	SessionID       string    `json:"session_id,omitempty"`
	Seed            uint64    `json:"seed"`
	ScrambleTurns   int       `json:"scramble_turns"`
	AnimationTimeMs int64     `json:"animation_time_ms"`
	SafetyMarginMs  int64     `json:"safety_margin_ms"`
	LockTimeoutMs   int64     `json:"lock_timeout_ms,omitempty"`
	InitialMode     string    `json:"initial_mode"`
}

// Entry is one recorded stimulus, or a commit made by the loop's tick.
type Entry struct {
	Type      string    `json:"type"`
	At        time.Time `json:"at"`
	ElapsedMs int64     `json:"elapsed_ms"`
	Key       string    `json:"key,omitempty"`
	Button    string    `json:"button,omitempty"`
	Faces     []string  `json:"faces,omitempty"` // pointer hits, nearest first
	Face      string    `json:"face,omitempty"`
	Direction int       `json:"direction,omitempty"`
	Seq       int       `json:"seq,omitempty"`
}

// Log is a decoded stimulus log.
type Log struct {
	Header  Header
	Entries []Entry
}

// EventLog writes a JSONL stimulus log.
type EventLog struct {
	w     io.Writer
	file  *os.File
	start time.Time
	count int
}

// NewEventLog writes a header to w and returns a log writing to it.
func NewEventLog(w io.Writer, h Header) (*EventLog, error) {
	h.Type = EntryHeader
	if h.Version == "" {
		h.Version = LogVersion
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}

	l := &EventLog{w: w, start: h.CreatedAt}
	if err := l.writeJSON(h); err != nil {
		return nil, fmt.Errorf("failed to write log header: %w", err)
	}
	return l, nil
}

// CreateEventLog creates session_<timestamp>.jsonl in dir.
func CreateEventLog(dir string, h Header) (*EventLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}

	name := fmt.Sprintf("session_%s.jsonl", h.CreatedAt.Format("20060102_150405.000"))
	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	l, err := NewEventLog(file, h)
	if err != nil {
		file.Close()
		return nil, err
	}
	l.file = file
	return l, nil
}

// Record appends e, filling in the elapsed time.
func (l *EventLog) Record(e Entry) error {
	e.ElapsedMs = e.At.Sub(l.start).Milliseconds()
	if err := l.writeJSON(e); err != nil {
		return fmt.Errorf("failed to record %s entry: %w", e.Type, err)
	}
	l.count++
	return nil
}

// Count returns the number of entries recorded.
func (l *EventLog) Count() int {
	return l.count
}

// Path returns the log file path, or "" when writing to a plain writer.
func (l *EventLog) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Close closes the underlying file, if any.
func (l *EventLog) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *EventLog) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = l.w.Write(append(data, '\n'))
	return err
}

// LoadLog reads a stimulus log file.
func LoadLog(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()
	return DecodeLog(f)
}

// DecodeLog reads a stimulus log. Blank lines are skipped.
func DecodeLog(r io.Reader) (*Log, error) {
	log := &Log{}
	scanner := bufio.NewScanner(r)
	lineNum := 0
	sawHeader := false

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if !sawHeader {
			if err := json.Unmarshal(line, &log.Header); err != nil {
				return nil, fmt.Errorf("failed to parse header: %w", err)
			}
			if log.Header.Type != EntryHeader {
				return nil, ErrNoHeader
			}
			sawHeader = true
			continue
		}

		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("failed to parse entry at line %d: %w", lineNum, err)
		}
		log.Entries = append(log.Entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	if !sawHeader {
		return nil, ErrNoHeader
	}
	return log, nil
}
