package recorder

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SeamusWaldron/cubeturn/internal/cube"
	"github.com/SeamusWaldron/cubeturn/internal/engine"
	"github.com/SeamusWaldron/cubeturn/internal/logging"
	"github.com/SeamusWaldron/cubeturn/internal/storage"
)

func TestEventLog_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	l, err := NewEventLog(&buf, Header{CreatedAt: start, Seed: 7, ScrambleTurns: 3, InitialMode: "VIEW"})
	require.NoError(t, err)

	require.NoError(t, l.Record(Entry{Type: EntryKey, At: start.Add(1500 * time.Millisecond), Key: "a"}))
	require.NoError(t, l.Record(Entry{Type: EntryPointer, At: start.Add(2 * time.Second), Button: "primary", Faces: []string{"TOP", "LEFT"}}))
	require.NoError(t, l.Record(Entry{Type: EntryCommit, At: start.Add(2110 * time.Millisecond), Seq: 4}))
	require.Equal(t, 3, l.Count())
	require.Empty(t, l.Path())

	decoded, err := DecodeLog(&buf)
	require.NoError(t, err)
	require.Equal(t, LogVersion, decoded.Header.Version)
	require.Equal(t, uint64(7), decoded.Header.Seed)
	require.Len(t, decoded.Entries, 3)
	require.Equal(t, int64(1500), decoded.Entries[0].ElapsedMs)
	require.Equal(t, []string{"TOP", "LEFT"}, decoded.Entries[1].Faces)
	require.True(t, decoded.Entries[2].At.Equal(start.Add(2110*time.Millisecond)))
}

func TestDecodeLog_RequiresHeader(t *testing.T) {
	_, err := DecodeLog(strings.NewReader(`{"type":"key","key":"a"}` + "\n"))
	require.ErrorIs(t, err, ErrNoHeader)

	_, err = DecodeLog(strings.NewReader(""))
	require.ErrorIs(t, err, ErrNoHeader)
}

func TestCreateEventLog_File(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	l, err := CreateEventLog(dir, Header{Seed: 1})
	require.NoError(t, err)
	require.NoError(t, l.Record(Entry{Type: EntryButton, At: time.Now(), Face: "BACK"}))
	require.NoError(t, l.Close())

	decoded, err := LoadLog(l.Path())
	require.NoError(t, err)
	require.Len(t, decoded.Entries, 1)
	require.Equal(t, "BACK", decoded.Entries[0].Face)
}

func TestSession_JournalsTurns(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "cubeturn.db"))
	require.NoError(t, err)
	defer db.Close()

	state, err := OpenStateFile(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	s := NewSession(db, state, logging.Discard())
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	id, err := s.Start(storage.NewSession{StartedAt: start, Seed: 3})
	require.NoError(t, err)
	require.Equal(t, StateRecording, s.State())
	require.Equal(t, id, state.State().LastSessionID)

	_, err = s.Start(storage.NewSession{})
	require.ErrorIs(t, err, ErrAlreadyRecording)

	now := start
	e := engine.New(engine.WithClock(func() time.Time { return now }), engine.WithTurnObserver(s.ObserveTurn))
	picks, err := engine.NewScrambler(3).Scramble(e, 3)
	require.NoError(t, err)
	require.NoError(t, s.SetScramble(picks))

	now = start.Add(time.Second)
	e.RotateFace(cube.Left, true)
	e.RotateFace(cube.Top, true)
	now = now.Add(time.Second)
	e.Tick(now)

	require.NoError(t, s.End(now))
	require.Equal(t, StateEnded, s.State())
	require.Equal(t, 4, s.Count(engine.Committed))
	require.Equal(t, 1, s.Count(engine.Busy))

	turns, err := storage.NewTurnRepository(db).GetBySession(id)
	require.NoError(t, err)
	require.Len(t, turns, 6)
	require.Equal(t, "scramble", turns[0].Source)
	require.Equal(t, "started", turns[3].Outcome)
	require.Equal(t, "busy", turns[4].Outcome)
	require.Equal(t, "TOP", turns[4].Face)
	require.Equal(t, int64(2000), turns[5].TsMs)

	sess, err := storage.NewSessionRepository(db).Get(id)
	require.NoError(t, err)
	require.Equal(t, Notation(picks), *sess.ScrambleText)
}

func TestSession_IgnoresTurnsWhenIdle(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "cubeturn.db"))
	require.NoError(t, err)
	defer db.Close()

	s := NewSession(db, nil, logging.Discard())
	s.ObserveTurn(engine.TurnEvent{Outcome: engine.Committed})
	require.Zero(t, s.Count(engine.Committed))
	require.ErrorIs(t, s.End(time.Now()), ErrNotRecording)
}

func TestNotation(t *testing.T) {
	require.Equal(t, "L R U D F B", Notation(cube.Faces()))
	require.Empty(t, Notation(nil))
}

func TestStateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	sf, err := OpenStateFile(path)
	require.NoError(t, err)
	require.Empty(t, sf.State().LastSessionID)

	require.NoError(t, sf.SetLastDevice("AA:BB", "GoCube_1"))
	require.NoError(t, sf.SetLastLog("/tmp/x.jsonl"))

	again, err := OpenStateFile(path)
	require.NoError(t, err)
	require.Equal(t, "GoCube_1", again.State().LastDeviceName)
	require.Equal(t, "/tmp/x.jsonl", again.State().LastLogPath)
}
