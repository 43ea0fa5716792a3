package analysis

import (
	"testing"

	"github.com/SeamusWaldron/cubeturn/internal/engine"
	"github.com/SeamusWaldron/cubeturn/internal/storage"
)

func TestSummarize(t *testing.T) {
	turns := []storage.Turn{
		{Seq: 1, TsMs: 0, Face: "LEFT", Source: "scramble", Outcome: "committed"},
		{Seq: 2, TsMs: 1000, Face: "LEFT", Animated: true, Source: "keyboard", Outcome: "started"},
		{Seq: 2, TsMs: 1200, Face: "TOP", Animated: true, Source: "keyboard", Outcome: "busy"},
		{Seq: 2, TsMs: 1610, Face: "LEFT", Animated: true, Source: "keyboard", Outcome: "committed"},
		{Seq: 3, TsMs: 4000, Face: "TOP", Animated: true, Source: "pointer", Outcome: "started"},
		{Seq: 3, TsMs: 4610, Face: "TOP", Animated: true, Source: "pointer", Outcome: "committed", Recovered: true},
		{Seq: 4, TsMs: 5000, Face: "BACK", Direction: -1, Source: "smartcube", Outcome: "committed"},
	}

	s := Summarize("abc", turns, 10_000)

	if s.Committed != 3 {
		t.Errorf("Committed = %d, want 3", s.Committed)
	}
	if s.Requests != 4 || s.Busy != 1 {
		t.Errorf("Requests/Busy = %d/%d, want 4/1", s.Requests, s.Busy)
	}
	if s.DropRate != 0.25 {
		t.Errorf("DropRate = %v", s.DropRate)
	}
	if s.Recovered != 1 {
		t.Errorf("Recovered = %d", s.Recovered)
	}
	if s.TPS != 0.3 {
		t.Errorf("TPS = %v, want 0.3", s.TPS)
	}
	if s.LongestPauseMs != 3000 {
		t.Errorf("LongestPauseMs = %d, want 3000", s.LongestPauseMs)
	}
	if s.PausesOverThresh != 1 {
		t.Errorf("PausesOverThresh = %d", s.PausesOverThresh)
	}
	if s.Sources["keyboard"] != 2 || s.Sources["smartcube"] != 1 || s.Sources["scramble"] != 0 {
		t.Errorf("Sources = %v", s.Sources)
	}
	if s.MostUsedFace != "BACK" {
		// Every face has one committed player turn; ties break alphabetically.
		t.Errorf("MostUsedFace = %q", s.MostUsedFace)
	}
	if len(s.FacePairs) != 2 || s.FacePairs[0].Pair != "LEFT>TOP" {
		t.Errorf("FacePairs = %+v", s.FacePairs)
	}
}

func TestSummarize_DefaultDuration(t *testing.T) {
	turns := []storage.Turn{
		{TsMs: 0, Face: "LEFT", Source: "button", Outcome: "committed"},
		{TsMs: 2000, Face: "LEFT", Source: "button", Outcome: "committed"},
	}
	s := Summarize("x", turns, 0)
	if s.DurationMs != 2000 || s.TPS != 1 {
		t.Errorf("duration/tps = %d/%v", s.DurationMs, s.TPS)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize("x", nil, 0)
	if s.Committed != 0 || s.TPS != 0 || s.DropRate != 0 || s.MostUsedFace != "" {
		t.Errorf("empty summary = %+v", s)
	}
}

func TestSummarize_EngineNames(t *testing.T) {
	turns := []storage.Turn{
		{TsMs: 0, Face: "TOP", Source: engine.SourceScramble, Outcome: engine.Committed.String()},
		{TsMs: 100, Face: "LEFT", Animated: true, Source: "keyboard", Outcome: engine.Started.String()},
		{TsMs: 200, Face: "BACK", Animated: true, Source: "keyboard", Outcome: engine.Busy.String()},
		{TsMs: 710, Face: "LEFT", Animated: true, Source: "keyboard", Outcome: engine.Committed.String()},
		{TsMs: 800, Face: "RIGHT", Source: "keyboard", Outcome: engine.Rejected.String()},
	}
	s := Summarize("x", turns, 1000)
	if s.Committed != 1 || s.Faces["TOP"] != 0 {
		t.Errorf("Committed = %d, Faces = %v; scramble turns must be excluded", s.Committed, s.Faces)
	}
	if s.Requests != 2 || s.Busy != 1 {
		t.Errorf("Requests/Busy = %d/%d, want 2/1", s.Requests, s.Busy)
	}
}
