// Package analysis computes statistics over journaled turns.
package analysis

import (
	"sort"

	"github.com/SeamusWaldron/cubeturn/internal/engine"
	"github.com/SeamusWaldron/cubeturn/internal/storage"
)

var (
	outcomeCommitted = engine.Committed.String()
	outcomeStarted   = engine.Started.String()
	outcomeBusy      = engine.Busy.String()
)

// PauseThresholdMs is the gap between committed turns counted as a pause.
const PauseThresholdMs = 1500

// Summary describes one session.
type Summary struct {
	SessionID        string         `json:"session_id" yaml:"session_id"`
	DurationMs       int64          `json:"duration_ms" yaml:"duration_ms"`
	Requests         int            `json:"requests" yaml:"requests"`
	Committed        int            `json:"committed" yaml:"committed"`
	Busy             int            `json:"busy" yaml:"busy"`
	Recovered        int            `json:"recovered" yaml:"recovered"`
	DropRate         float64        `json:"drop_rate" yaml:"drop_rate"`
	TPS              float64        `json:"tps" yaml:"tps"`
	LongestPauseMs   int64          `json:"longest_pause_ms" yaml:"longest_pause_ms"`
	PausesOverThresh int            `json:"pauses_over_1500ms" yaml:"pauses_over_1500ms"`
	Faces            map[string]int `json:"faces" yaml:"faces"`
	Sources          map[string]int `json:"sources" yaml:"sources"`
	MostUsedFace     string         `json:"most_used_face,omitempty" yaml:"most_used_face,omitempty"`
	FacePairs        []PairCount    `json:"face_pairs,omitempty" yaml:"face_pairs,omitempty"`
}

// PairCount is how often face B was committed right after face A.
type PairCount struct {
	Pair  string `json:"pair" yaml:"pair"`
	Count int    `json:"count" yaml:"count"`
}

// Summarize computes a summary from a session's turns. Scramble turns are
// excluded from the player statistics. durationMs <= 0 uses the last turn.
func Summarize(sessionID string, turns []storage.Turn, durationMs int64) *Summary {
	s := &Summary{
		SessionID: sessionID,
		Faces:     make(map[string]int),
		Sources:   make(map[string]int),
	}

	var committed []storage.Turn
	for _, t := range turns {
		if t.Source == engine.SourceScramble {
			continue
		}
		switch t.Outcome {
		case outcomeCommitted:
			s.Committed++
			s.Faces[t.Face]++
			committed = append(committed, t)
			if t.Recovered {
				s.Recovered++
			}
			if !t.Animated {
				// Instant turns never produce a started event.
				s.Requests++
				s.Sources[t.Source]++
			}
		case outcomeStarted:
			s.Requests++
			s.Sources[t.Source]++
		case outcomeBusy:
			s.Requests++
			s.Busy++
			s.Sources[t.Source]++
		}
	}

	if durationMs <= 0 && len(turns) > 0 {
		durationMs = turns[len(turns)-1].TsMs
	}
	s.DurationMs = durationMs

	if s.Requests > 0 {
		s.DropRate = float64(s.Busy) / float64(s.Requests)
	}
	s.TPS = TPS(len(committed), durationMs)
	s.LongestPauseMs = LongestPause(committed)
	s.PausesOverThresh = CountPausesOver(committed, PauseThresholdMs)
	s.MostUsedFace = mostUsed(s.Faces)
	s.FacePairs = facePairs(committed)
	return s
}

// TPS is turns per second.
func TPS(turns int, durationMs int64) float64 {
	if durationMs <= 0 {
		return 0
	}
	return float64(turns) / (float64(durationMs) / 1000.0)
}

// LongestPause returns the largest gap between consecutive turns.
func LongestPause(turns []storage.Turn) int64 {
	var longest int64
	for i := 1; i < len(turns); i++ {
		if gap := turns[i].TsMs - turns[i-1].TsMs; gap > longest {
			longest = gap
		}
	}
	return longest
}

// CountPausesOver counts gaps longer than thresholdMs.
func CountPausesOver(turns []storage.Turn, thresholdMs int64) int {
	count := 0
	for i := 1; i < len(turns); i++ {
		if turns[i].TsMs-turns[i-1].TsMs > thresholdMs {
			count++
		}
	}
	return count
}

func mostUsed(counts map[string]int) string {
	best, bestN := "", 0
	for face, n := range counts {
		if n > bestN || (n == bestN && face < best) {
			best, bestN = face, n
		}
	}
	return best
}

func facePairs(turns []storage.Turn) []PairCount {
	counts := make(map[string]int)
	for i := 1; i < len(turns); i++ {
		counts[turns[i-1].Face+">"+turns[i].Face]++
	}

	out := make([]PairCount, 0, len(counts))
	for pair, n := range counts {
		out = append(out, PairCount{Pair: pair, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Pair < out[j].Pair
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}
