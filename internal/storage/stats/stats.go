// Package stats records the project's total word count over time.
package stats

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/maruel/manuscript/internal/storage"
	"github.com/maruel/manuscript/internal/storage/jsondb"
)

const (
	// DirName is the stats directory inside a project.
	DirName = "stats"
	// HistoryFilename is the sample log inside DirName.
	HistoryFilename = "word_history.json"
	// MaxSamples is the number of most recent samples kept.
	MaxSamples = 20000
)

// Sample is the project total at one point in time.
type Sample struct {
	Ts         storage.Time `json:"ts" jsonschema:"description=Sample time (local wall clock)"`
	TotalWords int          `json:"total_words" jsonschema:"minimum=0"`
}

// Store is the append-only sample log, capped at MaxSamples.
type Store struct {
	history *jsondb.Table[Sample]
}

// NewStore opens the stats directory of the project in projectDir.
func NewStore(projectDir string) (*Store, error) {
	dir, err := storage.EnsureDir(filepath.Join(projectDir, DirName))
	if err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}
	history, err := jsondb.NewTable[Sample](filepath.Join(dir, HistoryFilename))
	if err != nil {
		return nil, err
	}
	return &Store{history: history}, nil
}

// AppendTotal records totalWords at ts. Negative totals are stored as 0.
//
// Only the newest MaxSamples samples are kept.
func (s *Store) AppendTotal(totalWords int, ts storage.Time) error {
	rows := s.History()
	rows = append(rows, Sample{Ts: ts, TotalWords: max(totalWords, 0)})
	if n := len(rows) - MaxSamples; n > 0 {
		rows = rows[n:]
	}
	if err := s.history.Replace(rows); err != nil {
		return fmt.Errorf("failed to append stats sample: %w", err)
	}
	return nil
}

// History returns every sample in insertion order. An unreadable log is empty.
func (s *Store) History() []Sample {
	rows, err := s.history.Load()
	if err != nil {
		slog.Warn("Stats history unreadable, treating as empty", "path", s.history.Path(), "err", err)
		rows = nil
	}
	return rows
}

// DailyProgress maps each day key to the spread (max - min) of that day's totals.
//
// A day with one sample reports 0. Deleting text during a day shrinks the
// minimum, so this is the day's range rather than its net gain.
func (s *Store) DailyProgress() map[string]int {
	return DailyProgress(s.History())
}

// Today returns the progress for the day of now.
func (s *Store) Today(now time.Time) int {
	return s.DailyProgress()[now.Format(time.DateOnly)]
}

// DailyProgress groups samples by day key. Samples without one are skipped.
func DailyProgress(samples []Sample) map[string]int {
	type span struct{ lo, hi int }
	days := map[string]span{}
	for _, smp := range samples {
		day := smp.Ts.DayKey()
		if day == "" {
			continue
		}
		sp, ok := days[day]
		if !ok {
			sp = span{smp.TotalWords, smp.TotalWords}
		}
		sp.lo = min(sp.lo, smp.TotalWords)
		sp.hi = max(sp.hi, smp.TotalWords)
		days[day] = sp
	}
	out := make(map[string]int, len(days))
	for day, sp := range days {
		out[day] = sp.hi - sp.lo
	}
	return out
}
