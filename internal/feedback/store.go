// Package feedback records user ratings of analysis runs in an append-only
// log and keeps a per-tip statistics file derived from it.
//
// The log is the source of truth. The statistics file is rewritten through
// a temp file and rename after every append, and can always be rebuilt by
// replaying the log.
package feedback

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"

	"github.com/joescharf/cro/internal/models"
)

// ErrInvalidRating is returned for ratings outside 1..5.
var ErrInvalidRating = errors.New("rating must be an integer between 1 and 5")

// Reward maps a 1-5 rating linearly onto [-1, 1] with 3 as neutral.
func Reward(rating int) (float64, error) {
	if rating < 1 || rating > 5 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}
	return float64(rating-3) / 2, nil
}

// Store persists feedback events and their statistics projection.
type Store struct {
	logPath   string
	statsPath string

	mu  sync.Mutex
	now func() time.Time
}

// NewStore returns a store writing to the given log and statistics files.
// Nothing is touched on disk until the first Record.
func NewStore(logPath, statsPath string) *Store {
	return &Store{logPath: logPath, statsPath: statsPath, now: time.Now}
}

// LogPath returns the event log location.
func (s *Store) LogPath() string { return s.logPath }

// StatsPath returns the statistics file location.
func (s *Store) StatsPath() string { return s.statsPath }

// Record validates the rating, derives the reward, appends the event to the
// log and then folds it into the statistics file. An append failure is
// returned and leaves the statistics untouched.
func (s *Store) Record(e *models.FeedbackEvent) error {
	reward, err := Reward(e.Rating)
	if err != nil {
		return err
	}
	e.Reward = reward
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now().UTC()
	}

	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.appendEvent(e); err != nil {
		return fmt.Errorf("append feedback event: %w", err)
	}

	snap, err := s.LoadStats()
	if err != nil {
		// Missing or unreadable projection: rebuild it from the log, which
		// already holds this event.
		snap, err = s.replay()
		if err != nil {
			return fmt.Errorf("replay feedback log: %w", err)
		}
	} else {
		snap.Fold(*e)
	}

	if err := s.writeStats(snap); err != nil {
		return fmt.Errorf("write feedback stats: %w", err)
	}
	return nil
}

// lock serializes writers in this process and, through an advisory lock
// file next to the log, across processes sharing the same files.
func (s *Store) lock() (func(), error) {
	s.mu.Lock()
	if err := os.MkdirAll(filepath.Dir(s.logPath), 0755); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	fl := flock.New(s.logPath + ".lock")
	if err := fl.Lock(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("lock feedback log: %w", err)
	}
	return func() {
		_ = fl.Unlock()
		s.mu.Unlock()
	}, nil
}

// appendEvent writes one JSON line and syncs it before returning. A torn
// tail left by an interrupted write is terminated first so the new event
// starts on its own line.
func (s *Store) appendEvent(e *models.FeedbackEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f, err := os.OpenFile(s.logPath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	torn, err := endsMidLine(f)
	if err != nil {
		_ = f.Close()
		return err
	}
	if torn {
		data = append([]byte{'\n'}, data...)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// endsMidLine reports whether f is non-empty and its last byte is not a newline.
func endsMidLine(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

// LoadStats reads the statistics file. Errors are returned as-is; callers
// that only need weights should use Stats.
func (s *Store) LoadStats() (*Snapshot, error) {
	data, err := os.ReadFile(s.statsPath)
	if err != nil {
		return nil, err
	}
	snap := NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.statsPath, err)
	}
	if snap.TipStats == nil {
		snap.TipStats = make(map[string]models.TipStats)
	}
	return snap, nil
}

// Stats returns the current statistics, or an empty snapshot when the file
// is missing or corrupt.
func (s *Store) Stats() *Snapshot {
	snap, err := s.LoadStats()
	if err != nil {
		return NewSnapshot()
	}
	return snap
}

// Events reads the whole log. Blank and malformed lines are skipped.
func (s *Store) Events() ([]models.FeedbackEvent, error) {
	f, err := os.Open(s.logPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []models.FeedbackEvent
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			var e models.FeedbackEvent
			if jsonErr := json.Unmarshal(line, &e); jsonErr == nil {
				events = append(events, e)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return events, nil
}

// Rebuild replays the log from scratch and replaces the statistics file.
func (s *Store) Rebuild() (*Snapshot, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	snap, err := s.replay()
	if err != nil {
		return nil, err
	}
	if err := s.writeStats(snap); err != nil {
		return nil, fmt.Errorf("write feedback stats: %w", err)
	}
	return snap, nil
}

func (s *Store) replay() (*Snapshot, error) {
	events, err := s.Events()
	if err != nil {
		return nil, err
	}
	snap := NewSnapshot()
	for _, e := range events {
		snap.Fold(e)
	}
	return snap, nil
}

// writeStats replaces the statistics file atomically.
func (s *Store) writeStats(snap *Snapshot) error {
	dir := filepath.Dir(s.statsPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.statsPath)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.statsPath)
}
