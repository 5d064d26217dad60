// Package journal keeps a per-run record of the action trace under the data
// directory: one CSV of traced actions and one metadata file per session.
package journal

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/san-kum/asynctui/internal/action"
)

const (
	metadataFile = "metadata.json"
	actionsFile  = "actions.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type SessionMetadata struct {
	ID         string    `json:"id"`
	Started    time.Time `json:"started"`
	Ended      time.Time `json:"ended"`
	Dispatched int       `json:"dispatched"`
	Traced     int       `json:"traced"`
	Dropped    int       `json:"dropped"`
	Error      string    `json:"error,omitempty"`
}

// Summary is what the runtime reports when a session ends.
type Summary struct {
	Dispatched int
	Dropped    int
	Err        error
}

// Entry is one traced action read back from a session.
type Entry struct {
	Time   time.Time
	Action string
}

// Session appends traced actions for one run.
type Session struct {
	mu   sync.Mutex
	dir  string
	meta SessionMetadata
	file *os.File
	w    *csv.Writer
}

// Open starts a new session record.
func (s *Store) Open(id string) (*Session, error) {
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("journal: create session dir: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, actionsFile))
	if err != nil {
		return nil, fmt.Errorf("journal: create actions file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "action"}); err != nil {
		f.Close()
		return nil, err
	}
	return &Session{
		dir:  dir,
		meta: SessionMetadata{ID: id, Started: time.Now()},
		file: f,
		w:    w,
	}, nil
}

func (s *Session) ID() string {
	return s.meta.ID
}

func (s *Session) Record(a action.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return fmt.Errorf("journal: session %s closed", s.meta.ID)
	}
	s.meta.Traced++
	return s.w.Write([]string{time.Now().Format(time.RFC3339Nano), a.String()})
}

// Close flushes the trace and writes the session metadata.
func (s *Session) Close(sum Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}

	s.w.Flush()
	flushErr := s.w.Error()
	closeErr := s.file.Close()
	s.file = nil

	s.meta.Ended = time.Now()
	s.meta.Dispatched = sum.Dispatched
	s.meta.Dropped = sum.Dropped
	if sum.Err != nil {
		s.meta.Error = sum.Err.Error()
	}

	metaFile, err := os.Create(filepath.Join(s.dir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.meta); err != nil {
		return err
	}
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// List returns finished sessions, newest first.
func (s *Store) List() ([]SessionMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionMetadata{}, nil
		}
		return nil, err
	}

	sessions := make([]SessionMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		sessions = append(sessions, *meta)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Started.After(sessions[j].Started)
	})
	return sessions, nil
}

func (s *Store) Load(id string) (*SessionMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta SessionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadActions(id string) ([]Entry, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, actionsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Entry{}, nil
	}

	entries := make([]Entry, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, record[0])
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Time: t, Action: record[1]})
	}
	return entries, nil
}
