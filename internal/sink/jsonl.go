package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/solatis/beacon/internal/payload"
)

// JSONLSink appends payloads as JSON lines to one file per UTC day.
// Output is a debugging aid; the database sink is authoritative.
type JSONLSink struct {
	dir     string
	now     func() time.Time
	mu      sync.Mutex
	fileMus map[string]*sync.Mutex
}

// NewJSONLSink creates dir if needed.
func NewJSONLSink(dir string) (*JSONLSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &JSONLSink{
		dir:     dir,
		now:     time.Now,
		fileMus: make(map[string]*sync.Mutex),
	}, nil
}

// Path returns the file a payload written at t lands in.
func (s *JSONLSink) Path(t time.Time) string {
	return filepath.Join(s.dir, t.UTC().Format("2006-01-02.jsonl"))
}

// Write appends p to today's file.
func (s *JSONLSink) Write(_ context.Context, p payload.Payload) error {
	filename := s.Path(s.now())
	mu := s.fileMutex(filename)
	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(p); err != nil {
		return fmt.Errorf("append %s: %w", filename, err)
	}
	return nil
}

// fileMutex returns the mutex for filename. The map grows by one entry per day.
func (s *JSONLSink) fileMutex(filename string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.fileMus[filename]
	if !ok {
		mu = &sync.Mutex{}
		s.fileMus[filename] = mu
	}
	return mu
}
