package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// EntryTimeStore persists position entry times across restarts. The file is a
// plain "SYMBOL,unix-seconds" line per position, rewritten whole on every
// mutation via a temp file rename so a crash never leaves a torn file.
type EntryTimeStore struct {
	mu    sync.Mutex
	path  string
	times map[string]time.Time
}

// NewEntryTimeStore opens the store at path, loading any existing entries.
// An empty path disables persistence; entry times then live only in memory.
func NewEntryTimeStore(path string) (*EntryTimeStore, error) {
	s := &EntryTimeStore{
		path:  path,
		times: make(map[string]time.Time),
	}
	if path == "" {
		return s, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("open entry time store: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			continue
		}
		unix, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			continue
		}
		s.times[strings.TrimSpace(parts[0])] = time.Unix(unix, 0).UTC()
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read entry time store: %w", err)
	}
	return s, nil
}

// Get returns the recorded entry time for symbol
func (s *EntryTimeStore) Get(symbol string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.times[symbol]
	return t, ok
}

// Set records the entry time for symbol and persists the store
func (s *EntryTimeStore) Set(symbol string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.times[symbol] = t.UTC()
	return s.flushLocked()
}

// Forget drops a symbol that is no longer held and persists the store
func (s *EntryTimeStore) Forget(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.times[symbol]; !ok {
		return nil
	}
	delete(s.times, symbol)
	return s.flushLocked()
}

func (s *EntryTimeStore) flushLocked() error {
	if s.path == "" {
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".entrytimes-*")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for symbol, t := range s.times {
		if _, err := fmt.Fprintf(w, "%s,%d\n", symbol, t.Unix()); err != nil {
			tmp.Close()
			return fmt.Errorf("write temp store: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush temp store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace entry time store: %w", err)
	}
	return nil
}
