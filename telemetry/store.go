package telemetry

import (
	"fmt"
	"sync"
	"time"
)

// Store merges samples as they arrive. Sources write from their own
// goroutine while the display tick reads.
type Store struct {
	mu        sync.RWMutex
	values    map[string]float64
	timestamp int64
	updated   time.Time
	samples   int
}

func NewStore() *Store {
	return &Store{values: make(map[string]float64)}
}

// Update merges s into the store. Channels absent from s keep their value.
func (s *Store) Update(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, v := range sample.Values {
		s.values[name] = v
	}
	s.timestamp = sample.Timestamp
	s.updated = time.Now()
	s.samples++
}

// Value returns the last known value of name.
func (s *Store) Value(name string) (float64, error) {
	v, ok := s.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrChannelMissing, name)
	}
	return v, nil
}

func (s *Store) Lookup(name string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Latest returns a copy of every known channel.
func (s *Store) Latest() Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := make(map[string]float64, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	return Sample{Timestamp: s.timestamp, Values: values}
}

func (s *Store) SampleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.samples
}

func (s *Store) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}

// Reset forgets every channel, used when the link drops.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]float64)
	s.timestamp = 0
}
