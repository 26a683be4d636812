package inflight

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultTTL bounds how long a crashed holder can block a room.
const DefaultTTL = 2 * time.Minute

// Guard hands out at most one live token per key.
type Guard interface {
	// Acquire returns ok=false when key is already held. release is nil
	// unless ok is true, and is safe to call more than once.
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// Memory is an in-process Guard.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	seq  uint64
	held map[string]memEntry
}

type memEntry struct {
	seq     uint64
	expires time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, now: time.Now, held: make(map[string]memEntry)}
}

func (m *Memory) Acquire(ctx context.Context, key string) (func(), bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	key = strings.TrimSpace(key)

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if e, ok := m.held[key]; ok && now.Before(e.expires) {
		return nil, false, nil
	}

	m.seq++
	seq := m.seq

	m.held[key] = memEntry{seq: seq, expires: now.Add(m.ttl)}
	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if e, ok := m.held[key]; ok && e.seq == seq {
				delete(m.held, key)
			}
		})
	}
	return release, true, nil
}
