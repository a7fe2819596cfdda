// Package logring provides a fixed-capacity circular buffer for captured
// process output lines. Once full, the oldest line is silently discarded.
package logring

import "sync"

// Capacity bounds for a Buffer. Requested capacities outside this range
// are clamped at construction time.
const (
	MinCapacity = 10
	MaxCapacity = 10000
)

// Buffer is a thread-safe overwrite-oldest line store.
type Buffer struct {
	lines []string
	size  int
	head  int
	count int
	mu    sync.RWMutex
}

// New creates a buffer with the given capacity, clamped to
// [MinCapacity, MaxCapacity]. Capacity never changes afterwards.
func New(capacity int) *Buffer {
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	if capacity > MaxCapacity {
		capacity = MaxCapacity
	}
	return &Buffer{
		lines: make([]string, capacity),
		size:  capacity,
	}
}

// Push appends a line, overwriting the oldest entry when full. O(1).
func (b *Buffer) Push(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines[b.head] = line
	b.head = (b.head + 1) % b.size

	if b.count < b.size {
		b.count++
	}
}

// Snapshot returns retained lines in chronological order as a new slice.
// A limit > 0 truncates the result to the most recent limit lines;
// limit <= 0 returns everything currently retained.
func (b *Buffer) Snapshot(limit int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return nil
	}

	result := make([]string, b.count)
	if b.count < b.size {
		copy(result, b.lines[:b.count])
	} else {
		// Oldest entry sits at head once the buffer has wrapped.
		n := copy(result, b.lines[b.head:])
		copy(result[n:], b.lines[:b.head])
	}

	if limit > 0 && limit < len(result) {
		result = result[len(result)-limit:]
	}
	return result
}

// Len returns the number of retained lines.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return b.size
}
