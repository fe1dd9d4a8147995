// Package transcript keeps a bounded chat log per group.
package transcript

import (
	"sync"

	"ai-docchat-client/internal/entity"
)

// ring is a fixed-capacity FIFO. head points at the oldest message.
type ring struct {
	buf  []entity.ChatMessage
	head int
	size int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]entity.ChatMessage, capacity)}
}

func (r *ring) push(msg entity.ChatMessage) {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = msg
		r.size++
		return
	}
	// Full: overwrite the oldest and advance.
	r.buf[r.head] = msg
	r.head = (r.head + 1) % len(r.buf)
}

func (r *ring) items() []entity.ChatMessage {
	out := make([]entity.ChatMessage, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Buffer holds one ring per group id.
type Buffer struct {
	mu       sync.RWMutex
	capacity int
	groups   map[string]*ring
}

// New returns a Buffer capping every group at capacity messages. A
// non-positive capacity is treated as 1.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		capacity: capacity,
		groups:   make(map[string]*ring),
	}
}

func (b *Buffer) Cap() int {
	return b.capacity
}

// Append adds msg to the group's log, evicting the oldest message when full.
func (b *Buffer) Append(groupId string, msg entity.ChatMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.groups[groupId]
	if !ok {
		r = newRing(b.capacity)
		b.groups[groupId] = r
	}
	r.push(msg)
}

// History returns the group's messages oldest first. Unknown groups yield an
// empty, non-nil slice.
func (b *Buffer) History(groupId string) []entity.ChatMessage {
	b.mu.RLock()
	defer b.mu.RUnlock()

	r, ok := b.groups[groupId]
	if !ok {
		return []entity.ChatMessage{}
	}
	return r.items()
}

// Replace discards the group's log and refills it from msgs, keeping only
// the newest Cap() of them.
func (b *Buffer) Replace(groupId string, msgs []entity.ChatMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := newRing(b.capacity)
	if len(msgs) > b.capacity {
		msgs = msgs[len(msgs)-b.capacity:]
	}
	for _, m := range msgs {
		r.push(m)
	}
	b.groups[groupId] = r
}

func (b *Buffer) Drop(groupId string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.groups, groupId)
}

// All returns a copy of every non-empty log keyed by group id.
func (b *Buffer) All() map[string][]entity.ChatMessage {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string][]entity.ChatMessage, len(b.groups))
	for id, r := range b.groups {
		if r.size == 0 {
			continue
		}
		out[id] = r.items()
	}
	return out
}

// Reset drops every log.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.groups = make(map[string]*ring)
}
