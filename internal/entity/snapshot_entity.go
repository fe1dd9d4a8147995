package entity

import "time"

// Snapshot is the persisted projection of the store: groups, their
// transcripts, and when it was written.
type Snapshot struct {
	Groups    []Group
	Chats     map[string][]ChatMessage
	Timestamp time.Time
}
