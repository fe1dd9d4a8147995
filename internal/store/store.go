// Package store holds the in-memory groups, files, links and transcripts the
// client renders from. Every successful mutation re-sorts the groups, writes
// the full snapshot through to the persister and publishes a change event.
// Mutations that reference a missing group or item are no-ops.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ai-docchat-client/internal/dto"
	"ai-docchat-client/internal/entity"
	"ai-docchat-client/internal/pkg/logger"
	"ai-docchat-client/internal/transcript"

	"github.com/google/uuid"
)

const module = "store"

// Persister receives a full snapshot after every mutation.
type Persister interface {
	Save(ctx context.Context, snap entity.Snapshot) error
}

// Observer is told about every applied mutation.
type Observer interface {
	Notify(evt dto.ChangeEvent)
}

type Option func(*Store)

func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

func WithLogger(l logger.ILogger) Option {
	return func(s *Store) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

type Store struct {
	mu     sync.RWMutex
	groups []entity.Group
	chats  *transcript.Buffer

	// persistMu orders saves so the slot always ends with the newest state.
	persistMu      sync.Mutex
	persister      Persister
	persistTimeout time.Duration

	observer Observer
	log      logger.ILogger
	now      func() time.Time
}

func New(chats *transcript.Buffer, opts ...Option) *Store {
	s := &Store{
		groups:         []entity.Group{},
		chats:          chats,
		persistTimeout: 5 * time.Second,
		log:            logger.NewNopLogger(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListGroups returns copies of all groups sorted by case-insensitive name.
func (s *Store) ListGroups() []entity.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g.Clone())
	}
	return out
}

func (s *Store) GetGroup(id string) (entity.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return entity.Group{}, false
	}
	return s.groups[i].Clone(), true
}

// AddGroup creates a group with a fresh local id.
func (s *Store) AddGroup(name string) entity.Group {
	g := entity.Group{
		Id:    uuid.NewString(),
		Name:  name,
		Files: []entity.File{},
		Links: []entity.Link{},
	}
	s.UpsertGroup(g)
	return g
}

// UpsertGroup inserts g, or replaces the name, files and links of the group
// with the same id. Used when the backend hands back an authoritative group.
func (s *Store) UpsertGroup(g entity.Group) {
	g = normalize(g)

	s.mu.Lock()
	kind := dto.ChangeGroupAdded
	if i := s.indexOf(g.Id); i >= 0 {
		s.groups[i] = g
		kind = dto.ChangeGroupRenamed
	} else {
		s.groups = append(s.groups, g)
	}
	s.sortLocked()
	s.mu.Unlock()

	s.commit(dto.ChangeEvent{Kind: kind, GroupId: g.Id})
}

func (s *Store) RenameGroup(id, name string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.groups[i].Name = name
	s.sortLocked()
	s.mu.Unlock()

	s.commit(dto.ChangeEvent{Kind: dto.ChangeGroupRenamed, GroupId: id})
	return true
}

// DeleteGroup removes the group together with its files, links and
// transcript.
func (s *Store) DeleteGroup(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.groups = append(s.groups[:i], s.groups[i+1:]...)
	s.chats.Drop(id)
	s.mu.Unlock()

	s.commit(dto.ChangeEvent{Kind: dto.ChangeGroupDeleted, GroupId: id})
	return true
}

// AddFile appends f to the group. An empty id gets a generated one.
func (s *Store) AddFile(groupId string, f entity.File) bool {
	if f.Id == "" {
		f.Id = uuid.NewString()
	}

	s.mu.Lock()
	i := s.indexOf(groupId)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.groups[i].Files = append(s.groups[i].Files, f)
	s.sortLocked()
	s.mu.Unlock()

	s.commit(dto.ChangeEvent{Kind: dto.ChangeItemAdded, GroupId: groupId, ItemId: f.Id, ItemKind: string(entity.KindFile)})
	return true
}

// AddLink appends l to the group. The name defaults to the URL.
func (s *Store) AddLink(groupId string, l entity.Link) bool {
	if l.Id == "" {
		l.Id = uuid.NewString()
	}
	if l.Name == "" {
		l.Name = l.Url
	}

	s.mu.Lock()
	i := s.indexOf(groupId)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.groups[i].Links = append(s.groups[i].Links, l)
	s.sortLocked()
	s.mu.Unlock()

	s.commit(dto.ChangeEvent{Kind: dto.ChangeItemAdded, GroupId: groupId, ItemId: l.Id, ItemKind: string(entity.KindLink)})
	return true
}

func (s *Store) RenameItem(groupId, itemId string, kind entity.ItemKind, name string) bool {
	s.mu.Lock()
	i := s.indexOf(groupId)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	g := &s.groups[i]
	switch kind {
	case entity.KindFile:
		j := g.FileIndex(itemId)
		if j < 0 {
			s.mu.Unlock()
			return false
		}
		g.Files[j].Name = name
	case entity.KindLink:
		j := g.LinkIndex(itemId)
		if j < 0 {
			s.mu.Unlock()
			return false
		}
		g.Links[j].Name = name
	default:
		s.mu.Unlock()
		return false
	}
	s.sortLocked()
	s.mu.Unlock()

	s.commit(dto.ChangeEvent{Kind: dto.ChangeItemRenamed, GroupId: groupId, ItemId: itemId, ItemKind: string(kind)})
	return true
}

func (s *Store) DeleteItem(groupId, itemId string, kind entity.ItemKind) bool {
	s.mu.Lock()
	i := s.indexOf(groupId)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	g := &s.groups[i]
	switch kind {
	case entity.KindFile:
		j := g.FileIndex(itemId)
		if j < 0 {
			s.mu.Unlock()
			return false
		}
		g.Files = append(g.Files[:j], g.Files[j+1:]...)
	case entity.KindLink:
		j := g.LinkIndex(itemId)
		if j < 0 {
			s.mu.Unlock()
			return false
		}
		g.Links = append(g.Links[:j], g.Links[j+1:]...)
	default:
		s.mu.Unlock()
		return false
	}
	s.sortLocked()
	s.mu.Unlock()

	s.commit(dto.ChangeEvent{Kind: dto.ChangeItemDeleted, GroupId: groupId, ItemId: itemId, ItemKind: string(kind)})
	return true
}

// SetFiles replaces the group's files with the authoritative list.
func (s *Store) SetFiles(groupId string, files []entity.File) bool {
	s.mu.Lock()
	i := s.indexOf(groupId)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.groups[i].Files = append(make([]entity.File, 0, len(files)), files...)
	s.mu.Unlock()

	s.commit(dto.ChangeEvent{Kind: dto.ChangeItemsReplaced, GroupId: groupId, ItemKind: string(entity.KindFile)})
	return true
}

// SetLinks replaces the group's links with the authoritative list.
func (s *Store) SetLinks(groupId string, links []entity.Link) bool {
	s.mu.Lock()
	i := s.indexOf(groupId)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.groups[i].Links = append(make([]entity.Link, 0, len(links)), links...)
	s.mu.Unlock()

	s.commit(dto.ChangeEvent{Kind: dto.ChangeItemsReplaced, GroupId: groupId, ItemKind: string(entity.KindLink)})
	return true
}

// AppendMessage adds msg to the group's transcript.
func (s *Store) AppendMessage(groupId string, msg entity.ChatMessage) bool {
	s.mu.Lock()
	if s.indexOf(groupId) < 0 {
		s.mu.Unlock()
		return false
	}
	s.chats.Append(groupId, msg)
	s.mu.Unlock()

	s.commit(dto.ChangeEvent{Kind: dto.ChangeMessageAdded, GroupId: groupId})
	return true
}

// SetHistory replaces the group's transcript, keeping the newest messages up
// to the transcript cap.
func (s *Store) SetHistory(groupId string, msgs []entity.ChatMessage) bool {
	s.mu.Lock()
	if s.indexOf(groupId) < 0 {
		s.mu.Unlock()
		return false
	}
	s.chats.Replace(groupId, msgs)
	s.mu.Unlock()

	s.commit(dto.ChangeEvent{Kind: dto.ChangeHistoryLoaded, GroupId: groupId})
	return true
}

func (s *Store) History(groupId string) []entity.ChatMessage {
	return s.chats.History(groupId)
}

// ReplaceGroups swaps in the authoritative group list. Transcripts of groups
// that are gone are dropped; the others are kept.
func (s *Store) ReplaceGroups(groups []entity.Group) {
	s.mu.Lock()
	s.replaceLocked(groups)
	keep := make(map[string]bool, len(s.groups))
	for _, g := range s.groups {
		keep[g.Id] = true
	}
	for id := range s.chats.All() {
		if !keep[id] {
			s.chats.Drop(id)
		}
	}
	s.mu.Unlock()

	s.commit(dto.ChangeEvent{Kind: dto.ChangeGroupsReplaced})
}

// Restore loads a snapshot without writing it back.
func (s *Store) Restore(snap entity.Snapshot) {
	s.mu.Lock()
	s.replaceLocked(snap.Groups)
	s.chats.Reset()
	for _, g := range s.groups {
		if msgs, ok := snap.Chats[g.Id]; ok {
			s.chats.Replace(g.Id, msgs)
		}
	}
	s.mu.Unlock()

	s.notify(dto.ChangeEvent{Kind: dto.ChangeGroupsReplaced})
}

// Snapshot returns the current state stamped with the store clock.
func (s *Store) Snapshot() entity.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]entity.Group, 0, len(s.groups))
	for _, g := range s.groups {
		groups = append(groups, g.Clone())
	}
	return entity.Snapshot{
		Groups:    groups,
		Chats:     s.chats.All(),
		Timestamp: s.now(),
	}
}

func (s *Store) replaceLocked(groups []entity.Group) {
	s.groups = make([]entity.Group, 0, len(groups))
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		if g.Id == "" || seen[g.Id] {
			continue
		}
		seen[g.Id] = true
		s.groups = append(s.groups, normalize(g.Clone()))
	}
	s.sortLocked()
}

func (s *Store) indexOf(id string) int {
	for i := range s.groups {
		if s.groups[i].Id == id {
			return i
		}
	}
	return -1
}

// sortLocked orders groups by case-insensitive name; equal names keep their
// relative order.
func (s *Store) sortLocked() {
	sort.SliceStable(s.groups, func(i, j int) bool {
		return strings.ToLower(s.groups[i].Name) < strings.ToLower(s.groups[j].Name)
	})
}

func (s *Store) commit(evt dto.ChangeEvent) {
	s.persist()
	s.notify(evt)
}

func (s *Store) persist() {
	if s.persister == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()

	if err := s.persister.Save(ctx, s.Snapshot()); err != nil {
		s.log.Warn(module, "Failed to persist snapshot", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Store) notify(evt dto.ChangeEvent) {
	if s.observer == nil {
		return
	}
	evt.OccurredAt = s.now()
	s.observer.Notify(evt)
}

func normalize(g entity.Group) entity.Group {
	if g.Files == nil {
		g.Files = []entity.File{}
	}
	if g.Links == nil {
		g.Links = []entity.Link{}
	}
	return g
}
