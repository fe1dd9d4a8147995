package memory

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"ai-docchat-client/internal/entity"

	"github.com/patrickmn/go-cache"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrDuplicateName   = errors.New("duplicate name")
)

type sessionRecord struct {
	seq     int
	group   entity.Group
	history []entity.ChatMessage
}

// SessionRepository is the reference backend's storage. Sessions never
// expire; go-cache is used as a concurrent keyed map.
type SessionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
	next  int
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func key(id string) string {
	return "session:" + id
}

func (r *SessionRepository) nextId() string {
	r.next++
	return strconv.Itoa(r.next)
}

func (r *SessionRepository) get(id string) (*sessionRecord, bool) {
	if x, found := r.cache.Get(key(id)); found {
		return x.(*sessionRecord), true
	}
	return nil, false
}

func (r *SessionRepository) nameTakenLocked(name, exceptId string) bool {
	for _, item := range r.cache.Items() {
		rec := item.Object.(*sessionRecord)
		if rec.group.Id != exceptId && strings.EqualFold(rec.group.Name, name) {
			return true
		}
	}
	return false
}

// List returns sessions in creation order.
func (r *SessionRepository) List() []entity.Group {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs := make([]*sessionRecord, 0, r.cache.ItemCount())
	for _, item := range r.cache.Items() {
		recs = append(recs, item.Object.(*sessionRecord))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	out := make([]entity.Group, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.group.Clone())
	}
	return out
}

func (r *SessionRepository) Create(name string) (entity.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTakenLocked(name, "") {
		return entity.Group{}, ErrDuplicateName
	}
	id := r.nextId()
	rec := &sessionRecord{
		seq:   r.next,
		group: entity.Group{Id: id, Name: name, Files: []entity.File{}, Links: []entity.Link{}},
	}
	r.cache.Set(key(id), rec, cache.NoExpiration)
	return rec.group.Clone(), nil
}

func (r *SessionRepository) Get(id string) (entity.Group, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.get(id)
	if !ok {
		return entity.Group{}, false
	}
	return rec.group.Clone(), true
}

func (r *SessionRepository) Rename(id, name string) (entity.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.get(id)
	if !ok {
		return entity.Group{}, ErrSessionNotFound
	}
	if r.nameTakenLocked(name, id) {
		return entity.Group{}, ErrDuplicateName
	}
	rec.group.Name = name
	return rec.group.Clone(), nil
}

func (r *SessionRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.get(id); !ok {
		return ErrSessionNotFound
	}
	r.cache.Delete(key(id))
	return nil
}

func (r *SessionRepository) AddFile(sessionId string, f entity.File) (entity.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.get(sessionId)
	if !ok {
		return entity.File{}, ErrSessionNotFound
	}
	f.Id = r.nextId()
	rec.group.Files = append(rec.group.Files, f)
	return f, nil
}

func (r *SessionRepository) AddLink(sessionId string, l entity.Link) (entity.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.get(sessionId)
	if !ok {
		return entity.Link{}, ErrSessionNotFound
	}
	l.Id = r.nextId()
	if l.Name == "" {
		l.Name = l.Url
	}
	rec.group.Links = append(rec.group.Links, l)
	return l, nil
}

func (r *SessionRepository) RenameItem(sessionId, itemId string, kind entity.ItemKind, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.get(sessionId)
	if !ok {
		return ErrSessionNotFound
	}
	switch kind {
	case entity.KindFile:
		if i := rec.group.FileIndex(itemId); i >= 0 {
			rec.group.Files[i].Name = name
			return nil
		}
	case entity.KindLink:
		if i := rec.group.LinkIndex(itemId); i >= 0 {
			rec.group.Links[i].Name = name
			return nil
		}
	}
	return ErrItemNotFound
}

func (r *SessionRepository) DeleteItem(sessionId, itemId string, kind entity.ItemKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.get(sessionId)
	if !ok {
		return ErrSessionNotFound
	}
	switch kind {
	case entity.KindFile:
		if i := rec.group.FileIndex(itemId); i >= 0 {
			rec.group.Files = append(rec.group.Files[:i], rec.group.Files[i+1:]...)
			return nil
		}
	case entity.KindLink:
		if i := rec.group.LinkIndex(itemId); i >= 0 {
			rec.group.Links = append(rec.group.Links[:i], rec.group.Links[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

func (r *SessionRepository) AppendHistory(sessionId string, msgs ...entity.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.get(sessionId)
	if !ok {
		return ErrSessionNotFound
	}
	rec.history = append(rec.history, msgs...)
	return nil
}

func (r *SessionRepository) History(sessionId string) ([]entity.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.get(sessionId)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return append(make([]entity.ChatMessage, 0, len(rec.history)), rec.history...), nil
}
