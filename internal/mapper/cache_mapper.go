package mapper

import (
	"errors"
	"fmt"
	"time"

	"ai-docchat-client/internal/dto"
	"ai-docchat-client/internal/entity"
)

var ErrMalformedSnapshot = errors.New("malformed cache snapshot")

type CacheMapper struct{}

func NewCacheMapper() *CacheMapper {
	return &CacheMapper{}
}

func (m *CacheMapper) SnapshotToBlob(s entity.Snapshot) dto.CacheBlob {
	data := &dto.CacheData{
		Groups: make([]dto.CacheGroup, 0, len(s.Groups)),
		Chats:  make(map[string][]dto.CacheMessage, len(s.Chats)),
	}
	for _, g := range s.Groups {
		cg := dto.CacheGroup{
			Id:    g.Id,
			Name:  g.Name,
			Files: make([]dto.CacheFile, 0, len(g.Files)),
			Links: make([]dto.CacheLink, 0, len(g.Links)),
		}
		for _, f := range g.Files {
			cg.Files = append(cg.Files, dto.CacheFile{Id: f.Id, Name: f.Name, Type: f.Type, Path: f.Path})
		}
		for _, l := range g.Links {
			cg.Links = append(cg.Links, dto.CacheLink{Id: l.Id, Name: l.Name, Url: l.Url})
		}
		data.Groups = append(data.Groups, cg)
	}
	for id, msgs := range s.Chats {
		out := make([]dto.CacheMessage, 0, len(msgs))
		for _, msg := range msgs {
			out = append(out, dto.CacheMessage{Text: msg.Text, IsUser: msg.IsUser, Sources: msg.Sources})
		}
		data.Chats[id] = out
	}
	return dto.CacheBlob{
		Data:      data,
		Timestamp: s.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// BlobToSnapshot validates the blob structure. A missing data section, an
// unparsable timestamp or a group without an id is malformed.
func (m *CacheMapper) BlobToSnapshot(b dto.CacheBlob) (entity.Snapshot, error) {
	if b.Data == nil {
		return entity.Snapshot{}, fmt.Errorf("%w: missing data", ErrMalformedSnapshot)
	}
	ts, err := time.Parse(time.RFC3339Nano, b.Timestamp)
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformedSnapshot, b.Timestamp, err)
	}

	snap := entity.Snapshot{
		Groups:    make([]entity.Group, 0, len(b.Data.Groups)),
		Chats:     make(map[string][]entity.ChatMessage, len(b.Data.Chats)),
		Timestamp: ts,
	}
	for i, cg := range b.Data.Groups {
		if cg.Id == "" {
			return entity.Snapshot{}, fmt.Errorf("%w: group %d has no id", ErrMalformedSnapshot, i)
		}
		g := entity.Group{
			Id:    cg.Id,
			Name:  cg.Name,
			Files: make([]entity.File, 0, len(cg.Files)),
			Links: make([]entity.Link, 0, len(cg.Links)),
		}
		for _, f := range cg.Files {
			g.Files = append(g.Files, entity.File{Id: f.Id, Name: f.Name, Type: f.Type, Path: f.Path})
		}
		for _, l := range cg.Links {
			g.Links = append(g.Links, entity.Link{Id: l.Id, Name: l.Name, Url: l.Url})
		}
		snap.Groups = append(snap.Groups, g)
	}
	for id, msgs := range b.Data.Chats {
		out := make([]entity.ChatMessage, 0, len(msgs))
		for _, msg := range msgs {
			out = append(out, entity.ChatMessage{Text: msg.Text, IsUser: msg.IsUser, Sources: msg.Sources})
		}
		snap.Chats[id] = out
	}
	return snap, nil
}
