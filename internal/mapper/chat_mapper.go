package mapper

import (
	"ai-docchat-client/internal/dto"
	"ai-docchat-client/internal/entity"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) SessionToEntity(s dto.SessionResponse) entity.Group {
	return entity.Group{
		Id:    s.Id.String(),
		Name:  s.Name,
		Files: []entity.File{},
		Links: []entity.Link{},
	}
}

func (m *ChatMapper) SessionsToEntities(list []dto.SessionResponse) []entity.Group {
	out := make([]entity.Group, 0, len(list))
	for _, s := range list {
		out = append(out, m.SessionToEntity(s))
	}
	return out
}

func (m *ChatMapper) FileToEntity(f dto.FileResponse) entity.File {
	return entity.File{
		Id:   f.Id.String(),
		Name: f.Name,
		Type: f.Type,
		Path: f.Path,
	}
}

func (m *ChatMapper) FilesToEntities(list []dto.FileResponse) []entity.File {
	out := make([]entity.File, 0, len(list))
	for _, f := range list {
		out = append(out, m.FileToEntity(f))
	}
	return out
}

func (m *ChatMapper) LinkToEntity(l dto.LinkResponse) entity.Link {
	name := l.Name
	if name == "" {
		name = l.Url
	}
	return entity.Link{
		Id:   l.Id.String(),
		Name: name,
		Url:  l.Url,
	}
}

func (m *ChatMapper) LinksToEntities(list []dto.LinkResponse) []entity.Link {
	out := make([]entity.Link, 0, len(list))
	for _, l := range list {
		out = append(out, m.LinkToEntity(l))
	}
	return out
}

// Message Mappers

func (m *ChatMapper) HistoryToEntities(list []dto.ChatHistoryResponse) []entity.ChatMessage {
	out := make([]entity.ChatMessage, 0, len(list))
	for _, h := range list {
		out = append(out, entity.ChatMessage{Text: h.Message, IsUser: h.IsUser})
	}
	return out
}

func (m *ChatMapper) SourcesToStrings(sources []dto.FlexibleID) []string {
	if len(sources) == 0 {
		return nil
	}
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		if s == "" {
			continue
		}
		out = append(out, s.String())
	}
	return out
}
