package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"ai-docchat-client/internal/dto"
	"ai-docchat-client/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionsAcceptNumericAndStringIds(t *testing.T) {
	var list []dto.SessionResponse
	require.NoError(t, json.Unmarshal([]byte(`[{"id":42,"name":"Ops"},{"id":"abc","name":"Risk"}]`), &list))

	groups := NewChatMapper().SessionsToEntities(list)
	require.Len(t, groups, 2)
	assert.Equal(t, "42", groups[0].Id)
	assert.Equal(t, "abc", groups[1].Id)
	assert.NotNil(t, groups[0].Files)
	assert.NotNil(t, groups[0].Links)
}

func TestLinkNameDefaultsToUrl(t *testing.T) {
	l := NewChatMapper().LinkToEntity(dto.LinkResponse{Id: "1", Url: "https://example.com"})
	assert.Equal(t, "https://example.com", l.Name)
}

func TestSourcesSkipEmpty(t *testing.T) {
	var resp dto.AskResponse
	require.NoError(t, json.Unmarshal([]byte(`{"answer":"x","sources":[3,"uploads/a.pdf",null]}`), &resp))
	assert.Equal(t, []string{"3", "uploads/a.pdf"}, NewChatMapper().SourcesToStrings(resp.Sources))
	assert.Nil(t, NewChatMapper().SourcesToStrings(nil))
}

func TestBlobToSnapshotRejectsMalformed(t *testing.T) {
	m := NewCacheMapper()
	tests := []struct {
		name string
		blob dto.CacheBlob
	}{
		{name: "missing data", blob: dto.CacheBlob{Timestamp: time.Now().Format(time.RFC3339)}},
		{name: "bad timestamp", blob: dto.CacheBlob{Data: &dto.CacheData{}, Timestamp: "yesterday"}},
		{name: "group without id", blob: dto.CacheBlob{
			Data:      &dto.CacheData{Groups: []dto.CacheGroup{{Name: "x"}}},
			Timestamp: time.Now().Format(time.RFC3339),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.BlobToSnapshot(tt.blob)
			assert.ErrorIs(t, err, ErrMalformedSnapshot)
		})
	}
}

func TestSnapshotBlobKeepsContent(t *testing.T) {
	m := NewCacheMapper()
	ts := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	in := entity.Snapshot{
		Groups: []entity.Group{{
			Id:    "risk",
			Name:  "Risk",
			Files: []entity.File{{Id: "f1", Name: "report.pdf", Type: "pdf", Path: "uploads/report.pdf"}},
			Links: []entity.Link{{Id: "l1", Name: "Docs", Url: "https://example.com"}},
		}},
		Chats:     map[string][]entity.ChatMessage{"risk": {entity.UserMessage("hi"), {Text: "yo", Sources: []string{"f1"}}}},
		Timestamp: ts,
	}

	raw, err := json.Marshal(m.SnapshotToBlob(in))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"timestamp":"2026-10-16T09:30:00Z"`)
	assert.Contains(t, string(raw), `"isUser":true`)

	var blob dto.CacheBlob
	require.NoError(t, json.Unmarshal(raw, &blob))
	out, err := m.BlobToSnapshot(blob)
	require.NoError(t, err)
	assert.Equal(t, in.Groups, out.Groups)
	assert.Equal(t, in.Chats, out.Chats)
	assert.True(t, ts.Equal(out.Timestamp))
}
