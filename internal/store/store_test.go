package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"ai-docchat-client/internal/dto"
	"ai-docchat-client/internal/entity"
	"ai-docchat-client/internal/transcript"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPersister struct {
	mu    sync.Mutex
	saves []entity.Snapshot
	err   error
}

func (p *recordingPersister) Save(_ context.Context, snap entity.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves = append(p.saves, snap)
	return p.err
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saves)
}

func (p *recordingPersister) last() entity.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves[len(p.saves)-1]
}

type recordingObserver struct {
	mu     sync.Mutex
	events []dto.ChangeEvent
}

func (o *recordingObserver) Notify(evt dto.ChangeEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, evt)
}

func (o *recordingObserver) kinds() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.events))
	for i, e := range o.events {
		out[i] = e.Kind
	}
	return out
}

func newTestStore(t *testing.T) (*Store, *recordingPersister, *recordingObserver) {
	t.Helper()
	p := &recordingPersister{}
	o := &recordingObserver{}
	s := New(transcript.New(50), WithPersister(p), WithObserver(o))
	return s, p, o
}

func names(groups []entity.Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Name
	}
	return out
}

func TestAddGroupKeepsListSortedCaseInsensitive(t *testing.T) {
	s, p, _ := newTestStore(t)

	s.AddGroup("risk")
	s.AddGroup("Operations")
	g := s.AddGroup("compliance")
	s.AddGroup("Vendor Management")

	list := s.ListGroups()
	assert.Equal(t, []string{"compliance", "Operations", "risk", "Vendor Management"}, names(list))
	assert.Contains(t, list, g)
	assert.Equal(t, 4, p.count())
}

func TestSortIsStableOnEqualNames(t *testing.T) {
	s, _, _ := newTestStore(t)

	first := s.AddGroup("Ops")
	s.AddGroup("Alpha")
	second := s.AddGroup("ops")
	third := s.AddGroup("OPS")

	list := s.ListGroups()
	require.Len(t, list, 4)
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Equal(t, []string{first.Id, second.Id, third.Id}, []string{list[1].Id, list[2].Id, list[3].Id})

	// Renaming into the tie keeps the existing relative order: Alpha sat
	// ahead of the others, so it stays ahead.
	alpha := list[0].Id
	s.RenameGroup(alpha, "ops")
	list = s.ListGroups()
	assert.Equal(t, []string{alpha, first.Id, second.Id, third.Id},
		[]string{list[0].Id, list[1].Id, list[2].Id, list[3].Id})
}

func TestRenameGroupResorts(t *testing.T) {
	s, _, o := newTestStore(t)
	a := s.AddGroup("Alpha")
	s.AddGroup("Beta")

	assert.True(t, s.RenameGroup(a.Id, "Zeta"))
	assert.Equal(t, []string{"Beta", "Zeta"}, names(s.ListGroups()))
	assert.Equal(t, dto.ChangeGroupRenamed, o.kinds()[2])
}

func TestMissingReferencesAreSilentNoOps(t *testing.T) {
	s, p, o := newTestStore(t)
	g := s.AddGroup("Risk")
	before := p.count()

	assert.False(t, s.RenameGroup("nope", "x"))
	assert.False(t, s.DeleteGroup("nope"))
	assert.False(t, s.AddFile("nope", entity.File{Name: "a.pdf"}))
	assert.False(t, s.AddLink("nope", entity.Link{Url: "https://x"}))
	assert.False(t, s.RenameItem(g.Id, "missing", entity.KindFile, "x"))
	assert.False(t, s.RenameItem(g.Id, "missing", entity.KindLink, "x"))
	assert.False(t, s.RenameItem(g.Id, "missing", entity.KindGroup, "x"))
	assert.False(t, s.DeleteItem(g.Id, "missing", entity.KindFile))
	assert.False(t, s.DeleteItem("nope", "missing", entity.KindLink))
	assert.False(t, s.AppendMessage("nope", entity.UserMessage("hi")))
	assert.False(t, s.SetFiles("nope", nil))
	assert.False(t, s.SetLinks("nope", nil))
	assert.False(t, s.SetHistory("nope", nil))

	assert.Equal(t, before, p.count())
	assert.Len(t, o.kinds(), 1)
	assert.Empty(t, s.History("nope"))
}

func TestDeleteGroupCascades(t *testing.T) {
	s, p, _ := newTestStore(t)
	g := s.AddGroup("Risk")
	other := s.AddGroup("Ops")
	require.True(t, s.AddFile(g.Id, entity.File{Name: "a.pdf", Type: "pdf", Path: "uploads/a.pdf"}))
	require.True(t, s.AddLink(g.Id, entity.Link{Url: "https://example.com"}))
	require.True(t, s.AppendMessage(g.Id, entity.UserMessage("hello")))
	require.True(t, s.AppendMessage(other.Id, entity.UserMessage("kept")))

	assert.True(t, s.DeleteGroup(g.Id))

	_, ok := s.GetGroup(g.Id)
	assert.False(t, ok)
	assert.Empty(t, s.History(g.Id))
	assert.Len(t, s.History(other.Id), 1)

	snap := p.last()
	assert.Equal(t, []string{"Ops"}, names(snap.Groups))
	assert.NotContains(t, snap.Chats, g.Id)

	// Re-adding the same id starts from an empty transcript.
	s.UpsertGroup(entity.Group{Id: g.Id, Name: "Risk"})
	assert.Empty(t, s.History(g.Id))
}

func TestFileAndLinkLifecycle(t *testing.T) {
	s, _, o := newTestStore(t)
	g := s.AddGroup("Risk")

	require.True(t, s.AddFile(g.Id, entity.File{Id: "f1", Name: "report.pdf", Type: "pdf", Path: "uploads/report.pdf"}))
	require.True(t, s.AddLink(g.Id, entity.Link{Id: "l1", Url: "https://example.com"}))

	got, ok := s.GetGroup(g.Id)
	require.True(t, ok)
	require.Len(t, got.Files, 1)
	require.Len(t, got.Links, 1)
	assert.Equal(t, "https://example.com", got.Links[0].Name)

	assert.True(t, s.RenameItem(g.Id, "f1", entity.KindFile, "q3.pdf"))
	assert.True(t, s.RenameItem(g.Id, "l1", entity.KindLink, "Docs"))
	got, _ = s.GetGroup(g.Id)
	assert.Equal(t, "q3.pdf", got.Files[0].Name)
	assert.Equal(t, "Docs", got.Links[0].Name)

	assert.True(t, s.DeleteItem(g.Id, "f1", entity.KindFile))
	assert.True(t, s.DeleteItem(g.Id, "l1", entity.KindLink))
	got, _ = s.GetGroup(g.Id)
	assert.Empty(t, got.Files)
	assert.Empty(t, got.Links)

	assert.Equal(t, []string{
		dto.ChangeGroupAdded,
		dto.ChangeItemAdded, dto.ChangeItemAdded,
		dto.ChangeItemRenamed, dto.ChangeItemRenamed,
		dto.ChangeItemDeleted, dto.ChangeItemDeleted,
	}, o.kinds())
}

func TestReturnedGroupsDoNotAliasStore(t *testing.T) {
	s, _, _ := newTestStore(t)
	g := s.AddGroup("Risk")
	s.AddFile(g.Id, entity.File{Id: "f1", Name: "a.pdf"})

	got, _ := s.GetGroup(g.Id)
	got.Files[0].Name = "mutated"
	got.Name = "mutated"

	again, _ := s.GetGroup(g.Id)
	assert.Equal(t, "a.pdf", again.Files[0].Name)
	assert.Equal(t, "Risk", again.Name)
}

func TestTranscriptCapThroughStore(t *testing.T) {
	s := New(transcript.New(50))
	g := s.AddGroup("Risk")
	for i := 0; i < 75; i++ {
		s.AppendMessage(g.Id, entity.UserMessage(fmt.Sprintf("m%d", i)))
	}
	h := s.History(g.Id)
	require.Len(t, h, 50)
	assert.Equal(t, "m25", h[0].Text)
	assert.Equal(t, "m74", h[49].Text)
}

func TestReplaceGroupsKeepsSurvivingTranscripts(t *testing.T) {
	s, _, _ := newTestStore(t)
	s.UpsertGroup(entity.Group{Id: "1", Name: "Risk"})
	s.UpsertGroup(entity.Group{Id: "2", Name: "Ops"})
	s.AppendMessage("1", entity.UserMessage("keep me"))
	s.AppendMessage("2", entity.UserMessage("drop me"))

	s.ReplaceGroups([]entity.Group{
		{Id: "1", Name: "Risk"},
		{Id: "3", Name: "compliance"},
		{Id: "3", Name: "duplicate id ignored"},
		{Name: "no id ignored"},
	})

	assert.Equal(t, []string{"compliance", "Risk"}, names(s.ListGroups()))
	assert.Len(t, s.History("1"), 1)
	assert.Empty(t, s.History("2"))
}

func TestSnapshotRestore(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	s := New(transcript.New(10), WithClock(func() time.Time { return now }))
	g := s.AddGroup("Risk")
	s.AddFile(g.Id, entity.File{Id: "f1", Name: "a.pdf", Type: "pdf"})
	s.AppendMessage(g.Id, entity.UserMessage("hi"))

	snap := s.Snapshot()
	assert.Equal(t, now, snap.Timestamp)

	p := &recordingPersister{}
	restored := New(transcript.New(10), WithPersister(p))
	restored.Restore(snap)

	assert.Equal(t, s.ListGroups(), restored.ListGroups())
	assert.Equal(t, s.History(g.Id), restored.History(g.Id))
	assert.Zero(t, p.count(), "restore must not write back")
}

func TestPersistFailureDoesNotBlockMutation(t *testing.T) {
	p := &recordingPersister{err: fmt.Errorf("disk full")}
	s := New(transcript.New(10), WithPersister(p))

	g := s.AddGroup("Risk")
	_, ok := s.GetGroup(g.Id)
	assert.True(t, ok)
	assert.Equal(t, 1, p.count())
}

func TestConcurrentMutationsPersistLatestState(t *testing.T) {
	s, p, _ := newTestStore(t)
	g := s.AddGroup("Risk")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AppendMessage(g.Id, entity.UserMessage(fmt.Sprintf("m%d", i)))
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.History(g.Id), 20)
	assert.Len(t, p.last().Chats[g.Id], 20)
}
