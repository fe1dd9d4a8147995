package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"ai-docchat-client/internal/constant"
	"ai-docchat-client/internal/entity"
	"ai-docchat-client/internal/interaction"
	"ai-docchat-client/internal/pkg/logger"
	"ai-docchat-client/internal/remote"
	"ai-docchat-client/internal/store"

	"github.com/google/uuid"
)

const module = "workspace"

// Backend is the authoritative document-session API. *remote.Client
// implements it.
type Backend interface {
	ListSessions(ctx context.Context) ([]entity.Group, error)
	CreateSession(ctx context.Context, name string) (entity.Group, error)
	RenameSession(ctx context.Context, id, name string) error
	DeleteSession(ctx context.Context, id string) error

	ListFiles(ctx context.Context, sessionId string) ([]entity.File, error)
	UploadFile(ctx context.Context, sessionId, filename string, blob io.Reader) (entity.File, error)
	RenameFile(ctx context.Context, sessionId, fileId, name string) error
	DeleteFile(ctx context.Context, sessionId, fileId string) error

	ListLinks(ctx context.Context, sessionId string) ([]entity.Link, error)
	AddLink(ctx context.Context, sessionId, rawURL, name string) (entity.Link, error)
	RenameLink(ctx context.Context, sessionId, linkId, name string) error
	DeleteLink(ctx context.Context, sessionId, linkId string) error

	FetchChatHistory(ctx context.Context, sessionId string) ([]entity.ChatMessage, error)
	Ask(ctx context.Context, sessionId, question string, fileIds, linkIds []string) (remote.Answer, error)
}

// Mirror is the local snapshot cache.
type Mirror interface {
	Load(ctx context.Context) (entity.Snapshot, bool)
	Save(ctx context.Context, snap entity.Snapshot) error
}

type IWorkspaceService interface {
	LoadSessions(ctx context.Context) error
	SelectGroup(ctx context.Context, id string) error

	CreateGroup(ctx context.Context, name string) (entity.Group, error)
	RenameGroup(ctx context.Context, id, name string) error
	DeleteGroup(ctx context.Context, id string) error

	UploadFile(ctx context.Context, filename string, blob io.Reader) (entity.File, error)
	AddLink(ctx context.Context, name, rawURL string) (entity.Link, error)
	RenameItem(ctx context.Context, groupId string, kind entity.ItemKind, itemId, name string) error
	DeleteItem(ctx context.Context, groupId string, kind entity.ItemKind, itemId string) error

	ToggleFile(id string) (bool, error)
	ToggleLink(id string) (bool, error)

	SendMessage(ctx context.Context, text string) (SendResult, error)
	Dispatch(ctx context.Context, action interaction.PendingAction) error

	Groups() []entity.Group
	ActiveGroup() (entity.Group, bool)
	History(groupId string) []entity.ChatMessage
	Selection() (fileIds, linkIds []string)
	Offline() bool
}

// SendResult describes what happened to a question. Discarded is set when the
// user switched groups before the answer arrived; nothing was appended then.
type SendResult struct {
	GroupId   string
	Answer    string
	Sources   []string
	Discarded bool
}

type workspaceService struct {
	store   *store.Store
	backend Backend
	mirror  Mirror
	log     logger.ILogger

	mu       sync.Mutex
	active   string
	epoch    uint64
	selFiles map[string]bool
	selLinks map[string]bool

	// questions still waiting for a reply, per group, in send order
	pending map[string][]pendingQuestion
	seq     uint64
}

type pendingQuestion struct {
	seq uint64
	msg entity.ChatMessage
}

// NewWorkspaceService wires the store to a backend. A nil backend runs the
// workspace offline against the store and mirror only.
func NewWorkspaceService(st *store.Store, backend Backend, mirror Mirror, log logger.ILogger) IWorkspaceService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &workspaceService{
		store:    st,
		backend:  backend,
		mirror:   mirror,
		log:      log,
		selFiles: map[string]bool{},
		selLinks: map[string]bool{},
		pending:  map[string][]pendingQuestion{},
	}
}

func (s *workspaceService) Offline() bool {
	return s.backend == nil
}

// LoadSessions fills the store and selects the first group. Online, the
// backend's list wins and an empty backend is seeded with the default groups;
// the mirror only bridges the time until the list arrives.
func (s *workspaceService) LoadSessions(ctx context.Context) error {
	if s.mirror != nil {
		snap, fresh := s.mirror.Load(ctx)
		if fresh || s.Offline() {
			s.store.Restore(snap)
		}
		if !fresh && s.Offline() {
			if err := s.mirror.Save(ctx, s.store.Snapshot()); err != nil {
				s.log.Warn(module, "Failed to write seed snapshot", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	if !s.Offline() {
		groups, err := s.backend.ListSessions(ctx)
		if err != nil {
			return fmt.Errorf("load sessions: %w", err)
		}
		if len(groups) == 0 {
			s.log.Info(module, "Backend has no sessions, creating defaults", nil)
			for _, name := range constant.DefaultGroupNames {
				g, err := s.backend.CreateSession(ctx, name)
				if err != nil {
					return fmt.Errorf("create default session %q: %w", name, err)
				}
				groups = append(groups, g)
			}
		}
		s.store.ReplaceGroups(s.keepKnownItems(groups))
	}

	groups := s.store.ListGroups()
	if len(groups) == 0 {
		s.clearActive()
		return nil
	}
	return s.SelectGroup(ctx, groups[0].Id)
}

// keepKnownItems carries files and links already in the store over to the
// fresh list; they are refetched when the group is selected.
func (s *workspaceService) keepKnownItems(groups []entity.Group) []entity.Group {
	out := make([]entity.Group, 0, len(groups))
	for _, g := range groups {
		if old, ok := s.store.GetGroup(g.Id); ok {
			g.Files, g.Links = old.Files, old.Links
		}
		out = append(out, g)
	}
	return out
}

// SelectGroup makes id the active group and, online, refreshes its files,
// links and history. Questions of id still waiting for a reply are kept at
// the end of the refreshed history.
func (s *workspaceService) SelectGroup(ctx context.Context, id string) error {
	if _, ok := s.store.GetGroup(id); !ok {
		return ErrGroupNotFound
	}

	s.mu.Lock()
	s.active = id
	s.epoch++
	epoch := s.epoch
	s.selFiles = map[string]bool{}
	s.selLinks = map[string]bool{}
	s.mu.Unlock()

	if s.Offline() {
		return nil
	}

	var errs []error
	if files, err := s.backend.ListFiles(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("list files: %w", err))
	} else if s.current(epoch) {
		s.store.SetFiles(id, files)
	}
	if links, err := s.backend.ListLinks(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("list links: %w", err))
	} else if s.current(epoch) {
		s.store.SetLinks(id, links)
	}
	if history, err := s.backend.FetchChatHistory(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("fetch chat history: %w", err))
	} else if s.current(epoch) {
		s.store.SetHistory(id, append(history, s.pendingFor(id)...))
	}

	if err := errors.Join(errs...); err != nil {
		s.log.Warn(module, "Failed to refresh group", map[string]interface{}{"group": id, "error": err.Error()})
		return err
	}
	return nil
}

func (s *workspaceService) CreateGroup(ctx context.Context, name string) (entity.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return entity.Group{}, invalid(ErrEmptyName)
	}

	var g entity.Group
	if s.Offline() {
		g = s.store.AddGroup(name)
	} else {
		created, err := s.backend.CreateSession(ctx, name)
		if err != nil {
			return entity.Group{}, fmt.Errorf("create group: %w", err)
		}
		s.store.UpsertGroup(created)
		g = created
	}
	s.log.Info(module, "Group created", map[string]interface{}{"id": g.Id, "name": g.Name})

	if _, ok := s.ActiveGroup(); !ok {
		if err := s.SelectGroup(ctx, g.Id); err != nil {
			return g, err
		}
	}
	return g, nil
}

func (s *workspaceService) RenameGroup(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid(ErrEmptyName)
	}
	if _, ok := s.store.GetGroup(id); !ok {
		return ErrGroupNotFound
	}
	if !s.Offline() {
		if err := s.backend.RenameSession(ctx, id, name); err != nil {
			return fmt.Errorf("rename group: %w", err)
		}
	}
	s.store.RenameGroup(id, name)
	return nil
}

// DeleteGroup removes the group once the backend agrees. If it was active,
// the first remaining group becomes active.
func (s *workspaceService) DeleteGroup(ctx context.Context, id string) error {
	if _, ok := s.store.GetGroup(id); !ok {
		return ErrGroupNotFound
	}
	if !s.Offline() {
		if err := s.backend.DeleteSession(ctx, id); err != nil {
			return fmt.Errorf("delete group: %w", err)
		}
	}
	s.store.DeleteGroup(id)
	s.log.Info(module, "Group deleted", map[string]interface{}{"id": id})

	s.mu.Lock()
	wasActive := s.active == id
	s.mu.Unlock()
	if !wasActive {
		return nil
	}

	s.clearActive()
	if groups := s.store.ListGroups(); len(groups) > 0 {
		return s.SelectGroup(ctx, groups[0].Id)
	}
	return nil
}

// UploadFile attaches a file to the active group. Disallowed extensions are
// rejected before anything is sent.
func (s *workspaceService) UploadFile(ctx context.Context, filename string, blob io.Reader) (entity.File, error) {
	groupId, ok := s.activeId()
	if !ok {
		return entity.File{}, invalid(ErrNoActiveGroup)
	}
	ext, err := remote.FileType(filename)
	if err != nil {
		return entity.File{}, invalid(err)
	}

	var f entity.File
	if s.Offline() {
		f = entity.File{Id: uuid.NewString(), Name: filepath.Base(filename), Type: ext, Path: filename}
	} else {
		f, err = s.backend.UploadFile(ctx, groupId, filename, blob)
		if err != nil {
			return entity.File{}, fmt.Errorf("upload file: %w", err)
		}
	}
	s.store.AddFile(groupId, f)
	return f, nil
}

// AddLink attaches a link to the active group. The name defaults to the URL.
func (s *workspaceService) AddLink(ctx context.Context, name, rawURL string) (entity.Link, error) {
	groupId, ok := s.activeId()
	if !ok {
		return entity.Link{}, invalid(ErrNoActiveGroup)
	}
	return s.addLink(ctx, groupId, name, rawURL)
}

func (s *workspaceService) addLink(ctx context.Context, groupId, name, rawURL string) (entity.Link, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return entity.Link{}, invalid(ErrEmptyURL)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = rawURL
	}
	if _, ok := s.store.GetGroup(groupId); !ok {
		return entity.Link{}, ErrGroupNotFound
	}

	l := entity.Link{Id: uuid.NewString(), Name: name, Url: rawURL}
	if !s.Offline() {
		var err error
		l, err = s.backend.AddLink(ctx, groupId, rawURL, name)
		if err != nil {
			return entity.Link{}, fmt.Errorf("add link: %w", err)
		}
	}
	s.store.AddLink(groupId, l)
	return l, nil
}

func (s *workspaceService) RenameItem(ctx context.Context, groupId string, kind entity.ItemKind, itemId, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid(ErrEmptyName)
	}
	if !s.Offline() {
		var err error
		switch kind {
		case entity.KindFile:
			err = s.backend.RenameFile(ctx, groupId, itemId, name)
		case entity.KindLink:
			err = s.backend.RenameLink(ctx, groupId, itemId, name)
		default:
			return fmt.Errorf("rename item: unsupported kind %q", kind)
		}
		if err != nil {
			return fmt.Errorf("rename %s: %w", kind, err)
		}
	}
	s.store.RenameItem(groupId, itemId, kind, name)
	return nil
}

func (s *workspaceService) DeleteItem(ctx context.Context, groupId string, kind entity.ItemKind, itemId string) error {
	if !s.Offline() {
		var err error
		switch kind {
		case entity.KindFile:
			err = s.backend.DeleteFile(ctx, groupId, itemId)
		case entity.KindLink:
			err = s.backend.DeleteLink(ctx, groupId, itemId)
		default:
			return fmt.Errorf("delete item: unsupported kind %q", kind)
		}
		if err != nil {
			return fmt.Errorf("delete %s: %w", kind, err)
		}
	}
	s.store.DeleteItem(groupId, itemId, kind)

	s.mu.Lock()
	if s.active == groupId {
		delete(s.selFiles, itemId)
		delete(s.selLinks, itemId)
	}
	s.mu.Unlock()
	return nil
}

// ToggleFile flips the checkbox of a file in the active group and reports
// whether it is now selected.
func (s *workspaceService) ToggleFile(id string) (bool, error) {
	return s.toggle(entity.KindFile, id)
}

func (s *workspaceService) ToggleLink(id string) (bool, error) {
	return s.toggle(entity.KindLink, id)
}

func (s *workspaceService) toggle(kind entity.ItemKind, id string) (bool, error) {
	g, ok := s.ActiveGroup()
	if !ok {
		return false, invalid(ErrNoActiveGroup)
	}
	exists := g.FileIndex(id) >= 0
	if kind == entity.KindLink {
		exists = g.LinkIndex(id) >= 0
	}
	if !exists {
		return false, ErrItemNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != g.Id {
		return false, ErrItemNotFound
	}
	sel := s.selFiles
	if kind == entity.KindLink {
		sel = s.selLinks
	}
	if sel[id] {
		delete(sel, id)
		return false, nil
	}
	sel[id] = true
	return true, nil
}

// SendMessage asks the backend about the selected files and links of the
// active group. The user message is appended straight away; the answer, or
// an error message, only if the originating group is the active one when the
// reply arrives.
func (s *workspaceService) SendMessage(ctx context.Context, text string) (SendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return SendResult{}, invalid(ErrEmptyMessage)
	}

	s.mu.Lock()
	groupId := s.active
	fileIds, linkIds := sortedKeys(s.selFiles), sortedKeys(s.selLinks)
	s.mu.Unlock()

	if groupId == "" {
		return SendResult{}, invalid(ErrNoActiveGroup)
	}
	if len(fileIds) == 0 && len(linkIds) == 0 {
		return SendResult{}, invalid(ErrNoSelection)
	}

	result := SendResult{GroupId: groupId}
	question := entity.UserMessage(text)
	s.store.AppendMessage(groupId, question)

	if s.Offline() {
		s.store.AppendMessage(groupId, entity.BotMessage(constant.ChatErrorSubmitQuestion+": "+ErrOffline.Error()))
		return result, ErrOffline
	}

	seq := s.track(groupId, question)
	defer s.untrack(groupId, seq)

	answer, err := s.backend.Ask(ctx, groupId, text, fileIds, linkIds)
	if !s.isActive(groupId) {
		s.log.Info(module, "Discarding reply for a group that is no longer selected", map[string]interface{}{"group": groupId})
		result.Discarded = true
		return result, err
	}
	if err != nil {
		s.log.Warn(module, "Question failed", map[string]interface{}{"group": groupId, "error": err.Error()})
		s.store.AppendMessage(groupId, entity.BotMessage(constant.ChatErrorSubmitQuestion+": "+remote.UserMessage(err)))
		return result, fmt.Errorf("send message: %w", err)
	}

	result.Answer, result.Sources = answer.Text, answer.Sources
	s.store.AppendMessage(groupId, entity.ChatMessage{Text: answer.Text, Sources: answer.Sources})
	if len(answer.Sources) > 0 {
		s.store.AppendMessage(groupId, entity.BotMessage(constant.ChatSourcePrefix+strings.Join(answer.Sources, ", ")))
	}
	return result, nil
}

// Dispatch runs the action a submitted modal produced.
func (s *workspaceService) Dispatch(ctx context.Context, action interaction.PendingAction) error {
	t := action.Target
	switch action.Op {
	case interaction.OpCreateGroup:
		_, err := s.CreateGroup(ctx, action.Name)
		return err
	case interaction.OpAddLink:
		_, err := s.addLink(ctx, t.GroupId, action.Name, action.Url)
		return err
	case interaction.OpRename:
		if t.Kind == entity.KindGroup {
			return s.RenameGroup(ctx, t.GroupId, action.Name)
		}
		return s.RenameItem(ctx, t.GroupId, t.Kind, t.ItemId, action.Name)
	case interaction.OpDelete:
		if t.Kind == entity.KindGroup {
			return s.DeleteGroup(ctx, t.GroupId)
		}
		return s.DeleteItem(ctx, t.GroupId, t.Kind, t.ItemId)
	default:
		return fmt.Errorf("unknown action %q", action.Op)
	}
}

func (s *workspaceService) Groups() []entity.Group {
	return s.store.ListGroups()
}

func (s *workspaceService) ActiveGroup() (entity.Group, bool) {
	id, ok := s.activeId()
	if !ok {
		return entity.Group{}, false
	}
	return s.store.GetGroup(id)
}

func (s *workspaceService) History(groupId string) []entity.ChatMessage {
	return s.store.History(groupId)
}

func (s *workspaceService) Selection() ([]string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.selFiles), sortedKeys(s.selLinks)
}

func (s *workspaceService) activeId() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != ""
}

func (s *workspaceService) clearActive() {
	s.mu.Lock()
	s.active = ""
	s.epoch++
	s.selFiles = map[string]bool{}
	s.selLinks = map[string]bool{}
	s.mu.Unlock()
}

func (s *workspaceService) isActive(groupId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active == groupId
}

func (s *workspaceService) track(groupId string, msg entity.ChatMessage) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.pending[groupId] = append(s.pending[groupId], pendingQuestion{seq: s.seq, msg: msg})
	return s.seq
}

func (s *workspaceService) untrack(groupId string, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	qs := s.pending[groupId]
	for i, q := range qs {
		if q.seq == seq {
			qs = append(qs[:i:i], qs[i+1:]...)
			break
		}
	}
	if len(qs) == 0 {
		delete(s.pending, groupId)
		return
	}
	s.pending[groupId] = qs
}

func (s *workspaceService) pendingFor(groupId string) []entity.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.ChatMessage, 0, len(s.pending[groupId]))
	for _, q := range s.pending[groupId] {
		out = append(out, q.msg)
	}
	return out
}

// current reports whether the selection is unchanged since epoch was taken.
func (s *workspaceService) current(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch == epoch
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
