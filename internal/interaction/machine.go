// Package interaction tracks which menu or modal is active and what it targets.
// It performs no I/O: terminal transitions hand back a PendingAction for the
// caller to execute.
package interaction

import (
	"errors"
	"strings"
	"sync"

	"ai-docchat-client/internal/entity"
)

var (
	ErrInvalidTransition = errors.New("action not available in the current state")
	ErrEmptyName         = errors.New("name cannot be empty")
	ErrEmptyURL          = errors.New("url cannot be empty")
)

type Mode int

const (
	Idle Mode = iota
	GroupMenuOpen
	ItemMenuOpen
	ModalOpen
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case GroupMenuOpen:
		return "group-menu"
	case ItemMenuOpen:
		return "item-menu"
	case ModalOpen:
		return "modal"
	default:
		return "unknown"
	}
}

type ModalKind string

const (
	ModalNone          ModalKind = ""
	ModalRenameGroup   ModalKind = "rename-group"
	ModalRenameItem    ModalKind = "rename-item"
	ModalConfirmDelete ModalKind = "confirm-delete"
	ModalCreateGroup   ModalKind = "create-group"
	ModalAddLink       ModalKind = "add-link"
)

// Target identifies what a menu or modal acts on. ItemId is empty for groups.
type Target struct {
	Kind    entity.ItemKind
	GroupId string
	ItemId  string
}

type State struct {
	Mode   Mode
	Modal  ModalKind
	Target *Target
}

func (s State) clone() State {
	if s.Target != nil {
		t := *s.Target
		s.Target = &t
	}
	return s
}

type Op string

const (
	OpCreateGroup Op = "create-group"
	OpRename      Op = "rename"
	OpDelete      Op = "delete"
	OpAddLink     Op = "add-link"
)

// PendingAction is the outcome of a submitted modal.
type PendingAction struct {
	Op     Op
	Target Target
	Name   string
	Url    string
}

type Listener func(from, to State)

type Machine struct {
	mu        sync.Mutex
	state     State
	listeners []Listener
}

func NewMachine() *Machine {
	return &Machine{}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Subscribe registers fn for every state change. Listeners run synchronously
// after the machine's lock is released.
func (m *Machine) Subscribe(fn Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// OpenGroupMenu opens the context menu of a group, closing any other menu.
func (m *Machine) OpenGroupMenu(groupId string) error {
	return m.update(func(s State) (State, error) {
		if s.Mode == ModalOpen {
			return s, ErrInvalidTransition
		}
		return State{Mode: GroupMenuOpen, Target: &Target{Kind: entity.KindGroup, GroupId: groupId}}, nil
	})
}

// OpenItemMenu opens the context menu of a file or link.
func (m *Machine) OpenItemMenu(kind entity.ItemKind, groupId, itemId string) error {
	return m.update(func(s State) (State, error) {
		if s.Mode == ModalOpen || (kind != entity.KindFile && kind != entity.KindLink) {
			return s, ErrInvalidTransition
		}
		return State{Mode: ItemMenuOpen, Target: &Target{Kind: kind, GroupId: groupId, ItemId: itemId}}, nil
	})
}

// ClickOutside dismisses an open menu. It is a no-op when idle.
func (m *Machine) ClickOutside() error {
	return m.update(func(s State) (State, error) {
		switch s.Mode {
		case GroupMenuOpen, ItemMenuOpen, Idle:
			return State{}, nil
		default:
			return s, ErrInvalidTransition
		}
	})
}

func (m *Machine) ChooseRename() error {
	return m.update(func(s State) (State, error) {
		switch s.Mode {
		case GroupMenuOpen:
			return State{Mode: ModalOpen, Modal: ModalRenameGroup, Target: s.Target}, nil
		case ItemMenuOpen:
			return State{Mode: ModalOpen, Modal: ModalRenameItem, Target: s.Target}, nil
		default:
			return s, ErrInvalidTransition
		}
	})
}

func (m *Machine) ChooseDelete() error {
	return m.update(func(s State) (State, error) {
		if s.Mode != GroupMenuOpen && s.Mode != ItemMenuOpen {
			return s, ErrInvalidTransition
		}
		return State{Mode: ModalOpen, Modal: ModalConfirmDelete, Target: s.Target}, nil
	})
}

// Confirm accepts a delete confirmation.
func (m *Machine) Confirm() (PendingAction, error) {
	var action PendingAction
	err := m.update(func(s State) (State, error) {
		if s.Mode != ModalOpen || s.Modal != ModalConfirmDelete {
			return s, ErrInvalidTransition
		}
		action = PendingAction{Op: OpDelete, Target: *s.Target}
		return State{}, nil
	})
	return action, err
}

// Cancel closes whichever modal is open.
func (m *Machine) Cancel() error {
	return m.update(func(s State) (State, error) {
		if s.Mode != ModalOpen {
			return s, ErrInvalidTransition
		}
		return State{}, nil
	})
}

// SubmitRename completes a rename modal. An empty name keeps the modal open.
func (m *Machine) SubmitRename(name string) (PendingAction, error) {
	var action PendingAction
	err := m.update(func(s State) (State, error) {
		if s.Mode != ModalOpen || (s.Modal != ModalRenameGroup && s.Modal != ModalRenameItem) {
			return s, ErrInvalidTransition
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return s, ErrEmptyName
		}
		action = PendingAction{Op: OpRename, Target: *s.Target, Name: name}
		return State{}, nil
	})
	return action, err
}

// OpenCreateGroup opens the new-group modal, dismissing any open menu.
func (m *Machine) OpenCreateGroup() error {
	return m.update(func(s State) (State, error) {
		if s.Mode == ModalOpen {
			return s, ErrInvalidTransition
		}
		return State{Mode: ModalOpen, Modal: ModalCreateGroup}, nil
	})
}

func (m *Machine) OpenAddLink(groupId string) error {
	return m.update(func(s State) (State, error) {
		if s.Mode == ModalOpen {
			return s, ErrInvalidTransition
		}
		return State{Mode: ModalOpen, Modal: ModalAddLink, Target: &Target{Kind: entity.KindGroup, GroupId: groupId}}, nil
	})
}

func (m *Machine) SubmitCreateGroup(name string) (PendingAction, error) {
	var action PendingAction
	err := m.update(func(s State) (State, error) {
		if s.Mode != ModalOpen || s.Modal != ModalCreateGroup {
			return s, ErrInvalidTransition
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return s, ErrEmptyName
		}
		action = PendingAction{Op: OpCreateGroup, Name: name}
		return State{}, nil
	})
	return action, err
}

// SubmitAddLink completes the add-link modal. The name may be empty.
func (m *Machine) SubmitAddLink(name, url string) (PendingAction, error) {
	var action PendingAction
	err := m.update(func(s State) (State, error) {
		if s.Mode != ModalOpen || s.Modal != ModalAddLink {
			return s, ErrInvalidTransition
		}
		url = strings.TrimSpace(url)
		if url == "" {
			return s, ErrEmptyURL
		}
		action = PendingAction{Op: OpAddLink, Target: *s.Target, Name: strings.TrimSpace(name), Url: url}
		return State{}, nil
	})
	return action, err
}

// update applies fn under the lock. On error the state is left untouched and
// nobody is notified.
func (m *Machine) update(fn func(State) (State, error)) error {
	m.mu.Lock()
	from := m.state.clone()
	to, err := fn(m.state.clone())
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.state = to
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	if from.Mode == to.Mode && from.Modal == to.Modal && sameTarget(from.Target, to.Target) {
		return nil
	}
	for _, fn := range listeners {
		fn(from, to.clone())
	}
	return nil
}

func sameTarget(a, b *Target) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
