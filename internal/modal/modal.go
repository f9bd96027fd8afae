// Package modal drives the add, edit and delete dialogs: what they hold while
// open and what happens when they are submitted.
package modal

import (
	"context"
	"errors"
	"sync"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/logging"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/notify"
	"github.com/Joseda-hg/lazytodo/internal/validation"
)

var (
	ErrNotOpen  = errors.New("modal is not open")
	ErrBusy     = errors.New("modal is already submitting")
	ErrNoTarget = errors.New("no todo selected")
)

type Kind int

const (
	KindAdd Kind = iota
	KindEdit
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindEdit:
		return "edit"
	case KindDelete:
		return "delete"
	default:
		return "add"
	}
}

func (k Kind) Title() string {
	switch k {
	case KindEdit:
		return "Edit this todo"
	case KindDelete:
		return "Are you sure you want to remove this todo from your todo list?"
	default:
		return "Add a new todo"
	}
}

const DeleteWarning = "Deleting this todo will remove it permanently from your todo list. " +
	"Any associated data, and other related information will also be deleted. " +
	"Please make sure this is intended action."

func (k Kind) successMessage() string {
	switch k {
	case KindEdit:
		return "Your Todo is updated successfully"
	case KindDelete:
		return "Your Todo is deleted successfully"
	default:
		return "Your Todo is added successfully"
	}
}

type Gateway interface {
	CreateTodo(ctx context.Context, draft model.Draft) (model.Todo, error)
	UpdateTodo(ctx context.Context, id int64, draft model.Draft) (model.Todo, error)
	DeleteTodo(ctx context.Context, id int64) error
}

// Invalidator refetches the list after a successful mutation.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Controller struct {
	mu          sync.Mutex
	kind        Kind
	gateway     Gateway
	invalidator Invalidator
	notifier    notify.Notifier
	logger      *logging.Logger

	open   bool
	busy   bool
	draft  model.Draft
	target *model.Todo
	// opened counts Open calls so a late submit result does not close a
	// dialog that was reopened in the meantime.
	opened int
}

func NewController(kind Kind, gateway Gateway, invalidator Invalidator, notifier notify.Notifier, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Controller{
		kind:        kind,
		gateway:     gateway,
		invalidator: invalidator,
		notifier:    notifier,
		logger:      logger,
	}
}

func (c *Controller) Kind() Kind {
	return c.kind
}

// Open starts the dialog. Add ignores todo; edit and delete need it.
func (c *Controller) Open(todo *model.Todo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.draft = model.Draft{}
	c.target = nil
	if c.kind != KindAdd {
		if todo == nil {
			c.open = false
			return ErrNoTarget
		}
		target := *todo
		c.target = &target
		if c.kind == KindEdit {
			c.draft = model.DraftFromTodo(target)
		}
	}
	c.open = true
	c.opened++
	return nil
}

func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Controller) closeLocked() {
	c.open = false
	c.draft = model.Draft{}
	c.target = nil
}

func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Busy is true while a submit is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Controller) Draft() model.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Controller) Target() (model.Todo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target == nil {
		return model.Todo{}, false
	}
	return *c.target, true
}

func (c *Controller) SetTitle(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		c.draft.Title = title
	}
}

func (c *Controller) SetDescription(description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		c.draft.Description = description
	}
}

func (c *Controller) SetDraft(draft model.Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		c.draft = draft
	}
}

// Submit validates the draft and sends it. On success the dialog closes and
// the list is refetched. A failed add or edit keeps the dialog open with the
// draft as typed; a failed delete closes it.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return ErrNotOpen
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	draft := c.draft
	var target model.Todo
	if c.target != nil {
		target = *c.target
	}
	opened := c.opened
	c.busy = true
	c.mu.Unlock()

	if c.kind != KindDelete {
		if err := validation.Draft(draft); err != nil {
			c.mu.Lock()
			c.busy = false
			c.mu.Unlock()
			c.notifyError(validation.Message(err))
			return err
		}
	}

	err := c.send(ctx, draft, target)

	c.mu.Lock()
	c.busy = false
	current := c.open && c.opened == opened
	if current && (err == nil || c.kind == KindDelete) {
		c.closeLocked()
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warnf("%s todo %d: %v", c.kind, target.ID, err)
		c.notifyError(api.Message(err))
		return err
	}

	c.logger.Infof("%s todo %d done", c.kind, target.ID)
	if c.invalidator != nil {
		if err := c.invalidator.Invalidate(ctx); err != nil {
			c.logger.Debugf("refetch after %s: %v", c.kind, err)
		}
	}
	if c.notifier != nil {
		c.notifier.Success(c.kind.successMessage())
	}
	return nil
}

func (c *Controller) send(ctx context.Context, draft model.Draft, target model.Todo) error {
	switch c.kind {
	case KindEdit:
		_, err := c.gateway.UpdateTodo(ctx, target.ID, draft)
		return err
	case KindDelete:
		return c.gateway.DeleteTodo(ctx, target.ID)
	default:
		_, err := c.gateway.CreateTodo(ctx, draft)
		return err
	}
}

func (c *Controller) notifyError(message string) {
	if c.notifier != nil {
		c.notifier.Error(message)
	}
}

// Set holds the three dialogs of the list screen.
type Set struct {
	Add    *Controller
	Edit   *Controller
	Delete *Controller
}

func NewSet(gateway Gateway, invalidator Invalidator, notifier notify.Notifier, logger *logging.Logger) *Set {
	return &Set{
		Add:    NewController(KindAdd, gateway, invalidator, notifier, logger),
		Edit:   NewController(KindEdit, gateway, invalidator, notifier, logger),
		Delete: NewController(KindDelete, gateway, invalidator, notifier, logger),
	}
}

// Active returns the open dialog, or nil.
func (s *Set) Active() *Controller {
	for _, c := range []*Controller{s.Add, s.Edit, s.Delete} {
		if c.IsOpen() {
			return c
		}
	}
	return nil
}

func (s *Set) Get(kind Kind) *Controller {
	switch kind {
	case KindEdit:
		return s.Edit
	case KindDelete:
		return s.Delete
	default:
		return s.Add
	}
}

func (s *Set) CloseAll() {
	s.Add.Close()
	s.Edit.Close()
	s.Delete.Close()
}
