// Package modal tracks which create/update/delete/relation dialog is open
// for an entity screen and stages the data that dialog's form operates on.
// One generic Controller replaces the per-entity copies of this pattern.
package modal

import (
	"context"
	"fmt"
	"strings"

	"github.com/hgdelgado/timedeck/internal/validate"
)

type Mode string

const (
	ModeCreate         Mode = "create"
	ModeUpdate         Mode = "update"
	ModeDelete         Mode = "delete"
	ModeUpdateUser     Mode = "update_user"  // user profile fields
	ModeUpdateRoles    Mode = "update_roles" // user role assignment
	ModeAddRelation    Mode = "add_user"
	ModeRemoveRelation Mode = "remove_user"
)

// Config declares an entity's mode set and how to build fresh drafts.
// NewDraft receives the record the dialog was opened from (nil when opened
// from the toolbar) so a create form can be pre-seeded with a foreign key.
// NewRelationDraft builds the join-record draft for ModeAddRelation, seeded
// with the parent's id. Entities without relations leave it nil.
type Config[T, D, RD, R any] struct {
	Modes            []Mode
	NewDraft         func(seed *T) D
	NewRelationDraft func(parent *T) RD
}

type Controller[T, D, RD, R any] struct {
	cfg Config[T, D, RD, R]

	visible       bool
	mode          Mode
	draft         D
	relationDraft RD
	selected      *T
	relation      *R
}

func NewController[T, D, RD, R any](cfg Config[T, D, RD, R]) *Controller[T, D, RD, R] {
	return &Controller[T, D, RD, R]{
		cfg:   cfg,
		mode:  ModeCreate,
		draft: cfg.NewDraft(nil),
	}
}

// Show opens the dialog in the given mode and stages its data:
// create resets the draft (seeding from record when present) and clears
// stale selections; update/delete/add-relation shallow-copy the record so
// form edits never touch the displayed list; remove-relation stages the
// join record directly, keeping the parent for display when given.
func (c *Controller[T, D, RD, R]) Show(record *T, relation *R, mode Mode) {
	c.mode = mode

	switch mode {
	case ModeCreate:
		c.draft = c.cfg.NewDraft(record)
		c.selected = nil
		c.relation = nil

	case ModeAddRelation:
		if record != nil {
			selected := *record
			c.selected = &selected
			if c.cfg.NewRelationDraft != nil {
				c.relationDraft = c.cfg.NewRelationDraft(record)
			}
		}
		c.relation = nil

	case ModeRemoveRelation:
		if relation != nil {
			rel := *relation
			c.relation = &rel
		}
		if record != nil {
			selected := *record
			c.selected = &selected
		}

	default: // update, update_user, update_roles, delete
		if record != nil {
			selected := *record
			c.selected = &selected
		}
	}

	c.visible = true
}

// Hide closes the dialog. Staged data is kept until the next Show resets
// it, and calling Hide repeatedly is harmless.
func (c *Controller[T, D, RD, R]) Hide() {
	c.visible = false
}

func (c *Controller[T, D, RD, R]) Visible() bool { return c.visible }
func (c *Controller[T, D, RD, R]) Mode() Mode    { return c.mode }

// Draft returns the staged create draft for form binding.
func (c *Controller[T, D, RD, R]) Draft() *D { return &c.draft }

// RelationDraft returns the staged join-record draft for form binding.
func (c *Controller[T, D, RD, R]) RelationDraft() *RD { return &c.relationDraft }

// Selected returns the staged copy of the record being updated/deleted.
func (c *Controller[T, D, RD, R]) Selected() *T { return c.selected }

// Relation returns the staged join record for remove-relation mode.
func (c *Controller[T, D, RD, R]) Relation() *R { return c.relation }

// ValidationError carries the field errors that blocked a save. The dialog
// stays open and shows them inline; nothing reaches the backend.
type ValidationError struct {
	Fields []validate.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Handler performs the one mutation matching a mode.
type Handler func(ctx context.Context) error

// Dispatcher maps the controller's current mode to the matching mutation.
// The mode set is checked for missing handlers at construction, so an
// unhandled mode is a wiring bug caught immediately, not a silent
// fallthrough at save time.
type Dispatcher struct {
	validate func(Mode) []validate.FieldError
	handlers map[Mode]Handler
}

func NewDispatcher(modes []Mode, validateFn func(Mode) []validate.FieldError, handlers map[Mode]Handler) (*Dispatcher, error) {
	for _, m := range modes {
		if _, ok := handlers[m]; !ok {
			return nil, fmt.Errorf("modal: no handler for mode %q", m)
		}
	}
	for m := range handlers {
		found := false
		for _, allowed := range modes {
			if m == allowed {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("modal: handler for mode %q outside the mode set", m)
		}
	}
	return &Dispatcher{validate: validateFn, handlers: handlers}, nil
}

// MustDispatcher is NewDispatcher for construction-time wiring, where a
// missing handler is a bug and not a runtime condition.
func MustDispatcher(modes []Mode, validateFn func(Mode) []validate.FieldError, handlers map[Mode]Handler) *Dispatcher {
	d, err := NewDispatcher(modes, validateFn, handlers)
	if err != nil {
		panic(err)
	}
	return d
}

// Save validates the active form, then runs exactly one mutation. A
// *ValidationError means the form blocked the save; any other error is the
// mutation failing. The caller closes the dialog only on a nil return.
func (d *Dispatcher) Save(ctx context.Context, mode Mode) error {
	if d.validate != nil {
		if fields := d.validate(mode); len(fields) > 0 {
			return &ValidationError{Fields: fields}
		}
	}

	handler, ok := d.handlers[mode]
	if !ok {
		return fmt.Errorf("modal: no handler for mode %q", mode)
	}
	return handler(ctx)
}
