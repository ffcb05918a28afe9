package modal

import (
	"context"
	"errors"
	"testing"

	"github.com/hgdelgado/timedeck/internal/validate"
)

type project struct {
	ID      string
	Name    string
	Members []member
}

type member struct {
	ID        string
	ProjectID string
	UserID    string
}

type projectDraft struct {
	Name      string
	CreatorID string
}

type memberDraft struct {
	ProjectID string
	UserID    string
}

var allModes = []Mode{ModeCreate, ModeUpdate, ModeDelete, ModeAddRelation, ModeRemoveRelation}

func newTestController() *Controller[project, projectDraft, memberDraft, member] {
	return NewController(Config[project, projectDraft, memberDraft, member]{
		Modes: allModes,
		NewDraft: func(seed *project) projectDraft {
			d := projectDraft{CreatorID: "me"}
			if seed != nil {
				d.Name = seed.Name
			}
			return d
		},
		NewRelationDraft: func(parent *project) memberDraft {
			return memberDraft{ProjectID: parent.ID}
		},
	})
}

func TestControllerStartsHiddenWithFreshDraft(t *testing.T) {
	c := newTestController()

	if c.Visible() {
		t.Error("controller visible before Show")
	}
	if c.Mode() != ModeCreate {
		t.Errorf("initial mode = %q, expected create", c.Mode())
	}
	if c.Draft().CreatorID != "me" {
		t.Errorf("initial draft not seeded: %+v", c.Draft())
	}
}

func TestShowCreateResetsDraftAndSelections(t *testing.T) {
	c := newTestController()
	p := project{ID: "p1", Name: "Website"}

	c.Show(&p, nil, ModeUpdate)
	c.Draft().Name = "dirty"

	c.Show(nil, nil, ModeCreate)

	if !c.Visible() {
		t.Fatal("not visible after Show")
	}
	if c.Draft().Name != "" {
		t.Errorf("draft not reset: %+v", c.Draft())
	}
	if c.Draft().CreatorID != "me" {
		t.Errorf("draft seed lost: %+v", c.Draft())
	}
	if c.Selected() != nil {
		t.Error("stale selected record survived create")
	}
	if c.Relation() != nil {
		t.Error("stale relation survived create")
	}
}

func TestShowUpdateStagesACopy(t *testing.T) {
	c := newTestController()
	p := project{ID: "p1", Name: "Website"}

	c.Show(&p, nil, ModeUpdate)

	staged := c.Selected()
	if staged == nil || staged.ID != "p1" {
		t.Fatalf("selected = %+v, expected p1", staged)
	}

	// Editing the staged copy must not touch the original.
	staged.Name = "Renamed"
	if p.Name != "Website" {
		t.Errorf("original record mutated to %q", p.Name)
	}
}

func TestShowAddRelationSeedsParentID(t *testing.T) {
	c := newTestController()
	p := project{ID: "p1", Name: "Website"}

	c.Show(&p, nil, ModeAddRelation)

	if c.RelationDraft().ProjectID != "p1" {
		t.Errorf("relation draft = %+v, expected ProjectID p1", c.RelationDraft())
	}
	if c.Selected() == nil || c.Selected().ID != "p1" {
		t.Errorf("parent not staged: %+v", c.Selected())
	}
}

func TestShowRemoveRelationStagesJoinRecord(t *testing.T) {
	c := newTestController()
	p := project{ID: "p1"}
	m := member{ID: "m1", ProjectID: "p1", UserID: "u1"}

	c.Show(&p, &m, ModeRemoveRelation)

	if c.Relation() == nil || c.Relation().ID != "m1" {
		t.Fatalf("relation = %+v, expected m1", c.Relation())
	}
	c.Relation().UserID = "changed"
	if m.UserID != "u1" {
		t.Errorf("original join record mutated to %q", m.UserID)
	}
}

func TestHideIsIdempotentAndKeepsStagedData(t *testing.T) {
	c := newTestController()
	p := project{ID: "p1", Name: "Website"}
	c.Show(&p, nil, ModeDelete)

	c.Hide()
	c.Hide()

	if c.Visible() {
		t.Error("still visible after Hide")
	}
	// Staged data survives until the next Show.
	if c.Selected() == nil || c.Selected().ID != "p1" {
		t.Errorf("staged record lost on Hide: %+v", c.Selected())
	}
	if c.Mode() != ModeDelete {
		t.Errorf("mode changed on Hide: %q", c.Mode())
	}
}

func TestNewDispatcherRejectsMissingHandler(t *testing.T) {
	_, err := NewDispatcher(
		[]Mode{ModeCreate, ModeUpdate},
		nil,
		map[Mode]Handler{
			ModeCreate: func(context.Context) error { return nil },
		},
	)
	if err == nil {
		t.Fatal("expected error for missing update handler")
	}
}

func TestNewDispatcherRejectsHandlerOutsideModeSet(t *testing.T) {
	_, err := NewDispatcher(
		[]Mode{ModeCreate},
		nil,
		map[Mode]Handler{
			ModeCreate: func(context.Context) error { return nil },
			ModeDelete: func(context.Context) error { return nil },
		},
	)
	if err == nil {
		t.Fatal("expected error for delete handler outside the mode set")
	}
}

func TestDispatcherRunsExactlyOneHandler(t *testing.T) {
	calls := map[Mode]int{}
	handlers := map[Mode]Handler{}
	for _, m := range allModes {
		m := m
		handlers[m] = func(context.Context) error {
			calls[m]++
			return nil
		}
	}

	d, err := NewDispatcher(allModes, nil, handlers)
	if err != nil {
		t.Fatal(err)
	}

	if err := d.Save(context.Background(), ModeUpdate); err != nil {
		t.Fatal(err)
	}

	for _, m := range allModes {
		expected := 0
		if m == ModeUpdate {
			expected = 1
		}
		if calls[m] != expected {
			t.Errorf("handler %q ran %d times, expected %d", m, calls[m], expected)
		}
	}
}

func TestDispatcherValidationBlocksHandler(t *testing.T) {
	ran := false
	d, err := NewDispatcher(
		[]Mode{ModeCreate},
		func(mode Mode) []validate.FieldError {
			return []validate.FieldError{{Field: "name", Message: "name is required"}}
		},
		map[Mode]Handler{
			ModeCreate: func(context.Context) error {
				ran = true
				return nil
			},
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	saveErr := d.Save(context.Background(), ModeCreate)

	var ve *ValidationError
	if !errors.As(saveErr, &ve) {
		t.Fatalf("Save error = %v, expected *ValidationError", saveErr)
	}
	if len(ve.Fields) != 1 || ve.Fields[0].Field != "name" {
		t.Errorf("fields = %v", ve.Fields)
	}
	if ran {
		t.Error("handler ran despite validation failure")
	}
}

func TestDispatcherPropagatesHandlerError(t *testing.T) {
	boom := errors.New("backend down")
	d, err := NewDispatcher(
		[]Mode{ModeCreate},
		nil,
		map[Mode]Handler{
			ModeCreate: func(context.Context) error { return boom },
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	if got := d.Save(context.Background(), ModeCreate); !errors.Is(got, boom) {
		t.Errorf("Save error = %v, expected %v", got, boom)
	}
}
