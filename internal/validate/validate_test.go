package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/hgdelgado/timedeck/internal/models"
)

func TestLengthBetween(t *testing.T) {
	tests := []struct {
		name  string
		value string
		min   int
		max   int
		valid bool
	}{
		{"empty", "", 3, 30, false},
		{"too short", "ab", 3, 30, false},
		{"lower bound", "abc", 3, 30, true},
		{"upper bound", strings.Repeat("x", 30), 3, 30, true},
		{"too long", strings.Repeat("x", 31), 3, 30, false},
	}

	for _, test := range tests {
		err := LengthBetween("name", test.value, test.min, test.max)
		if (err == nil) != test.valid {
			t.Errorf("%s: LengthBetween(%q) err = %v, valid expected %v", test.name, test.value, err, test.valid)
		}
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"", false},
		{"plain", false},
		{"a@b", false},
		{"a b@c.d", false},
		{"a@b.c", true},
		{"user.name+tag@sub.example.com", true},
	}

	for _, test := range tests {
		err := Email("email", test.value)
		if (err == nil) != test.valid {
			t.Errorf("Email(%q) err = %v, valid expected %v", test.value, err, test.valid)
		}
	}
}

func TestHexColor(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"", false},
		{"4287f5", false},
		{"#4287f5", true},
		{"#ABCDEF", true},
		{"#abcd", false},
		{"#gggggg", false},
		{"#1234567", false},
	}

	for _, test := range tests {
		err := HexColor("color", test.value)
		if (err == nil) != test.valid {
			t.Errorf("HexColor(%q) err = %v, valid expected %v", test.value, err, test.valid)
		}
	}
}

func TestTimeRange(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		valid bool
	}{
		{"start unset", time.Time{}, base, false},
		{"end unset", base, time.Time{}, false},
		{"equal", base, base, false},
		{"end before start", base, base.Add(-time.Minute), false},
		{"end after start", base, base.Add(time.Minute), true},
	}

	for _, test := range tests {
		err := TimeRange("start", "end", test.start, test.end)
		if (err == nil) != test.valid {
			t.Errorf("%s: TimeRange err = %v, valid expected %v", test.name, err, test.valid)
		}
	}
}

func TestCollect(t *testing.T) {
	errs := Collect(
		nil,
		&FieldError{Field: "a", Message: "a is required"},
		nil,
		&FieldError{Field: "b", Message: "b is required"},
	)
	if len(errs) != 2 {
		t.Fatalf("Collect returned %d errors, expected 2", len(errs))
	}
	if errs[0].Field != "a" || errs[1].Field != "b" {
		t.Errorf("Collect order = %v, expected a then b", errs)
	}
}

func TestProjectDraftRules(t *testing.T) {
	valid := models.ProjectDraft{
		Name:        "Website",
		Description: strings.Repeat("d", 20),
		ColorHex:    "#4287f5",
		CreatorID:   "u1",
		ClientID:    "u2",
	}
	if errs := ProjectDraft(valid); len(errs) != 0 {
		t.Fatalf("valid draft produced errors: %v", errs)
	}

	tests := []struct {
		name   string
		mutate func(*models.ProjectDraft)
		field  string
	}{
		{"short name", func(d *models.ProjectDraft) { d.Name = "ab" }, "name"},
		{"short description", func(d *models.ProjectDraft) { d.Description = "too short" }, "description"},
		{"long description", func(d *models.ProjectDraft) { d.Description = strings.Repeat("d", 1001) }, "description"},
		{"bad color", func(d *models.ProjectDraft) { d.ColorHex = "blue" }, "color"},
		{"no creator", func(d *models.ProjectDraft) { d.CreatorID = "" }, "creator"},
		{"no client", func(d *models.ProjectDraft) { d.ClientID = "" }, "client"},
	}

	for _, test := range tests {
		draft := valid
		test.mutate(&draft)
		errs := ProjectDraft(draft)
		if len(errs) != 1 {
			t.Errorf("%s: got %d errors, expected 1: %v", test.name, len(errs), errs)
			continue
		}
		if errs[0].Field != test.field {
			t.Errorf("%s: error on field %q, expected %q", test.name, errs[0].Field, test.field)
		}
	}
}

func TestTimeEntryDraftRules(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	valid := models.TimeEntryDraft{
		Description: "Pairing on the importer",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		UserID:      "u1",
		ProjectID:   "p1",
	}
	if errs := TimeEntryDraft(valid); len(errs) != 0 {
		t.Fatalf("valid draft produced errors: %v", errs)
	}

	noDesc := valid
	noDesc.Description = ""
	if errs := TimeEntryDraft(noDesc); len(errs) != 1 || errs[0].Field != "description" {
		t.Errorf("missing description: %v", errs)
	}

	badRange := valid
	badRange.EndTime = badRange.StartTime
	if errs := TimeEntryDraft(badRange); len(errs) != 1 || errs[0].Field != "end time" {
		t.Errorf("equal start/end: %v", errs)
	}

	longDesc := valid
	longDesc.Description = strings.Repeat("x", 1001)
	if errs := TimeEntryDraft(longDesc); len(errs) != 1 || errs[0].Field != "description" {
		t.Errorf("over-long description: %v", errs)
	}
}

func TestUserDraftRules(t *testing.T) {
	valid := models.UserDraft{UserName: "alice", Email: "alice@work.io", Password: "secret1"}
	if errs := UserDraft(valid); len(errs) != 0 {
		t.Fatalf("valid draft produced errors: %v", errs)
	}

	shortPass := valid
	shortPass.Password = "12345"
	if errs := UserDraft(shortPass); len(errs) != 1 || errs[0].Field != "password" {
		t.Errorf("short password: %v", errs)
	}

	badEmail := valid
	badEmail.Email = "not-an-email"
	if errs := UserDraft(badEmail); len(errs) != 1 || errs[0].Field != "email" {
		t.Errorf("bad email: %v", errs)
	}
}
