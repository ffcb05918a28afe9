package validate

import "github.com/hgdelgado/timedeck/internal/models"

// Per-entity rule sets. Bounds mirror what the backend enforces.

func UserDraft(d models.UserDraft) []FieldError {
	return Collect(
		LengthBetween("username", d.UserName, 3, 30),
		Email("email", d.Email),
		LengthBetween("password", d.Password, 6, 100),
	)
}

func UserUpdate(u models.UserUpdate) []FieldError {
	return Collect(
		LengthBetween("username", u.UserName, 3, 30),
		Email("email", u.Email),
	)
}

func RoleDraft(name string, roleGroup int) []FieldError {
	return Collect(
		LengthBetween("name", name, 2, 30),
		Positive("role group", roleGroup),
	)
}

func ProjectDraft(d models.ProjectDraft) []FieldError {
	return Collect(
		LengthBetween("name", d.Name, 3, 30),
		LengthBetween("description", d.Description, 20, 1000),
		HexColor("color", d.ColorHex),
		Required("creator", d.CreatorID),
		Required("client", d.ClientID),
	)
}

func ProjectUpdate(u models.ProjectUpdate) []FieldError {
	return Collect(
		LengthBetween("name", u.Name, 3, 30),
		LengthBetween("description", u.Description, 20, 1000),
		HexColor("color", u.ColorHex),
		Required("client", u.ClientID),
	)
}

func ProjectUserDraft(d models.ProjectUserDraft) []FieldError {
	return Collect(
		Required("project", d.ProjectID),
		Required("user", d.UserID),
		Required("role", d.RoleID),
	)
}

func ProjectTaskDraft(d models.ProjectTaskDraft) []FieldError {
	return Collect(
		LengthBetween("name", d.Name, 3, 30),
		Required("description", d.Description),
		MaxLength("description", d.Description, 1000),
		Positive("estimated time", d.EstimatedTime),
		Positive("status", d.Status),
		Required("project", d.ProjectID),
	)
}

func ProjectTaskUpdate(u models.ProjectTaskUpdate) []FieldError {
	return Collect(
		LengthBetween("name", u.Name, 3, 30),
		Required("description", u.Description),
		MaxLength("description", u.Description, 1000),
		Positive("estimated time", u.EstimatedTime),
		Positive("status", u.Status),
	)
}

func UserTaskDraft(d models.UserTaskDraft) []FieldError {
	return Collect(
		Required("task", d.ProjectTaskID),
		Required("user", d.UserID),
	)
}

func TimeEntryDraft(d models.TimeEntryDraft) []FieldError {
	return Collect(
		Required("description", d.Description),
		MaxLength("description", d.Description, 1000),
		TimeRange("start time", "end time", d.StartTime, d.EndTime),
		Required("user", d.UserID),
		Required("project", d.ProjectID),
	)
}

func TimeEntryUpdate(u models.TimeEntryUpdate) []FieldError {
	return Collect(
		Required("description", u.Description),
		MaxLength("description", u.Description, 1000),
		TimeRange("start time", "end time", u.StartTime, u.EndTime),
		Required("project", u.ProjectID),
	)
}
