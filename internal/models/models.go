package models

import "time"

// Role names carried in the JWT roles claim and referenced by route gating.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

type User struct {
	ID       string   `json:"id"`
	UserName string   `json:"userName"`
	Email    string   `json:"email"`
	Password string   `json:"password,omitempty"` // write-only, never returned
	Roles    []string `json:"roles"`
}

type Role struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	RoleGroup int    `json:"roleGroup"`
}

type Project struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	ColorHex     string        `json:"colorHex"`
	Creator      *User         `json:"creator,omitempty"`
	Client       *User         `json:"client,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	ProjectUsers []ProjectUser `json:"projectUsers"`
}

// ProjectUser is the join record for one user's membership/role on a project.
type ProjectUser struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
	RoleID    string `json:"roleId"`
}

type ProjectTask struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	EstimatedTime int        `json:"estimatedTime"` // minutes
	Status        int        `json:"status"`
	Project       *Project   `json:"project,omitempty"`
	UsersTask     []UserTask `json:"usersTask"`
}

// UserTask is the join record for one user's assignment to a task.
type UserTask struct {
	ID            string `json:"id"`
	ProjectTaskID string `json:"projectTaskId"`
	UserID        string `json:"userId"`
}

type TimeEntry struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	StartTime   time.Time    `json:"startTime"`
	EndTime     time.Time    `json:"endTime"`
	Minutes     int          `json:"minutes"`
	User        *User        `json:"user,omitempty"`
	Project     *Project     `json:"project,omitempty"`
	ProjectTask *ProjectTask `json:"projectTask,omitempty"` // nullable
}

// Write-side payloads: relational references flattened to foreign-key ids.

type UserDraft struct {
	UserName string   `json:"userName"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

type UserUpdate struct {
	ID       string   `json:"id"`
	UserName string   `json:"userName"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

type RoleDraft struct {
	Name      string `json:"name"`
	RoleGroup int    `json:"roleGroup"`
}

type RoleUpdate struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	RoleGroup int    `json:"roleGroup"`
}

type ProjectDraft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ColorHex    string `json:"colorHex"`
	CreatorID   string `json:"creatorId"`
	ClientID    string `json:"clientId"`
}

type ProjectUpdate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ColorHex    string `json:"colorHex"`
	ClientID    string `json:"clientId"`
}

type ProjectUserDraft struct {
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
	RoleID    string `json:"roleId"`
}

type ProjectTaskDraft struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	EstimatedTime int    `json:"estimatedTime"`
	Status        int    `json:"status"`
	ProjectID     string `json:"projectId"`
}

type ProjectTaskUpdate struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	EstimatedTime int    `json:"estimatedTime"`
	Status        int    `json:"status"`
}

type UserTaskDraft struct {
	ProjectTaskID string `json:"projectTaskId"`
	UserID        string `json:"userId"`
}

type TimeEntryDraft struct {
	Description   string    `json:"description"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	Minutes       int       `json:"minutes"`
	UserID        string    `json:"userId"`
	ProjectID     string    `json:"projectId"`
	ProjectTaskID string    `json:"projectTaskId,omitempty"`
}

type TimeEntryUpdate struct {
	ID            string    `json:"id"`
	Description   string    `json:"description"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	Minutes       int       `json:"minutes"`
	ProjectID     string    `json:"projectId"`
	ProjectTaskID string    `json:"projectTaskId,omitempty"`
}

// MinutesBetween returns the whole-minute difference between start and end.
// Time entries always recompute minutes from this immediately before
// persisting; the field is never edited independently.
func MinutesBetween(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}

// RecomputeMinutes refreshes the derived minutes field before a save.
func (d *TimeEntryDraft) RecomputeMinutes() {
	d.Minutes = MinutesBetween(d.StartTime, d.EndTime)
}

func (u *TimeEntryUpdate) RecomputeMinutes() {
	u.Minutes = MinutesBetween(u.StartTime, u.EndTime)
}

// TaskStatus is a numeric status id with a display name.
type TaskStatus struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

const (
	StatusToDo = iota + 1
	StatusInProgress
	StatusDone
)

var TaskStatuses = []TaskStatus{
	{ID: StatusToDo, Name: "To Do"},
	{ID: StatusInProgress, Name: "In Progress"},
	{ID: StatusDone, Name: "Done"},
}

func StatusName(id int) string {
	for _, s := range TaskStatuses {
		if s.ID == id {
			return s.Name
		}
	}
	return "Unknown"
}
