package store

import (
	"testing"

	"github.com/hgdelgado/timedeck/internal/models"
)

func TestProjectMembersDetachPreservesSnapshots(t *testing.T) {
	ra := ProjectMembers(nil)
	p := models.Project{ID: "p1", ProjectUsers: []models.ProjectUser{
		{ID: "m1", ProjectID: "p1"},
		{ID: "m2", ProjectID: "p1"},
	}}
	snapshot := p.ProjectUsers

	ra.Detach(&p, "m1")

	if len(p.ProjectUsers) != 1 || p.ProjectUsers[0].ID != "m2" {
		t.Errorf("members after detach = %+v, want only m2", p.ProjectUsers)
	}
	if len(snapshot) != 2 || snapshot[0].ID != "m1" || snapshot[1].ID != "m2" {
		t.Errorf("earlier snapshot mutated by detach: %+v", snapshot)
	}
}

func TestTaskAssigneesDetachPreservesSnapshots(t *testing.T) {
	ra := TaskAssignees(nil)
	task := models.ProjectTask{ID: "t1", UsersTask: []models.UserTask{
		{ID: "a1", ProjectTaskID: "t1"},
		{ID: "a2", ProjectTaskID: "t1"},
	}}
	snapshot := task.UsersTask

	ra.Detach(&task, "a2")

	if len(task.UsersTask) != 1 || task.UsersTask[0].ID != "a1" {
		t.Errorf("assignees after detach = %+v, want only a1", task.UsersTask)
	}
	if len(snapshot) != 2 || snapshot[0].ID != "a1" || snapshot[1].ID != "a2" {
		t.Errorf("earlier snapshot mutated by detach: %+v", snapshot)
	}
}
