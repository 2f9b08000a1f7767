package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/adanyl0v/go-task-assign/internal/filter"
	"github.com/adanyl0v/go-task-assign/internal/models"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTask(id, assignee, creator string, created time.Time) *models.Task {
	return &models.Task{
		ID:          id,
		Title:       "task " + id,
		Description: "description of " + id,
		Status:      models.StatusPending,
		Deadline:    baseTime.Add(72 * time.Hour),
		AssignedTo:  assignee,
		CreatedBy:   creator,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func seed(t *testing.T, r *MemoryTaskRepository, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		assignee := "u1"
		if i%2 == 1 {
			assignee = "u2"
		}
		task := newTask(fmt.Sprintf("t%02d", i), assignee, "admin", baseTime.Add(time.Duration(i)*time.Minute))
		if _, err := r.Create(context.Background(), task); err != nil {
			t.Fatalf("Create(%s): %v", task.ID, err)
		}
	}
}

func TestMemoryTaskRepository_CreateRejectsConstraintViolations(t *testing.T) {
	r := NewMemoryTaskRepository()
	ctx := context.Background()

	bad := newTask("t1", "u1", "u2", baseTime)
	bad.Title = ""
	if _, err := r.Create(ctx, bad); !errors.Is(err, ErrConstraint) {
		t.Fatalf("Create with empty title: got %v, want ErrConstraint", err)
	}

	ok := newTask("t1", "u1", "u2", baseTime)
	if _, err := r.Create(ctx, ok); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r.Create(ctx, ok); !errors.Is(err, ErrConstraint) {
		t.Fatalf("duplicate Create: got %v, want ErrConstraint", err)
	}
}

func TestMemoryTaskRepository_FindManyPaginatesWithTotal(t *testing.T) {
	r := NewMemoryTaskRepository()
	seed(t, r, 7)

	tasks, total, err := r.FindMany(context.Background(), FindManyParams{
		Filter: filter.Eq(filter.FieldAssignedTo, "u1"),
		Offset: 2,
		Limit:  2,
	})
	if err != nil {
		t.Fatalf("FindMany: %v", err)
	}
	if total != 4 {
		t.Fatalf("total = %d, want 4", total)
	}
	// u1 owns t00, t02, t04, t06; newest first
	want := []string{"t02", "t00"}
	if len(tasks) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(tasks), len(want))
	}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Fatalf("tasks[%d] = %s, want %s", i, tasks[i].ID, id)
		}
	}
}

func TestMemoryTaskRepository_FindManyPastTheEnd(t *testing.T) {
	r := NewMemoryTaskRepository()
	seed(t, r, 3)

	tasks, total, err := r.FindMany(context.Background(), FindManyParams{Offset: 10, Limit: 5})
	if err != nil {
		t.Fatalf("FindMany: %v", err)
	}
	if total != 3 || len(tasks) != 0 {
		t.Fatalf("got %d tasks of %d, want 0 of 3", len(tasks), total)
	}
}

func TestMemoryTaskRepository_FindManySortAscending(t *testing.T) {
	r := NewMemoryTaskRepository()
	seed(t, r, 3)

	tasks, _, err := r.FindMany(context.Background(), FindManyParams{
		Sort: []filter.SortKey{{Field: filter.FieldCreatedAt}},
	})
	if err != nil {
		t.Fatalf("FindMany: %v", err)
	}
	for i, id := range []string{"t00", "t01", "t02"} {
		if tasks[i].ID != id {
			t.Fatalf("tasks[%d] = %s, want %s", i, tasks[i].ID, id)
		}
	}
}

func TestMemoryTaskRepository_UpdateAttachments(t *testing.T) {
	r := NewMemoryTaskRepository()
	ctx := context.Background()
	if _, err := r.Create(ctx, newTask("t1", "u1", "u2", baseTime)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	status := models.StatusCompleted
	updated, err := r.Update(ctx, "t1", TaskPatch{
		Status: &status,
		AppendAttachments: []models.Attachment{
			{ID: "a1", Filename: "a.txt", StorageKey: "k1", UploadedAt: baseTime},
			{ID: "a2", Filename: "b.txt", StorageKey: "k2", UploadedAt: baseTime},
		},
		UpdatedAt: baseTime.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != models.StatusCompleted || len(updated.Attachments) != 2 {
		t.Fatalf("unexpected task after update: %+v", updated)
	}
	if updated.CreatedBy != "u2" {
		t.Fatalf("CreatedBy changed to %q", updated.CreatedBy)
	}

	updated, err = r.Update(ctx, "t1", TaskPatch{RemoveAttachmentID: "a1", UpdatedAt: baseTime})
	if err != nil {
		t.Fatalf("remove attachment: %v", err)
	}
	if len(updated.Attachments) != 1 || updated.Attachments[0].ID != "a2" {
		t.Fatalf("attachments after removal: %+v", updated.Attachments)
	}

	_, err = r.Update(ctx, "t1", TaskPatch{RemoveAttachmentID: "a1", UpdatedAt: baseTime})
	if !errors.Is(err, ErrAttachmentNotFound) {
		t.Fatalf("second removal: got %v, want ErrAttachmentNotFound", err)
	}

	keys, err := r.ListStorageKeys(ctx)
	if err != nil {
		t.Fatalf("ListStorageKeys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "k2" {
		t.Fatalf("keys = %v, want [k2]", keys)
	}
}

func TestMemoryTaskRepository_UpdateLeavesStoredTaskOnFailure(t *testing.T) {
	r := NewMemoryTaskRepository()
	ctx := context.Background()
	if _, err := r.Create(ctx, newTask("t1", "u1", "u2", baseTime)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	empty := ""
	if _, err := r.Update(ctx, "t1", TaskPatch{Title: &empty}); !errors.Is(err, ErrConstraint) {
		t.Fatalf("Update with empty title: got %v, want ErrConstraint", err)
	}
	task, err := r.FindByID(ctx, "t1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if task.Title != "task t1" {
		t.Fatalf("title = %q, want unchanged", task.Title)
	}
}

func TestMemoryTaskRepository_ReturnsCopies(t *testing.T) {
	r := NewMemoryTaskRepository()
	ctx := context.Background()
	created, err := r.Create(ctx, newTask("t1", "u1", "u2", baseTime))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	created.Title = "mutated"

	task, err := r.FindByID(ctx, "t1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if task.Title != "task t1" {
		t.Fatalf("stored task was mutated through a returned copy")
	}
}

func TestMemoryTaskRepository_NotFound(t *testing.T) {
	r := NewMemoryTaskRepository()
	ctx := context.Background()

	if _, err := r.FindByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByID: got %v, want ErrNotFound", err)
	}
	if _, err := r.Update(ctx, "missing", TaskPatch{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update: got %v, want ErrNotFound", err)
	}
	if err := r.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete: got %v, want ErrNotFound", err)
	}
}

func TestMemoryUserDirectory_ResolveUsers(t *testing.T) {
	d := NewMemoryUserDirectory(models.UserRef{ID: "u1", Name: "Ann", Email: "ann@example.com"})
	d.Add(models.UserRef{ID: "u2", Name: "Bob", Email: "bob@example.com"})

	refs, err := d.ResolveUsers(context.Background(), []string{"u1", "u2", "ghost"})
	if err != nil {
		t.Fatalf("ResolveUsers: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d refs, want 2", len(refs))
	}
	if refs["u2"].Name != "Bob" {
		t.Fatalf("refs[u2] = %+v", refs["u2"])
	}
	if _, ok := refs["ghost"]; ok {
		t.Fatalf("unknown id was resolved")
	}
}
