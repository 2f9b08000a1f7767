// Package repository persists tasks. Postgres, MongoDB and in-memory
// backends share the TaskRepository contract and each translate the typed
// filter into their own query syntax.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adanyl0v/go-task-assign/internal/filter"
	"github.com/adanyl0v/go-task-assign/internal/models"
)

var (
	ErrNotFound           = errors.New("task not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrConstraint         = errors.New("constraint violation")
	ErrUsersTableMissing  = errors.New("users table does not exist")
)

const DefaultLimit = 10

type TaskRepository interface {
	// Create stores a new task. It returns an error wrapping ErrConstraint
	// if a required field is missing or out of bounds.
	Create(ctx context.Context, task *models.Task) (*models.Task, error)

	// FindByID returns ErrNotFound if no task has the given id.
	FindByID(ctx context.Context, id string) (*models.Task, error)

	// FindMany returns one page of tasks matching the filter and the total
	// number of tasks matching it.
	FindMany(ctx context.Context, params FindManyParams) ([]*models.Task, int64, error)

	// Update applies the patch and returns the updated task or ErrNotFound.
	// The creator of a task is not part of TaskPatch and never changes.
	Update(ctx context.Context, id string, patch TaskPatch) (*models.Task, error)

	// Delete removes the task with its attachment records or returns
	// ErrNotFound.
	Delete(ctx context.Context, id string) error

	// ListStorageKeys returns the storage keys referenced by any task.
	ListStorageKeys(ctx context.Context) ([]string, error)
}

// UserDirectory resolves user ids to display projections. Unknown ids are
// absent from the returned map.
type UserDirectory interface {
	ResolveUsers(ctx context.Context, ids []string) (map[string]models.UserRef, error)
	// ListUsers returns one page of users ordered by name and id, plus the
	// total number of users.
	ListUsers(ctx context.Context, offset, limit int) ([]models.UserRef, int64, error)
}

func normalizeWindow(offset, limit int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

type FindManyParams struct {
	Filter filter.Expr
	// Sort defaults to filter.DefaultSort.
	Sort []filter.SortKey
	// Offset and Limit are zero-based; Limit defaults to DefaultLimit.
	Offset int
	Limit  int
}

func (p FindManyParams) normalize() FindManyParams {
	if len(p.Sort) == 0 {
		p.Sort = filter.DefaultSort
	}
	p.Offset, p.Limit = normalizeWindow(p.Offset, p.Limit)
	return p
}

// TaskPatch lists the changes of a single update. Nil fields are left
// as they are. Attachments are only ever appended or removed one by one.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *models.Status
	Deadline    *time.Time
	AssignedTo  *string

	AppendAttachments  []models.Attachment
	RemoveAttachmentID string

	UpdatedAt time.Time
}

func (p *TaskPatch) apply(task *models.Task) error {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
	if p.Deadline != nil {
		task.Deadline = *p.Deadline
	}
	if p.AssignedTo != nil {
		task.AssignedTo = *p.AssignedTo
	}
	if p.RemoveAttachmentID != "" {
		i := task.FindAttachment(p.RemoveAttachmentID)
		if i < 0 {
			return ErrAttachmentNotFound
		}
		task.Attachments = append(task.Attachments[:i:i], task.Attachments[i+1:]...)
	}
	task.Attachments = append(task.Attachments, p.AppendAttachments...)
	task.UpdatedAt = p.UpdatedAt
	return checkConstraints(task)
}

// checkConstraints mirrors the table constraints of the Postgres schema
// for backends that have none.
func checkConstraints(task *models.Task) error {
	switch {
	case task.ID == "":
		return fmt.Errorf("%w: id is required", ErrConstraint)
	case task.Title == "" || len([]rune(task.Title)) > 100:
		return fmt.Errorf("%w: title must be 1..100 characters", ErrConstraint)
	case task.Description == "" || len([]rune(task.Description)) > 500:
		return fmt.Errorf("%w: description must be 1..500 characters", ErrConstraint)
	case !task.Status.Valid():
		return fmt.Errorf("%w: invalid status %q", ErrConstraint, task.Status)
	case task.Deadline.IsZero():
		return fmt.Errorf("%w: deadline is required", ErrConstraint)
	case task.AssignedTo == "":
		return fmt.Errorf("%w: assignedTo is required", ErrConstraint)
	case task.CreatedBy == "":
		return fmt.Errorf("%w: createdBy is required", ErrConstraint)
	}
	return nil
}

func fieldValue(task *models.Task, f filter.Field) any {
	switch f {
	case filter.FieldTitle:
		return task.Title
	case filter.FieldDescription:
		return task.Description
	case filter.FieldStatus:
		return string(task.Status)
	case filter.FieldDeadline:
		return task.Deadline
	case filter.FieldAssignedTo:
		return task.AssignedTo
	case filter.FieldCreatedBy:
		return task.CreatedBy
	case filter.FieldCreatedAt:
		return task.CreatedAt
	case filter.FieldUpdatedAt:
		return task.UpdatedAt
	default:
		return nil
	}
}
