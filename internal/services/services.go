package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adanyl0v/go-task-assign/internal/filter"
	"github.com/adanyl0v/go-task-assign/internal/models"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrTaskNotFound       = errors.New("task not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("forbidden")
	ErrStorage            = errors.New("attachment storage failed")
)

// ValidationError names the input that was rejected. It matches
// ErrValidation with errors.Is.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// StorageError wraps a failed attachment store operation. It matches
// ErrStorage with errors.Is.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

type TaskQueryService interface {
	// ListTasks returns one page of the tasks the actor may see that also
	// match params.Filter. Total counts the same scoped set.
	ListTasks(ctx context.Context, actor models.Actor, params ListTasksParams) (*TaskPage, error)

	// GetTask returns ErrTaskNotFound if the task doesn't exist or
	// ErrForbidden if the actor may not read it.
	GetTask(ctx context.Context, actor models.Actor, taskID string) (*TaskView, error)

	// OpenAttachment returns the stored bytes of one attachment.
	OpenAttachment(ctx context.Context, actor models.Actor, taskID, attachmentID string) (*AttachmentContent, error)
}

type TaskMutationService interface {
	// CreateTask stores the files, then the task. The creator is always
	// the actor. If any file fails to store, every file stored by this
	// call is deleted again and the task is not created.
	CreateTask(ctx context.Context, actor models.Actor, params CreateTaskParams) (*TaskView, error)

	// UpdateTask applies the given fields and appends the new files to
	// the existing attachments.
	//
	// It returns ErrTaskNotFound, ErrForbidden if the actor may not touch
	// the task or one of the given fields, or a ValidationError.
	UpdateTask(ctx context.Context, actor models.Actor, params UpdateTaskParams) (*TaskView, error)

	// DeleteTask deletes every attachment object and then the task. Objects
	// that could not be deleted don't stop the task from being deleted;
	// they are reported in the result.
	DeleteTask(ctx context.Context, actor models.Actor, taskID string) (*DeleteTaskResult, error)

	// DeleteAttachment deletes the stored object and only then detaches
	// the attachment from the task. A second call for the same attachment
	// returns ErrAttachmentNotFound.
	DeleteAttachment(ctx context.Context, actor models.Actor, taskID, attachmentID string) error

	// SweepOrphanedAttachments deletes stored objects older than minAge
	// that no task references. Only admins may call it.
	SweepOrphanedAttachments(ctx context.Context, actor models.Actor, minAge time.Duration) (*SweepResult, error)
}

// UserQueryService is the read-only admin view of the user directory.
// User records themselves are managed by the identity service.
type UserQueryService interface {
	// ListUsers returns one page of users. Only admins may call it.
	ListUsers(ctx context.Context, actor models.Actor, page, limit int) (*UserPage, error)

	// GetUser returns ErrForbidden for non-admins and ErrUserNotFound if
	// the directory doesn't know the id.
	GetUser(ctx context.Context, actor models.Actor, userID string) (*models.UserRef, error)
}

type ListTasksParams struct {
	Filter filter.Expr
	Sort   []filter.SortKey
	// Page is one-based. Page and Limit below 1 fall back to the defaults.
	Page  int
	Limit int
}

type FilePayload struct {
	Filename string
	Data     []byte
}

type CreateTaskParams struct {
	Title       string `validate:"required,max=100"`
	Description string `validate:"required,max=500"`
	// Status defaults to pending.
	Status     models.Status `validate:"omitempty,oneof=pending in-progress completed"`
	Deadline   time.Time     `validate:"required"`
	AssignedTo string        `validate:"required"`
	Files      []FilePayload
}

// UpdateTaskParams holds the changed fields. Nil fields stay as they are.
type UpdateTaskParams struct {
	ID          string
	Title       *string        `validate:"omitnil,min=1,max=100"`
	Description *string        `validate:"omitnil,min=1,max=500"`
	Status      *models.Status `validate:"omitnil,oneof=pending in-progress completed"`
	Deadline    *time.Time
	AssignedTo  *string `validate:"omitnil,min=1"`
	Files       []FilePayload
}

func (p *UpdateTaskParams) changesFieldsOtherThanStatus() bool {
	return p.Title != nil || p.Description != nil || p.Deadline != nil || p.AssignedTo != nil
}

type TaskView struct {
	ID          string
	Title       string
	Description string
	Status      models.Status
	Deadline    time.Time
	AssignedTo  models.UserRef
	CreatedBy   models.UserRef
	Attachments []models.Attachment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type PageRef struct {
	Page  int
	Limit int
}

type Pagination struct {
	Next *PageRef
	Prev *PageRef
}

type TaskPage struct {
	Count      int
	Total      int64
	Pagination Pagination
	Items      []*TaskView
}

type UserPage struct {
	Count      int
	Total      int64
	Pagination Pagination
	Items      []models.UserRef
}

type AttachmentContent struct {
	Attachment models.Attachment
	Data       []byte
}

type FailedAttachment struct {
	AttachmentID string
	StorageKey   string
	Err          error
}

type DeleteTaskResult struct {
	FailedAttachments []FailedAttachment
}

type SweepResult struct {
	Deleted []string
	Failed  []string
}
