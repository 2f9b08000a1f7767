package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-assign/internal/models"
	"github.com/adanyl0v/go-task-assign/internal/policy"
	"github.com/adanyl0v/go-task-assign/internal/repository"
	"github.com/adanyl0v/go-task-assign/internal/storage"
)

// AttachmentLimits bounds the files of a single create or update request.
// Zero values disable the corresponding check.
type AttachmentLimits struct {
	MaxFiles    int
	MaxFileSize int64
}

type taskMutationServiceImpl struct {
	logger zerolog.Logger
	tasks  repository.TaskRepository
	users  repository.UserDirectory
	store  storage.Store
	limits AttachmentLimits
}

func NewTaskMutationService(
	logger zerolog.Logger,
	tasks repository.TaskRepository,
	users repository.UserDirectory,
	store storage.Store,
	limits AttachmentLimits,
) TaskMutationService {
	return &taskMutationServiceImpl{
		logger: logger,
		tasks:  tasks,
		users:  users,
		store:  store,
		limits: limits,
	}
}

func (s *taskMutationServiceImpl) CreateTask(ctx context.Context, actor models.Actor, params CreateTaskParams) (*TaskView, error) {
	err := validateParams(&params)
	if err != nil {
		return nil, err
	}
	err = s.validateFiles(params.Files)
	if err != nil {
		return nil, err
	}
	err = s.checkUserExists(ctx, params.AssignedTo)
	if err != nil {
		return nil, err
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}

	status := params.Status
	if status == "" {
		status = models.StatusPending
	}

	attachments, err := s.storeFiles(ctx, params.Files)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task, err := s.tasks.Create(ctx, &models.Task{
		ID:          taskUUID.String(),
		Title:       params.Title,
		Description: params.Description,
		Status:      status,
		Deadline:    params.Deadline.UTC(),
		AssignedTo:  params.AssignedTo,
		CreatedBy:   actor.ID,
		Attachments: attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		s.rollback(ctx, attachments)
		if errors.Is(err, repository.ErrConstraint) {
			return nil, newValidationError("", err.Error())
		}

		s.logger.Error().
			Err(err).
			Msg("failed to create task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("created_by", task.CreatedBy).
		Int("attachments", len(task.Attachments)).
		Msg("created task")
	return resolveView(ctx, s.logger, s.users, task)
}

func (s *taskMutationServiceImpl) UpdateTask(ctx context.Context, actor models.Actor, params UpdateTaskParams) (*TaskView, error) {
	task, err := findTask(ctx, s.logger, s.tasks, params.ID)
	if err != nil {
		return nil, err
	}

	switch policy.UpdateScopeFor(actor, task) {
	case policy.ScopeNone:
		s.logger.Info().
			Str("actor_id", actor.ID).
			Str("task_id", task.ID).
			Msg("task update denied")
		return nil, ErrForbidden
	case policy.ScopeStatusOnly:
		if params.changesFieldsOtherThanStatus() {
			s.logger.Info().
				Str("actor_id", actor.ID).
				Str("task_id", task.ID).
				Msg("assignee may only change the status")
			return nil, ErrForbidden
		}
	}

	err = validateParams(&params)
	if err != nil {
		return nil, err
	}
	if params.Deadline != nil && params.Deadline.IsZero() {
		return nil, newValidationError("deadline", "is required")
	}
	err = s.validateFiles(params.Files)
	if err != nil {
		return nil, err
	}
	if params.AssignedTo != nil && *params.AssignedTo != task.AssignedTo {
		err = s.checkUserExists(ctx, *params.AssignedTo)
		if err != nil {
			return nil, err
		}
	}

	attachments, err := s.storeFiles(ctx, params.Files)
	if err != nil {
		return nil, err
	}

	updated, err := s.tasks.Update(ctx, task.ID, repository.TaskPatch{
		Title:             params.Title,
		Description:       params.Description,
		Status:            params.Status,
		Deadline:          utcPtr(params.Deadline),
		AssignedTo:        params.AssignedTo,
		AppendAttachments: attachments,
		UpdatedAt:         time.Now().UTC(),
	})
	if err != nil {
		s.rollback(ctx, attachments)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrTaskNotFound
		case errors.Is(err, repository.ErrConstraint):
			return nil, newValidationError("", err.Error())
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", updated.ID).
		Str("actor_id", actor.ID).
		Int("new_attachments", len(attachments)).
		Msg("updated task")
	return resolveView(ctx, s.logger, s.users, updated)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (s *taskMutationServiceImpl) DeleteTask(ctx context.Context, actor models.Actor, taskID string) (*DeleteTaskResult, error) {
	task, err := findTask(ctx, s.logger, s.tasks, taskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanDelete(actor, task) {
		s.logger.Info().
			Str("actor_id", actor.ID).
			Str("task_id", task.ID).
			Msg("task deletion denied")
		return nil, ErrForbidden
	}

	result := &DeleteTaskResult{}
	for _, a := range task.Attachments {
		err = s.deleteObject(ctx, a.StorageKey)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("task_id", task.ID).
				Str("attachment_id", a.ID).
				Msg("failed to delete attachment object")
			result.FailedAttachments = append(result.FailedAttachments, FailedAttachment{
				AttachmentID: a.ID,
				StorageKey:   a.StorageKey,
				Err:          err,
			})
		}
	}

	err = s.tasks.Delete(ctx, task.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to delete task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("actor_id", actor.ID).
		Int("attachments", len(task.Attachments)).
		Int("failed_attachments", len(result.FailedAttachments)).
		Msg("deleted task")
	return result, nil
}

func (s *taskMutationServiceImpl) DeleteAttachment(ctx context.Context, actor models.Actor, taskID, attachmentID string) error {
	task, err := findTask(ctx, s.logger, s.tasks, taskID)
	if err != nil {
		return err
	}
	if !policy.CanDelete(actor, task) {
		s.logger.Info().
			Str("actor_id", actor.ID).
			Str("task_id", task.ID).
			Msg("attachment deletion denied")
		return ErrForbidden
	}

	i := task.FindAttachment(attachmentID)
	if i < 0 {
		return ErrAttachmentNotFound
	}
	attachment := task.Attachments[i]

	err = s.deleteObject(ctx, attachment.StorageKey)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Str("attachment_id", attachment.ID).
			Msg("failed to delete attachment object")
		return err
	}

	_, err = s.tasks.Update(ctx, task.ID, repository.TaskPatch{
		RemoveAttachmentID: attachment.ID,
		UpdatedAt:          time.Now().UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrTaskNotFound
		case errors.Is(err, repository.ErrAttachmentNotFound):
			return ErrAttachmentNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Str("attachment_id", attachment.ID).
			Msg("failed to detach attachment")
		return err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("attachment_id", attachment.ID).
		Msg("deleted attachment")
	return nil
}

func (s *taskMutationServiceImpl) SweepOrphanedAttachments(ctx context.Context, actor models.Actor, minAge time.Duration) (*SweepResult, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	// objects are listed before the references so that a file stored and
	// attached in between is never seen as orphaned
	objects, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list stored objects")
		return nil, &StorageError{Op: "list", Err: err}
	}

	keys, err := s.tasks.ListStorageKeys(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list referenced storage keys")
		return nil, err
	}
	referenced := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		referenced[k] = struct{}{}
	}

	cutoff := time.Now().Add(-minAge)
	result := &SweepResult{}
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok || obj.ModTime.After(cutoff) {
			continue
		}

		err = s.deleteObject(ctx, obj.Key)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("storage_key", obj.Key).
				Msg("failed to delete orphaned object")
			result.Failed = append(result.Failed, obj.Key)
			continue
		}
		result.Deleted = append(result.Deleted, obj.Key)
	}

	s.logger.Info().
		Int("objects", len(objects)).
		Int("deleted", len(result.Deleted)).
		Int("failed", len(result.Failed)).
		Msg("swept orphaned attachments")
	return result, nil
}

func (s *taskMutationServiceImpl) checkUserExists(ctx context.Context, userID string) error {
	refs, err := s.users.ResolveUsers(ctx, []string{userID})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to resolve user")
		return err
	}
	if _, ok := refs[userID]; !ok {
		s.logger.Debug().
			Str("user_id", userID).
			Msg("user not found")
		return ErrUserNotFound
	}
	return nil
}
