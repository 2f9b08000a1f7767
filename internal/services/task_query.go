package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-assign/internal/models"
	"github.com/adanyl0v/go-task-assign/internal/policy"
	"github.com/adanyl0v/go-task-assign/internal/repository"
	"github.com/adanyl0v/go-task-assign/internal/storage"
)

// PageLimits bounds the page size of listings. A zero MaxLimit means
// the limit isn't capped.
type PageLimits struct {
	DefaultLimit int
	MaxLimit     int
}

type taskQueryServiceImpl struct {
	logger zerolog.Logger
	tasks  repository.TaskRepository
	users  repository.UserDirectory
	store  storage.Store
	limits PageLimits
}

func NewTaskQueryService(
	logger zerolog.Logger,
	tasks repository.TaskRepository,
	users repository.UserDirectory,
	store storage.Store,
	limits PageLimits,
) TaskQueryService {
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = repository.DefaultLimit
	}
	return &taskQueryServiceImpl{
		logger: logger,
		tasks:  tasks,
		users:  users,
		store:  store,
		limits: limits,
	}
}

func (s *taskQueryServiceImpl) ListTasks(ctx context.Context, actor models.Actor, params ListTasksParams) (*TaskPage, error) {
	page, limit := normalizePage(params.Page, params.Limit, s.limits)
	offset, _ := pageOffset(page, limit)

	tasks, total, err := s.tasks.FindMany(ctx, repository.FindManyParams{
		Filter: policy.ScopeFilter(actor, params.Filter),
		Sort:   params.Sort,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("actor_id", actor.ID).
			Msg("failed to find tasks")
		return nil, err
	}

	items, err := resolveViews(ctx, s.logger, s.users, tasks)
	if err != nil {
		return nil, err
	}

	result := &TaskPage{
		Count:      len(items),
		Total:      total,
		Pagination: paginate(page, limit, total),
		Items:      items,
	}

	s.logger.Debug().
		Str("actor_id", actor.ID).
		Int("page", page).
		Int("count", result.Count).
		Int64("total", total).
		Msg("listed tasks")
	return result, nil
}

func (s *taskQueryServiceImpl) GetTask(ctx context.Context, actor models.Actor, taskID string) (*TaskView, error) {
	task, err := s.readableTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	return resolveView(ctx, s.logger, s.users, task)
}

func (s *taskQueryServiceImpl) OpenAttachment(ctx context.Context, actor models.Actor, taskID, attachmentID string) (*AttachmentContent, error) {
	task, err := s.readableTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	i := task.FindAttachment(attachmentID)
	if i < 0 {
		return nil, ErrAttachmentNotFound
	}
	attachment := task.Attachments[i]

	data, err := s.store.Get(ctx, attachment.StorageKey)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Str("attachment_id", attachmentID).
			Msg("failed to read attachment")
		return nil, &StorageError{Op: "get", Key: attachment.StorageKey, Err: err}
	}

	return &AttachmentContent{
		Attachment: attachment,
		Data:       data,
	}, nil
}

func (s *taskQueryServiceImpl) readableTask(ctx context.Context, actor models.Actor, taskID string) (*models.Task, error) {
	task, err := findTask(ctx, s.logger, s.tasks, taskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanRead(actor, task) {
		s.logger.Info().
			Str("actor_id", actor.ID).
			Str("task_id", taskID).
			Msg("task read denied")
		return nil, ErrForbidden
	}
	return task, nil
}

func findTask(ctx context.Context, logger zerolog.Logger, tasks repository.TaskRepository, taskID string) (*models.Task, error) {
	task, err := tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Debug().
				Str("task_id", taskID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to find task")
		return nil, err
	}
	return task, nil
}
