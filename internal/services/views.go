package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-assign/internal/models"
	"github.com/adanyl0v/go-task-assign/internal/repository"
)

// resolveViews looks up the assignee and creator of every task with one
// directory call. Users missing from the directory keep only their id.
func resolveViews(
	ctx context.Context,
	logger zerolog.Logger,
	users repository.UserDirectory,
	tasks []*models.Task,
) ([]*TaskView, error) {
	seen := make(map[string]struct{}, 2*len(tasks))
	ids := make([]string, 0, 2*len(tasks))
	for _, t := range tasks {
		for _, id := range []string{t.AssignedTo, t.CreatedBy} {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	refs, err := users.ResolveUsers(ctx, ids)
	if err != nil {
		logger.Error().
			Err(err).
			Int("users", len(ids)).
			Msg("failed to resolve users")
		return nil, err
	}

	views := make([]*TaskView, len(tasks))
	for i, t := range tasks {
		views[i] = newTaskView(t, refs)
	}
	return views, nil
}

func resolveView(
	ctx context.Context,
	logger zerolog.Logger,
	users repository.UserDirectory,
	task *models.Task,
) (*TaskView, error) {
	views, err := resolveViews(ctx, logger, users, []*models.Task{task})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func newTaskView(t *models.Task, refs map[string]models.UserRef) *TaskView {
	attachments := make([]models.Attachment, len(t.Attachments))
	copy(attachments, t.Attachments)
	return &TaskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Deadline:    t.Deadline,
		AssignedTo:  userRef(refs, t.AssignedTo),
		CreatedBy:   userRef(refs, t.CreatedBy),
		Attachments: attachments,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func userRef(refs map[string]models.UserRef, id string) models.UserRef {
	if ref, ok := refs[id]; ok {
		return ref
	}
	return models.UserRef{ID: id}
}
