package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-assign/internal/models"
	"github.com/adanyl0v/go-task-assign/internal/repository"
)

type userQueryServiceImpl struct {
	logger zerolog.Logger
	users  repository.UserDirectory
	limits PageLimits
}

func NewUserQueryService(logger zerolog.Logger, users repository.UserDirectory, limits PageLimits) UserQueryService {
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = repository.DefaultLimit
	}
	return &userQueryServiceImpl{
		logger: logger,
		users:  users,
		limits: limits,
	}
}

func (s *userQueryServiceImpl) ListUsers(ctx context.Context, actor models.Actor, page, limit int) (*UserPage, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	page, limit = normalizePage(page, limit, s.limits)
	offset, _ := pageOffset(page, limit)

	users, total, err := s.users.ListUsers(ctx, offset, limit)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("actor_id", actor.ID).
			Msg("failed to list users")
		return nil, err
	}

	s.logger.Debug().
		Str("actor_id", actor.ID).
		Int("page", page).
		Int("count", len(users)).
		Int64("total", total).
		Msg("listed users")
	return &UserPage{
		Count:      len(users),
		Total:      total,
		Pagination: paginate(page, limit, total),
		Items:      users,
	}, nil
}

func (s *userQueryServiceImpl) GetUser(ctx context.Context, actor models.Actor, userID string) (*models.UserRef, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	refs, err := s.users.ResolveUsers(ctx, []string{userID})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to resolve user")
		return nil, err
	}
	u, ok := refs[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}
