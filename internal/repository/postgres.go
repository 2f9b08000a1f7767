package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-assign/internal/models"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresTaskRepository struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

var _ TaskRepository = (*PostgresTaskRepository)(nil)

func NewPostgresTaskRepository(logger zerolog.Logger, pgPool *pgxpool.Pool) *PostgresTaskRepository {
	return &PostgresTaskRepository{
		logger: logger,
		pgPool: pgPool,
	}
}

// EnsureSchema creates the task tables if they don't exist.
func (r *PostgresTaskRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
    id          TEXT PRIMARY KEY,
    title       VARCHAR(100) NOT NULL CHECK (char_length(title) > 0),
    description VARCHAR(500) NOT NULL CHECK (char_length(description) > 0),
    status      TEXT NOT NULL DEFAULT 'pending'
                CHECK (status IN ('pending', 'in-progress', 'completed')),
    deadline    TIMESTAMPTZ NOT NULL,
    assigned_to TEXT NOT NULL CHECK (assigned_to <> ''),
    created_by  TEXT NOT NULL CHECK (created_by <> ''),
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to ON tasks (assigned_to)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_created_by ON tasks (created_by)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks (created_at)`,
		`CREATE TABLE IF NOT EXISTS task_attachments (
    id          TEXT PRIMARY KEY,
    task_id     TEXT NOT NULL REFERENCES tasks (id) ON DELETE CASCADE,
    position    INTEGER NOT NULL,
    filename    TEXT NOT NULL,
    storage_key TEXT NOT NULL UNIQUE,
    uploaded_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_task_attachments_task ON task_attachments (task_id, position)`,
	}

	for _, stmt := range statements {
		_, err := r.pgPool.Exec(ctx, stmt)
		if err != nil {
			r.logger.Error().
				Err(err).
				Msg("failed to ensure task schema")
			return fmt.Errorf("ensure task schema: %w", err)
		}
	}
	return nil
}

func (r *PostgresTaskRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	err := checkConstraints(task)
	if err != nil {
		return nil, err
	}

	tx, err := r.pgPool.Begin(ctx)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   title,
                   description,
                   status,
                   deadline,
                   assigned_to,
                   created_by,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err = tx.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Deadline,
		task.AssignedTo,
		task.CreatedBy,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to insert task")
		return nil, mapPgError(err)
	}

	for _, a := range task.Attachments {
		err = r.appendAttachment(ctx, tx, task.ID, a)
		if err != nil {
			return nil, err
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	r.logger.Debug().
		Str("task_id", task.ID).
		Int("attachments", len(task.Attachments)).
		Msg("inserted task")
	return task.Clone(), nil
}

func (r *PostgresTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	return r.findByID(ctx, r.pgPool, id)
}

func (r *PostgresTaskRepository) findByID(ctx context.Context, q querier, id string) (*models.Task, error) {
	const selectTaskByIDQuery = `
SELECT id,
       title,
       description,
       status,
       deadline,
       assigned_to,
       created_by,
       created_at,
       updated_at
FROM tasks
WHERE id = $1
`
	task, err := scanTask(q.QueryRow(ctx, selectTaskByIDQuery, id))
	if err != nil {
		err = mapPgError(err)
		if !errors.Is(err, ErrNotFound) {
			r.logger.Error().
				Err(err).
				Str("task_id", id).
				Msg("failed to select task by id")
		}
		return nil, err
	}

	byTask, err := r.loadAttachments(ctx, q, []string{task.ID})
	if err != nil {
		return nil, err
	}
	task.Attachments = byTask[task.ID]
	return task, nil
}

func (r *PostgresTaskRepository) FindMany(ctx context.Context, params FindManyParams) ([]*models.Task, int64, error) {
	params = params.normalize()

	var b sqlBuilder
	where, err := b.where(params.Filter)
	if err != nil {
		return nil, 0, err
	}
	order, err := orderBy(params.Sort)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	err = r.pgPool.QueryRow(ctx, "SELECT count(*) FROM tasks WHERE "+where, b.args...).Scan(&total)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to count tasks")
		return nil, 0, err
	}

	limit := b.arg(params.Limit)
	offset := b.arg(params.Offset)
	selectTasksQuery := `
SELECT id,
       title,
       description,
       status,
       deadline,
       assigned_to,
       created_by,
       created_at,
       updated_at
FROM tasks
WHERE ` + where + `
ORDER BY ` + order + `
LIMIT ` + limit + ` OFFSET ` + offset

	rows, err := r.pgPool.Query(ctx, selectTasksQuery, b.args...)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, 0, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0, params.Limit)
	ids := make([]string, 0, params.Limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			r.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, 0, err
		}
		tasks = append(tasks, task)
		ids = append(ids, task.ID)
	}
	err = rows.Err()
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, 0, err
	}

	if len(ids) > 0 {
		byTask, err := r.loadAttachments(ctx, r.pgPool, ids)
		if err != nil {
			return nil, 0, err
		}
		for _, task := range tasks {
			task.Attachments = byTask[task.ID]
		}
	}

	r.logger.Debug().
		Int("count", len(tasks)).
		Int64("total", total).
		Msg("selected tasks")
	return tasks, total, nil
}

func (r *PostgresTaskRepository) Update(ctx context.Context, id string, patch TaskPatch) (*models.Task, error) {
	tx, err := r.pgPool.Begin(ctx)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sets := []string{"updated_at = $1"}
	args := []any{patch.UpdatedAt}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.Deadline != nil {
		set("deadline", *patch.Deadline)
	}
	if patch.AssignedTo != nil {
		set("assigned_to", *patch.AssignedTo)
	}
	args = append(args, id)

	updateTaskQuery := fmt.Sprintf(`
UPDATE tasks
SET %s
WHERE id = $%d
`, strings.Join(sets, ",\n    "), len(args))
	tag, err := tx.Exec(ctx, updateTaskQuery, args...)
	if err != nil {
		err = mapPgError(err)
		if !errors.Is(err, ErrNotFound) {
			r.logger.Error().
				Err(err).
				Str("task_id", id).
				Msg("failed to update task")
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if patch.RemoveAttachmentID != "" {
		const deleteAttachmentQuery = `
DELETE FROM task_attachments
WHERE task_id = $1 AND id = $2
`
		tag, err = tx.Exec(ctx, deleteAttachmentQuery, id, patch.RemoveAttachmentID)
		if err != nil {
			err = mapPgError(err)
			if errors.Is(err, ErrNotFound) {
				return nil, ErrAttachmentNotFound
			}
			r.logger.Error().
				Err(err).
				Str("task_id", id).
				Str("attachment_id", patch.RemoveAttachmentID).
				Msg("failed to delete attachment")
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrAttachmentNotFound
		}
	}

	for _, a := range patch.AppendAttachments {
		err = r.appendAttachment(ctx, tx, id, a)
		if err != nil {
			return nil, err
		}
	}

	task, err := r.findByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	r.logger.Debug().
		Str("task_id", id).
		Msg("updated task")
	return task, nil
}

func (r *PostgresTaskRepository) Delete(ctx context.Context, id string) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`
	tag, err := r.pgPool.Exec(ctx, deleteTaskQuery, id)
	if err != nil {
		err = mapPgError(err)
		if !errors.Is(err, ErrNotFound) {
			r.logger.Error().
				Err(err).
				Str("task_id", id).
				Msg("failed to delete task")
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	r.logger.Debug().
		Str("task_id", id).
		Msg("deleted task")
	return nil
}

func (r *PostgresTaskRepository) ListStorageKeys(ctx context.Context) ([]string, error) {
	const selectStorageKeysQuery = `
SELECT storage_key
FROM task_attachments
`
	rows, err := r.pgPool.Query(ctx, selectStorageKeysQuery)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to select storage keys")
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *PostgresTaskRepository) appendAttachment(ctx context.Context, q querier, taskID string, a models.Attachment) error {
	const insertAttachmentQuery = `
INSERT INTO task_attachments (id,
                              task_id,
                              position,
                              filename,
                              storage_key,
                              uploaded_at)
SELECT $1, $2, COALESCE(MAX(position), -1) + 1, $3, $4, $5
FROM task_attachments
WHERE task_id = $2
`
	_, err := q.Exec(
		ctx,
		insertAttachmentQuery,
		a.ID,
		taskID,
		a.Filename,
		a.StorageKey,
		a.UploadedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Str("attachment_id", a.ID).
			Msg("failed to insert attachment")
		return mapPgError(err)
	}
	return nil
}

func (r *PostgresTaskRepository) loadAttachments(ctx context.Context, q querier, taskIDs []string) (map[string][]models.Attachment, error) {
	const selectAttachmentsQuery = `
SELECT task_id,
       id,
       filename,
       storage_key,
       uploaded_at
FROM task_attachments
WHERE task_id = ANY($1)
ORDER BY task_id, position
`
	rows, err := q.Query(ctx, selectAttachmentsQuery, taskIDs)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to select attachments")
		return nil, err
	}
	defer rows.Close()

	byTask := make(map[string][]models.Attachment, len(taskIDs))
	for rows.Next() {
		var taskID string
		var a models.Attachment
		err = rows.Scan(
			&taskID,
			&a.ID,
			&a.Filename,
			&a.StorageKey,
			&a.UploadedAt,
		)
		if err != nil {
			r.logger.Error().
				Err(err).
				Msg("failed to scan attachment")
			return nil, err
		}
		byTask[taskID] = append(byTask[taskID], a)
	}
	return byTask, rows.Err()
}

func scanTask(row pgx.Row) (*models.Task, error) {
	task := new(models.Task)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Deadline,
		&task.AssignedTo,
		&task.CreatedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// mapPgError translates driver errors into repository errors.
func mapPgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.ForeignKeyViolation:
		// the task was deleted while an attachment was being added
		return ErrNotFound
	case pgerrcode.CheckViolation,
		pgerrcode.NotNullViolation,
		pgerrcode.UniqueViolation,
		pgerrcode.StringDataRightTruncationDataException:
		return fmt.Errorf("%w: %s", ErrConstraint, pgErr.ConstraintName)
	default:
		return err
	}
}

type PostgresUserDirectory struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

var _ UserDirectory = (*PostgresUserDirectory)(nil)

func NewPostgresUserDirectory(logger zerolog.Logger, pgPool *pgxpool.Pool) *PostgresUserDirectory {
	return &PostgresUserDirectory{
		logger: logger,
		pgPool: pgPool,
	}
}

func (d *PostgresUserDirectory) ResolveUsers(ctx context.Context, ids []string) (map[string]models.UserRef, error) {
	refs := make(map[string]models.UserRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}

	const selectUsersQuery = `
SELECT id::text,
       name,
       email
FROM users
WHERE id::text = ANY($1)
`
	rows, err := d.pgPool.Query(ctx, selectUsersQuery, ids)
	if err != nil {
		d.logger.Error().
			Err(err).
			Msg("failed to select users")
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u models.UserRef
		err = rows.Scan(&u.ID, &u.Name, &u.Email)
		if err != nil {
			d.logger.Error().
				Err(err).
				Msg("failed to scan user")
			return nil, err
		}
		refs[u.ID] = u
	}
	return refs, rows.Err()
}

// CheckSchema reports an error when the users table the directory reads
// from is missing. The table is owned by the identity service.
func (d *PostgresUserDirectory) CheckSchema(ctx context.Context) error {
	var exists bool
	err := d.pgPool.QueryRow(ctx, `SELECT to_regclass('users') IS NOT NULL`).Scan(&exists)
	if err != nil {
		d.logger.Error().
			Err(err).
			Msg("failed to look up users table")
		return fmt.Errorf("check users schema: %w", err)
	}
	if !exists {
		return ErrUsersTableMissing
	}
	return nil
}

func (d *PostgresUserDirectory) ListUsers(ctx context.Context, offset, limit int) ([]models.UserRef, int64, error) {
	offset, limit = normalizeWindow(offset, limit)

	var total int64
	err := d.pgPool.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&total)
	if err != nil {
		d.logger.Error().
			Err(err).
			Msg("failed to count users")
		return nil, 0, err
	}

	const selectUsersPageQuery = `
SELECT id::text,
       name,
       email
FROM users
ORDER BY name, id::text
LIMIT $1 OFFSET $2
`
	rows, err := d.pgPool.Query(ctx, selectUsersPageQuery, limit, offset)
	if err != nil {
		d.logger.Error().
			Err(err).
			Msg("failed to select users")
		return nil, 0, err
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.UserRef, error) {
		var u models.UserRef
		err := row.Scan(&u.ID, &u.Name, &u.Email)
		return u, err
	})
	if err != nil {
		d.logger.Error().
			Err(err).
			Msg("failed to scan users")
		return nil, 0, err
	}
	return users, total, nil
}
