package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/adanyl0v/go-task-assign/internal/filter"
	"github.com/adanyl0v/go-task-assign/internal/models"
)

// MemoryTaskRepository keeps tasks in a map guarded by a RWMutex.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: map[string]*models.Task{}}
}

func (r *MemoryTaskRepository) Create(_ context.Context, task *models.Task) (*models.Task, error) {
	err := checkConstraints(task)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; ok {
		return nil, ErrConstraint
	}
	r.tasks[task.ID] = task.Clone()
	return task.Clone(), nil
}

func (r *MemoryTaskRepository) FindByID(_ context.Context, id string) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return task.Clone(), nil
}

func (r *MemoryTaskRepository) FindMany(_ context.Context, params FindManyParams) ([]*models.Task, int64, error) {
	params = params.normalize()

	r.mu.RLock()
	matched := make([]*models.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		if filter.Match(params.Filter, func(f filter.Field) any { return fieldValue(task, f) }) {
			matched = append(matched, task.Clone())
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return less(matched[i], matched[j], params.Sort)
	})

	total := int64(len(matched))
	if params.Offset >= len(matched) {
		return []*models.Task{}, total, nil
	}
	end := params.Offset + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[params.Offset:end], total, nil
}

func less(a, b *models.Task, keys []filter.SortKey) bool {
	for _, k := range keys {
		cmp, ok := filter.Compare(fieldValue(a, k.Field), fieldValue(b, k.Field))
		if !ok || cmp == 0 {
			continue
		}
		if k.Desc {
			return cmp > 0
		}
		return cmp < 0
	}
	return a.ID < b.ID
}

func (r *MemoryTaskRepository) Update(_ context.Context, id string, patch TaskPatch) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}

	updated := task.Clone()
	err := patch.apply(updated)
	if err != nil {
		return nil, err
	}
	r.tasks[id] = updated
	return updated.Clone(), nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryTaskRepository) ListStorageKeys(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var keys []string
	for _, task := range r.tasks {
		for _, a := range task.Attachments {
			keys = append(keys, a.StorageKey)
		}
	}
	return keys, nil
}

// MemoryUserDirectory resolves users from a fixed set.
type MemoryUserDirectory struct {
	mu    sync.RWMutex
	users map[string]models.UserRef
}

func NewMemoryUserDirectory(users ...models.UserRef) *MemoryUserDirectory {
	d := &MemoryUserDirectory{users: make(map[string]models.UserRef, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *MemoryUserDirectory) ResolveUsers(_ context.Context, ids []string) (map[string]models.UserRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	refs := make(map[string]models.UserRef, len(ids))
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			refs[id] = u
		}
	}
	return refs, nil
}

func (d *MemoryUserDirectory) Add(u models.UserRef) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *MemoryUserDirectory) ListUsers(_ context.Context, offset, limit int) ([]models.UserRef, int64, error) {
	offset, limit = normalizeWindow(offset, limit)

	d.mu.RLock()
	users := make([]models.UserRef, 0, len(d.users))
	for _, u := range d.users {
		users = append(users, u)
	}
	d.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})

	total := int64(len(users))
	if offset >= len(users) {
		return []models.UserRef{}, total, nil
	}
	end := len(users)
	if limit < end-offset {
		end = offset + limit
	}
	return users[offset:end], total, nil
}
