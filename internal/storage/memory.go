package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryObject struct {
	data    []byte
	modTime time.Time
}

// MemoryStore keeps objects in a map. It backs local runs without a
// writable disk and the service tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string]memoryObject{}}
}

func (s *MemoryStore) Put(_ context.Context, data []byte, filename string) (string, error) {
	key, err := newKey(filename)
	if err != nil {
		return "", err
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{data: buf, modTime: time.Now()}
	return key, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)
	return buf, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return ErrObjectNotFound
	}
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects := make([]ObjectInfo, 0, len(s.objects))
	for key, obj := range s.objects {
		objects = append(objects, ObjectInfo{
			Key:     key,
			Size:    int64(len(obj.data)),
			ModTime: obj.modTime,
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
