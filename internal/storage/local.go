package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// LocalStore keeps objects as files in a single directory.
type LocalStore struct {
	logger zerolog.Logger
	dir    string
}

func NewLocalStore(logger zerolog.Logger, dir string) (*LocalStore, error) {
	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStore{
		logger: logger,
		dir:    dir,
	}, nil
}

func (s *LocalStore) Put(_ context.Context, data []byte, filename string) (string, error) {
	key, err := newKey(filename)
	if err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to create temp file")
		return "", err
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, filepath.Join(s.dir, key))
	}
	if err != nil {
		_ = os.Remove(tmpName)
		s.logger.Error().
			Err(err).
			Str("storage_key", key).
			Msg("failed to write object")
		return "", err
	}

	s.logger.Debug().
		Str("storage_key", key).
		Int("size", len(data)).
		Msg("stored object")
	return key, nil
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	err := validateKey(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		s.logger.Error().
			Err(err).
			Str("storage_key", key).
			Msg("failed to read object")
		return nil, err
	}
	return data, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	err := validateKey(key)
	if err != nil {
		return err
	}

	err = os.Remove(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrObjectNotFound
		}
		s.logger.Error().
			Err(err).
			Str("storage_key", key).
			Msg("failed to delete object")
		return err
	}

	s.logger.Debug().
		Str("storage_key", key).
		Msg("deleted object")
	return nil
}

func (s *LocalStore) List(_ context.Context) ([]ObjectInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	objects := make([]ObjectInfo, 0, len(entries))
	for _, entry := range entries {
		// Skips directories and in-flight temp files.
		if entry.IsDir() || validateKey(entry.Name()) != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		objects = append(objects, ObjectInfo{
			Key:     entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return objects, nil
}
