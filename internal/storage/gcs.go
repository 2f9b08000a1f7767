package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStore keeps objects in a Google Cloud Storage bucket.
type GCSStore struct {
	logger zerolog.Logger
	client *gcs.Client
	bucket *gcs.BucketHandle
}

func NewGCSStore(ctx context.Context, logger zerolog.Logger, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}
	return &GCSStore{
		logger: logger,
		client: client,
		bucket: client.Bucket(bucket),
	}, nil
}

func (s *GCSStore) Put(ctx context.Context, data []byte, filename string) (string, error) {
	key, err := newKey(filename)
	if err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}

	w := s.bucket.Object(key).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	_, err = w.Write(data)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
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

func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	err := validateKey(key)
	if err != nil {
		return nil, err
	}

	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		s.logger.Error().
			Err(err).
			Str("storage_key", key).
			Msg("failed to open object")
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return io.ReadAll(r)
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := validateKey(key)
	if err != nil {
		return err
	}

	err = s.bucket.Object(key).Delete(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
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

func (s *GCSStore) List(ctx context.Context) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	it := s.bucket.Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		if validateKey(attrs.Name) != nil {
			continue
		}
		objects = append(objects, ObjectInfo{
			Key:     attrs.Name,
			Size:    attrs.Size,
			ModTime: attrs.Created,
		})
	}
	return objects, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
