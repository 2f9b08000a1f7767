package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/adanyl0v/go-task-assign/internal/models"
	"github.com/adanyl0v/go-task-assign/internal/storage"
)

// storeFiles writes every file concurrently and waits for all of them.
// If any write fails, the files that were stored are deleted again and
// no attachment is returned.
func (s *taskMutationServiceImpl) storeFiles(ctx context.Context, files []FilePayload) ([]models.Attachment, error) {
	if len(files) == 0 {
		return nil, nil
	}

	attachments := make([]models.Attachment, len(files))
	var g errgroup.Group
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}

			key, err := s.store.Put(ctx, f.Data, f.Filename)
			if err != nil {
				return &StorageError{Op: "put", Err: err}
			}
			attachments[i] = models.Attachment{
				ID:         id.String(),
				Filename:   f.Filename,
				StorageKey: key,
				UploadedAt: time.Now().UTC(),
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("files", len(files)).
			Msg("failed to store attachments")
		s.rollback(ctx, attachments)
		return nil, err
	}

	s.logger.Debug().
		Int("files", len(files)).
		Msg("stored attachments")
	return attachments, nil
}

// rollback deletes the objects of attachments stored by a failed request.
// Entries without a storage key were never stored.
func (s *taskMutationServiceImpl) rollback(ctx context.Context, attachments []models.Attachment) {
	for _, a := range attachments {
		if a.StorageKey == "" {
			continue
		}

		err := s.store.Delete(ctx, a.StorageKey)
		if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Error().
				Err(err).
				Str("storage_key", a.StorageKey).
				Msg("failed to roll back stored attachment")
			continue
		}
		s.logger.Debug().
			Str("storage_key", a.StorageKey).
			Msg("rolled back stored attachment")
	}
}

// deleteObject treats an object that is already gone as deleted.
func (s *taskMutationServiceImpl) deleteObject(ctx context.Context, key string) error {
	err := s.store.Delete(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}
