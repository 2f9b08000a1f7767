package app

import (
	"context"

	"google.golang.org/api/option"

	"github.com/adanyl0v/go-task-assign/internal/config"
	"github.com/adanyl0v/go-task-assign/internal/storage"
)

var (
	globalAttachmentStore storage.Store
	globalGCSStore        *storage.GCSStore
)

func MustOpenAttachmentStore() {
	cfg := config.Global().Attachments

	switch cfg.Driver {
	case config.AttachmentsGCS:
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}

		store, err := storage.NewGCSStore(context.Background(), component("gcs"), cfg.Bucket, opts...)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("bucket", cfg.Bucket).
				Msg("failed to open gcs attachment store")
			panic(err)
		}
		globalGCSStore = store
		globalAttachmentStore = store
	case config.AttachmentsMemory:
		globalAttachmentStore = storage.NewMemoryStore()
	default:
		store, err := storage.NewLocalStore(component("storage"), cfg.Dir)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("dir", cfg.Dir).
				Msg("failed to open local attachment store")
			panic(err)
		}
		globalAttachmentStore = store
	}

	globalLogger.Info().
		Str("driver", cfg.Driver).
		Msg("opened attachment store")
}

func CloseAttachmentStore() {
	if globalGCSStore == nil {
		return
	}
	err := globalGCSStore.Close()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to close gcs client")
	}
}
