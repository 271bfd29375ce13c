package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"crm_search_backend/internal/entities"
	"crm_search_backend/internal/entities/snapshot"
	"crm_search_backend/platform/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// loadStore hydrates a store from --snapshot or, without it, from the MinIO
// snapshot object configured in the environment.
func loadStore(cmd *cobra.Command) (*entities.Store, error) {
	path, _ := cmd.Flags().GetString("snapshot")

	var loader entities.Loader
	if path != "" {
		loader = snapshot.NewFileLoader(path)
	} else {
		bucket, err := snapshot.NewBucket(minioConfigFromEnv())
		if err != nil {
			return nil, fmt.Errorf("no --snapshot given and %w", err)
		}
		loader = bucket
	}

	data, err := loader.Load(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("loading snapshot from %s: %w", loader.Name(), err)
	}
	store := entities.NewStore(nil)
	store.Replace(context.WithoutCancel(cmd.Context()), loader.Name(), data)
	return store, nil
}

func minioConfigFromEnv() *config.Config {
	_ = godotenv.Load()
	return &config.Config{
		MinIOEndpoint:        os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey:       os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:       os.Getenv("MINIO_SECRET_KEY"),
		MinIOUseSSL:          strings.EqualFold(os.Getenv("MINIO_USE_SSL"), "true"),
		MinioBucketSnapshots: envOr("MINIO_BUCKET_SNAPSHOTS", "crm-snapshots"),
		SnapshotObjectKey:    envOr("SNAPSHOT_OBJECT_KEY", "entities/latest.json"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
