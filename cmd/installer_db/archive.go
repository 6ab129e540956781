package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/installer-provisioning-backend/interfaces"
	"github.com/ruteri/installer-provisioning-backend/storage"
)

// fetchArchivedScript reads the script with the given archive id from the
// first of the archive locations that holds it.
func fetchArchivedScript(ctx context.Context, uris []string, idHex string, log *slog.Logger) ([]byte, error) {
	id, err := interfaces.NewContentIDFromHex(idHex)
	if err != nil {
		return nil, fmt.Errorf("invalid script id %q: %w", idHex, err)
	}

	locations, err := storage.ParseLocations(uris)
	if err != nil {
		return nil, err
	}
	archive, err := storage.NewStorageBackendFactory(log).CreateMultiBackend(locations)
	if err != nil {
		return nil, err
	}

	script, err := archive.Fetch(ctx, id, interfaces.ScriptType)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch script %s: %w", id, err)
	}
	return script, nil
}
