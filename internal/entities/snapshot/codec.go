// Package snapshot serializes the entity pool to JSON so it can be exported
// to object storage by the scheduler and loaded by API instances and the CLI.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"crm_search_backend/internal/entities"
)

// FormatVersion is bumped on incompatible layout changes.
const FormatVersion = 1

// Document is the on-disk layout.
type Document struct {
	FormatVersion int       `json:"formatVersion"`
	ExportedAt    time.Time `json:"exportedAt"`
	entities.Data
}

// Encode writes data as a snapshot document.
func Encode(w io.Writer, data entities.Data, exportedAt time.Time) error {
	enc := json.NewEncoder(w)
	return enc.Encode(Document{
		FormatVersion: FormatVersion,
		ExportedAt:    exportedAt.UTC(),
		Data:          data,
	})
}

// Decode reads a snapshot document. Missing collections decode as empty.
func Decode(r io.Reader) (entities.Data, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return entities.Data{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.FormatVersion > FormatVersion {
		return entities.Data{}, fmt.Errorf("snapshot format %d is newer than supported %d", doc.FormatVersion, FormatVersion)
	}
	return doc.Data, nil
}

// FileLoader loads a snapshot from the local filesystem.
type FileLoader struct {
	path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

func (l *FileLoader) Name() string { return "file" }

func (l *FileLoader) Load(_ context.Context) (entities.Data, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return entities.Data{}, err
	}
	defer f.Close()
	return Decode(f)
}

var _ entities.Loader = (*FileLoader)(nil)
