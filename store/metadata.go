package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/numkem/sqlscript"
)

// IOError wraps a filesystem failure in the persistence layer.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// metadataFile is the on-disk envelope around the record collection.
type metadataFile struct {
	Scripts []*sqlscript.ScriptRecord `json:"scripts"`
}

// JSONMetadataStore keeps the whole catalog in a single JSON file, rewritten
// in full on every Save.
type JSONMetadataStore struct {
	path string
}

func NewJSONMetadataStore(path string) *JSONMetadataStore {
	return &JSONMetadataStore{path: path}
}

// Load reads the whole collection into memory. A missing file is an empty
// catalog, not an error.
func (s *JSONMetadataStore) Load(ctx context.Context) ([]*sqlscript.ScriptRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("metadata file %s doesn't exist yet, starting empty", s.path)
			return nil, nil
		}

		return nil, &IOError{Op: "read", Path: s.path, Err: err}
	}

	var mf metadataFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, &IOError{Op: "decode", Path: s.path, Err: err}
	}

	log.Debugf("Loaded %d scripts from %s", len(mf.Scripts), s.path)
	return mf.Scripts, nil
}

// Save rewrites the metadata file with the full collection.
func (s *JSONMetadataStore) Save(ctx context.Context, records []*sqlscript.ScriptRecord) error {
	data, err := json.MarshalIndent(metadataFile{Scripts: records}, "", "  ")
	if err != nil {
		return &IOError{Op: "encode", Path: s.path, Err: err}
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &IOError{Op: "create directory", Path: dir, Err: err}
		}
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}

	log.Debugf("Saved %d scripts to %s", len(records), s.path)
	return nil
}
