package store

import (
	"context"

	"github.com/numkem/sqlscript"
)

// MetadataStore persists the full ordered collection of script records. The
// collection is read entirely at load time and rewritten in full on every
// mutation; there is no incremental persistence.
type MetadataStore interface {
	Load(ctx context.Context) ([]*sqlscript.ScriptRecord, error)
	Save(ctx context.Context, records []*sqlscript.ScriptRecord) error
}

// BodyStore reads and writes file-backed script bodies. Paths are relative to
// the store's root directory.
type BodyStore interface {
	Read(ctx context.Context, path string) (string, error)
	Write(ctx context.Context, path string, text string) error
	Delete(ctx context.Context, path string) error
}
