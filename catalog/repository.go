package catalog

import (
	"context"
	"errors"
	"io/fs"

	log "github.com/sirupsen/logrus"

	"github.com/numkem/sqlscript"
	"github.com/numkem/sqlscript/store"
)

// Repository couples the metadata index to body storage and resolves records
// to executable SQL text.
type Repository struct {
	index  *Index
	bodies store.BodyStore
}

func NewRepository(index *Index, bodies store.BodyStore) *Repository {
	return &Repository{
		index:  index,
		bodies: bodies,
	}
}

// Index exposes the underlying metadata index for read operations.
func (r *Repository) Index() *Index {
	return r.index
}

// Resolve returns the full SQL text of a record. A dangling file reference
// surfaces as BodyNotFoundError, any other read failure as BodyReadError;
// neither is ever swallowed into an empty script.
func (r *Repository) Resolve(ctx context.Context, rec *sqlscript.ScriptRecord) (string, error) {
	switch body := rec.Body.(type) {
	case sqlscript.InlineBody:
		return body.Text, nil
	case sqlscript.FileRef:
		text, err := r.bodies.Read(ctx, body.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", &sqlscript.BodyNotFoundError{Name: rec.Name, Path: body.Path}
			}

			return "", &sqlscript.BodyReadError{Name: rec.Name, Path: body.Path, Err: err}
		}

		return text, nil
	default:
		return "", &sqlscript.BodyNotFoundError{Name: rec.Name}
	}
}

// ResolveName looks the name up in the index and resolves its body.
func (r *Repository) ResolveName(ctx context.Context, name string) (string, error) {
	rec, err := r.index.FindByName(name)
	if err != nil {
		return "", err
	}

	return r.Resolve(ctx, rec)
}

// Add catalogs a new script and stores its body. When inline is false the
// body is written to a file under the category directory, at a path derived
// from the script's name. The name is checked against the index before any
// body file is touched, so a duplicate add never disturbs the stored body of
// the existing script.
func (r *Repository) Add(ctx context.Context, rec *sqlscript.ScriptRecord, content string, inline bool) (*sqlscript.ScriptRecord, error) {
	if _, err := r.index.FindByName(rec.Name); err == nil {
		return nil, &sqlscript.DuplicateNameError{Name: rec.Name}
	}

	if inline {
		rec.Body = sqlscript.InlineBody{Text: content}
	} else {
		path := sqlscript.BodyPath(rec.Category, rec.Name)
		if err := r.bodies.Write(ctx, path, content); err != nil {
			return nil, err
		}
		rec.Body = sqlscript.FileRef{Path: path}
	}

	stored, err := r.index.Add(ctx, rec)
	if err != nil {
		// Don't leave an orphan body file behind a failed insert
		if ref, ok := rec.Body.(sqlscript.FileRef); ok {
			if derr := r.bodies.Delete(ctx, ref.Path); derr != nil {
				log.Warnf("failed to clean up body file %s after failed add of %q: %v", ref.Path, rec.Name, derr)
			}
		}

		return nil, err
	}

	return stored, nil
}

// Store replaces the body content of an existing record and bumps its
// UpdatedAt. Overwrites of file-backed bodies are idempotent.
func (r *Repository) Store(ctx context.Context, name string, content string) (*sqlscript.ScriptRecord, error) {
	rec, err := r.index.FindByName(name)
	if err != nil {
		return nil, err
	}

	switch body := rec.Body.(type) {
	case sqlscript.InlineBody:
		rec.Body = sqlscript.InlineBody{Text: content}
	case sqlscript.FileRef:
		if err := r.bodies.Write(ctx, body.Path, content); err != nil {
			return nil, err
		}
	}

	return r.index.Update(ctx, rec)
}

// RemoveOutcome reports the two independent halves of a removal.
type RemoveOutcome struct {
	Record *sqlscript.ScriptRecord
	// BodyErr is set when body deletion was requested and failed. Metadata
	// removal succeeds regardless; the two are not under one transaction.
	BodyErr error
}

// Remove deletes the record from the index. When deleteBody is set and the
// record is file-backed, the body file is deleted as part of the same logical
// operation; a body deletion failure does not undo the metadata removal and
// is reported through the outcome instead.
func (r *Repository) Remove(ctx context.Context, name string, deleteBody bool) (*RemoveOutcome, error) {
	rec, err := r.index.Remove(ctx, name)
	if err != nil {
		return nil, err
	}

	outcome := &RemoveOutcome{Record: rec}
	if deleteBody {
		if ref, ok := rec.Body.(sqlscript.FileRef); ok {
			if err := r.bodies.Delete(ctx, ref.Path); err != nil {
				log.Warnf("script %q removed but its body file %s was not deleted: %v", name, ref.Path, err)
				outcome.BodyErr = err
			}
		}
	}

	return outcome, nil
}
