package catalog

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/numkem/sqlscript"
	"github.com/numkem/sqlscript/store"
)

// Index is the authoritative in-memory name to record table, hydrated from a
// MetadataStore and flushed back in full after every mutation. It is the sole
// owner of the name-uniqueness invariant; callers only ever see copies of the
// stored records.
//
// The index is not safe for concurrent mutation; callers sharing one instance
// must serialize Add/Update/Remove themselves.
type Index struct {
	meta    store.MetadataStore
	records []*sqlscript.ScriptRecord
	byName  map[string]*sqlscript.ScriptRecord
}

// Load hydrates an Index from persisted storage.
func Load(ctx context.Context, meta store.MetadataStore) (*Index, error) {
	records, err := meta.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load script metadata: %v", err)
	}

	byName := make(map[string]*sqlscript.ScriptRecord, len(records))
	for _, rec := range records {
		if _, found := byName[rec.Name]; found {
			return nil, fmt.Errorf("metadata contains duplicate script name %q", rec.Name)
		}
		byName[rec.Name] = rec
	}

	log.Debugf("Index loaded with %d scripts", len(records))

	return &Index{
		meta:    meta,
		records: records,
		byName:  byName,
	}, nil
}

// Add inserts a new record and flushes the index. The stored copy is
// returned with its timestamps set.
func (ix *Index) Add(ctx context.Context, rec *sqlscript.ScriptRecord) (*sqlscript.ScriptRecord, error) {
	if _, found := ix.byName[rec.Name]; found {
		return nil, &sqlscript.DuplicateNameError{Name: rec.Name}
	}

	stored := rec.Clone()
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	ix.records = append(ix.records, stored)
	ix.byName[stored.Name] = stored

	if err := ix.save(ctx); err != nil {
		// Keep memory consistent with disk: undo the insertion
		ix.records = ix.records[:len(ix.records)-1]
		delete(ix.byName, stored.Name)
		return nil, err
	}

	log.Debugf("Script %q added to category %q", stored.Name, stored.Category)
	return stored.Clone(), nil
}

// Update replaces the stored record of the same name, bumps UpdatedAt and
// flushes the index.
func (ix *Index) Update(ctx context.Context, rec *sqlscript.ScriptRecord) (*sqlscript.ScriptRecord, error) {
	current, found := ix.byName[rec.Name]
	if !found {
		return nil, &sqlscript.NotFoundError{Name: rec.Name}
	}

	previous := current.Clone()
	updated := rec.Clone()
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	*current = *updated

	if err := ix.save(ctx); err != nil {
		*current = *previous
		return nil, err
	}

	return current.Clone(), nil
}

// FindByName returns the record with the exact, case-sensitive name.
func (ix *Index) FindByName(name string) (*sqlscript.ScriptRecord, error) {
	rec, found := ix.byName[name]
	if !found {
		return nil, &sqlscript.NotFoundError{Name: name}
	}

	return rec.Clone(), nil
}

// FindByCategory returns the records whose category matches exactly, in
// insertion order. The sequence is lazy and restartable; no match yields an
// empty sequence, not an error.
func (ix *Index) FindByCategory(category string) iter.Seq[*sqlscript.ScriptRecord] {
	return func(yield func(*sqlscript.ScriptRecord) bool) {
		for _, rec := range ix.records {
			if rec.Category != category {
				continue
			}
			if !yield(rec.Clone()) {
				return
			}
		}
	}
}

// All returns every record in insertion order.
func (ix *Index) All() iter.Seq[*sqlscript.ScriptRecord] {
	return func(yield func(*sqlscript.ScriptRecord) bool) {
		for _, rec := range ix.records {
			if !yield(rec.Clone()) {
				return
			}
		}
	}
}

// Categories returns the sorted set of category names in use.
func (ix *Index) Categories() []string {
	seen := make(map[string]bool)
	var categories []string
	for _, rec := range ix.records {
		if !seen[rec.Category] {
			seen[rec.Category] = true
			categories = append(categories, rec.Category)
		}
	}

	slices.Sort(categories)
	return categories
}

// Len returns the number of cataloged scripts.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Remove deletes the record by name and flushes the index. The removed
// record is returned so callers can clean up its body storage.
func (ix *Index) Remove(ctx context.Context, name string) (*sqlscript.ScriptRecord, error) {
	rec, found := ix.byName[name]
	if !found {
		return nil, &sqlscript.NotFoundError{Name: name}
	}

	pos := slices.Index(ix.records, rec)
	ix.records = slices.Delete(ix.records, pos, pos+1)
	delete(ix.byName, name)

	if err := ix.save(ctx); err != nil {
		ix.records = slices.Insert(ix.records, pos, rec)
		ix.byName[name] = rec
		return nil, err
	}

	log.Debugf("Script %q removed", name)
	return rec.Clone(), nil
}

func (ix *Index) save(ctx context.Context) error {
	if err := ix.meta.Save(ctx, ix.records); err != nil {
		return fmt.Errorf("failed to save script metadata: %v", err)
	}

	return nil
}
