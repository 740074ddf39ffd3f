package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numkem/sqlscript"
	"github.com/numkem/sqlscript/store"
)

func testRepository(t *testing.T) (*Repository, string) {
	t.Helper()

	dir := t.TempDir()
	ix, err := Load(context.Background(), store.NewJSONMetadataStore(filepath.Join(dir, "scripts_metadata.json")))
	require.NoError(t, err)

	return NewRepository(ix, store.NewFileBodyStore(dir)), dir
}

func TestRepositoryResolveInline(t *testing.T) {
	repo, _ := testRepository(t)
	ctx := context.Background()

	_, err := repo.Add(ctx, &sqlscript.ScriptRecord{
		Name:     "get_user",
		Category: "selects",
	}, "SELECT * FROM users WHERE id = :id", true)
	assert.Nil(t, err)

	text, err := repo.ResolveName(ctx, "get_user")
	assert.Nil(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE id = :id", text)
}

func TestRepositoryAddFileBacked(t *testing.T) {
	repo, dir := testRepository(t)
	ctx := context.Background()

	added, err := repo.Add(ctx, &sqlscript.ScriptRecord{
		Name:     "Get User",
		Category: "selects",
	}, "SELECT 1", false)
	assert.Nil(t, err)

	// The body lands at the path derived from category and slugged name
	assert.Equal(t, sqlscript.FileRef{Path: filepath.Join("selects", "get_user.sql")}, added.Body)

	data, err := os.ReadFile(filepath.Join(dir, "selects", "get_user.sql"))
	assert.Nil(t, err)
	assert.Equal(t, "SELECT 1", string(data))

	text, err := repo.Resolve(ctx, added)
	assert.Nil(t, err)
	assert.Equal(t, "SELECT 1", text)
}

func TestRepositoryAddDuplicateLeavesBodyIntact(t *testing.T) {
	repo, dir := testRepository(t)
	ctx := context.Background()

	_, err := repo.Add(ctx, &sqlscript.ScriptRecord{
		Name:     "get_user",
		Category: "selects",
	}, "SELECT 1", false)
	assert.Nil(t, err)

	// Same name, same category: the existing body file must not be touched
	_, err = repo.Add(ctx, &sqlscript.ScriptRecord{
		Name:     "get_user",
		Category: "selects",
	}, "DROP TABLE users", false)
	var dup *sqlscript.DuplicateNameError
	assert.ErrorAs(t, err, &dup)

	text, err := repo.ResolveName(ctx, "get_user")
	assert.Nil(t, err)
	assert.Equal(t, "SELECT 1", text)

	// Same name, different category: no orphan body file appears
	_, err = repo.Add(ctx, &sqlscript.ScriptRecord{
		Name:     "get_user",
		Category: "other",
	}, "SELECT 2", false)
	assert.ErrorAs(t, err, &dup)

	_, err = os.Stat(filepath.Join(dir, "other", "get_user.sql"))
	assert.True(t, os.IsNotExist(err))

	// Inline duplicates are rejected the same way
	_, err = repo.Add(ctx, &sqlscript.ScriptRecord{
		Name:     "get_user",
		Category: "selects",
	}, "SELECT 3", true)
	assert.ErrorAs(t, err, &dup)

	assert.Equal(t, 1, repo.Index().Len())
}

func TestRepositoryResolveDanglingFile(t *testing.T) {
	repo, dir := testRepository(t)
	ctx := context.Background()

	added, err := repo.Add(ctx, &sqlscript.ScriptRecord{
		Name:     "get_user",
		Category: "selects",
	}, "SELECT 1", false)
	assert.Nil(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "selects", "get_user.sql")))

	_, err = repo.Resolve(ctx, added)
	var notFound *sqlscript.BodyNotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, "get_user", notFound.Name)
}

func TestRepositoryStoreUpdatesContent(t *testing.T) {
	repo, _ := testRepository(t)
	ctx := context.Background()

	added, err := repo.Add(ctx, &sqlscript.ScriptRecord{
		Name:     "get_user",
		Category: "selects",
	}, "SELECT 1", false)
	assert.Nil(t, err)

	updated, err := repo.Store(ctx, "get_user", "SELECT 2")
	assert.Nil(t, err)
	assert.Equal(t, added.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(added.UpdatedAt) || updated.UpdatedAt.Equal(added.UpdatedAt))

	text, err := repo.ResolveName(ctx, "get_user")
	assert.Nil(t, err)
	assert.Equal(t, "SELECT 2", text)

	// Overwriting with the same content is idempotent
	_, err = repo.Store(ctx, "get_user", "SELECT 2")
	assert.Nil(t, err)
	text, err = repo.ResolveName(ctx, "get_user")
	assert.Nil(t, err)
	assert.Equal(t, "SELECT 2", text)
}

func TestRepositoryRemoveWithBody(t *testing.T) {
	repo, dir := testRepository(t)
	ctx := context.Background()

	_, err := repo.Add(ctx, &sqlscript.ScriptRecord{
		Name:     "get_user",
		Category: "selects",
	}, "SELECT 1", false)
	assert.Nil(t, err)

	outcome, err := repo.Remove(ctx, "get_user", true)
	assert.Nil(t, err)
	assert.Nil(t, outcome.BodyErr)

	_, err = os.Stat(filepath.Join(dir, "selects", "get_user.sql"))
	assert.True(t, os.IsNotExist(err))
}

func TestRepositoryRemoveBodyFailureKeepsMetadataRemoval(t *testing.T) {
	repo, dir := testRepository(t)
	ctx := context.Background()

	_, err := repo.Add(ctx, &sqlscript.ScriptRecord{
		Name:     "get_user",
		Category: "selects",
	}, "SELECT 1", false)
	assert.Nil(t, err)

	// Delete the body out from under the repository so the file deletion fails
	require.NoError(t, os.Remove(filepath.Join(dir, "selects", "get_user.sql")))

	outcome, err := repo.Remove(ctx, "get_user", true)
	assert.Nil(t, err)
	assert.NotNil(t, outcome.BodyErr)

	// The metadata removal still went through
	_, err = repo.Index().FindByName("get_user")
	var notFound *sqlscript.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestRepositoryRemoveUnknown(t *testing.T) {
	repo, _ := testRepository(t)

	_, err := repo.Remove(context.Background(), "missing", false)
	var notFound *sqlscript.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
