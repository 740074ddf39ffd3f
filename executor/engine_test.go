package executor

import (
	"context"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numkem/sqlscript"
	"github.com/numkem/sqlscript/catalog"
	"github.com/numkem/sqlscript/store"
)

func testEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	ix, err := catalog.Load(ctx, store.NewJSONMetadataStore(filepath.Join(dir, "scripts_metadata.json")))
	require.NoError(t, err)
	repo := catalog.NewRepository(ix, store.NewFileBodyStore(dir))

	db, err := Connect(ctx, "sqlite3", filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, status TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users (id, name, status) VALUES (1, 'alice', 'active'), (2, 'bob', 'active')`)
	require.NoError(t, err)

	scripts := []struct {
		name     string
		category string
		content  string
		inline   bool
	}{
		{"get_user", "selects", "SELECT * FROM users WHERE id = :id", true},
		{"count_users", "selects", "SELECT COUNT(*) AS n FROM users", false},
		{"deactivate_user", "updates", "UPDATE users SET status = 'inactive' WHERE id = :id", true},
		{"bad_script", "updates", "UPDATE users SET status = :missing_key WHERE id = 1", true},
		{"dupe_user", "inserts", "INSERT INTO users (id, name, status) VALUES (1, 'dup', 'active')", true},
	}
	for _, s := range scripts {
		_, err := repo.Add(ctx, &sqlscript.ScriptRecord{
			Name:     s.name,
			Category: s.category,
		}, s.content, s.inline)
		require.NoError(t, err)
	}

	return NewEngine(repo, db, opts...)
}

func userStatus(t *testing.T, e *Engine, id int) string {
	t.Helper()

	rows, err := e.ExecuteByName(context.Background(), "get_user", Params{"id": id})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	return rows[0]["status"].(string)
}

func TestExecuteByNameSelect(t *testing.T) {
	e := testEngine(t)

	rows, err := e.ExecuteByName(context.Background(), "get_user", Params{"id": 1})
	assert.Nil(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0]["name"])
	assert.Equal(t, int64(1), rows[0]["id"])
}

func TestExecuteByNameFileBackedBody(t *testing.T) {
	e := testEngine(t)

	rows, err := e.ExecuteByName(context.Background(), "count_users", nil)
	assert.Nil(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0]["n"])
}

func TestExecuteByNameWriteReturnsNoRows(t *testing.T) {
	e := testEngine(t)

	rows, err := e.ExecuteByName(context.Background(), "deactivate_user", Params{"id": 2})
	assert.Nil(t, err)
	assert.Empty(t, rows)

	assert.Equal(t, "inactive", userStatus(t, e, 2))
}

func TestExecuteByNameUnknownScript(t *testing.T) {
	e := testEngine(t)

	_, err := e.ExecuteByName(context.Background(), "missing", nil)
	var notFound *sqlscript.ScriptNotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Name)
}

func TestExecuteByNameMissingParameter(t *testing.T) {
	e := testEngine(t)

	_, err := e.ExecuteByName(context.Background(), "get_user", Params{})
	var bindErr *sqlscript.ParameterBindingError
	assert.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "id", bindErr.Key)
}

func TestExecuteSQL(t *testing.T) {
	e := testEngine(t)

	rows, err := e.ExecuteSQL(context.Background(), "SELECT name FROM users WHERE id = ?", Params{"param_0": 2})
	assert.Nil(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "bob", rows[0]["name"])
}

func TestExecuteFromCategory(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	// Scripts in a category run by insertion-order index
	rows, err := e.ExecuteFromCategory(ctx, "selects", 0, Params{"id": 1})
	assert.Nil(t, err)
	assert.Len(t, rows, 1)

	_, err = e.ExecuteFromCategory(ctx, "selects", 5, nil)
	assert.NotNil(t, err)

	_, err = e.ExecuteFromCategory(ctx, "nope", 0, nil)
	assert.NotNil(t, err)
}

func TestExecuteTransactionCommit(t *testing.T) {
	e := testEngine(t)

	ok, err := e.ExecuteTransaction(context.Background(),
		[]string{"deactivate_user", "get_user"},
		[]Params{{"id": 1}, {"id": 1}})
	assert.Nil(t, err)
	assert.True(t, ok)

	assert.Equal(t, "inactive", userStatus(t, e, 1))
}

func TestExecuteTransactionRollback(t *testing.T) {
	e := testEngine(t)

	// bad_script references a placeholder with no bound value, so the
	// second step must fail and undo the first
	ok, err := e.ExecuteTransaction(context.Background(),
		[]string{"deactivate_user", "bad_script"},
		[]Params{{"id": 1}, {}})
	assert.Nil(t, err)
	assert.False(t, ok)

	assert.Equal(t, "active", userStatus(t, e, 1))
}

func TestExecuteSQLReturningClause(t *testing.T) {
	e := testEngine(t)

	rows, err := e.ExecuteSQL(context.Background(),
		"UPDATE users SET status = 'inactive' WHERE id = :id RETURNING name", Params{"id": 1})
	assert.Nil(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0]["name"])

	assert.Equal(t, "inactive", userStatus(t, e, 1))
}

func TestExecuteSQLDriverError(t *testing.T) {
	e := testEngine(t)

	_, err := e.ExecuteSQL(context.Background(), "SELECT * FROM no_such_table", nil)
	var execErr *sqlscript.ExecutionError
	assert.ErrorAs(t, err, &execErr)
	assert.Equal(t, "ad-hoc", execErr.Script)
}

func TestExecuteTransactionRollbackOnDriverError(t *testing.T) {
	e := testEngine(t)

	// The primary key conflict surfaces from the driver mid-transaction
	ok, err := e.ExecuteTransaction(context.Background(),
		[]string{"deactivate_user", "dupe_user"},
		[]Params{{"id": 1}, {}})
	assert.Nil(t, err)
	assert.False(t, ok)

	assert.Equal(t, "active", userStatus(t, e, 1))
}

func TestExecuteTransactionStrictReturnsTrigger(t *testing.T) {
	e := testEngine(t, WithStrictErrors())

	ok, err := e.ExecuteTransaction(context.Background(),
		[]string{"deactivate_user", "bad_script"},
		[]Params{{"id": 1}, {}})
	assert.False(t, ok)

	var bindErr *sqlscript.ParameterBindingError
	assert.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "bad_script", bindErr.Script)

	assert.Equal(t, "active", userStatus(t, e, 1))
}

func TestExecuteTransactionArgumentMismatch(t *testing.T) {
	e := testEngine(t)

	ok, err := e.ExecuteTransaction(context.Background(),
		[]string{"deactivate_user", "get_user"},
		[]Params{{"id": 1}})
	assert.False(t, ok)

	var mismatch *sqlscript.ArgumentMismatchError
	assert.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.Scripts)
	assert.Equal(t, 1, mismatch.Params)

	// Nothing ran
	assert.Equal(t, "active", userStatus(t, e, 1))
}

func TestExecuteTransactionUnknownScript(t *testing.T) {
	e := testEngine(t)

	ok, err := e.ExecuteTransaction(context.Background(),
		[]string{"deactivate_user", "missing"},
		[]Params{{"id": 1}, {}})
	assert.False(t, ok)

	var notFound *sqlscript.ScriptNotFoundError
	assert.ErrorAs(t, err, &notFound)

	// Resolution happens before the transaction opens
	assert.Equal(t, "active", userStatus(t, e, 1))
}

func TestExecuteTransactionNilParams(t *testing.T) {
	e := testEngine(t)

	ok, err := e.ExecuteTransaction(context.Background(), []string{"count_users"}, nil)
	assert.Nil(t, err)
	assert.True(t, ok)
}

func TestExecuteByNameCallsAreNotGrouped(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	// An autocommitted write sticks even if a later call fails
	_, err := e.ExecuteByName(ctx, "deactivate_user", Params{"id": 2})
	assert.Nil(t, err)

	_, err = e.ExecuteByName(ctx, "bad_script", Params{})
	assert.NotNil(t, err)

	assert.Equal(t, "inactive", userStatus(t, e, 2))
}

func TestRunStepsAggregatesResults(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	tx, err := e.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	results := e.runSteps(ctx, tx,
		[]string{"get_user", "bad_script", "count_users"},
		[]string{
			"SELECT * FROM users WHERE id = :id",
			"UPDATE users SET status = :missing_key WHERE id = 1",
			"SELECT COUNT(*) AS n FROM users",
		},
		[]Params{{"id": 1}, {}, {}})

	// Execution stops at the first failing step
	require.Len(t, results, 2)
	assert.Nil(t, results[0].Err)
	assert.Len(t, results[0].Rows, 1)
	assert.NotNil(t, results[1].Err)
	assert.Equal(t, results[1].Err, failure(results))
}
