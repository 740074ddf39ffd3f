package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/numkem/sqlscript"
	"github.com/numkem/sqlscript/catalog"
)

const adhocScriptName = "ad-hoc"

// Row is one result row, keyed by column name.
type Row map[string]any

// StepResult is the outcome of one script inside a transaction scope. The
// coordinator aggregates these to decide commit vs rollback.
type StepResult struct {
	Name string
	Rows []Row
	Err  error
}

// dbtx captures the execution surface shared by *sql.DB and *sql.Tx so a
// statement can run either autocommitted or inside a transaction scope.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var (
	_ dbtx = (*sql.DB)(nil)
	_ dbtx = (*sql.Tx)(nil)
)

// Engine resolves cataloged scripts to SQL text, binds parameters and runs
// them against a database. A transaction scope is exclusively owned by the
// ExecuteTransaction call that opened it; separate ExecuteByName calls are
// never implicitly grouped.
type Engine struct {
	repo   *catalog.Repository
	db     *sql.DB
	dollar bool
	strict bool
	tracer trace.Tracer
}

type Option func(*Engine)

// WithStrictErrors makes ExecuteTransaction return the triggering error
// after rollback instead of only success=false.
func WithStrictErrors() Option {
	return func(e *Engine) {
		e.strict = true
	}
}

// WithDriver tells the engine which driver the connection uses, so
// placeholders can be rewritten to the driver's style.
func WithDriver(name string) Option {
	return func(e *Engine) {
		e.dollar = name == "postgres"
	}
}

func NewEngine(repo *catalog.Repository, db *sql.DB, opts ...Option) *Engine {
	e := &Engine{
		repo:   repo,
		db:     db,
		tracer: otel.Tracer("github.com/numkem/sqlscript/executor"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Connect opens and verifies a database connection.
func Connect(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	log.Debugf("Attempting to connect to %s database", driver)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, &sqlscript.ConnectionError{Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &sqlscript.ConnectionError{Err: err}
	}

	log.Debugf("Connected to %s database", driver)
	return db, nil
}

// ExecuteByName resolves the named script, binds params and runs it as a
// single autocommitted unit. Read statements return their rows; write
// statements return an empty sequence.
func (e *Engine) ExecuteByName(ctx context.Context, name string, params Params) ([]Row, error) {
	ctx, span := e.tracer.Start(ctx, "ExecuteByName",
		trace.WithAttributes(attribute.String("script.name", name)))
	defer span.End()

	sqlText, err := e.resolve(ctx, name)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"script":    name,
		"execution": uuid.NewString(),
	}).Debugf("Executing script")

	return e.runStatement(ctx, e.db, name, sqlText, params)
}

// ExecuteSQL runs arbitrary SQL text outside the catalog, with the same
// parameter binding rules as cataloged scripts.
func (e *Engine) ExecuteSQL(ctx context.Context, sqlText string, params Params) ([]Row, error) {
	ctx, span := e.tracer.Start(ctx, "ExecuteSQL")
	defer span.End()

	return e.runStatement(ctx, e.db, adhocScriptName, sqlText, params)
}

// ExecuteFromCategory runs the index-th script of a category, counting in
// insertion order from zero.
func (e *Engine) ExecuteFromCategory(ctx context.Context, category string, index int, params Params) ([]Row, error) {
	var names []string
	for rec := range e.repo.Index().FindByCategory(category) {
		names = append(names, rec.Name)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("no scripts found in category %q", category)
	}
	if index < 0 || index >= len(names) {
		return nil, fmt.Errorf("script index %d out of range [0, %d] for category %q", index, len(names)-1, category)
	}

	return e.ExecuteByName(ctx, names[index], params)
}

// ExecuteTransaction runs the named scripts strictly in order inside one
// transaction scope, binding parameter set i to script i. Every script must
// succeed for the transaction to commit; any failure rolls back all effects
// and yields success=false. In strict mode the triggering error is returned
// as well, otherwise it is only logged.
func (e *Engine) ExecuteTransaction(ctx context.Context, names []string, paramSets []Params) (bool, error) {
	ctx, span := e.tracer.Start(ctx, "ExecuteTransaction",
		trace.WithAttributes(attribute.Int("transaction.scripts", len(names))))
	defer span.End()

	if paramSets == nil {
		paramSets = make([]Params, len(names))
	}
	// Checked before any connection or transaction is opened
	if len(names) != len(paramSets) {
		return false, &sqlscript.ArgumentMismatchError{Scripts: len(names), Params: len(paramSets)}
	}

	// Resolve everything up front: an unresolvable name means the
	// transaction is never started.
	scripts := make([]string, len(names))
	for i, name := range names {
		sqlText, err := e.resolve(ctx, name)
		if err != nil {
			return false, err
		}
		scripts[i] = sqlText
	}

	logger := log.WithFields(log.Fields{
		"execution": uuid.NewString(),
		"scripts":   len(names),
	})

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return false, &sqlscript.ConnectionError{Err: err}
	}

	results := e.runSteps(ctx, tx, names, scripts, paramSets)

	if stepErr := failure(results); stepErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			// Report the rollback failure without masking the trigger
			stepErr = errors.Join(stepErr, fmt.Errorf("rollback failed: %v", rbErr))
		}

		if e.strict {
			return false, stepErr
		}

		logger.Errorf("transaction rolled back: %v", stepErr)
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		err = fmt.Errorf("failed to commit transaction: %v", err)
		if e.strict {
			return false, err
		}

		logger.Errorf("%v", err)
		return false, nil
	}

	logger.Debugf("Transaction committed")
	return true, nil
}

// runSteps executes each script in order and collects one StepResult per
// script, stopping at the first failure.
func (e *Engine) runSteps(ctx context.Context, tx *sql.Tx, names, scripts []string, paramSets []Params) []StepResult {
	var results []StepResult
	for i := range scripts {
		ctx, span := e.tracer.Start(ctx, "TransactionStep",
			trace.WithAttributes(
				attribute.String("script.name", names[i]),
				attribute.Int("step", i),
			))

		rows, err := e.runStatement(ctx, tx, names[i], scripts[i], paramSets[i])
		span.End()

		results = append(results, StepResult{Name: names[i], Rows: rows, Err: err})
		if err != nil {
			break
		}
	}

	return results
}

// failure returns the error of the first failed step, if any.
func failure(results []StepResult) error {
	for _, res := range results {
		if res.Err != nil {
			return res.Err
		}
	}

	return nil
}

// resolve maps the metadata-level NotFoundError to the execution-level
// ScriptNotFoundError; body errors propagate as-is.
func (e *Engine) resolve(ctx context.Context, name string) (string, error) {
	sqlText, err := e.repo.ResolveName(ctx, name)
	if err != nil {
		var notFound *sqlscript.NotFoundError
		if errors.As(err, &notFound) {
			return "", &sqlscript.ScriptNotFoundError{Name: name}
		}

		return "", err
	}

	return sqlText, nil
}

func (e *Engine) runStatement(ctx context.Context, db dbtx, name, sqlText string, params Params) ([]Row, error) {
	bound, args, err := bindParams(name, sqlText, params)
	if err != nil {
		return nil, err
	}

	if e.dollar {
		bound = rebindDollar(bound)
	}

	if !returnsRows(bound) {
		if _, err := db.ExecContext(ctx, bound, args...); err != nil {
			return nil, &sqlscript.ExecutionError{Script: name, Err: err}
		}

		return []Row{}, nil
	}

	rows, err := db.QueryContext(ctx, bound, args...)
	if err != nil {
		return nil, &sqlscript.ExecutionError{Script: name, Err: err}
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, &sqlscript.ExecutionError{Script: name, Err: err}
	}

	return out, nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			// Drivers hand back []byte for text columns; strings are
			// friendlier to render and compare
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}

		out = append(out, row)
	}

	return out, rows.Err()
}
