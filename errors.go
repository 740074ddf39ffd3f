package sqlscript

import "fmt"

// DuplicateNameError is returned when adding a record whose name is already
// taken in the index.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("a script named %q already exists", e.Name)
}

// NotFoundError is returned by index lookups and removals for an unknown
// script name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no script named %q", e.Name)
}

// ScriptNotFoundError is the execution-level counterpart of NotFoundError,
// raised when the engine is asked to run a name absent from the index.
type ScriptNotFoundError struct {
	Name string
}

func (e *ScriptNotFoundError) Error() string {
	return fmt.Sprintf("cannot execute %q: script not found", e.Name)
}

// BodyNotFoundError means a record references a body file that no longer
// exists. A dangling reference is an error, never an empty script.
type BodyNotFoundError struct {
	Name string
	Path string
}

func (e *BodyNotFoundError) Error() string {
	return fmt.Sprintf("body file %s for script %q not found", e.Path, e.Name)
}

// BodyReadError wraps any lower-level failure while reading a body file.
type BodyReadError struct {
	Name string
	Path string
	Err  error
}

func (e *BodyReadError) Error() string {
	return fmt.Sprintf("failed to read body file %s for script %q: %v", e.Path, e.Name, e.Err)
}

func (e *BodyReadError) Unwrap() error { return e.Err }

// ParameterBindingError means a placeholder in the script text has no value
// in the supplied parameter set.
type ParameterBindingError struct {
	Script string
	Key    string
}

func (e *ParameterBindingError) Error() string {
	return fmt.Sprintf("script %q: no value bound for placeholder %q", e.Script, e.Key)
}

// ArgumentMismatchError is returned by transactional execution when the
// script and parameter sequences have different lengths.
type ArgumentMismatchError struct {
	Scripts int
	Params  int
}

func (e *ArgumentMismatchError) Error() string {
	return fmt.Sprintf("got %d scripts but %d parameter sets", e.Scripts, e.Params)
}

// ConnectionError wraps a failure to open or verify the database connection.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to database: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ExecutionError wraps a driver-level failure while running a script.
type ExecutionError struct {
	Script string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to execute script %q: %v", e.Script, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
