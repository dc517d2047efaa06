package store

import "errors"

var (
	// ErrUnauthenticated is returned by every mutator invoked before an
	// owner identity is bound. Raised synchronously, before any I/O.
	ErrUnauthenticated = errors.New("no authenticated owner bound")

	// ErrNotFound is returned when a referenced record does not exist in
	// the session's collections.
	ErrNotFound = errors.New("record not found")

	// ErrDependencyCycle is returned when adding a dependency edge would
	// make the dependsOn relation cyclic. A task depending on itself is
	// the degenerate case.
	ErrDependencyCycle = errors.New("dependency would create a cycle")

	// ErrDependenciesIncomplete is returned by CompleteTask while any
	// task in the dependsOn set is not completed.
	ErrDependenciesIncomplete = errors.New("task has incomplete dependencies")

	// ErrNotStarted is returned by CompleteTask while the task's start
	// date lies in the future.
	ErrNotStarted = errors.New("task start date not reached")
)
