package git

import "errors"

var (
	// ErrRepo reports repository or object store failures.
	ErrRepo = errors.New("repo error")
	// ErrExpr reports revisions that could not be parsed or resolved.
	ErrExpr = errors.New("expr error")
	// ErrCommit reports commit lookup and arity failures.
	ErrCommit = errors.New("commit error")
)
