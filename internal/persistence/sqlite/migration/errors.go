package migration

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMigrationFailed      = errors.New("migration execution failed")
	ErrInvalidMigrationFile = errors.New("invalid migration file format")
	// ErrVersionConflict reports a gap in versions, or an applied version
	// with no matching file.
	ErrVersionConflict  = errors.New("migration version conflict")
	ErrInvalidVersion   = errors.New("invalid migration version")
	ErrDuplicateVersion = errors.New("duplicate migration version")
	// ErrChecksumMismatch means an applied file was edited afterwards.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
)

// Stage tells which side of a schema upgrade failed.
type Stage string

const (
	StageFile     Stage = "file"
	StageScan     Stage = "scan"
	StageDatabase Stage = "database"
)

// Error carries the context of a failed schema step. Any field but Stage,
// Op and Err may be empty.
type Error struct {
	Stage   Stage
	Version string
	Path    string
	Query   string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Stage))
	if e.Version != "" {
		fmt.Fprintf(&b, " migration %s", e.Version)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	fmt.Fprintf(&b, ": %s: %v", e.Op, e.Err)
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func scanError(version, path, op string, err error) *Error {
	return &Error{Stage: StageScan, Version: version, Path: path, Op: op, Err: err}
}

func fileError(path, op string, err error) *Error {
	return &Error{Stage: StageFile, Path: path, Op: op, Err: err}
}

func databaseError(version, query, op string, err error) *Error {
	return &Error{Stage: StageDatabase, Version: version, Query: query, Op: op, Err: err}
}
