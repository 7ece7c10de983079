package session

import (
	"errors"
	"fmt"
)

// Sentinel errors callers branch on with errors.Is.
var (
	// ErrNotLoaded is returned by any query, tessellation or export
	// attempted before a successful Load.
	ErrNotLoaded = errors.New("no STEP file loaded")

	// ErrFaceNotFound is returned for a face id outside [0, face count).
	ErrFaceNotFound = errors.New("face not found")

	// ErrNoAssignment is returned by Export when neither the call nor
	// the session carries a non-empty feature assignment.
	ErrNoAssignment = errors.New("no feature assignment")
)

// LoadError reports that a file could not be read or that the geometry
// kernel rejected its content.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// KernelError reports an opaque failure surfaced by the geometry kernel
// for a whole-shape operation. Per-face and per-edge failures are
// swallowed where partial results are valid.
type KernelError struct {
	Op  string
	Err error
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("kernel %s: %v", e.Op, e.Err)
}

func (e *KernelError) Unwrap() error { return e.Err }
