// Package errors provides centralized error definitions and error handling
// utilities for the maestro codebase. It defines the orchestration error
// taxonomy, error constructors with context wrapping, and classification
// helpers.
//
// # Error Types
//
// Each orchestration stage has a dedicated error type:
//   - CircularDependencyError: the feature graph contains a cycle
//     (resolution-time, nothing has been created yet)
//   - ProvisioningError: a workspace creation failed (triggers rollback)
//   - SessionBuildError: a tmux command failed while building or injecting
//     a session (triggers rollback)
//   - PersistenceWarning: the state document write failed after a fully
//     successful run (non-fatal, the run is still usable)
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewProvisioningError("auth", baseErr)
//	err := errors.NewCircularDependencyError([]string{"a", "b", "a"})
//
// Checking errors:
//
//	var provErr *errors.ProvisioningError
//	if errors.As(err, &provErr) { ... }
//
//	if errors.IsWarning(err) { ... }
//
// Rollback cleanup failures are attached to the stage error as supplementary
// diagnostics via AttachCleanupFailure; they never replace the original error.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Sentinel errors for common orchestration conditions.
var (
	// ErrFeatureNotFound indicates a requested feature name is not in the graph.
	ErrFeatureNotFound = New("feature not found")
	// ErrWorkspaceExists indicates a workspace already exists for a feature.
	ErrWorkspaceExists = New("workspace already exists")
	// ErrNoState indicates no orchestration state document exists.
	ErrNoState = New("no orchestration state")
)

// Stage identifies the orchestration stage an error occurred in.
type Stage string

const (
	StageResolving    Stage = "resolving"
	StageProvisioning Stage = "provisioning"
	StageSessions     Stage = "session-building"
	StagePersisting   Stage = "persisting"
)

// CircularDependencyError reports a cycle in the feature dependency graph.
// The Cycle field holds the feature names along the cycle, first and last
// entries equal. No side effects have occurred when this error is returned.
type CircularDependencyError struct {
	Cycle []string
}

// NewCircularDependencyError creates a CircularDependencyError for the given
// cycle path.
func NewCircularDependencyError(cycle []string) *CircularDependencyError {
	return &CircularDependencyError{Cycle: cycle}
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Cycle, " -> "))
}

// Stage returns the orchestration stage this error belongs to.
func (e *CircularDependencyError) Stage() Stage {
	return StageResolving
}

// stageError provides the shared shape of provisioning and session-build
// errors: the feature involved, the underlying external-command failure, and
// any cleanup failures collected during rollback.
type stageError struct {
	feature string
	cause   error
	cleanup []error
}

func (e *stageError) Unwrap() error {
	return e.cause
}

// CleanupFailures returns rollback-step failures attached to this error.
// They are supplementary diagnostics; the original cause is never replaced.
func (e *stageError) CleanupFailures() []error {
	return e.cleanup
}

func (e *stageError) attachCleanup(err error) {
	e.cleanup = append(e.cleanup, err)
}

func (e *stageError) cleanupSuffix() string {
	if len(e.cleanup) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e.cleanup))
	for _, c := range e.cleanup {
		parts = append(parts, c.Error())
	}
	return fmt.Sprintf(" (rollback issues: %s)", strings.Join(parts, "; "))
}

// ProvisioningError wraps a workspace-creation failure. Receiving it from the
// orchestrator means rollback of this run's workspaces has already been
// attempted.
type ProvisioningError struct {
	stageError
}

// NewProvisioningError creates a ProvisioningError for the given feature.
func NewProvisioningError(feature string, cause error) *ProvisioningError {
	return &ProvisioningError{stageError{feature: feature, cause: cause}}
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("%s failed for feature %q: %v%s",
		StageProvisioning, e.feature, e.cause, e.cleanupSuffix())
}

// Feature returns the feature whose workspace creation failed.
func (e *ProvisioningError) Feature() string {
	return e.feature
}

// Stage returns the orchestration stage this error belongs to.
func (e *ProvisioningError) Stage() Stage {
	return StageProvisioning
}

// SessionBuildError wraps a multiplexer-command failure during session
// topology construction or command injection.
type SessionBuildError struct {
	stageError
	session string
}

// NewSessionBuildError creates a SessionBuildError for the given feature and
// logical session name.
func NewSessionBuildError(feature, session string, cause error) *SessionBuildError {
	return &SessionBuildError{
		stageError: stageError{feature: feature, cause: cause},
		session:    session,
	}
}

func (e *SessionBuildError) Error() string {
	return fmt.Sprintf("%s failed for feature %q session %q: %v%s",
		StageSessions, e.feature, e.session, e.cause, e.cleanupSuffix())
}

// Feature returns the feature whose session build failed.
func (e *SessionBuildError) Feature() string {
	return e.feature
}

// Session returns the logical session name that failed to build.
func (e *SessionBuildError) Session() string {
	return e.session
}

// Stage returns the orchestration stage this error belongs to.
func (e *SessionBuildError) Stage() Stage {
	return StageSessions
}

// AttachCleanupFailure records a rollback-step failure on a stage error.
// If err is not a provisioning or session-build error, this is a no-op:
// cleanup diagnostics only make sense on errors that triggered rollback.
func AttachCleanupFailure(err, cleanupErr error) {
	var provErr *ProvisioningError
	if errors.As(err, &provErr) {
		provErr.attachCleanup(cleanupErr)
		return
	}
	var sessErr *SessionBuildError
	if errors.As(err, &sessErr) {
		sessErr.attachCleanup(cleanupErr)
	}
}

// PersistenceWarning reports that the state document write failed after a
// fully successful run. The provisioned workspaces and sessions are valid and
// usable; only the bookkeeping record is missing or stale.
type PersistenceWarning struct {
	cause error
}

// NewPersistenceWarning creates a PersistenceWarning wrapping the write failure.
func NewPersistenceWarning(cause error) *PersistenceWarning {
	return &PersistenceWarning{cause: cause}
}

func (e *PersistenceWarning) Error() string {
	return fmt.Sprintf("orchestration succeeded but state write failed: %v", e.cause)
}

func (e *PersistenceWarning) Unwrap() error {
	return e.cause
}

// Stage returns the orchestration stage this error belongs to.
func (e *PersistenceWarning) Stage() Stage {
	return StagePersisting
}

// IsWarning reports whether err degrades to a warning rather than a failure.
// A warning-level error means the run's artifacts exist and are usable.
func IsWarning(err error) bool {
	var warn *PersistenceWarning
	return errors.As(err, &warn)
}

// StageOf returns the orchestration stage an error occurred in, or an empty
// Stage if the error does not carry one.
func StageOf(err error) Stage {
	type staged interface{ Stage() Stage }
	var s staged
	if errors.As(err, &s) {
		return s.Stage()
	}
	return ""
}
