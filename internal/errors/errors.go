// Package errors provides sentinel errors and custom error types for the
// patchkit application. Use errors.Is() and errors.As() to check for
// specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrNotInitialized indicates that no stack state exists for the branch
	ErrNotInitialized = errors.New("patchkit not initialized")

	// ErrAlreadyInitialized indicates that a stack already exists for the branch
	ErrAlreadyInitialized = errors.New("stack already initialized")

	// ErrNotOnBranch indicates that HEAD is not on a branch
	ErrNotOnBranch = errors.New("not on a branch")

	// ErrNameCollision indicates that a patch name is already taken
	ErrNameCollision = errors.New("patch name collision")

	// ErrPushConflict indicates that pushing a patch produced merge conflicts
	ErrPushConflict = errors.New("push conflict")

	// ErrCausedConflicts indicates that an operation was aborted because it
	// would leave merge conflicts behind
	ErrCausedConflicts = errors.New("operation caused conflicts")

	// ErrCheckoutConflicts indicates that the working tree could not be
	// updated after the stack state was already committed
	ErrCheckoutConflicts = errors.New("checkout conflicts")

	// ErrInvalidSelection indicates an unusable patch selection
	ErrInvalidSelection = errors.New("invalid patch selection")

	// ErrEncoding indicates text that is not valid UTF-8 where UTF-8 is required
	ErrEncoding = errors.New("invalid text encoding")

	// ErrPatchNotFound indicates that a patch name is not part of the stack
	ErrPatchNotFound = errors.New("patch not found")

	// ErrNoAppliedPatches indicates an operation that needs at least one
	// applied patch
	ErrNoAppliedPatches = errors.New("no patches applied")

	// ErrInvalidPatchName indicates a patch name that fails validation
	ErrInvalidPatchName = errors.New("invalid patch name")

	// ErrTransactionAborted indicates that a transaction recorded a fatal
	// error and refused to persist
	ErrTransactionAborted = errors.New("transaction aborted")

	// ErrTransactionExecuted indicates a second execute on the same transaction
	ErrTransactionExecuted = errors.New("transaction already executed")

	// ErrNoUndoState indicates that the state log has no earlier entry
	ErrNoUndoState = errors.New("no state to undo to")

	// ErrEmptyMessage indicates an edit session that produced an empty message
	ErrEmptyMessage = errors.New("empty commit message")

	// ErrEditCancelled indicates that the user aborted an interactive edit
	ErrEditCancelled = errors.New("edit cancelled")

	// ErrSigningKeyMissing indicates sign was requested without a configured key
	ErrSigningKeyMissing = errors.New("no signing key configured")

	// ErrWorktreeDirty indicates uncommitted changes block the operation
	ErrWorktreeDirty = errors.New("worktree has uncommitted changes")
)

// NameCollisionError reports an attempt to introduce a patch name that
// already exists in the stack.
type NameCollisionError struct {
	Name string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("patch %q already exists", e.Name)
}

// Is returns true if the target error is ErrNameCollision
func (e *NameCollisionError) Is(target error) bool {
	return target == ErrNameCollision
}

// NewNameCollisionError creates a new NameCollisionError
func NewNameCollisionError(name string) *NameCollisionError {
	return &NameCollisionError{Name: name}
}

// PushConflictError reports that pushing a patch produced merge conflicts.
// The patch is recorded as applied with the conflicted tree; Paths lists the
// conflicting files.
type PushConflictError struct {
	Patch string
	Paths []string
}

func (e *PushConflictError) Error() string {
	if len(e.Paths) == 0 {
		return fmt.Sprintf("pushing patch %q resulted in conflicts", e.Patch)
	}
	return fmt.Sprintf("pushing patch %q resulted in conflicts: %s", e.Patch, strings.Join(e.Paths, ", "))
}

// Is returns true if the target error is ErrPushConflict
func (e *PushConflictError) Is(target error) bool {
	return target == ErrPushConflict
}

// NewPushConflictError creates a new PushConflictError
func NewPushConflictError(patch string, paths []string) *PushConflictError {
	return &PushConflictError{Patch: patch, Paths: paths}
}

// CausedConflictsError reports an operation aborted because it would leave
// merge conflicts behind. Op names the operation for the user.
type CausedConflictsError struct {
	Op  string
	Err error
}

func (e *CausedConflictsError) Error() string {
	return fmt.Sprintf("conflicts while %s", e.Op)
}

// Is returns true if the target error is ErrCausedConflicts
func (e *CausedConflictsError) Is(target error) bool {
	return target == ErrCausedConflicts
}

func (e *CausedConflictsError) Unwrap() error {
	return e.Err
}

// NewCausedConflictsError creates a new CausedConflictsError
func NewCausedConflictsError(op string, err error) *CausedConflictsError {
	return &CausedConflictsError{Op: op, Err: err}
}

// CheckoutConflictsError reports that the working tree update after a
// successful stack state write was refused. The stack state is already
// committed and is not rolled back.
type CheckoutConflictsError struct {
	Err error
}

func (e *CheckoutConflictsError) Error() string {
	return "stack state updated, but the worktree checkout was refused; resolve local changes and run 'patchkit undo' or check out manually"
}

// Is returns true if the target error is ErrCheckoutConflicts
func (e *CheckoutConflictsError) Is(target error) bool {
	return target == ErrCheckoutConflicts
}

func (e *CheckoutConflictsError) Unwrap() error {
	return e.Err
}

// NewCheckoutConflictsError creates a new CheckoutConflictsError
func NewCheckoutConflictsError(err error) *CheckoutConflictsError {
	return &CheckoutConflictsError{Err: err}
}

// InvalidSelectionError reports a patch selection that cannot be operated on
// (too few patches, duplicates, unknown or hidden names).
type InvalidSelectionError struct {
	Reason string
	Names  []string
}

func (e *InvalidSelectionError) Error() string {
	if len(e.Names) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Names, ", "))
}

// Is returns true if the target error is ErrInvalidSelection
func (e *InvalidSelectionError) Is(target error) bool {
	return target == ErrInvalidSelection
}

// NewInvalidSelectionError creates a new InvalidSelectionError
func NewInvalidSelectionError(reason string, names ...string) *InvalidSelectionError {
	return &InvalidSelectionError{Reason: reason, Names: names}
}

// EncodingError reports non-UTF-8 text in a field that must be valid UTF-8,
// identifying the offending field and the patch it came from.
type EncodingError struct {
	Field string
	Patch string
}

func (e *EncodingError) Error() string {
	if e.Patch == "" {
		return fmt.Sprintf("%s is not valid UTF-8", e.Field)
	}
	return fmt.Sprintf("%s of patch %q is not valid UTF-8", e.Field, e.Patch)
}

// Is returns true if the target error is ErrEncoding
func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

// NewEncodingError creates a new EncodingError
func NewEncodingError(field, patch string) *EncodingError {
	return &EncodingError{Field: field, Patch: patch}
}

// PatchNotFoundError reports a patch name that is not part of the stack.
type PatchNotFoundError struct {
	Name string
}

func (e *PatchNotFoundError) Error() string {
	return fmt.Sprintf("patch %q does not exist", e.Name)
}

// Is returns true if the target error is ErrPatchNotFound
func (e *PatchNotFoundError) Is(target error) bool {
	return target == ErrPatchNotFound
}

// NewPatchNotFoundError creates a new PatchNotFoundError
func NewPatchNotFoundError(name string) *PatchNotFoundError {
	return &PatchNotFoundError{Name: name}
}

// InvalidPatchNameError reports a name that fails patch name validation.
type InvalidPatchNameError struct {
	Name   string
	Reason string
}

func (e *InvalidPatchNameError) Error() string {
	return fmt.Sprintf("invalid patch name %q: %s", e.Name, e.Reason)
}

// Is returns true if the target error is ErrInvalidPatchName
func (e *InvalidPatchNameError) Is(target error) bool {
	return target == ErrInvalidPatchName
}

// NewInvalidPatchNameError creates a new InvalidPatchNameError
func NewInvalidPatchNameError(name, reason string) *InvalidPatchNameError {
	return &InvalidPatchNameError{Name: name, Reason: reason}
}

// TransactionAbortedError reports that an operation recorded a fatal error,
// so execute refused to persist anything.
type TransactionAbortedError struct {
	Op  string
	Err error
}

func (e *TransactionAbortedError) Error() string {
	return fmt.Sprintf("transaction aborted by %s: %v", e.Op, e.Err)
}

// Is returns true if the target error is ErrTransactionAborted
func (e *TransactionAbortedError) Is(target error) bool {
	return target == ErrTransactionAborted
}

func (e *TransactionAbortedError) Unwrap() error {
	return e.Err
}

// NewTransactionAbortedError creates a new TransactionAbortedError
func NewTransactionAbortedError(op string, err error) *TransactionAbortedError {
	return &TransactionAbortedError{Op: op, Err: err}
}
