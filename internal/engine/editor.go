package engine

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"patchkit.dev/patchkit/internal/stack"
)

// EditRequest carries everything an interactive edit step needs to finalize
// a patch under construction: the proposed metadata and tree plus naming
// constraints. The editor may alter the message and derive a different name,
// but the tree and parent are fixed by the caller.
type EditRequest struct {
	// Name is the proposed patch name. Empty means derive one from the
	// final message.
	Name stack.PatchName

	Author    object.Signature
	Committer object.Signature

	// Message is the default message. Lines starting with '#' are template
	// commentary and are stripped from the final message.
	Message string

	Tree   plumbing.Hash
	Parent plumbing.Hash
	Sign   bool

	// SaveTemplatePath, when set, makes the edit step write the message
	// template to this path and return TemplateSaved without committing.
	SaveTemplatePath string

	// TakenName reports whether a candidate name is already in use; the
	// editor must not finalize with a taken name.
	TakenName func(stack.PatchName) bool
}

// EditOutcome is the result of an edit step: either Edited or TemplateSaved.
type EditOutcome interface {
	isEditOutcome()
}

// Edited means the edit step wrote the finalized commit.
type Edited struct {
	Name     stack.PatchName
	CommitID plumbing.Hash
}

// TemplateSaved means the message template was written to Path instead of
// committing; the stack must not be touched.
type TemplateSaved struct {
	Path string
}

func (Edited) isEditOutcome()        {}
func (TemplateSaved) isEditOutcome() {}

// PatchEditor runs the edit step for a patch under construction. An
// implementation decides whether to involve the user; a non-interactive one
// just finalizes the request as given.
type PatchEditor interface {
	EditPatch(ctx context.Context, store ObjectStore, req EditRequest) (EditOutcome, error)
}
