package stack

import "github.com/go-git/go-git/v5/plumbing"

// Patch binds a name to the commit backing its changeset.
type Patch struct {
	Name     PatchName
	CommitID plumbing.Hash
}

// Placement identifies which group a patch name currently lives in.
type Placement int

const (
	PlacementApplied Placement = iota
	PlacementUnapplied
	PlacementHidden
)

func (p Placement) String() string {
	switch p {
	case PlacementApplied:
		return "applied"
	case PlacementUnapplied:
		return "unapplied"
	case PlacementHidden:
		return "hidden"
	default:
		return "unknown"
	}
}
