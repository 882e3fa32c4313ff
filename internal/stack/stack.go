package stack

import (
	"fmt"
	"slices"

	"github.com/go-git/go-git/v5/plumbing"
)

// Stack is the runtime view of one branch's patch stack.
//
// Head is the commit of the last applied patch, or Base when nothing is
// applied. Base precedes the first applied patch and is derived from the
// commit graph at load time, never persisted. StateCommit is the state
// commit this view was loaded from (zero for a freshly initialized stack).
type Stack struct {
	Branch      string
	StateCommit plumbing.Hash
	Head        plumbing.Hash
	Base        plumbing.Hash
	Applied     []PatchName
	Unapplied   []PatchName
	Hidden      []PatchName
	Patches     map[PatchName]plumbing.Hash
}

// New returns an empty stack for branch, based at head.
func New(branch string, head plumbing.Hash) *Stack {
	return &Stack{
		Branch:  branch,
		Head:    head,
		Base:    head,
		Patches: make(map[PatchName]plumbing.Hash),
	}
}

// FromState builds the runtime view of a persisted state. The caller
// resolves base from the commit graph (first applied patch's first parent,
// or head when nothing is applied).
func FromState(branch string, stateCommit plumbing.Hash, st *State, base plumbing.Hash) (*Stack, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	s := &Stack{
		Branch:      branch,
		StateCommit: stateCommit,
		Head:        plumbing.NewHash(st.Head),
		Base:        base,
		Applied:     slices.Clone(st.Applied),
		Unapplied:   slices.Clone(st.Unapplied),
		Hidden:      slices.Clone(st.Hidden),
		Patches:     make(map[PatchName]plumbing.Hash, len(st.Patches)),
	}
	for name, desc := range st.Patches {
		s.Patches[name] = plumbing.NewHash(desc.OID)
	}
	if len(s.Applied) > 0 {
		top := s.Patches[s.Applied[len(s.Applied)-1]]
		if top != s.Head {
			return nil, fmt.Errorf("malformed stack state: head %s does not match top patch %s", s.Head, top)
		}
	}
	return s, nil
}

// ToState converts the stack to its persisted form. prev is the state commit
// this state supersedes (zero for the first state of a branch).
func (s *Stack) ToState(prev plumbing.Hash) *State {
	st := &State{
		Version:   StateVersion,
		Head:      s.Head.String(),
		Applied:   slices.Clone(s.Applied),
		Unapplied: slices.Clone(s.Unapplied),
		Hidden:    slices.Clone(s.Hidden),
		Patches:   make(map[PatchName]PatchDesc, len(s.Patches)),
	}
	if !prev.IsZero() {
		st.Prev = prev.String()
	}
	for name, id := range s.Patches {
		st.Patches[name] = PatchDesc{OID: id.String()}
	}
	return st
}

// Clone returns a deep copy, used as a transaction working copy.
func (s *Stack) Clone() *Stack {
	c := &Stack{
		Branch:      s.Branch,
		StateCommit: s.StateCommit,
		Head:        s.Head,
		Base:        s.Base,
		Applied:     slices.Clone(s.Applied),
		Unapplied:   slices.Clone(s.Unapplied),
		Hidden:      slices.Clone(s.Hidden),
		Patches:     make(map[PatchName]plumbing.Hash, len(s.Patches)),
	}
	for name, id := range s.Patches {
		c.Patches[name] = id
	}
	return c
}

// Top returns the name of the topmost applied patch.
func (s *Stack) Top() (PatchName, bool) {
	if len(s.Applied) == 0 {
		return "", false
	}
	return s.Applied[len(s.Applied)-1], true
}

// PatchCommit returns the commit a patch name is bound to.
func (s *Stack) PatchCommit(name PatchName) (plumbing.Hash, bool) {
	id, ok := s.Patches[name]
	return id, ok
}

// Contains reports whether name is part of the stack in any group.
func (s *Stack) Contains(name PatchName) bool {
	_, ok := s.Patches[name]
	return ok
}

// IsApplied reports whether name is in the applied group.
func (s *Stack) IsApplied(name PatchName) bool {
	return slices.Contains(s.Applied, name)
}

// IsUnapplied reports whether name is in the unapplied group.
func (s *Stack) IsUnapplied(name PatchName) bool {
	return slices.Contains(s.Unapplied, name)
}

// IsHidden reports whether name is in the hidden group.
func (s *Stack) IsHidden(name PatchName) bool {
	return slices.Contains(s.Hidden, name)
}

// PlacementOf returns the group name currently lives in.
func (s *Stack) PlacementOf(name PatchName) (Placement, bool) {
	switch {
	case s.IsApplied(name):
		return PlacementApplied, true
	case s.IsUnapplied(name):
		return PlacementUnapplied, true
	case s.IsHidden(name):
		return PlacementHidden, true
	default:
		return 0, false
	}
}

// AllNames returns every patch name in applied, unapplied, hidden order.
func (s *Stack) AllNames() []PatchName {
	names := make([]PatchName, 0, len(s.Patches))
	names = append(names, s.Applied...)
	names = append(names, s.Unapplied...)
	names = append(names, s.Hidden...)
	return names
}
