package stack

import (
	"encoding/json"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
)

// StateVersion is the current stack state document version.
const StateVersion = 1

// PatchDesc is the persisted record for one patch.
type PatchDesc struct {
	OID string `json:"oid"`
}

// State is the persisted form of a stack, stored as state.json in the tree
// of a state commit. Prev carries the previous state commit id, forming the
// chain that the log and undo commands walk.
type State struct {
	Version   int                     `json:"version"`
	Prev      string                  `json:"prev,omitempty"`
	Head      string                  `json:"head"`
	Applied   []PatchName             `json:"applied"`
	Unapplied []PatchName             `json:"unapplied"`
	Hidden    []PatchName             `json:"hidden"`
	Patches   map[PatchName]PatchDesc `json:"patches"`
}

// Marshal encodes the state document. Map keys are emitted sorted, so the
// encoding is deterministic for identical states.
func (s *State) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stack state: %w", err)
	}
	return append(data, '\n'), nil
}

// UnmarshalState decodes and validates a state document.
func UnmarshalState(data []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse stack state: %w", err)
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return &st, nil
}

// Validate checks the partition invariant: applied, unapplied and hidden
// together name every patch exactly once, and every hash is well formed.
func (s *State) Validate() error {
	if s.Version != StateVersion {
		return fmt.Errorf("unsupported stack state version %d", s.Version)
	}
	if !plumbing.IsHash(s.Head) {
		return fmt.Errorf("malformed stack state: bad head %q", s.Head)
	}
	if s.Prev != "" && !plumbing.IsHash(s.Prev) {
		return fmt.Errorf("malformed stack state: bad prev %q", s.Prev)
	}
	seen := make(map[PatchName]struct{}, len(s.Patches))
	for _, group := range [][]PatchName{s.Applied, s.Unapplied, s.Hidden} {
		for _, name := range group {
			if _, dup := seen[name]; dup {
				return fmt.Errorf("malformed stack state: patch %q listed twice", name)
			}
			desc, ok := s.Patches[name]
			if !ok {
				return fmt.Errorf("malformed stack state: patch %q has no record", name)
			}
			if !plumbing.IsHash(desc.OID) {
				return fmt.Errorf("malformed stack state: patch %q has bad oid %q", name, desc.OID)
			}
			seen[name] = struct{}{}
		}
	}
	if len(seen) != len(s.Patches) {
		return fmt.Errorf("malformed stack state: %d patch records for %d listed patches", len(s.Patches), len(seen))
	}
	return nil
}
