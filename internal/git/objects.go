package git

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"patchkit.dev/patchkit/internal/errors"
)

// CommitSpec describes a commit object to be written. A new commit is always
// a fresh object; existing commits are never mutated.
type CommitSpec struct {
	Author    object.Signature
	Committer object.Signature
	Message   string
	Tree      plumbing.Hash
	Parents   []plumbing.Hash
	Sign      bool
}

// Commit returns the commit object for id.
func (r *Repository) Commit(ctx context.Context, id plumbing.Hash) (*object.Commit, error) {
	commit, err := r.CommitObject(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", id, err)
	}
	return commit, nil
}

// CommitTree writes a commit object per spec and returns its id.
func (r *Repository) CommitTree(ctx context.Context, spec CommitSpec) (plumbing.Hash, error) {
	commit := &object.Commit{
		Author:       spec.Author,
		Committer:    spec.Committer,
		Message:      spec.Message,
		TreeHash:     spec.Tree,
		ParentHashes: spec.Parents,
	}

	if spec.Sign {
		if r.signer == nil {
			return plumbing.ZeroHash, errors.ErrSigningKeyMissing
		}
		signature, err := signCommitPayload(commit, r.signer)
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("failed to sign commit: %w", err)
		}
		commit.PGPSignature = signature
	}

	obj := r.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode commit: %w", err)
	}
	id, err := r.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to write commit: %w", err)
	}
	return id, nil
}

// signCommitPayload produces an armored detached signature over the encoded
// commit, the same payload git signs.
func signCommitPayload(commit *object.Commit, signer *openpgp.Entity) (string, error) {
	encoded := &plumbing.MemoryObject{}
	if err := commit.Encode(encoded); err != nil {
		return "", err
	}
	payload, err := encoded.Reader()
	if err != nil {
		return "", err
	}
	defer payload.Close()

	var buf bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&buf, signer, payload, nil); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteBlob stores data as a blob object.
func (r *Repository) WriteBlob(data []byte) (plumbing.Hash, error) {
	obj := r.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to open blob writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return plumbing.ZeroHash, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to close blob writer: %w", err)
	}
	id, err := r.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store blob: %w", err)
	}
	return id, nil
}

// BlobContent returns the raw content of a blob.
func (r *Repository) BlobContent(id plumbing.Hash) ([]byte, error) {
	blob, err := r.BlobObject(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", id, err)
	}
	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", id, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", id, err)
	}
	return data, nil
}

// Entry is one scratch-index slot: the mode and blob hash of a path.
type Entry struct {
	Mode filemode.FileMode
	Hash plumbing.Hash
}

// treeNode is the intermediate structure used to write nested trees from a
// flat path map.
type treeNode struct {
	files map[string]Entry
	dirs  map[string]*treeNode
}

func newTreeNode() *treeNode {
	return &treeNode{
		files: make(map[string]Entry),
		dirs:  make(map[string]*treeNode),
	}
}

func (n *treeNode) insert(path string, entry Entry) {
	for {
		slash := -1
		for i := 0; i < len(path); i++ {
			if path[i] == '/' {
				slash = i
				break
			}
		}
		if slash < 0 {
			n.files[path] = entry
			return
		}
		dir := path[:slash]
		child, ok := n.dirs[dir]
		if !ok {
			child = newTreeNode()
			n.dirs[dir] = child
		}
		n = child
		path = path[slash+1:]
	}
}

// WriteTreeFromEntries builds nested tree objects from a flat path→entry map
// and returns the root tree id. Entries are ordered the way git orders them:
// byte order with directory names compared as if they had a trailing slash.
func (r *Repository) WriteTreeFromEntries(entries map[string]Entry) (plumbing.Hash, error) {
	root := newTreeNode()
	for path, entry := range entries {
		root.insert(path, entry)
	}
	return r.writeTreeNode(root)
}

func (r *Repository) writeTreeNode(node *treeNode) (plumbing.Hash, error) {
	treeEntries := make([]object.TreeEntry, 0, len(node.files)+len(node.dirs))
	for name, entry := range node.files {
		treeEntries = append(treeEntries, object.TreeEntry{
			Name: name,
			Mode: entry.Mode,
			Hash: entry.Hash,
		})
	}
	for name, child := range node.dirs {
		childID, err := r.writeTreeNode(child)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		treeEntries = append(treeEntries, object.TreeEntry{
			Name: name,
			Mode: filemode.Dir,
			Hash: childID,
		})
	}
	sortTreeEntries(treeEntries)

	tree := &object.Tree{Entries: treeEntries}
	obj := r.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode tree: %w", err)
	}
	id, err := r.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store tree: %w", err)
	}
	return id, nil
}

func sortTreeEntries(entries []object.TreeEntry) {
	key := func(e object.TreeEntry) string {
		if e.Mode == filemode.Dir {
			return e.Name + "/"
		}
		return e.Name
	}
	sort.Slice(entries, func(i, j int) bool {
		return key(entries[i]) < key(entries[j])
	})
}

// TreeEntries flattens a tree into a path→entry map. Directory entries are
// expanded, not stored.
func (r *Repository) TreeEntries(tree plumbing.Hash) (map[string]Entry, error) {
	entries := make(map[string]Entry)
	treeObj, err := r.TreeObject(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree %s: %w", tree, err)
	}
	walker := object.NewTreeWalker(treeObj, true, nil)
	defer walker.Close()
	for {
		name, entry, err := walker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to walk tree %s: %w", tree, err)
		}
		if entry.Mode == filemode.Dir {
			continue
		}
		entries[name] = Entry{Mode: entry.Mode, Hash: entry.Hash}
	}
	return entries, nil
}
