package files

import (
	"sort"
	"strings"

	"github.com/webforge-labs/webforge-backend/internal/sandbox"
)

// Node is the presentation form of one listing entry. Directories carry
// a children list (empty when the directory is empty); files have no
// children field at all.
type Node struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Type     string  `json:"type"`
	Children []*Node `json:"children,omitzero"`
}

// Build turns a flat, unordered listing into a nested tree rooted at the
// entries directly under root. Within every directory, subdirectories
// come before files and entries of the same type are ordered by name.
//
// The assembly is two-pass: all directory nodes are registered first, so
// attachment does not depend on listing order. Malformed entries, and
// entries whose parent directory never appears in the listing, are
// silently dropped; the listing endpoint is the sole producer and is
// trusted. Build never fails.
func Build(root string, entries []sandbox.Entry) []*Node {
	valid := make([]sandbox.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" || e.Path == "" {
			continue
		}
		if e.Type != sandbox.TypeFile && e.Type != sandbox.TypeDirectory {
			continue
		}
		valid = append(valid, e)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		a, b := valid[i], valid[j]
		if a.Type != b.Type {
			return a.Type == sandbox.TypeDirectory
		}
		return a.Name < b.Name
	})

	dirs := make(map[string]*Node)
	nodes := make([]*Node, len(valid))
	for i, e := range valid {
		n := &Node{Name: e.Name, Path: e.Path, Type: e.Type}
		if e.Type == sandbox.TypeDirectory {
			n.Children = []*Node{}
			dirs[e.Path] = n
		}
		nodes[i] = n
	}

	tree := make([]*Node, 0, len(valid))
	for i, e := range valid {
		parent := parentPath(e.Path)
		if parent == "" || parent == root {
			tree = append(tree, nodes[i])
			continue
		}
		if p, ok := dirs[parent]; ok {
			p.Children = append(p.Children, nodes[i])
		}
	}

	return tree
}

func parentPath(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[:idx]
}
