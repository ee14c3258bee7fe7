package tree

import (
	"fmt"
	"iter"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/maruel/manuscript/internal/storage"
)

const (
	// RootID is the id of the invisible root folder.
	RootID = "root"
	// RootTitle is the title given to a fresh root folder.
	RootTitle = "目录"

	// MaxTitleLength is the maximum title length in runes.
	MaxTitleLength = 200

	defaultFolderTitle  = "新文件夹"
	defaultChapterTitle = "新章节"
)

// Node is a folder or a leaf chapter.
//
// Nodes are owned by their Tree; the Parent and Children fields are maintained
// by the Tree and must not be modified directly.
type Node struct {
	ID       string
	Title    string
	IsFolder bool
	Parent   string
	Children []string
}

// Tree is an arena-backed ordered tree of nodes.
type Tree struct {
	root  string
	nodes map[string]*Node
}

// New returns a tree holding only an empty root folder.
func New() *Tree {
	t := &Tree{root: RootID, nodes: make(map[string]*Node)}
	t.nodes[RootID] = &Node{ID: RootID, Title: RootTitle, IsFolder: true}
	return t
}

// FromRecord builds a tree from its serialized form.
//
// The record itself becomes the root. ErrDuplicateID is returned when an id
// appears more than once.
func FromRecord(rec Record) (*Tree, error) {
	t := &Tree{root: rec.ID, nodes: make(map[string]*Node)}
	t.nodes[rec.ID] = &Node{ID: rec.ID, Title: rec.Title, IsFolder: true}
	if err := t.attach(rec.ID, rec.Children); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) attach(parentID string, children []Record) error {
	parent := t.nodes[parentID]
	for _, c := range children {
		if _, ok := t.nodes[c.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateID, c.ID)
		}
		t.nodes[c.ID] = &Node{ID: c.ID, Title: c.Title, IsFolder: c.IsFolder, Parent: parentID}
		parent.Children = append(parent.Children, c.ID)
		if err := t.attach(c.ID, c.Children); err != nil {
			return err
		}
	}
	return nil
}

// Record serializes the tree starting at the root.
func (t *Tree) Record() Record {
	return t.record(t.root)
}

func (t *Tree) record(id string) Record {
	n := t.nodes[id]
	rec := Record{ID: n.ID, Title: n.Title, IsFolder: n.IsFolder, Children: make([]Record, 0, len(n.Children))}
	for _, c := range n.Children {
		rec.Children = append(rec.Children, t.record(c))
	}
	return rec
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	c := &Tree{root: t.root, nodes: make(map[string]*Node, len(t.nodes))}
	for id, n := range t.nodes {
		cp := *n
		cp.Children = append([]string(nil), n.Children...)
		c.nodes[id] = &cp
	}
	return c
}

// Root returns the root folder.
func (t *Tree) Root() *Node {
	return t.nodes[t.root]
}

// Len returns the number of nodes below the root.
func (t *Tree) Len() int {
	return len(t.nodes) - 1
}

// Find returns the node with the given id.
func (t *Tree) Find(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Depth returns the number of ancestors between the node and the root; children
// of the root have depth 0.
func (t *Tree) Depth(id string) int {
	d := -1
	for n, ok := t.nodes[id]; ok && n.ID != t.root; n, ok = t.nodes[n.Parent] {
		d++
	}
	return d
}

// All yields every node below the root in depth-first pre-order.
func (t *Tree) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		t.walk(t.root, yield)
	}
}

// Leaves yields leaf chapters in depth-first pre-order.
func (t *Tree) Leaves() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for n := range t.All() {
			if !n.IsFolder && !yield(n) {
				return
			}
		}
	}
}

func (t *Tree) walk(id string, yield func(*Node) bool) bool {
	for _, c := range t.nodes[id].Children {
		n := t.nodes[c]
		if !yield(n) {
			return false
		}
		if !t.walk(c, yield) {
			return false
		}
	}
	return true
}

// FirstLeaf returns the first leaf chapter in pre-order.
func (t *Tree) FirstLeaf() (*Node, bool) {
	for n := range t.Leaves() {
		return n, true
	}
	return nil, false
}

// Add appends a new node under parentID and returns it.
//
// An empty parentID means the root. An empty title gets a default depending on
// the node kind.
func (t *Tree) Add(parentID, title string, isFolder bool) (*Node, error) {
	if parentID == "" {
		parentID = t.root
	}
	parent, ok := t.nodes[parentID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errNodeNotFound, parentID)
	}
	if !parent.IsFolder {
		return nil, fmt.Errorf("%w: %q", errNotFolder, parentID)
	}
	if title == "" {
		title = defaultChapterTitle
		if isFolder {
			title = defaultFolderTitle
		}
	}
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	n := &Node{ID: storage.GenerateID(), Title: title, IsFolder: isFolder, Parent: parentID}
	t.nodes[n.ID] = n
	parent.Children = append(parent.Children, n.ID)
	return n, nil
}

// Rename sets the title of a node. An empty title leaves the node unchanged.
func (t *Tree) Rename(id, title string) error {
	n, err := t.mutable(id)
	if err != nil {
		return err
	}
	if title == "" {
		return nil
	}
	if err := ValidateTitle(title); err != nil {
		return err
	}
	n.Title = title
	return nil
}

// Delete removes a node and its whole subtree.
//
// It returns the ids of the removed leaf chapters in pre-order so the caller
// can drop their text.
func (t *Tree) Delete(id string) ([]string, error) {
	n, err := t.mutable(id)
	if err != nil {
		return nil, err
	}
	var leaves []string
	var drop func(id string)
	drop = func(id string) {
		c := t.nodes[id]
		if !c.IsFolder {
			leaves = append(leaves, c.ID)
		}
		for _, cc := range c.Children {
			drop(cc)
		}
		delete(t.nodes, id)
	}
	parent := t.nodes[n.Parent]
	parent.Children = remove(parent.Children, id)
	drop(id)
	return leaves, nil
}

// Move swaps a node with the sibling delta positions away. It reports whether
// the order changed; a target outside the sibling list is a no-op.
func (t *Tree) Move(id string, delta int) (bool, error) {
	n, err := t.mutable(id)
	if err != nil {
		return false, err
	}
	siblings := t.nodes[n.Parent].Children
	i := index(siblings, id)
	j := i + delta
	if delta == 0 || j < 0 || j >= len(siblings) {
		return false, nil
	}
	siblings[i], siblings[j] = siblings[j], siblings[i]
	return true, nil
}

// MoveTo detaches a node and inserts it under parentID at position idx.
//
// idx is clamped to the valid range; a negative idx appends.
func (t *Tree) MoveTo(id, parentID string, idx int) error {
	n, err := t.mutable(id)
	if err != nil {
		return err
	}
	if parentID == "" {
		parentID = t.root
	}
	parent, ok := t.nodes[parentID]
	if !ok {
		return fmt.Errorf("%w: %q", errNodeNotFound, parentID)
	}
	if !parent.IsFolder {
		return fmt.Errorf("%w: %q", errNotFolder, parentID)
	}
	for p := parentID; p != t.root; p = t.nodes[p].Parent {
		if p == id {
			return errMoveIntoSelf
		}
	}
	old := t.nodes[n.Parent]
	old.Children = remove(old.Children, id)
	if idx < 0 || idx > len(parent.Children) {
		idx = len(parent.Children)
	}
	parent.Children = append(parent.Children, "")
	copy(parent.Children[idx+1:], parent.Children[idx:])
	parent.Children[idx] = id
	n.Parent = parentID
	return nil
}

func (t *Tree) mutable(id string) (*Node, error) {
	if id == t.root {
		return nil, errRootImmutable
	}
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errNodeNotFound, id)
	}
	return n, nil
}

// ValidateTitle checks a node title.
func ValidateTitle(title string) error {
	return validation.Validate(title, validation.Required, validation.RuneLength(1, MaxTitleLength))
}

func index(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func remove(s []string, v string) []string {
	if i := index(s, v); i >= 0 {
		return append(s[:i], s[i+1:]...)
	}
	return s
}
