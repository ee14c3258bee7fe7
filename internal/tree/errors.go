package tree

import "errors"

var (
	errNodeNotFound  = errors.New("node not found")
	errNotFolder     = errors.New("parent is not a folder")
	errRootImmutable = errors.New("the root node cannot be modified this way")
	errMoveIntoSelf  = errors.New("cannot move a node under itself")

	// ErrDuplicateID is returned when a record reuses an id already present in the tree.
	ErrDuplicateID = errors.New("duplicate node id")
)

// IsNotFound reports whether err means the requested node does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, errNodeNotFound)
}
