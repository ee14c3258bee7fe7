// Package tree implements the chapter tree of a writing project.
//
// # Storage
//
// Nodes live in an arena: [Tree] maps every id to its [Node] and each node keeps
// its parent id and the ordered ids of its children. Lookup by id is O(1) and a
// node can never be reachable from two parents.
//
// # Record Format
//
// [Record] is the nested form persisted in project.json:
//
//	{"id": "...", "title": "...", "is_folder": true, "children": [...]}
//
// Decoding is tolerant of missing fields so that hand-edited or older files still
// load.
package tree
