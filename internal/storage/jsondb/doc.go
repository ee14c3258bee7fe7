// Package jsondb stores typed values in human-readable JSON files.
//
// # Overview
//
// [Table] holds a JSON array of rows and [Document] holds a single JSON object.
// Neither caches anything: every Load reads the file and every write rewrites the
// whole file through a temporary file and a rename. Partial patches never happen,
// so a crash can at worst lose the last write of one file.
//
// # Errors
//
// Load returns a *storage.ParseError when the content cannot be decoded. Callers
// decide whether that is fatal or maps to a default value; the packages built on
// jsondb tolerate corrupt secondary data and only fail on corrupt project metadata.
package jsondb
