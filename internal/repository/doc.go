// Package repository defines the data access interfaces for topoview.
//
// Two kinds of records are stored: view documents, saved under a name in
// one of the codec formats, and the inventory objects those views refer
// to. The sqlite subpackage is the only implementation.
//
// # View Bodies
//
// Bodies are stored compressed. Each view carries a digest of its
// uncompressed body, used to skip unchanged saves and as an HTTP ETag.
//
// # Not Found
//
// Get methods return a nil record and a nil error for unknown keys. Delete
// of an unknown key is not an error.
package repository
