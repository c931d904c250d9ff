// Package storage implements the file operations behind the document stores:
// paths confined to a root directory, atomic replacement, and the
// directory/symlink primitives a bookmark folder is built from.
package storage

import "io/fs"

// Provider is the set of file operations a bookmark folder is built with.
// All paths are relative to the provider root.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// Abs resolves path against the root, rejecting traversal.
	Abs(path string) (string, error)
	// Claim creates the directory at path and fails with fs.ErrExist if any
	// entry already occupies it.
	Claim(path string) error
	// MkdirAll creates path and any missing parents.
	MkdirAll(path string) error
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
	// Symlink creates path as a symlink whose target is stored verbatim.
	Symlink(target, path string) error
	// Lstat describes path without following a final symlink.
	Lstat(path string) (fs.FileInfo, error)
	// Rename moves oldPath to newPath.
	Rename(oldPath, newPath string) error
	// RemoveAll deletes path and everything below it.
	RemoveAll(path string) error
}
