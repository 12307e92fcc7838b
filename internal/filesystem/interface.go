package filesystem

import (
	"io/fs"
)

// FileSystem provides an abstraction over read-only file operations for
// testability. The dev pipeline never writes to the project tree; build
// artifacts are produced by the external watch process.
type FileSystem interface {
	// File operations
	ReadFile(path string) ([]byte, error)

	// Directory operations
	ReadDir(path string) ([]fs.DirEntry, error)

	// Path operations
	Stat(path string) (fs.FileInfo, error)
	Exists(path string) bool
	Getwd() (string, error)

	// File walking
	WalkDir(root string, fn fs.WalkDirFunc) error
}
