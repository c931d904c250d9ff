package kbstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/kbhost/internal/kbdoc"
	"github.com/starford/kbhost/internal/storage"
)

// Diagnostics is the result of a connection test. It never mutates the file
// system.
type Diagnostics struct {
	FileExists      bool     `json:"file_exists"`
	Readable        bool     `json:"readable"`
	Writable        bool     `json:"writable"`
	DirectoryExists bool     `json:"directory_exists"`
	Errors          []string `json:"errors"`
}

// OK reports whether no problem was found.
func (d *Diagnostics) OK() bool { return len(d.Errors) == 0 }

// Test inspects path: whether its directory exists and is writable, and
// whether the file exists, is readable, parses as YAML and is writable.
// Writable is true when either the directory or the file accepts writes.
func (s *Store) Test(path string) *Diagnostics {
	d := &Diagnostics{Errors: []string{}}

	p, err := storage.ExpandPath(path)
	if err != nil {
		d.Errors = append(d.Errors, err.Error())
		return d
	}
	dir := filepath.Dir(p)

	d.FileExists = exists(p)
	d.DirectoryExists = exists(dir)

	if !d.DirectoryExists {
		d.Errors = append(d.Errors, fmt.Sprintf("Directory does not exist: %s", dir))
	} else if canWrite(dir) {
		d.Writable = true
	} else {
		d.Errors = append(d.Errors, fmt.Sprintf("Cannot write to directory: %s", dir))
	}

	if d.FileExists {
		if canRead(p) {
			data, err := os.ReadFile(p)
			switch {
			case err != nil:
				d.Errors = append(d.Errors, fmt.Sprintf("Cannot read file: %v", err))
			default:
				d.Readable = true
				if _, err := kbdoc.ParseYAML(data); err != nil {
					d.Errors = append(d.Errors, fmt.Sprintf("Invalid YAML format: %v", err))
				}
			}
		} else {
			d.Errors = append(d.Errors, fmt.Sprintf("Cannot read file: %s", p))
		}

		if canWrite(p) {
			d.Writable = true
		} else {
			d.Errors = append(d.Errors, fmt.Sprintf("Cannot write to file: %s", p))
		}
	}
	return d
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
