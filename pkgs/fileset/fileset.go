// Package fileset provides a name-ordered set of files selected from
// directories with patterns.
package fileset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/goplus/evercrypt/pkgs/pattern"
)

var (
	// ErrDirectoryUnreadable is returned when a directory cannot be listed.
	ErrDirectoryUnreadable = errors.New("directory unreadable")
	// ErrNonUTF8FileName is returned for an entry whose name is not valid UTF-8.
	ErrNonUTF8FileName = errors.New("non-UTF-8 file name")
)

// FileSet is a collection of files keyed by base name.
// Iteration is always in lexicographic name order, whatever order the
// file system listed the entries in. The zero value is an empty set.
type FileSet struct {
	entries map[string]string // name -> path
}

// New returns an empty FileSet.
func New() *FileSet {
	return &FileSet{entries: map[string]string{}}
}

// Add lists dir (not recursively) and inserts every entry whose name
// matches pat. A name already present is replaced by the new path.
// On error the set is left unchanged.
func (s *FileSet) Add(dir string, pat pattern.Pattern) error {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDirectoryUnreadable, dir, err)
	}
	matched := make(map[string]string)
	for _, ent := range ents {
		name := ent.Name()
		if !utf8.ValidString(name) {
			return fmt.Errorf("%w: %q in %s", ErrNonUTF8FileName, name, dir)
		}
		if pat.Match(name) {
			matched[name] = filepath.Join(dir, name)
		}
	}
	if s.entries == nil {
		s.entries = make(map[string]string, len(matched))
	}
	for name, path := range matched {
		s.entries[name] = path
	}
	return nil
}

// Remove deletes every entry whose name matches pat and returns the
// number of entries removed.
func (s *FileSet) Remove(pat pattern.Pattern) int {
	n := 0
	for name := range s.entries {
		if pat.Match(name) {
			delete(s.entries, name)
			n++
		}
	}
	return n
}

// Len returns the number of entries.
func (s *FileSet) Len() int {
	return len(s.entries)
}

// Has reports whether name is in the set.
func (s *FileSet) Has(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// Names returns the entry names in order.
func (s *FileSet) Names() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Paths returns the entry paths, ordered by name.
func (s *FileSet) Paths() []string {
	names := s.Names()
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = s.entries[name]
	}
	return paths
}
