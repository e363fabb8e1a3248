package dataset

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"clipset/internal/faults"
)

// ScanClassNames returns the sorted names of the immediate subdirectories
// of dir. Hidden directories are ignored.
func ScanClassNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, faults.Wrap(faults.ErrValidation, "dataset", "scan classes", dir, faults.ErrNotFound)
		}
		return nil, fmt.Errorf("scan classes in %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	slices.Sort(names)
	return names, nil
}

// ClassNameIndex assigns dense ids 0..N-1 to class names in sorted order.
type ClassNameIndex struct {
	names []string
	ids   map[string]int
}

// NewClassNameIndex builds an index over the distinct non-empty names.
func NewClassNameIndex(names []string) (*ClassNameIndex, error) {
	sorted := make([]string, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) != "" {
			sorted = append(sorted, name)
		}
	}
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	if len(sorted) == 0 {
		return nil, faults.Wrap(faults.ErrValidation, "dataset", "class index", "no class names", nil)
	}
	ids := make(map[string]int, len(sorted))
	for i, name := range sorted {
		ids[name] = i
	}
	return &ClassNameIndex{names: sorted, ids: ids}, nil
}

// ClassIndexFromDir scans dir and indexes its class directories.
func ClassIndexFromDir(dir string) (*ClassNameIndex, error) {
	names, err := ScanClassNames(dir)
	if err != nil {
		return nil, err
	}
	return NewClassNameIndex(names)
}

// ID returns the id of name.
func (c *ClassNameIndex) ID(name string) (int, bool) {
	id, ok := c.ids[name]
	return id, ok
}

// Name returns the class with id, or "" when out of range.
func (c *ClassNameIndex) Name(id int) string {
	if id < 0 || id >= len(c.names) {
		return ""
	}
	return c.names[id]
}

func (c *ClassNameIndex) Len() int { return len(c.names) }

// Names returns a copy of the class names in id order.
func (c *ClassNameIndex) Names() []string {
	return slices.Clone(c.names)
}
