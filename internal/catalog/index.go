package catalog

import (
	"errors"
	"math/rand/v2"

	"clipset/internal/faults"
)

// Index maps class labels to ordered entry names. Classes keep the order in
// which they were first added.
type Index struct {
	order   []string
	files   map[string][]string
	skipped int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{files: make(map[string][]string)}
}

// Add appends name to class, registering the class on first use.
func (ix *Index) Add(class, name string) {
	if _, ok := ix.files[class]; !ok {
		ix.order = append(ix.order, class)
	}
	ix.files[class] = append(ix.files[class], name)
}

// Classes returns the class labels in index order.
func (ix *Index) Classes() []string {
	return append([]string(nil), ix.order...)
}

// Files returns a copy of the entries recorded for class.
func (ix *Index) Files(class string) []string {
	return append([]string(nil), ix.files[class]...)
}

// Len returns the number of classes.
func (ix *Index) Len() int { return len(ix.order) }

// Total returns the number of entries across all classes.
func (ix *Index) Total() int {
	total := 0
	for _, files := range ix.files {
		total += len(files)
	}
	return total
}

// Skipped returns how many entries GroupByClass could not label.
func (ix *Index) Skipped() int { return ix.skipped }

// Clone returns a deep copy.
func (ix *Index) Clone() *Index {
	out := NewIndex()
	out.skipped = ix.skipped
	for _, class := range ix.order {
		out.order = append(out.order, class)
		out.files[class] = append([]string(nil), ix.files[class]...)
	}
	return out
}

// Limit keeps the first n classes in index order. A negative n keeps all.
func (ix *Index) Limit(n int) *Index {
	out := ix.Clone()
	if n >= 0 && n < len(out.order) {
		for _, class := range out.order[n:] {
			delete(out.files, class)
		}
		out.order = out.order[:n]
	}
	return out
}

// Shuffle permutes each class list independently. Class order is unchanged.
func (ix *Index) Shuffle(rng *rand.Rand) {
	if rng == nil {
		return
	}
	for _, class := range ix.order {
		files := ix.files[class]
		rng.Shuffle(len(files), func(i, j int) {
			files[i], files[j] = files[j], files[i]
		})
	}
}

// GroupByClass labels each name and appends it to its class, preserving
// encounter order. Names the labeler rejects are skipped and counted.
func GroupByClass(names []string, labeler Labeler) (*Index, error) {
	if labeler == nil {
		return nil, faults.Wrap(faults.ErrValidation, "catalog", "group", "labeler is required", nil)
	}
	ix := NewIndex()
	for _, name := range names {
		class, ok := labeler.Label(name)
		if !ok {
			ix.skipped++
			continue
		}
		ix.Add(class, name)
	}
	if ix.Len() == 0 && len(names) > 0 {
		return nil, faults.Wrap(faults.ErrValidation, "catalog", "group", "no entry matched the labeling convention", errors.New("empty index"))
	}
	return ix, nil
}

// SelectSubset takes the first perClassLimit entries of every requested
// class. A class with fewer members contributes what it has; an unknown class
// contributes an empty list. A negative limit keeps every entry.
func SelectSubset(ix *Index, classNames []string, perClassLimit int) *Index {
	out := NewIndex()
	for _, class := range classNames {
		if _, seen := out.files[class]; seen {
			continue
		}
		files := ix.files[class]
		if perClassLimit >= 0 && perClassLimit < len(files) {
			files = files[:perClassLimit]
		}
		out.order = append(out.order, class)
		out.files[class] = append([]string{}, files...)
	}
	return out
}
