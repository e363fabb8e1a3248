package catalog

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"clipset/internal/faults"
)

// SplitRequest names a split and the number of files it takes per class.
type SplitRequest struct {
	Name  string
	Count int
}

// SplitPlan is the outcome of allocating one split.
type SplitPlan struct {
	Name      string
	Requested int
	Files     []string
	Classes   []string
	PerClass  map[string]int
}

// Shortfall records a class that could not fill its requested count.
type Shortfall struct {
	Class string
	Got   int
	Want  int
}

// Shortfalls lists the classes that received fewer files than requested, in
// class order.
func (p SplitPlan) Shortfalls() []Shortfall {
	var out []Shortfall
	for _, class := range p.Classes {
		if got := p.PerClass[class]; got < p.Requested {
			out = append(out, Shortfall{Class: class, Got: got, Want: p.Requested})
		}
	}
	return out
}

// SplitClassLists takes the first count entries of every class into a flat
// list and returns the rest as the remainder index.
func SplitClassLists(ix *Index, count int) ([]string, *Index) {
	if count < 0 {
		count = 0
	}
	var files []string
	remainder := NewIndex()
	remainder.skipped = ix.skipped
	for _, class := range ix.order {
		list := ix.files[class]
		head := min(count, len(list))
		files = append(files, list[:head]...)
		remainder.order = append(remainder.order, class)
		remainder.files[class] = append([]string{}, list[head:]...)
	}
	return files, remainder
}

// AllocateSplits shuffles each class once with rng (when non-nil) and then
// carves the splits in order from the shared remainder. The input index is
// not modified.
func AllocateSplits(ix *Index, splits []SplitRequest, rng *rand.Rand) ([]SplitPlan, error) {
	if err := validateSplits(splits); err != nil {
		return nil, err
	}
	remaining := ix.Clone()
	remaining.Shuffle(rng)

	plans := make([]SplitPlan, 0, len(splits))
	for _, split := range splits {
		before := remaining
		files, rest := SplitClassLists(remaining, split.Count)
		plan := SplitPlan{
			Name:      split.Name,
			Requested: split.Count,
			Files:     files,
			Classes:   before.Classes(),
			PerClass:  make(map[string]int, before.Len()),
		}
		for _, class := range before.order {
			plan.PerClass[class] = len(before.files[class]) - len(rest.files[class])
		}
		plans = append(plans, plan)
		remaining = rest
	}
	return plans, nil
}

func validateSplits(splits []SplitRequest) error {
	seen := make(map[string]struct{}, len(splits))
	for _, split := range splits {
		name := strings.TrimSpace(split.Name)
		if name == "" {
			return faults.Wrap(faults.ErrValidation, "catalog", "allocate", "split name is empty", nil)
		}
		if _, dup := seen[name]; dup {
			return faults.Wrap(faults.ErrValidation, "catalog", "allocate", fmt.Sprintf("duplicate split %q", name), nil)
		}
		seen[name] = struct{}{}
		if split.Count < 0 {
			return faults.Wrap(faults.ErrValidation, "catalog", "allocate", fmt.Sprintf("split %q has negative count %d", name, split.Count), nil)
		}
	}
	return nil
}
