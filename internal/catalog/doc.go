// Package catalog turns a flat archive listing into per-class file lists and
// carves those lists into disjoint dataset splits.
//
// An Index keeps classes in first-encounter order so that truncating to the
// first N classes is reproducible for a given archive. Split allocation
// consumes a shared per-class remainder: each split takes the head of every
// class list and hands the tail to the next split, so no file can land in two
// splits.
package catalog
