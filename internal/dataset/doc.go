// Package dataset turns a split directory of class-labeled videos into a
// lazy stream of labeled frame sequences.
//
// A Descriptor is an immutable description of one split. Each call to Open
// rescans the directory and, in training mode, reshuffles the file order,
// returning a fresh Iterator that samples one video per Next call. Class ids
// come from a ClassNameIndex shared by every split of a dataset so the same
// class always maps to the same id.
//
// Prefetch overlaps sampling with consumption on a single worker goroutine,
// and TensorDataset batches samples into gomlx tensors for training loops.
package dataset
