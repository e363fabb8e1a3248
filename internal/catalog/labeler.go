package catalog

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"

	"clipset/internal/faults"
)

// Labeler derives a class label from an archive entry name.
type Labeler interface {
	Label(name string) (string, bool)
}

// TokenLabeler splits the full entry name on Separator and takes the token
// FromEnd positions from the end. With "_" and 3, the entry
// "UCF101/v_ApplyEyeMakeup_g01_c01.avi" is labeled "ApplyEyeMakeup".
type TokenLabeler struct {
	Separator string
	FromEnd   int
}

func (l TokenLabeler) Label(name string) (string, bool) {
	sep := l.Separator
	if sep == "" {
		sep = "_"
	}
	if l.FromEnd < 1 {
		return "", false
	}
	parts := strings.Split(name, sep)
	if len(parts) < l.FromEnd {
		return "", false
	}
	return cleanLabel(parts[len(parts)-l.FromEnd])
}

// ParentDirLabeler labels an entry with the name of its parent directory.
type ParentDirLabeler struct{}

func (ParentDirLabeler) Label(name string) (string, bool) {
	dir := path.Dir(strings.TrimSuffix(name, "/"))
	if dir == "." || dir == "/" {
		return "", false
	}
	return cleanLabel(path.Base(dir))
}

// NewLabeler builds the labeler named by source ("token" or "parent_dir").
func NewLabeler(source, separator string, fromEnd int) (Labeler, error) {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "", "token":
		if fromEnd < 1 {
			return nil, faults.Wrap(faults.ErrValidation, "catalog", "labeler", fmt.Sprintf("token position must be positive, got %d", fromEnd), nil)
		}
		return TokenLabeler{Separator: separator, FromEnd: fromEnd}, nil
	case "parent_dir":
		return ParentDirLabeler{}, nil
	default:
		return nil, faults.Wrap(faults.ErrValidation, "catalog", "labeler", fmt.Sprintf("unknown label source %q", source), nil)
	}
}

// cleanLabel normalizes to NFC and rejects labels that cannot serve as a
// single directory name.
func cleanLabel(label string) (string, bool) {
	label = norm.NFC.String(strings.TrimSpace(label))
	if label == "" || label == "." || label == ".." || strings.ContainsAny(label, `/\`) {
		return "", false
	}
	return label, true
}
