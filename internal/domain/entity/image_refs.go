package entity

import (
	"fmt"
	"strings"
)

// ImageRefSeparator joins image paths inside the CSV image column.
const ImageRefSeparator = ";"

// DecodeImageRefs splits a serialized image column. Blank entries are dropped.
func DecodeImageRefs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var refs []string
	for _, part := range strings.Split(raw, ImageRefSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		refs = append(refs, part)
	}
	return refs
}

// EncodeImageRefs joins image paths for the CSV image column. Paths that
// would not decode back unchanged are rejected: ones containing the separator
// and blank or space-padded ones.
func EncodeImageRefs(refs []string) (string, error) {
	for _, ref := range refs {
		if strings.Contains(ref, ImageRefSeparator) {
			return "", fmt.Errorf("%w: %q", ErrDelimiterInPath, ref)
		}
		if ref == "" || strings.TrimSpace(ref) != ref {
			return "", fmt.Errorf("%w: %q", ErrUntrimmedPath, ref)
		}
	}
	return strings.Join(refs, ImageRefSeparator), nil
}
