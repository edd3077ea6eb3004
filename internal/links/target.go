package links

import "strings"

// Kind classifies a target by how it has to be verified.
type Kind int

const (
	// Local targets are filesystem paths checked on disk.
	Local Kind = iota
	// Remote targets are absolute URLs checked over HTTP.
	Remote
)

func (k Kind) String() string {
	if k == Remote {
		return "remote"
	}
	return "local"
}

// Target is a single resolved, classified link destination. Base never
// carries a fragment; two targets are equal iff their String() forms are
// equal, so a fragmentless base and its fragmented variants are distinct.
type Target struct {
	Kind     Kind
	Base     string
	Fragment string
}

// String returns the canonical cache key for the target.
func (t Target) String() string {
	if t.Fragment == "" {
		return t.Base
	}
	return t.Base + "#" + t.Fragment
}

// HasFragment reports whether the target refers to an in-document anchor.
func (t Target) HasFragment() bool {
	return t.Fragment != ""
}

// SplitFragment separates a raw reference into its base and fragment parts.
// Only the first '#' is significant; a trailing empty fragment is dropped.
func SplitFragment(raw string) (base, fragment string) {
	base, fragment, _ = strings.Cut(raw, "#")
	return base, fragment
}
