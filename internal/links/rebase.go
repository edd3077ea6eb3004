package links

import (
	"net/url"
	"path/filepath"
)

// Rebase converts a raw link string found in a document into a Target,
// using the document's own location and any declared <base href>.
//
// A link that carries a URL scheme resolves against baseHref with standard
// RFC 3986 relative-reference rules and becomes a Remote target. Everything
// else is treated as a path relative to the directory containing referrer,
// with baseHref inserted as an extra path segment, and becomes a Local
// target with a canonicalised filesystem path. The decision is made per
// link: a document may declare an absolute base href and still contain
// scheme-less links, which stay local.
func Rebase(link, baseHref, referrer string) Target {
	rawBase, fragment := SplitFragment(link)

	if u, err := url.Parse(rawBase); err == nil && u.Scheme != "" {
		resolved := u
		if baseHref != "" {
			if b, berr := url.Parse(baseHref); berr == nil {
				resolved = b.ResolveReference(u)
			}
		}
		return Target{Kind: Remote, Base: resolved.String(), Fragment: fragment}
	}

	// Unescape percent-encoding so "my%20file.html" finds "my file.html".
	if unescaped, err := url.PathUnescape(rawBase); err == nil {
		rawBase = unescaped
	}

	dir := filepath.Dir(referrer)
	if rawBase == "" {
		// Fragment-only reference: the anchor lives in the referrer itself.
		return Target{Kind: Local, Base: CanonicalPath(referrer), Fragment: fragment}
	}

	joined := filepath.Join(dir, filepath.FromSlash(baseHref), filepath.FromSlash(rawBase))
	return Target{Kind: Local, Base: CanonicalPath(joined), Fragment: fragment}
}

// CanonicalPath resolves ".", "..", and symlinks, returning an absolute
// path. Paths that do not exist are still absolutised and cleaned, so a
// missing file keeps a stable cache key.
func CanonicalPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
