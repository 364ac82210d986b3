// Package pathutil provides the filesystem path predicates used by the
// module inclusion policy. Comparisons are case-insensitive and accept both
// separator styles, since module paths are reported by the OS and compared
// against configuration values a user typed.
package pathutil

import (
	"path"
	"strings"
)

func normalize(p string) string {
	p = strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
	return path.Clean(p)
}

// Contains reports whether p is nested under dir, or equal to it.
func Contains(dir, p string) bool {
	if dir == "" || p == "" {
		return false
	}
	d := normalize(dir)
	q := normalize(p)
	if d == q {
		return true
	}
	if d != "/" {
		d += "/"
	}
	return strings.HasPrefix(q, d)
}

// Equal reports whether two paths name the same file.
func Equal(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return normalize(a) == normalize(b)
}

// Parent returns the normalized directory containing p.
func Parent(p string) string {
	return path.Dir(normalize(p))
}

// SameDir reports whether two file paths live in the same directory.
func SameDir(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return Parent(a) == Parent(b)
}
