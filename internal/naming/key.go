// Package naming derives canonical keys for declared types.
//
// A top-level type is keyed "pkg.Name" ("Name" in the default package) and a
// lexically nested type "Owner$Name", so the owner of any key is recovered by
// cutting at the rightmost separator.
package naming

import "strings"

const (
	PackageSep = "."
	NestingSep = "$"
)

// Key is the canonical identity of a declared type.
type Key string

// String returns the key text.
func (k Key) String() string { return string(k) }

// KeyOf returns the key of a declaration named simpleName. An empty owner means
// the declaration is top level in pkg.
func KeyOf(pkg, simpleName string, owner Key) Key {
	if owner != "" {
		return owner + NestingSep + Key(simpleName)
	}
	if pkg == "" {
		return Key(simpleName)
	}
	return Key(pkg + PackageSep + simpleName)
}

// OwnerOf strips the last path element of k. For a nested key this is the
// enclosing type; for a top-level key it is the package. It returns false when
// k has no separator at all.
func OwnerOf(k Key) (Key, bool) {
	i := lastSep(string(k))
	if i < 0 {
		return "", false
	}
	return k[:i], true
}

// SimpleNameOf returns the text after the rightmost separator.
func SimpleNameOf(k Key) string {
	return SimpleName(string(k))
}

// SimpleName is SimpleNameOf for raw, dotted names as written in source.
func SimpleName(raw string) string {
	i := lastSep(raw)
	if i < 0 {
		return raw
	}
	return raw[i+1:]
}

// TopLevel returns the outermost enclosing type key of k.
func TopLevel(k Key) Key {
	if i := strings.Index(string(k), NestingSep); i >= 0 {
		return k[:i]
	}
	return k
}

// PackageOf returns the package part of k, or "" for the default package.
func PackageOf(k Key) string {
	top := string(TopLevel(k))
	if i := strings.LastIndex(top, PackageSep); i >= 0 {
		return top[:i]
	}
	return ""
}

// NestedSpellings lists the keys a dotted source name could denote, from the
// reading with the longest package to the one with none: "p.A.B" yields
// "p.A.B", "p.A$B" and "p$A$B".
func NestedSpellings(raw string) []Key {
	parts := strings.Split(raw, PackageSep)
	if len(parts) < 2 {
		return []Key{Key(raw)}
	}
	out := make([]Key, 0, len(parts))
	for pkgLen := len(parts) - 1; pkgLen >= 0; pkgLen-- {
		typePath := strings.Join(parts[pkgLen:], NestingSep)
		if pkgLen == 0 {
			out = append(out, Key(typePath))
			continue
		}
		out = append(out, Key(strings.Join(parts[:pkgLen], PackageSep)+PackageSep+typePath))
	}
	return out
}

func lastSep(s string) int {
	return max(strings.LastIndex(s, PackageSep), strings.LastIndex(s, NestingSep))
}
