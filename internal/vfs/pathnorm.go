package vfs

import (
	"strings"

	"golang.org/x/text/cases"
)

// parsedPath is a normalised absolute path split into its root and
// components.
type parsedPath struct {
	root  string
	parts []string
}

var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// parsePath normalises separators, collapses duplicate slashes and
// resolves "." and ".." components.
func parsePath(raw string) (parsedPath, error) {
	if raw == "" {
		return parsedPath{}, &InvalidPathError{Path: raw, Reason: "empty path"}
	}
	if strings.ContainsRune(raw, 0) {
		return parsedPath{}, &InvalidPathError{Path: raw, Reason: "embedded NUL"}
	}

	p := strings.ReplaceAll(raw, `\`, "/")

	var root, rest string
	switch {
	case strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "///"):
		host, tail, _ := strings.Cut(p[2:], "/")
		if host == "" {
			return parsedPath{}, &InvalidPathError{Path: raw, Reason: "missing UNC host"}
		}
		root, rest = "//"+host, tail
	case len(p) >= 2 && p[1] == ':' && isDriveLetter(p[0]):
		if len(p) > 2 && p[2] != '/' {
			return parsedPath{}, &InvalidPathError{Path: raw, Reason: "drive-relative path"}
		}
		root, rest = strings.ToUpper(p[:1])+":/", p[2:]
	case strings.HasPrefix(p, "/"):
		root, rest = "/", p
	default:
		return parsedPath{}, &InvalidPathError{Path: raw, Reason: "path is not absolute"}
	}

	var parts []string
	for _, part := range strings.Split(rest, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(parts) == 0 {
				return parsedPath{}, &InvalidPathError{Path: raw, Reason: "path escapes its root"}
			}
			parts = parts[:len(parts)-1]
			continue
		}
		if isReservedName(part) {
			return parsedPath{}, &InvalidPathError{Path: raw, Reason: "reserved device name " + part}
		}
		parts = append(parts, part)
	}

	return parsedPath{root: root, parts: parts}, nil
}

func isDriveLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isReservedName matches device names with or without an extension,
// e.g. "nul" and "COM1.txt".
func isReservedName(name string) bool {
	base, _, _ := strings.Cut(name, ".")
	base = strings.TrimRight(base, " ")
	_, ok := reservedNames[strings.ToUpper(base)]
	return ok
}

// joinPath appends a component to a path, treating roots that already end
// in a separator ("/", "C:/") correctly.
func joinPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}

// foldName returns the lookup key for a name. Caser values are not safe for
// concurrent use, so one is created per call.
func foldName(name string, caseSensitive bool) string {
	if caseSensitive {
		return name
	}
	return cases.Fold().String(name)
}

// rootKey returns the identity key for a root spelling. UNC host names are
// always case-insensitive.
func rootKey(root string, caseSensitive bool) string {
	if strings.HasPrefix(root, "//") {
		return "//" + foldName(root[2:], false)
	}
	return foldName(root, caseSensitive)
}
