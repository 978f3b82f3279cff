package policy

import (
	"regexp"
	"strings"
)

// PatternKind enumerates the supported path pattern variants.
type PatternKind int

const (
	PatternExact PatternKind = iota
	PatternPrefix
	PatternRegexp
)

// Pattern matches request paths.
type Pattern struct {
	kind PatternKind
	raw  string
	re   *regexp.Regexp
}

// Exact matches path exactly.
func Exact(path string) Pattern {
	return Pattern{kind: PatternExact, raw: path}
}

// Prefix matches the given path and everything beneath it. A trailing "/**"
// is accepted and stripped, so Prefix("/webjars/**") matches "/webjars",
// "/webjars/" and "/webjars/a/b".
func Prefix(path string) Pattern {
	base := strings.TrimSuffix(path, "/**")
	base = strings.TrimSuffix(base, "/")
	return Pattern{kind: PatternPrefix, raw: base}
}

// Regexp matches the whole path against expr. It panics on an invalid
// expression; chains are built from constants at startup.
func Regexp(expr string) Pattern {
	return Pattern{kind: PatternRegexp, raw: expr, re: regexp.MustCompile(`^(?:` + expr + `)$`)}
}

// Match reports whether path satisfies the pattern.
func (p Pattern) Match(path string) bool {
	switch p.kind {
	case PatternExact:
		return path == p.raw
	case PatternPrefix:
		return path == p.raw || strings.HasPrefix(path, p.raw+"/")
	case PatternRegexp:
		return p.re.MatchString(path)
	default:
		return false
	}
}

// Kind returns the pattern variant.
func (p Pattern) Kind() PatternKind { return p.kind }

func (p Pattern) String() string {
	switch p.kind {
	case PatternPrefix:
		return p.raw + "/**"
	case PatternRegexp:
		return "~" + p.raw
	default:
		return p.raw
	}
}
