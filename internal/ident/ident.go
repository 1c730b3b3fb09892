// Package ident implements the identifier comparison rules used throughout
// the rebuild engine's statement and re-export analysis.
//
// Identifiers coming out of the parser may carry a syntactic-context tag: an
// opaque numeric scope marker a parser pass attaches to disambiguate two
// bindings that share a symbol but come from different hygiene scopes (the
// same shape SWC's `SyntaxContext` gives an `Ident`). The tag is encoded as
// a `#<digits>` suffix on the wire, e.g. `"a#3"`. An identifier with no `#`
// suffix carries no context.
package ident

import "strings"

const contextSep = '#'

// StripContext removes any trailing context annotation, returning the bare
// symbol. "a#3" -> "a". "a" -> "a".
func StripContext(s string) string {
	if i := strings.LastIndexByte(s, contextSep); i >= 0 && isAllDigits(s[i+1:]) {
		return s[:i]
	}
	return s
}

// hasContext reports whether s carries a context tag, and returns the bare
// symbol alongside the flag.
func hasContext(s string) (symbol string, ok bool) {
	if i := strings.LastIndexByte(s, contextSep); i >= 0 && i < len(s)-1 && isAllDigits(s[i+1:]) {
		return s[:i], true
	}
	return s, false
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsIdentSymEqual compares the textual symbol only, ignoring any context tag
// on either side. This is the comparison to use when matching against a
// name written in source text that cannot itself carry hygiene information
// (an export alias, an import specifier's written name, and so on).
func IsIdentSymEqual(a, b string) bool {
	return StripContext(a) == StripContext(b)
}

// IsIdentEqual compares symbol and, when both sides carry a context tag,
// the context too. If either side has no context tag, it falls back to a
// symbol-only comparison — there is nothing more specific to compare
// against. Do not collapse this with IsIdentSymEqual: a caller resolving a
// binding against a specific scope needs the stronger check, while a
// caller matching against source-level written names needs the weaker one.
func IsIdentEqual(a, b string) bool {
	aSym, aHas := hasContext(a)
	bSym, bHas := hasContext(b)
	if aHas && bHas {
		return a == b
	}
	return aSym == bSym
}

// MakeContextual attaches a context tag to a bare symbol. It is provided for
// tests and for callers constructing synthetic identifiers; the parser
// boundary that would normally produce these tags is out of scope here.
func MakeContextual(symbol string, context uint32) string {
	return symbol + string(contextSep) + itoa(context)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
