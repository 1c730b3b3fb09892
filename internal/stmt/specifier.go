// Package stmt holds the per-statement analysis record produced for each
// top-level item of a module body, along with the import/export specifier
// model those records are built from.
package stmt

import "github.com/riftpack/rebuildengine/internal/ident"

// ImportSpecifier is the tagged variant of one binding introduced by an
// import statement.
type ImportSpecifier interface {
	isImportSpecifier()
	localName() string
}

// NamespaceImport binds the entire module namespace to Local, e.g.
// `import * as Local from "..."`.
type NamespaceImport struct{ Local string }

// NamedImport binds a single exported name to Local, optionally under an
// alias. `import { Imported as Local }` sets both fields; a bare
// `import { Local }` leaves Imported empty and HasImported false.
type NamedImport struct {
	Local       string
	Imported    string
	HasImported bool
}

// DefaultImport binds the default export to Local, e.g. `import Local from "..."`.
type DefaultImport struct{ Local string }

func (NamespaceImport) isImportSpecifier() {}
func (NamedImport) isImportSpecifier()     {}
func (DefaultImport) isImportSpecifier()   {}

func (s NamespaceImport) localName() string { return s.Local }
func (s NamedImport) localName() string     { return s.Local }
func (s DefaultImport) localName() string   { return s.Local }

// ImportedName returns the name requested from the source module: the
// alias if present, else the local binding name.
func (s NamedImport) ImportedName() string {
	if s.HasImported {
		return s.Imported
	}
	return s.Local
}

// ImportInfo describes one import statement: its source specifier and the
// bindings it introduces.
type ImportInfo struct {
	Source      string
	Specifiers  []ImportSpecifier
}

// FindDefineSpecifier returns the specifier that binds identName in this
// import. Namespace imports are checked like any other specifier — they
// expose the whole namespace object under their local name, so equality
// with the local name is the only condition, and a match there is
// returned immediately without weighing any further tie-break against the
// other specifiers in this import.
func (ii *ImportInfo) FindDefineSpecifier(identName string) (ImportSpecifier, bool) {
	if ii == nil {
		return nil, false
	}
	for _, s := range ii.Specifiers {
		switch sp := s.(type) {
		case NamespaceImport:
			if ident.IsIdentEqual(sp.Local, identName) {
				return sp, true
			}
		case NamedImport:
			if ident.IsIdentEqual(sp.Local, identName) {
				return sp, true
			}
		case DefaultImport:
			if ident.IsIdentEqual(sp.Local, identName) {
				return sp, true
			}
		}
	}
	return nil, false
}

// ExportSpecifier is the tagged variant of one export declared by a
// statement.
type ExportSpecifier interface {
	isExportSpecifier()
}

// AllExport models `export * from "..."` where the concrete set of
// re-exported names is statically known (i.e. the source module's exports
// were already analyzed).
type AllExport struct{ ExportedIdents []string }

// NamedExport models `export { Local as Exported }` (HasExported false means
// no alias, so the exported name equals Local) and, when Source is set on
// the owning ExportInfo, `export { Local as Exported } from "..."`.
type NamedExport struct {
	Local       string
	Exported    string
	HasExported bool
}

// ExportedName returns the alias if present, else the local name.
func (s NamedExport) ExportedName() string {
	if s.HasExported {
		return s.Exported
	}
	return s.Local
}

// DefaultExport models `export default <expr>`. Local is empty and
// HasLocal false when the default export is an inline expression rather
// than a re-exported binding (`export default 1 + 1`).
type DefaultExport struct {
	Local    string
	HasLocal bool
}

// NamespaceExport models `export * as Exported from "..."`.
type NamespaceExport struct{ Exported string }

// AmbiguousExport models a CommonJS interop export whose concrete set
// cannot be determined statically; Idents holds whatever names static
// analysis could infer, each held with low confidence.
type AmbiguousExport struct{ Idents []string }

func (AllExport) isExportSpecifier()       {}
func (NamedExport) isExportSpecifier()     {}
func (DefaultExport) isExportSpecifier()   {}
func (NamespaceExport) isExportSpecifier() {}
func (AmbiguousExport) isExportSpecifier() {}

// ExportInfo describes one export statement. Source is non-empty for
// `export ... from "..."` forms.
type ExportInfo struct {
	Source     string
	HasSource  bool
	Specifiers []ExportSpecifier
}

// FindDefineSpecifier returns the specifier whose exported name matches
// identName, scanning specifiers in declaration order. An AmbiguousExport
// that does not contain identName short-circuits the search: the caller
// cannot tell whether a later concrete specifier would have matched once a
// statically-unknowable interop export is in the way, so resolution stops
// here and reports no match at all.
func (ei *ExportInfo) FindDefineSpecifier(identName string) (ExportSpecifier, bool) {
	if ei == nil {
		return nil, false
	}
	for _, s := range ei.Specifiers {
		switch sp := s.(type) {
		case NamedExport:
			if ident.IsIdentSymEqual(sp.ExportedName(), identName) {
				return sp, true
			}
		case AllExport:
			for _, n := range sp.ExportedIdents {
				if ident.IsIdentSymEqual(n, identName) {
					return sp, true
				}
			}
		case DefaultExport:
			if ident.IsIdentSymEqual("default", identName) {
				return sp, true
			}
		case NamespaceExport:
			if ident.IsIdentSymEqual(sp.Exported, identName) {
				return sp, true
			}
		case AmbiguousExport:
			for _, n := range sp.Idents {
				if ident.IsIdentSymEqual(n, identName) {
					return sp, true
				}
			}
			return nil, false
		}
	}
	return nil, false
}

// MatchKind is the three-valued result of ExportInfo.MatchesIdent.
type MatchKind uint8

const (
	Unmatched MatchKind = iota
	Matched
	Ambiguous
)

// MatchesIdent scans all specifiers for identName. A concrete match (in
// any specifier kind but AmbiguousExport) always wins. Ambiguous is
// returned only when nothing concrete matched but at least one
// AmbiguousExport specifier lists identName among its inferred names.
func (ei *ExportInfo) MatchesIdent(identName string) MatchKind {
	if ei == nil {
		return Unmatched
	}
	sawAmbiguous := false
	for _, s := range ei.Specifiers {
		switch sp := s.(type) {
		case NamedExport:
			if ident.IsIdentSymEqual(sp.ExportedName(), identName) {
				return Matched
			}
		case AllExport:
			for _, n := range sp.ExportedIdents {
				if ident.IsIdentSymEqual(n, identName) {
					return Matched
				}
			}
		case DefaultExport:
			if ident.IsIdentSymEqual("default", identName) {
				return Matched
			}
		case NamespaceExport:
			if ident.IsIdentSymEqual(sp.Exported, identName) {
				return Matched
			}
		case AmbiguousExport:
			for _, n := range sp.Idents {
				if ident.IsIdentSymEqual(n, identName) {
					sawAmbiguous = true
				}
			}
		}
	}
	if sawAmbiguous {
		return Ambiguous
	}
	return Unmatched
}
