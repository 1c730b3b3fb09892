// Package reexport implements the re-export resolver: given a module and
// an identifier a downstream consumer imports from it, determine which
// module actually owns the value and under what name, walking through
// local aliases and `export ... from` chains as needed.
package reexport

import (
	"github.com/riftpack/rebuildengine/internal/ident"
	"github.com/riftpack/rebuildengine/internal/stmt"
	"github.com/riftpack/rebuildengine/internal/stmtgraph"
)

// Kind is the re-export mechanism by which a value reaches this module's
// export surface.
type Kind uint8

const (
	Named Kind = iota
	Default
	Namespace
)

// Source describes where an exported identifier really comes from.
// HasSource false means the identifier is locally originated here (a
// "Direct Export"); HasSource true means the value flows through the
// named import specifier.
type Source struct {
	Kind         Kind
	OriginalName string // meaningful only when Kind == Named
	SourceSpec   string
	HasSource    bool
}

// Module is the minimal view the resolver needs of a module under
// tree-shake analysis: its ordered statements and the statement graph
// built over them. Holding the *stmtgraph.Graph here lets other tree-shake code
// share the same statement graph instance.
type Module struct {
	ID         string
	Statements []*stmt.Statement
	Graph      *stmtgraph.Graph
}

// NewModule builds a Module (and its statement graph) from a module's
// parsed statement list.
func NewModule(id string, statements []*stmt.Statement) *Module {
	return &Module{ID: id, Statements: statements, Graph: stmtgraph.Build(statements)}
}

// FindExportSource answers: if a downstream consumer imports identName
// from this module, which module (if any) actually owns the value, and
// under what name? The second return value is true only when a sourceless
// export statement carries a Namespace or Ambiguous specifier, which stops
// the search with a nil Source. An Ambiguous specifier on an
// `export ... from` statement does not set it: the search moves on to the
// following statements, and ends in (nil, false) if nothing else matches.
func FindExportSource(m *Module, identName string) (*Source, bool) {
	var pendingKind Kind
	var pendingOriginalName string
	var localIdent string
	var haveLocal bool

	for _, s := range m.Statements {
		ei := s.ExportInfo
		if ei == nil {
			continue
		}

		if ei.HasSource {
			if src, blocked, done := matchExportWithSource(ei, identName); done {
				return src, blocked
			}
			continue
		}

		kind, originalName, local, hasLocal, matched, blocked := matchExportWithoutSource(ei, identName)
		if blocked {
			return nil, true
		}
		if matched {
			if !hasLocal {
				// The value is the expression itself, not re-exported.
				return &Source{Kind: kind}, false
			}
			pendingKind, pendingOriginalName, localIdent, haveLocal = kind, originalName, local, true
			break
		}
	}

	if !haveLocal {
		return nil, false
	}

	for _, s := range m.Statements {
		ii := s.ImportInfo
		if ii == nil {
			continue
		}
		sp, ok := ii.FindDefineSpecifier(localIdent)
		if !ok {
			continue
		}
		switch v := sp.(type) {
		case stmt.NamespaceImport:
			return &Source{Kind: Namespace, SourceSpec: ii.Source, HasSource: true}, false
		case stmt.NamedImport:
			next := v.ImportedName()
			return &Source{Kind: Named, OriginalName: ident.StripContext(next), SourceSpec: ii.Source, HasSource: true}, false
		case stmt.DefaultImport:
			return &Source{Kind: Default, SourceSpec: ii.Source, HasSource: true}, false
		}
	}

	// No local import matched: the value originates directly in this
	// module under the name remembered in the sourceless export pass.
	return &Source{Kind: pendingKind, OriginalName: pendingOriginalName}, false
}

// matchExportWithSource handles one `export ... from "specifier"`
// statement. done is true when the caller should stop the whole search
// (either because a concrete answer was found, or because the statement
// explicitly rules out any match).
func matchExportWithSource(ei *stmt.ExportInfo, identName string) (src *Source, blocked bool, done bool) {
	for _, sp := range ei.Specifiers {
		switch v := sp.(type) {
		case stmt.AllExport:
			for _, n := range v.ExportedIdents {
				if ident.IsIdentSymEqual(n, identName) {
					return &Source{Kind: Named, OriginalName: ident.StripContext(identName), SourceSpec: ei.Source, HasSource: true}, false, true
				}
			}
		case stmt.AmbiguousExport:
			// Leave unresolved: an Ambiguous re-export-star cannot tell us
			// whether identName flows through it, so we keep scanning
			// rather than committing to an answer here.
		case stmt.NamedExport:
			exported := v.ExportedName()
			if ident.IsIdentSymEqual(exported, identName) {
				if ident.IsIdentSymEqual(v.Local, "default") {
					return &Source{Kind: Default, SourceSpec: ei.Source, HasSource: true}, false, true
				}
				return &Source{Kind: Named, OriginalName: ident.StripContext(v.Local), SourceSpec: ei.Source, HasSource: true}, false, true
			}
		case stmt.DefaultExport:
			// A Default specifier never occurs on an export-with-source
			// statement in this dialect; never matches.
		case stmt.NamespaceExport:
			if ident.IsIdentSymEqual(v.Exported, identName) {
				return &Source{Kind: Namespace, SourceSpec: ei.Source, HasSource: true}, false, true
			}
			return nil, false, true
		}
	}
	return nil, false, false
}

// matchExportWithoutSource handles one `export { x }` / `export default x`
// statement. blocked is true when a Namespace or Ambiguous specifier
// appears here, which cannot happen in well-formed source and is treated
// as an unconditional resolution barrier.
func matchExportWithoutSource(ei *stmt.ExportInfo, identName string) (kind Kind, originalName, local string, hasLocal, matched, blocked bool) {
	for _, sp := range ei.Specifiers {
		switch v := sp.(type) {
		case stmt.NamedExport:
			exported := v.ExportedName()
			if ident.IsIdentSymEqual(exported, identName) {
				return Named, ident.StripContext(exported), v.Local, true, true, false
			}
		case stmt.DefaultExport:
			if !ident.IsIdentSymEqual(identName, "default") {
				continue
			}
			if v.HasLocal {
				return Default, "", v.Local, true, true, false
			}
			return Default, "", "", false, true, false
		case stmt.AllExport:
			// Impossible without a source; skip.
		case stmt.NamespaceExport, stmt.AmbiguousExport:
			return 0, "", "", false, false, true
		}
	}
	return 0, "", "", false, false, false
}
