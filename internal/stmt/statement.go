package stmt

// Id is a zero-based index into a module's top-level body.
type Id int

// Span is a byte range in the original source.
type Span struct {
	Start int
	End   int
}

// Statement is the per-syntactic-item analysis record produced for one
// top-level item of a module.
type Statement struct {
	Id Id

	ImportInfo *ImportInfo
	ExportInfo *ExportInfo

	// DefinedIdents are the bindings this statement introduces in module
	// scope.
	DefinedIdents map[string]struct{}

	// UsedIdents are the identifiers referenced by this statement's
	// expressions, including identifiers it merely reads without binding.
	UsedIdents map[string]struct{}

	// DefinedIdentsMap records, for each defined ident, the set of other
	// idents used to compute its value — the intra-statement dependency
	// edges a tree-shake slice needs (e.g. `export const a = b + c` maps
	// "a" -> {"b", "c"}).
	DefinedIdentsMap map[string]map[string]struct{}

	// IsSelfExecuted statements must be kept by any tree-shake pass even
	// if none of their defined idents end up used — top-level side-effect
	// statements, and statements touching a top-level-await boundary (see
	// stmtgraph.Graph.MarkAsyncBoundary).
	IsSelfExecuted bool

	HasSideEffects bool

	Span Span
}

// New constructs a Statement with its maps initialized to empty sets,
// convenient for callers building statements incrementally.
func New(id Id) *Statement {
	return &Statement{
		Id:               id,
		DefinedIdents:    map[string]struct{}{},
		UsedIdents:       map[string]struct{}{},
		DefinedIdentsMap: map[string]map[string]struct{}{},
	}
}

// DefinesIdent reports whether this statement defines name.
func (s *Statement) DefinesIdent(name string) bool {
	_, ok := s.DefinedIdents[name]
	return ok
}

// UsesIdent reports whether this statement uses name.
func (s *Statement) UsesIdent(name string) bool {
	_, ok := s.UsedIdents[name]
	return ok
}
