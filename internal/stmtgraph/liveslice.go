package stmtgraph

import (
	"fmt"
	"sort"

	"github.com/riftpack/rebuildengine/internal/stmt"
)

// UsedIdent is the tagged variant of one externally-observed use of an
// export from a given starting statement.
type UsedIdent interface{ isUsedIdent() }

// SwcIdent names a concrete identifier consumed downstream.
type SwcIdent struct{ Name string }

// DefaultIdent marks that the statement's default export is consumed.
type DefaultIdent struct{}

// InExportAll marks that the identifier flows through an `export * from
// specifier` re-export and so must be attributed to that specifier
// without being resolved further here.
type InExportAll struct{ Specifier string }

// ExportAllIdent marks that the whole namespace ("*") is consumed, e.g.
// because a consumer does `import * as ns` on a module that re-exports
// everything from this one.
type ExportAllIdent struct{}

func (SwcIdent) isUsedIdent()       {}
func (DefaultIdent) isUsedIdent()   {}
func (InExportAll) isUsedIdent()    {}
func (ExportAllIdent) isUsedIdent() {}

// Result maps a statement to the set of its defined idents (or the
// sentinel "*", or an export-all specifier string) that must be kept.
type Result map[stmt.Id]map[string]struct{}

// AnalyzeUsedStatementsAndIdents computes the live slice of a module given
// the set of its exports actually observed as used by downstream
// consumers. See spec §4.3 for the algorithm this implements verbatim.
func (g *Graph) AnalyzeUsedStatementsAndIdents(usedExports map[stmt.Id][]UsedIdent) Result {
	result := Result{}
	mark := func(id stmt.Id, names ...string) {
		set, ok := result[id]
		if !ok {
			set = map[string]struct{}{}
			result[id] = set
		}
		for _, n := range names {
			set[n] = struct{}{}
		}
	}

	type item struct {
		id          stmt.Id
		usedDefined map[string]struct{}
		usedDep     map[string]struct{}
	}

	pending := map[stmt.Id]*item{}
	var order []stmt.Id
	enqueue := func(id stmt.Id, usedDefined, usedDep map[string]struct{}) {
		if it, ok := pending[id]; ok {
			for k := range usedDefined {
				it.usedDefined[k] = struct{}{}
			}
			for k := range usedDep {
				it.usedDep[k] = struct{}{}
			}
			return
		}
		pending[id] = &item{id: id, usedDefined: cloneSet(usedDefined), usedDep: cloneSet(usedDep)}
		order = append(order, id)
	}

	startIds := make([]stmt.Id, 0, len(usedExports))
	for id := range usedExports {
		startIds = append(startIds, id)
	}
	sort.Slice(startIds, func(i, j int) bool { return startIds[i] < startIds[j] })

	for _, id := range startIds {
		s := g.Statement(id)
		for _, u := range usedExports[id] {
			switch v := u.(type) {
			case ExportAllIdent:
				mark(id, "*")
			case InExportAll:
				mark(id, v.Specifier)
			case SwcIdent:
				usedDefined := map[string]struct{}{v.Name: {}}
				usedDep := depsOf(s, v.Name)
				enqueue(id, usedDefined, usedDep)
			case DefaultIdent:
				usedDefined := map[string]struct{}{"default": {}}
				usedDep := depsOf(s, "default")
				enqueue(id, usedDefined, usedDep)
			}
		}
	}

	visited := map[string]struct{}{}

	for len(order) > 0 {
		id := order[0]
		order = order[1:]
		it, ok := pending[id]
		if !ok {
			continue
		}
		delete(pending, id)

		mark(id, setKeys(it.usedDefined)...)

		visitedKey := fmt.Sprintf("%d|%s", id, sortedJoin(it.usedDefined))
		if _, seen := visited[visitedKey]; seen {
			continue
		}
		visited[visitedKey] = struct{}{}

		for _, edge := range g.Outgoing(id) {
			overlap := intersect(edge.Idents, it.usedDep)
			if len(overlap) == 0 {
				continue
			}
			depStmt := g.Statement(edge.To)
			nextUsedDep := map[string]struct{}{}
			for d := range overlap {
				for k := range depsOf(depStmt, d) {
					nextUsedDep[k] = struct{}{}
				}
			}
			enqueue(edge.To, overlap, nextUsedDep)
		}
	}

	return result
}

func depsOf(s *stmt.Statement, name string) map[string]struct{} {
	if s == nil {
		return nil
	}
	deps, ok := s.DefinedIdentsMap[name]
	if !ok {
		return nil
	}
	return cloneSet(deps)
}

func cloneSet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func setKeys(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

