// Package stmtgraph builds, per module, a directed graph of the module's
// top-level statements linked by identifier definition/use, and answers the
// live-slice query the tree-shake pass needs: starting from a set of
// exported identifiers actually consumed downstream, which statements (and
// which of their defined identifiers) must survive.
package stmtgraph

import (
	"sort"
	"strings"

	"github.com/riftpack/rebuildengine/internal/stmt"
)

// Edge is a merged dependency edge from a consuming statement to a
// statement that defines at least one identifier the consumer uses.
// Idents is the union of every ident that has ever triggered this edge.
type Edge struct {
	To     stmt.Id
	Idents map[string]struct{}
}

// Graph is the per-module statement graph described in spec §4.3.
// Edges point from a statement to every statement defining an identifier
// it uses; multi-edges between the same pair are merged by unioning their
// triggering idents, and there are never self-loops.
type Graph struct {
	statements map[stmt.Id]*stmt.Statement
	outgoing   map[stmt.Id]map[stmt.Id]*Edge
}

// Build constructs the statement graph for a module body of the given
// statements. It is quadratic in the number of statements, which is
// acceptable since modules rarely exceed a few hundred top-level items.
func Build(statements []*stmt.Statement) *Graph {
	g := &Graph{
		statements: make(map[stmt.Id]*stmt.Statement, len(statements)),
		outgoing:   make(map[stmt.Id]map[stmt.Id]*Edge),
	}
	for _, s := range statements {
		g.statements[s.Id] = s
	}
	for _, consumer := range statements {
		for _, producer := range statements {
			if consumer.Id == producer.Id {
				continue
			}
			shared := intersect(consumer.UsedIdents, producer.DefinedIdents)
			if len(shared) == 0 {
				continue
			}
			g.addEdge(consumer.Id, producer.Id, shared)
		}
	}
	return g
}

func (g *Graph) addEdge(from, to stmt.Id, idents map[string]struct{}) {
	byTarget, ok := g.outgoing[from]
	if !ok {
		byTarget = map[stmt.Id]*Edge{}
		g.outgoing[from] = byTarget
	}
	if e, ok := byTarget[to]; ok {
		for k := range idents {
			e.Idents[k] = struct{}{}
		}
		return
	}
	cp := make(map[string]struct{}, len(idents))
	for k := range idents {
		cp[k] = struct{}{}
	}
	byTarget[to] = &Edge{To: to, Idents: cp}
}

// Statement returns the statement record for id, or nil if absent.
func (g *Graph) Statement(id stmt.Id) *stmt.Statement {
	return g.statements[id]
}

// Outgoing returns the merged outgoing edges of id, sorted by Edge.To.
func (g *Graph) Outgoing(id stmt.Id) []*Edge {
	byTarget := g.outgoing[id]
	out := make([]*Edge, 0, len(byTarget))
	for _, e := range byTarget {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].To < out[j].To })
	return out
}

// MarkAsyncBoundary forces IsSelfExecuted on every statement that uses an
// identifier bound by a top-level-await import, since removing such a
// statement would change evaluation order even though nothing downstream
// consumes its defined idents. This supplements the tree-shake pass with
// the async/top-level-await propagation the original Rust implementation
// tracks per module (see SPEC_FULL.md Expansion C).
func (g *Graph) MarkAsyncBoundary(awaitedIdents map[string]struct{}) {
	for _, s := range g.statements {
		for name := range awaitedIdents {
			if s.UsesIdent(name) {
				s.IsSelfExecuted = true
				break
			}
		}
	}
}

func intersect(a, b map[string]struct{}) map[string]struct{} {
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	var out map[string]struct{}
	for k := range small {
		if _, ok := big[k]; ok {
			if out == nil {
				out = map[string]struct{}{}
			}
			out[k] = struct{}{}
		}
	}
	return out
}

func sortedJoin(set map[string]struct{}) string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
