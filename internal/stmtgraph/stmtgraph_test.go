package stmtgraph_test

import (
	"testing"

	"github.com/riftpack/rebuildengine/internal/stmt"
	"github.com/riftpack/rebuildengine/internal/stmtgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSimpleChain models:
//   0: const c = 1
//   1: const b = c
//   2: const a = b
//   3: export { a }
func buildSimpleChain() *stmtgraph.Graph {
	s0 := stmt.New(0)
	s0.DefinedIdents["c"] = struct{}{}

	s1 := stmt.New(1)
	s1.DefinedIdents["b"] = struct{}{}
	s1.UsedIdents["c"] = struct{}{}
	s1.DefinedIdentsMap["b"] = map[string]struct{}{"c": {}}

	s2 := stmt.New(2)
	s2.DefinedIdents["a"] = struct{}{}
	s2.UsedIdents["b"] = struct{}{}
	s2.DefinedIdentsMap["a"] = map[string]struct{}{"b": {}}

	s3 := stmt.New(3)
	s3.UsedIdents["a"] = struct{}{}
	s3.DefinedIdentsMap["a"] = map[string]struct{}{"a": {}}
	s3.ExportInfo = &stmt.ExportInfo{Specifiers: []stmt.ExportSpecifier{stmt.NamedExport{Local: "a"}}}

	return stmtgraph.Build([]*stmt.Statement{s0, s1, s2, s3})
}

func TestBuildEdgesRespectInvariants(t *testing.T) {
	g := buildSimpleChain()

	// edge.idents ⊆ consumer.used_idents ∩ producer.defined_idents
	edges := g.Outgoing(2)
	require.Len(t, edges, 1)
	assert.Equal(t, stmt.Id(1), edges[0].To)
	_, hasB := edges[0].Idents["b"]
	assert.True(t, hasB)

	// no self-loops
	for _, id := range []stmt.Id{0, 1, 2, 3} {
		for _, e := range g.Outgoing(id) {
			assert.NotEqual(t, id, e.To)
		}
	}
}

func TestAnalyzeUsedStatementsAndIdentsPropagatesChain(t *testing.T) {
	g := buildSimpleChain()

	result := g.AnalyzeUsedStatementsAndIdents(map[stmt.Id][]stmtgraph.UsedIdent{
		3: {stmtgraph.SwcIdent{Name: "a"}},
	})

	assert.Contains(t, result[3], "a")
	assert.Contains(t, result[2], "a")
	assert.Contains(t, result[1], "b")
	assert.Contains(t, result[0], "c")
}

func TestAnalyzeUsedStatementsAndIdentsExportAllMarksStar(t *testing.T) {
	g := buildSimpleChain()
	result := g.AnalyzeUsedStatementsAndIdents(map[stmt.Id][]stmtgraph.UsedIdent{
		3: {stmtgraph.ExportAllIdent{}},
	})
	assert.Contains(t, result[3], "*")
	// ExportAll does not propagate into the dependency chain.
	assert.Empty(t, result[2])
}

func TestAnalyzeUsedStatementsAndIdentsIsIdempotent(t *testing.T) {
	g := buildSimpleChain()
	first := g.AnalyzeUsedStatementsAndIdents(map[stmt.Id][]stmtgraph.UsedIdent{
		3: {stmtgraph.SwcIdent{Name: "a"}},
	})

	// Feed the result back through as input (each kept defined-ident
	// becomes a SwcIdent request at its own statement) and confirm we get
	// the same mapping back.
	asInput := map[stmt.Id][]stmtgraph.UsedIdent{}
	for id, names := range first {
		for name := range names {
			if name == "*" {
				asInput[id] = append(asInput[id], stmtgraph.ExportAllIdent{})
				continue
			}
			asInput[id] = append(asInput[id], stmtgraph.SwcIdent{Name: name})
		}
	}

	second := g.AnalyzeUsedStatementsAndIdents(asInput)

	require.Equal(t, len(first), len(second))
	for id, names := range first {
		for name := range names {
			assert.Contains(t, second[id], name)
		}
	}
}
