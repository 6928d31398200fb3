package lower

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkdzuishuai/cminusfc/internal/ast"
	"github.com/zkdzuishuai/cminusfc/internal/ir"
)

func mustDecode(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ast.Decode([]byte(src))
	require.NoError(t, err)
	return prog
}

func TestLowerScalarAssignAndReturn(t *testing.T) {
	prog := mustDecode(t, `{
		"declarations": [
			{"node": "fun_declaration", "type": "int", "id": "main", "params": [],
			 "body": {
				"localDeclarations": [{"type": "int", "id": "x"}],
				"statements": [
					{"node": "expression_stmt", "expression":
						{"node": "assign", "var": {"node": "var", "id": "x"},
						 "expression": {"node": "num", "type": "int", "ival": 7}}},
					{"node": "return_stmt", "expression": {"node": "var", "id": "x"}}
				]
			 }}
		]
	}`)

	m, err := Lower(prog)
	require.NoError(t, err)

	fn := m.FindFunction("main")
	require.NotNil(t, fn)
	require.Len(t, fn.Blocks, 1)
	entry := fn.Blocks[0]
	require.True(t, entry.IsTerminated())

	last := entry.Instructions[len(entry.Instructions)-1]
	require.True(t, last.IsRet())
}

func TestLowerIfElseBlockNaming(t *testing.T) {
	prog := mustDecode(t, `{
		"declarations": [
			{"node": "fun_declaration", "type": "void", "id": "f", "params": [],
			 "body": {
				"localDeclarations": [],
				"statements": [
					{"node": "selection_stmt",
					 "expression": {"node": "num", "type": "int", "ival": 1},
					 "ifStatement": {"node": "return_stmt"},
					 "elseStatement": {"node": "return_stmt"}}
				]
			 }}
		]
	}`)

	m, err := Lower(prog)
	require.NoError(t, err)

	fn := m.FindFunction("f")
	require.NotNil(t, fn)

	var names []string
	for _, bb := range fn.Blocks {
		names = append(names, bb.Name())
	}
	require.Contains(t, names, "if.then.0")
	require.Contains(t, names, "if.else.0")
	require.Contains(t, names, "if.cont.0")
}

func TestLowerWhileBlockNaming(t *testing.T) {
	prog := mustDecode(t, `{
		"declarations": [
			{"node": "fun_declaration", "type": "void", "id": "f", "params": [],
			 "body": {
				"localDeclarations": [],
				"statements": [
					{"node": "iteration_stmt",
					 "expression": {"node": "num", "type": "int", "ival": 0},
					 "statement": {"node": "expression_stmt"}}
				]
			 }}
		]
	}`)

	m, err := Lower(prog)
	require.NoError(t, err)

	fn := m.FindFunction("f")
	require.NotNil(t, fn)

	var names []string
	for _, bb := range fn.Blocks {
		names = append(names, bb.Name())
	}
	require.Contains(t, names, "while.cond.0")
	require.Contains(t, names, "while.body.0")
	require.Contains(t, names, "while.exit.0")
}

func TestLowerArrayIndexEmitsBoundsGuard(t *testing.T) {
	prog := mustDecode(t, `{
		"declarations": [
			{"node": "fun_declaration", "type": "int", "id": "f", "params": [],
			 "body": {
				"localDeclarations": [{"type": "int", "id": "arr", "num": {"type": "int", "ival": 10}}],
				"statements": [
					{"node": "return_stmt", "expression":
						{"node": "var", "id": "arr", "index": {"node": "num", "type": "int", "ival": 0}}}
				]
			 }}
		]
	}`)

	m, err := Lower(prog)
	require.NoError(t, err)

	fn := m.FindFunction("f")
	require.NotNil(t, fn)

	var names []string
	for _, bb := range fn.Blocks {
		names = append(names, bb.Name())
	}
	require.Contains(t, names, "idx.ok.0")
	require.Contains(t, names, "idx.neg.0")

	var calledGuard bool
	for _, bb := range fn.Blocks {
		if bb.Name() != "idx.neg.0" {
			continue
		}
		for _, ins := range bb.Instructions {
			if ins.IsCall() && ins.CallCallee().Name() == "neg_idx_except" {
				calledGuard = true
			}
		}
	}
	require.True(t, calledGuard)
}

func TestLowerImplicitReturnInsertedWhenBodyFallsThrough(t *testing.T) {
	prog := mustDecode(t, `{
		"declarations": [
			{"node": "fun_declaration", "type": "int", "id": "f", "params": [],
			 "body": {"localDeclarations": [], "statements": []}}
		]
	}`)

	m, err := Lower(prog)
	require.NoError(t, err)

	fn := m.FindFunction("f")
	require.NotNil(t, fn)
	entry := fn.Blocks[0]
	require.True(t, entry.IsTerminated())
	last := entry.Instructions[len(entry.Instructions)-1]
	require.True(t, last.IsRet())
	c, ok := ir.AsConstantInt(last.ReturnValue())
	require.True(t, ok)
	require.Equal(t, int32(0), c.Val)
}

func TestLowerUndeclaredCallIsAnError(t *testing.T) {
	prog := mustDecode(t, `{
		"declarations": [
			{"node": "fun_declaration", "type": "void", "id": "f", "params": [],
			 "body": {"localDeclarations": [], "statements": [
				{"node": "expression_stmt", "expression": {"node": "call", "id": "bogus", "args": []}}
			 ]}}
		]
	}`)

	_, err := Lower(prog)
	require.Error(t, err)
}
