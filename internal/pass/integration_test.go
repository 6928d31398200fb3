package pass_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkdzuishuai/cminusfc/internal/ast"
	"github.com/zkdzuishuai/cminusfc/internal/ir"
	"github.com/zkdzuishuai/cminusfc/internal/lower"
	"github.com/zkdzuishuai/cminusfc/internal/pass"
)

// These exercise a handful of representative programs end to end: decode
// -> lower -> run the default pipeline -> inspect the IR that comes out
// the other side, rather than constructing IR by hand as pass_test.go's
// unit tests do.

func mustLower(t *testing.T, src string) *ir.Module {
	t.Helper()
	prog, err := ast.Decode([]byte(src))
	require.NoError(t, err)
	m, err := lower.Lower(prog)
	require.NoError(t, err)
	return m
}

func onlyBlock(t *testing.T, fn *ir.Function) *ir.BasicBlock {
	t.Helper()
	require.Len(t, fn.Blocks, 1, "expected the pipeline to have collapsed the function to one block")
	return fn.Blocks[0]
}

// The function under test in each scenario below is named main: the
// pipeline's global sweep drops every other function nothing calls.

// Scenario 1: int f(){ int x; x = 3; return x + 2; } should collapse to a
// single block returning the literal 5.
func TestScenarioScalarPromotionFoldsToLiteralReturn(t *testing.T) {
	m := mustLower(t, `{
		"declarations": [
			{"node": "fun_declaration", "type": "int", "id": "main", "params": [],
			 "body": {
				"localDeclarations": [{"type": "int", "id": "x"}],
				"statements": [
					{"node": "expression_stmt", "expression":
						{"node": "assign", "var": {"node": "var", "id": "x"},
						 "expression": {"node": "num", "type": "int", "ival": 3}}},
					{"node": "return_stmt", "expression":
						{"node": "additive_expression", "op": "+",
						 "left": {"node": "var", "id": "x"},
						 "term": {"node": "num", "type": "int", "ival": 2}}}
				]
			 }}
		]
	}`)

	pass.Default().Run(m)

	fn := m.FindFunction("main")
	require.NotNil(t, fn)
	bb := onlyBlock(t, fn)
	ret := bb.Instructions[len(bb.Instructions)-1]
	require.True(t, ret.IsRet())
	c, ok := ir.AsConstantInt(ret.ReturnValue())
	require.True(t, ok)
	require.Equal(t, int32(5), c.Val)
}

// Scenario 2: int g(int a[], int i){ return a[i]; } should always carry the
// bounds guard (icmp_ge + conditional branch + call neg_idx_except), with
// no static elimination before DCE since the index is not known at compile
// time.
func TestScenarioArrayIndexAlwaysCarriesBoundsGuard(t *testing.T) {
	m := mustLower(t, `{
		"declarations": [
			{"node": "fun_declaration", "type": "int", "id": "main",
			 "params": [{"type": "int", "id": "a", "isArray": true}, {"type": "int", "id": "i"}],
			 "body": {"localDeclarations": [], "statements": [
				{"node": "return_stmt", "expression":
					{"node": "var", "id": "a", "index": {"node": "var", "id": "i"}}}
			 ]}}
		]
	}`)

	pass.Default().Run(m)

	fn := m.FindFunction("main")
	require.NotNil(t, fn)

	var sawGuardCmp, sawGuardCall bool
	for _, bb := range fn.Blocks {
		for _, ins := range bb.Instructions {
			if ins.Op == ir.OpICmpGE {
				sawGuardCmp = true
			}
			if ins.IsCall() && ins.CallCallee().Name() == "neg_idx_except" {
				sawGuardCall = true
			}
		}
	}
	require.True(t, sawGuardCmp, "expected an icmp_ge guarding the array index")
	require.True(t, sawGuardCall, "expected a call to neg_idx_except on the negative path")
}

// Scenario 4: add(a,b)=a+b; m(){return add(2,3);} should inline, fold, and
// DCE down to a single block returning the literal 5.
func TestScenarioInlineThenFoldCollapsesToLiteralReturn(t *testing.T) {
	m := mustLower(t, `{
		"declarations": [
			{"node": "fun_declaration", "type": "int", "id": "add",
			 "params": [{"type": "int", "id": "a"}, {"type": "int", "id": "b"}],
			 "body": {"localDeclarations": [], "statements": [
				{"node": "return_stmt", "expression":
					{"node": "additive_expression", "op": "+",
					 "left": {"node": "var", "id": "a"}, "term": {"node": "var", "id": "b"}}}
			 ]}},
			{"node": "fun_declaration", "type": "int", "id": "main", "params": [],
			 "body": {"localDeclarations": [], "statements": [
				{"node": "return_stmt", "expression":
					{"node": "call", "id": "add", "args": [
						{"node": "num", "type": "int", "ival": 2},
						{"node": "num", "type": "int", "ival": 3}]}}
			 ]}}
		]
	}`)

	pass.Default().Run(m)

	fn := m.FindFunction("main")
	require.NotNil(t, fn)
	bb := onlyBlock(t, fn)
	ret := bb.Instructions[len(bb.Instructions)-1]
	require.True(t, ret.IsRet())
	c, ok := ir.AsConstantInt(ret.ReturnValue())
	require.True(t, ok)
	require.Equal(t, int32(5), c.Val)
}

// Scenario 5: a self-recursive function is never inlined; fact should
// retain its call to itself after the pipeline runs.
func TestScenarioRecursiveFunctionIsNeverInlined(t *testing.T) {
	m := mustLower(t, `{
		"declarations": [
			{"node": "fun_declaration", "type": "int", "id": "fact", "params": [{"type": "int", "id": "n"}],
			 "body": {"localDeclarations": [], "statements": [
				{"node": "selection_stmt",
				 "expression": {"node": "simple_expression", "op": "<=",
					"left": {"node": "var", "id": "n"},
					"right": {"node": "num", "type": "int", "ival": 1}},
				 "ifStatement": {"node": "return_stmt", "expression": {"node": "num", "type": "int", "ival": 1}}},
				{"node": "return_stmt", "expression":
					{"node": "term", "op": "*",
					 "left": {"node": "var", "id": "n"},
					 "factor": {"node": "call", "id": "fact", "args": [
						{"node": "additive_expression", "op": "-",
						 "left": {"node": "var", "id": "n"},
						 "term": {"node": "num", "type": "int", "ival": 1}}]}}}
			 ]}}
		]
	}`)

	pass.Default().Run(m)

	fn := m.FindFunction("fact")
	require.NotNil(t, fn)

	var sawSelfCall bool
	for _, bb := range fn.Blocks {
		for _, ins := range bb.Instructions {
			if ins.IsCall() && ins.CallCallee() == fn {
				sawSelfCall = true
			}
		}
	}
	require.True(t, sawSelfCall, "a recursive function must never be inlined into itself")
}

// Scenario 6: int p(){ if(1) return 1; else return 2; } should fold the
// always-true branch to unconditional, prune the false arm, and surface a
// single surviving return of 1.
func TestScenarioConstantConditionPrunesUnreachableArm(t *testing.T) {
	m := mustLower(t, `{
		"declarations": [
			{"node": "fun_declaration", "type": "int", "id": "main", "params": [],
			 "body": {"localDeclarations": [], "statements": [
				{"node": "selection_stmt",
				 "expression": {"node": "num", "type": "int", "ival": 1},
				 "ifStatement": {"node": "return_stmt", "expression": {"node": "num", "type": "int", "ival": 1}},
				 "elseStatement": {"node": "return_stmt", "expression": {"node": "num", "type": "int", "ival": 2}}}
			 ]}}
		]
	}`)

	pass.Default().Run(m)

	fn := m.FindFunction("main")
	require.NotNil(t, fn)
	var rets []*ir.Instruction
	for _, bb := range fn.Blocks {
		for _, ins := range bb.Instructions {
			if ins.IsRet() {
				rets = append(rets, ins)
			}
		}
	}
	require.Len(t, rets, 1, "expected only the taken arm's return to survive")
	ret := rets[0]
	require.True(t, ret.IsRet())
	c, ok := ir.AsConstantInt(ret.ReturnValue())
	require.True(t, ok)
	require.Equal(t, int32(1), c.Val)
}
