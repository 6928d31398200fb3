// Package lower walks a cminus-f AST and emits IR, one case per node kind,
// using an accept/visit-free, direct-dispatch Go idiom (a type switch per
// node interface rather than a visitor pattern, matching
// internal/codegen's own preference for switches over interfaces).
package lower

import (
	"fmt"

	"github.com/zkdzuishuai/cminusfc/internal/ast"
	"github.com/zkdzuishuai/cminusfc/internal/ir"
	"github.com/zkdzuishuai/cminusfc/internal/irbuilder"
)

// scope is a chain of name->value bindings, one map per lexical level. Level
// 0 is the global scope; scope.enter()/exit() push and pop function- and
// block-local levels, the same shape as CminusfBuilder's own Scope type.
type scope struct {
	levels []map[string]ir.Value
}

func newScope() *scope {
	s := &scope{}
	s.enter()
	return s
}

func (s *scope) enter() { s.levels = append(s.levels, map[string]ir.Value{}) }
func (s *scope) exit()  { s.levels = s.levels[:len(s.levels)-1] }

func (s *scope) push(name string, v ir.Value) {
	s.levels[len(s.levels)-1][name] = v
}

func (s *scope) find(name string) ir.Value {
	for i := len(s.levels) - 1; i >= 0; i-- {
		if v, ok := s.levels[i][name]; ok {
			return v
		}
	}
	return nil
}

func (s *scope) inGlobal() bool { return len(s.levels) == 1 }

// lowerer holds the state cminusf_builder.cpp threads through its
// "context" struct and free counters (idx_count/if_count/while_count),
// scoped per-function the same way.
type lowerer struct {
	module  *ir.Module
	builder *irbuilder.Builder
	scope   *scope

	fn            *ir.Function
	requireLvalue bool

	idxCount, ifCount, whileCount int
}

// Lower builds a Module from prog. The four runtime builtins
// (input/output/outputFloat/neg_idx_except) are declared first, exactly as
// FunctionInline.hpp's outside_func exclusion set expects them to exist as
// callable, non-inlinable declarations.
func Lower(prog *ast.Program) (*ir.Module, error) {
	m := ir.NewModule("cminus-f")
	l := &lowerer{module: m, builder: irbuilder.New(m), scope: newScope()}
	l.declareBuiltins()

	for _, decl := range prog.Declarations {
		if err := l.lowerDeclaration(decl); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (l *lowerer) declareBuiltins() {
	i32, f32, void := l.module.Types().Int32(), l.module.Types().Float(), l.module.Types().Void()

	input := ir.NewFunction(l.module, l.module.Types().Function(i32, nil).(*ir.FunctionType), "input")
	l.scope.push("input", input)

	output := ir.NewFunction(l.module, l.module.Types().Function(void, []ir.Type{i32}).(*ir.FunctionType), "output")
	l.scope.push("output", output)

	outputFloat := ir.NewFunction(l.module, l.module.Types().Function(void, []ir.Type{f32}).(*ir.FunctionType), "outputFloat")
	l.scope.push("outputFloat", outputFloat)

	negIdx := ir.NewFunction(l.module, l.module.Types().Function(void, nil).(*ir.FunctionType), "neg_idx_except")
	l.scope.push("neg_idx_except", negIdx)
}

func (l *lowerer) lowerDeclaration(decl ast.Declaration) error {
	switch d := decl.(type) {
	case *ast.VarDeclaration:
		_, err := l.lowerVarDeclaration(d)
		return err
	case *ast.FunDeclaration:
		return l.lowerFunDeclaration(d)
	default:
		return fmt.Errorf("lower: unknown declaration %T", decl)
	}
}

func elemType(m *ir.Module, t ast.ValueType) ir.Type {
	if t == ast.TypeFloat {
		return m.Types().Float()
	}
	return m.Types().Int32()
}

// lowerVarDeclaration implements ASTVarDeclaration: global scalars/arrays
// become zero-initialized GlobalVariables, local scalars get a stack alloca
// (stores are not present for local arrays, since cminus-f never
// initializes them), and local scalars are additionally stored with an
// explicit zero so reads before the first assignment see a defined value.
func (l *lowerer) lowerVarDeclaration(node *ast.VarDeclaration) (ir.Value, error) {
	if node.ID == "" {
		return nil, fmt.Errorf("lower: variable declaration has an empty name")
	}
	elem := elemType(l.module, node.Type)

	var v ir.Value
	if node.Num != nil {
		arrTy := l.module.Types().Array(elem, int(node.Num.IVal))
		if l.scope.inGlobal() {
			init := l.module.Constants().Zero(arrTy)
			v = l.module.NewGlobalVariable(node.ID, arrTy, init, false)
		} else {
			v = l.builder.CreateAlloca(arrTy)
		}
	} else {
		if l.scope.inGlobal() {
			init := l.module.Constants().Zero(elem)
			v = l.module.NewGlobalVariable(node.ID, elem, init, false)
		} else {
			alloca := l.builder.CreateAlloca(elem)
			if elem == l.module.Types().Int32() {
				l.builder.CreateStore(l.module.Constants().Int(0), alloca)
			} else {
				l.builder.CreateStore(l.module.Constants().Float(0), alloca)
			}
			v = alloca
		}
	}
	l.scope.push(node.ID, v)
	return v, nil
}

func paramType(m *ir.Module, p *ast.Param) ir.Type {
	elem := elemType(m, p.Type)
	if p.IsArray {
		return m.Types().Pointer(elem)
	}
	return elem
}

// lowerFunDeclaration implements ASTFunDeclaration: build the signature,
// create the entry block, spill every argument to an alloca (so Mem2Reg has
// a uniform promotable-alloca story for parameters and locals alike), lower
// the body, then synthesize the implicit "return 0/0.0/void" the grammar
// allows a function to fall off the end without writing explicitly.
func (l *lowerer) lowerFunDeclaration(node *ast.FunDeclaration) error {
	retType := elemType(l.module, node.Type)
	if node.Type == ast.TypeVoid {
		retType = l.module.Types().Void()
	}

	paramTypes := make([]ir.Type, len(node.Params))
	for i, p := range node.Params {
		paramTypes[i] = paramType(l.module, p)
	}

	fnType := l.module.Types().Function(retType, paramTypes).(*ir.FunctionType)
	fn := ir.NewFunction(l.module, fnType, node.ID)
	l.scope.push(node.ID, fn)

	l.fn = fn
	l.idxCount, l.ifCount, l.whileCount = 0, 0, 0

	entry := ir.NewBasicBlock(l.module, "entry", fn)
	l.builder.SetInsertPoint(entry)
	l.scope.enter()

	for i, p := range node.Params {
		fn.Args[i].SetName(p.ID)
		slot := l.builder.CreateAlloca(paramTypes[i])
		l.builder.CreateStore(fn.Args[i], slot)
		l.scope.push(p.ID, slot)
	}

	if err := l.lowerCompoundStmt(node.Body); err != nil {
		return err
	}

	bb := l.builder.InsertBlock()
	if bb != nil && !bb.IsTerminated() {
		switch {
		case retType == l.module.Types().Void():
			l.builder.CreateRetVoid()
		case retType == l.module.Types().Int32():
			l.builder.CreateRet(l.module.Constants().Int(0))
		default:
			l.builder.CreateRet(l.module.Constants().Float(0))
		}
	}

	fn.ResetCFG()
	l.scope.exit()
	l.fn = nil
	return nil
}

func (l *lowerer) lowerCompoundStmt(node *ast.CompoundStmt) error {
	l.scope.enter()
	defer l.scope.exit()

	for _, local := range node.LocalDeclarations {
		if _, err := l.lowerVarDeclaration(local); err != nil {
			return err
		}
	}
	for _, stmt := range node.Statements {
		if err := l.lowerStatement(stmt); err != nil {
			return err
		}
		if bb := l.builder.InsertBlock(); bb != nil && bb.IsTerminated() {
			break
		}
	}
	return nil
}

func (l *lowerer) lowerStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.CompoundStmt:
		return l.lowerCompoundStmt(s)
	case *ast.ExpressionStmt:
		if s.Expression == nil {
			return nil
		}
		_, err := l.lowerExpression(s.Expression)
		return err
	case *ast.SelectionStmt:
		return l.lowerSelectionStmt(s)
	case *ast.IterationStmt:
		return l.lowerIterationStmt(s)
	case *ast.ReturnStmt:
		return l.lowerReturnStmt(s)
	default:
		return fmt.Errorf("lower: unknown statement %T", stmt)
	}
}

// toBool converts an i32 or float condition value to i1 by comparing
// against zero, exactly as every condition-consuming visit method does.
func (l *lowerer) toBool(v ir.Value) ir.Value {
	switch v.Type() {
	case l.module.Types().Int32():
		return l.builder.CreateICmpNE(v, l.module.Constants().Int(0))
	case l.module.Types().Float():
		return l.builder.CreateFCmpNE(v, l.module.Constants().Float(0))
	default:
		return v
	}
}

func (l *lowerer) lowerSelectionStmt(node *ast.SelectionStmt) error {
	cond, err := l.lowerExpression(node.Expression)
	if err != nil {
		return err
	}
	cond = l.toBool(cond)

	n := l.ifCount
	l.ifCount++
	thenBB := ir.NewBasicBlock(l.module, fmt.Sprintf("if.then.%d", n), l.fn)
	contBB := ir.NewBasicBlock(l.module, fmt.Sprintf("if.cont.%d", n), l.fn)

	var elseBB *ir.BasicBlock
	if node.ElseStatement != nil {
		elseBB = ir.NewBasicBlock(l.module, fmt.Sprintf("if.else.%d", n), l.fn)
		l.builder.CreateCondBr(cond, thenBB, elseBB)
	} else {
		l.builder.CreateCondBr(cond, thenBB, contBB)
	}

	l.builder.SetInsertPoint(thenBB)
	if err := l.lowerStatement(node.IfStatement); err != nil {
		return err
	}
	if bb := l.builder.InsertBlock(); bb != nil && !bb.IsTerminated() {
		l.builder.CreateBr(contBB)
	}

	if node.ElseStatement != nil {
		l.builder.SetInsertPoint(elseBB)
		if err := l.lowerStatement(node.ElseStatement); err != nil {
			return err
		}
		if bb := l.builder.InsertBlock(); bb != nil && !bb.IsTerminated() {
			l.builder.CreateBr(contBB)
		}
	}

	l.builder.SetInsertPoint(contBB)
	return nil
}

func (l *lowerer) lowerIterationStmt(node *ast.IterationStmt) error {
	preBB := l.builder.InsertBlock()

	n := l.whileCount
	l.whileCount++
	condBB := ir.NewBasicBlock(l.module, fmt.Sprintf("while.cond.%d", n), l.fn)
	bodyBB := ir.NewBasicBlock(l.module, fmt.Sprintf("while.body.%d", n), l.fn)
	exitBB := ir.NewBasicBlock(l.module, fmt.Sprintf("while.exit.%d", n), l.fn)

	if preBB != nil && !preBB.IsTerminated() {
		l.builder.CreateBr(condBB)
	}

	l.builder.SetInsertPoint(condBB)
	cond, err := l.lowerExpression(node.Expression)
	if err != nil {
		return err
	}
	cond = l.toBool(cond)
	l.builder.CreateCondBr(cond, bodyBB, exitBB)

	l.builder.SetInsertPoint(bodyBB)
	if err := l.lowerStatement(node.Statement); err != nil {
		return err
	}
	if bb := l.builder.InsertBlock(); bb != nil && !bb.IsTerminated() {
		l.builder.CreateBr(condBB)
	}

	l.builder.SetInsertPoint(exitBB)
	return nil
}

func (l *lowerer) lowerReturnStmt(node *ast.ReturnStmt) error {
	if node.Expression == nil {
		l.builder.CreateRetVoid()
		return nil
	}
	retType := l.fn.ReturnType()
	v, err := l.lowerExpression(node.Expression)
	if err != nil {
		return err
	}
	v = l.convert(v, retType)
	l.builder.CreateRet(v)
	return nil
}

// convert implicitly coerces v to target when the two types disagree,
// covering every int/float/bool combination ASTReturnStmt, ASTAssignExpression
// and ASTCall each handle inline.
func (l *lowerer) convert(v ir.Value, target ir.Type) ir.Value {
	if v.Type() == target {
		return v
	}
	i32, f32, i1 := l.module.Types().Int32(), l.module.Types().Float(), l.module.Types().Int1()
	switch target {
	case i32:
		switch v.Type() {
		case f32:
			return l.builder.CreateFPToSI(v)
		case i1:
			return l.builder.CreateZExt(v)
		}
	case f32:
		switch v.Type() {
		case i32, i1:
			if v.Type() == i1 {
				v = l.builder.CreateZExt(v)
			}
			return l.builder.CreateSIToFP(v)
		}
	}
	return v
}

func (l *lowerer) lowerExpression(expr ast.Expression) (ir.Value, error) {
	switch e := expr.(type) {
	case *ast.Num:
		if e.Type == ast.TypeFloat {
			return l.module.Constants().Float(e.FVal), nil
		}
		return l.module.Constants().Int(e.IVal), nil
	case *ast.Var:
		return l.lowerVar(e)
	case *ast.AssignExpression:
		return l.lowerAssign(e)
	case *ast.SimpleExpression:
		return l.lowerSimpleExpression(e)
	case *ast.AdditiveExpression:
		return l.lowerAdditiveExpression(e)
	case *ast.Term:
		return l.lowerTerm(e)
	case *ast.Call:
		return l.lowerCall(e)
	default:
		return nil, fmt.Errorf("lower: unknown expression %T", expr)
	}
}

// lowerVar implements ASTVar: scalar/array name lookup, optional indexing
// with a runtime bounds guard calling neg_idx_except(), and the
// lvalue/rvalue duality the builder toggles via requireLvalue around
// ASTAssignExpression's left-hand side.
func (l *lowerer) lowerVar(node *ast.Var) (ir.Value, error) {
	baseAddr := l.scope.find(node.ID)
	if baseAddr == nil {
		return nil, fmt.Errorf("lower: undeclared variable %q", node.ID)
	}

	allocType := ir.ElementType(baseAddr.Type())

	if node.Index != nil {
		wantLvalue := l.requireLvalue
		l.requireLvalue = false
		idx, err := l.lowerExpression(node.Index)
		if err != nil {
			return nil, err
		}
		switch idx.Type() {
		case l.module.Types().Float():
			idx = l.builder.CreateFPToSI(idx)
		case l.module.Types().Int1():
			idx = l.builder.CreateZExt(idx)
		}

		n := l.idxCount
		l.idxCount++
		okBB := ir.NewBasicBlock(l.module, fmt.Sprintf("idx.ok.%d", n), l.fn)
		negBB := ir.NewBasicBlock(l.module, fmt.Sprintf("idx.neg.%d", n), l.fn)
		nonNeg := l.builder.CreateICmpGE(idx, l.module.Constants().Int(0))
		l.builder.CreateCondBr(nonNeg, okBB, negBB)

		l.builder.SetInsertPoint(negBB)
		guard := l.scope.find("neg_idx_except")
		if guard == nil {
			return nil, fmt.Errorf("lower: builtin neg_idx_except is not declared")
		}
		l.builder.CreateCall(guard.(*ir.Function), nil)
		l.builder.CreateBr(okBB)

		l.builder.SetInsertPoint(okBB)
		addr := l.indexAddr(baseAddr, allocType, idx)
		if wantLvalue {
			l.requireLvalue = false
			return addr, nil
		}
		return l.builder.CreateLoad(addr), nil
	}

	if l.requireLvalue {
		l.requireLvalue = false
		return baseAddr, nil
	}
	if ir.IsArray(allocType) {
		zero := l.module.Constants().Int(0)
		return l.builder.CreateGEP(baseAddr, []ir.Value{zero, zero}), nil
	}
	return l.builder.CreateLoad(baseAddr), nil
}

func (l *lowerer) indexAddr(baseAddr ir.Value, allocType ir.Type, idx ir.Value) ir.Value {
	if ir.IsPointer(allocType) {
		ptr := l.builder.CreateLoad(baseAddr)
		return l.builder.CreateGEP(ptr, []ir.Value{idx})
	}
	return l.builder.CreateGEP(baseAddr, []ir.Value{l.module.Constants().Int(0), idx})
}

// lowerAssign implements ASTAssignExpression: evaluate the right-hand side
// before resolving the left-hand address (so a self-referencing index
// expression sees the pre-assignment value), coerce to the destination's
// element type, store, and yield the stored value as the expression result.
func (l *lowerer) lowerAssign(node *ast.AssignExpression) (ir.Value, error) {
	rhs, err := l.lowerExpression(node.Expression)
	if err != nil {
		return nil, err
	}
	l.requireLvalue = true
	addr, err := l.lowerVar(node.Var)
	l.requireLvalue = false
	if err != nil {
		return nil, err
	}
	lhsType := ir.ElementType(addr.Type())
	rhs = l.convert(rhs, lhsType)
	l.builder.CreateStore(rhs, addr)
	return rhs, nil
}

func (l *lowerer) lowerSimpleExpression(node *ast.SimpleExpression) (ir.Value, error) {
	lhs, err := l.lowerExpression(node.Left)
	if err != nil {
		return nil, err
	}
	if node.Right == nil {
		return lhs, nil
	}
	rhs, err := l.lowerExpression(node.Right)
	if err != nil {
		return nil, err
	}

	f32, i32, i1 := l.module.Types().Float(), l.module.Types().Int32(), l.module.Types().Int1()
	if lhs.Type() == f32 || rhs.Type() == f32 {
		if lhs.Type() != f32 {
			lhs = l.builder.CreateSIToFP(lhs)
		}
		if rhs.Type() != f32 {
			rhs = l.builder.CreateSIToFP(rhs)
		}
		switch node.Op {
		case ast.OpEQ:
			return l.builder.CreateFCmpEQ(lhs, rhs), nil
		case ast.OpNEQ:
			return l.builder.CreateFCmpNE(lhs, rhs), nil
		case ast.OpLT:
			return l.builder.CreateFCmpLT(lhs, rhs), nil
		case ast.OpLE:
			return l.builder.CreateFCmpLE(lhs, rhs), nil
		case ast.OpGT:
			return l.builder.CreateFCmpGT(lhs, rhs), nil
		case ast.OpGE:
			return l.builder.CreateFCmpGE(lhs, rhs), nil
		}
		return nil, fmt.Errorf("lower: unknown comparison operator %q", node.Op)
	}

	if lhs.Type() == i1 {
		lhs = l.builder.CreateZExt(lhs)
	}
	if rhs.Type() == i1 {
		rhs = l.builder.CreateZExt(rhs)
	}
	_ = i32
	switch node.Op {
	case ast.OpEQ:
		return l.builder.CreateICmpEQ(lhs, rhs), nil
	case ast.OpNEQ:
		return l.builder.CreateICmpNE(lhs, rhs), nil
	case ast.OpLT:
		return l.builder.CreateICmpLT(lhs, rhs), nil
	case ast.OpLE:
		return l.builder.CreateICmpLE(lhs, rhs), nil
	case ast.OpGT:
		return l.builder.CreateICmpGT(lhs, rhs), nil
	case ast.OpGE:
		return l.builder.CreateICmpGE(lhs, rhs), nil
	}
	return nil, fmt.Errorf("lower: unknown comparison operator %q", node.Op)
}

// promote mirrors cminusf_builder.cpp's free promote() helper: if the two
// operand types already agree, report whether they're integer; otherwise
// widen whichever operand is integer to float, in place.
func (l *lowerer) promote(lhs, rhs *ir.Value) bool {
	if (*lhs).Type() == (*rhs).Type() {
		return ir.IsInteger((*lhs).Type())
	}
	if ir.IsInteger((*lhs).Type()) {
		*lhs = l.builder.CreateSIToFP(*lhs)
	} else {
		*rhs = l.builder.CreateSIToFP(*rhs)
	}
	return false
}

func (l *lowerer) lowerAdditiveExpression(node *ast.AdditiveExpression) (ir.Value, error) {
	term, err := l.lowerExpression(node.Term)
	if err != nil {
		return nil, err
	}
	if node.Left == nil {
		return term, nil
	}
	left, err := l.lowerExpression(node.Left)
	if err != nil {
		return nil, err
	}
	isInt := l.promote(&left, &term)
	switch node.Op {
	case ast.OpPlus:
		if isInt {
			return l.builder.CreateIAdd(left, term), nil
		}
		return l.builder.CreateFAdd(left, term), nil
	case ast.OpMinus:
		if isInt {
			return l.builder.CreateISub(left, term), nil
		}
		return l.builder.CreateFSub(left, term), nil
	default:
		return nil, fmt.Errorf("lower: unknown additive operator %q", node.Op)
	}
}

func (l *lowerer) lowerTerm(node *ast.Term) (ir.Value, error) {
	factor, err := l.lowerExpression(node.Factor)
	if err != nil {
		return nil, err
	}
	if node.Left == nil {
		return factor, nil
	}
	left, err := l.lowerExpression(node.Left)
	if err != nil {
		return nil, err
	}
	isInt := l.promote(&left, &factor)
	switch node.Op {
	case ast.OpMul:
		if isInt {
			return l.builder.CreateIMul(left, factor), nil
		}
		return l.builder.CreateFMul(left, factor), nil
	case ast.OpDiv:
		if isInt {
			return l.builder.CreateISDiv(left, factor), nil
		}
		return l.builder.CreateFDiv(left, factor), nil
	default:
		return nil, fmt.Errorf("lower: unknown term operator %q", node.Op)
	}
}

// lowerCall implements ASTCall: resolve the callee, lower each argument,
// and coerce each to the declared parameter type through the shared
// convert helper (int<->float and i1->i32/float).
func (l *lowerer) lowerCall(node *ast.Call) (ir.Value, error) {
	calleeVal := l.scope.find(node.ID)
	if calleeVal == nil {
		return nil, fmt.Errorf("lower: call to undeclared function %q", node.ID)
	}
	callee, ok := calleeVal.(*ir.Function)
	if !ok {
		return nil, fmt.Errorf("lower: %q is not a function", node.ID)
	}

	params := callee.FunctionType().Params
	args := make([]ir.Value, len(node.Args))
	for i, a := range node.Args {
		v, err := l.lowerExpression(a)
		if err != nil {
			return nil, err
		}
		if i < len(params) {
			v = l.convert(v, params[i])
		}
		args[i] = v
	}
	return l.builder.CreateCall(callee, args), nil
}
