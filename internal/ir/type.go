// Package ir implements the cminus-f intermediate representation: a small
// SSA-style object model of uniqued types and constants, a Value/Use/User
// def-use graph, and the basic block/function/module containers that hold
// instructions.
package ir

import "fmt"

// Kind identifies the shape of a Type without requiring a type assertion.
type Kind int

const (
	KindVoid Kind = iota
	KindInt1
	KindInt32
	KindFloat
	KindPointer
	KindArray
	KindFunction
)

// Type is any member of the cminus-f type algebra. Types are uniqued per
// Module: two structurally identical types are always the same *pointer*,
// so type comparisons are pointer comparisons.
type Type interface {
	Kind() Kind
	String() string
}

// VoidType is the return type of procedures with no value.
type VoidType struct{}

func (VoidType) Kind() Kind     { return KindVoid }
func (VoidType) String() string { return "void" }

// IntType is either the i1 boolean produced by comparisons or the i32
// scalar integer. cminus-f has no other integer widths.
type IntType struct{ Bits int }

func (t *IntType) Kind() Kind { return map[int]Kind{1: KindInt1, 32: KindInt32}[t.Bits] }
func (t *IntType) String() string {
	return fmt.Sprintf("i%d", t.Bits)
}

// FloatType is the single f32 scalar float type.
type FloatType struct{}

func (FloatType) Kind() Kind     { return KindFloat }
func (FloatType) String() string { return "float" }

// PointerType is a pointer to Elem: the type of alloca results, array
// decay, and pointer-typed function parameters.
type PointerType struct{ Elem Type }

func (t *PointerType) Kind() Kind     { return KindPointer }
func (t *PointerType) String() string { return t.Elem.String() + "*" }

// ArrayType is a fixed-length 1-D array, cminus-f's only aggregate type.
type ArrayType struct {
	Elem  Type
	Count int
}

func (t *ArrayType) Kind() Kind { return KindArray }
func (t *ArrayType) String() string {
	return fmt.Sprintf("[%d x %s]", t.Count, t.Elem.String())
}

// FunctionType describes a function's signature: its parameter types and
// return type. Functions are first-class Values of this type.
type FunctionType struct {
	Ret    Type
	Params []Type
}

func (t *FunctionType) Kind() Kind { return KindFunction }
func (t *FunctionType) String() string {
	s := t.Ret.String() + " ("
	for i, p := range t.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s + ")"
}

// IsInteger reports whether t is i1 or i32.
func IsInteger(t Type) bool {
	_, ok := t.(*IntType)
	return ok
}

// IsInt32 reports whether t is exactly i32.
func IsInt32(t Type) bool {
	it, ok := t.(*IntType)
	return ok && it.Bits == 32
}

// IsInt1 reports whether t is exactly i1.
func IsInt1(t Type) bool {
	it, ok := t.(*IntType)
	return ok && it.Bits == 1
}

// IsFloat reports whether t is the float type.
func IsFloat(t Type) bool {
	_, ok := t.(*FloatType)
	return ok
}

// IsPointer reports whether t is a pointer type.
func IsPointer(t Type) bool {
	_, ok := t.(*PointerType)
	return ok
}

// IsArray reports whether t is an array type.
func IsArray(t Type) bool {
	_, ok := t.(*ArrayType)
	return ok
}

// ElementType returns the pointee of a pointer type or the element of an
// array type, and panics for any other Type, mirroring the narrow
// type-assertion panics in internal/codegen/llvm.go's convertType.
func ElementType(t Type) Type {
	switch tt := t.(type) {
	case *PointerType:
		return tt.Elem
	case *ArrayType:
		return tt.Elem
	default:
		panic(&Fault{Op: "ElementType", Msg: "type has no element: " + t.String()})
	}
}

// TypePool hash-conses every Type value created for a Module so that
// structurally-equal types compare equal as pointers.
type TypePool struct {
	void   *VoidType
	int1   *IntType
	int32  *IntType
	float  *FloatType
	ptrs   map[string]*PointerType
	arrays map[string]*ArrayType
	funcs  map[string]*FunctionType
}

func newTypePool() *TypePool {
	return &TypePool{
		void:   &VoidType{},
		int1:   &IntType{Bits: 1},
		int32:  &IntType{Bits: 32},
		float:  &FloatType{},
		ptrs:   make(map[string]*PointerType),
		arrays: make(map[string]*ArrayType),
		funcs:  make(map[string]*FunctionType),
	}
}

func (p *TypePool) Void() Type  { return p.void }
func (p *TypePool) Int1() Type  { return p.int1 }
func (p *TypePool) Int32() Type { return p.int32 }
func (p *TypePool) Float() Type { return p.float }

func (p *TypePool) Pointer(elem Type) Type {
	key := elem.String() + "*"
	if t, ok := p.ptrs[key]; ok {
		return t
	}
	t := &PointerType{Elem: elem}
	p.ptrs[key] = t
	return t
}

func (p *TypePool) Array(elem Type, count int) Type {
	key := fmt.Sprintf("[%d x %s]", count, elem.String())
	if t, ok := p.arrays[key]; ok {
		return t
	}
	t := &ArrayType{Elem: elem, Count: count}
	p.arrays[key] = t
	return t
}

func (p *TypePool) Function(ret Type, params []Type) Type {
	key := ret.String() + "("
	for _, pt := range params {
		key += pt.String() + ","
	}
	key += ")"
	if t, ok := p.funcs[key]; ok {
		return t
	}
	t := &FunctionType{Ret: ret, Params: append([]Type(nil), params...)}
	p.funcs[key] = t
	return t
}

// Fault reports a violated IR invariant: a programmer error in the
// compiler itself (bad opcode arity, operand type mismatch), never a
// property of the input program. Source-level diagnostics live in
// internal/diag instead.
type Fault struct {
	Op  string
	Msg string
}

func (f *Fault) Error() string { return f.Op + ": " + f.Msg }
