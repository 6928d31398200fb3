package ir

import "fmt"

// ConstantInt is a uniqued i32 (or i1) constant.
type ConstantInt struct {
	valueBase
	Val int32
}

func (c *ConstantInt) String() string { return fmt.Sprintf("%d", c.Val) }

// ConstantFP is a uniqued f32 constant.
type ConstantFP struct {
	valueBase
	Val float32
}

func (c *ConstantFP) String() string { return fmt.Sprintf("%g", c.Val) }

// ConstantZero is the canonical zero initializer of a global variable, of
// array or scalar type. A zero i32/float used as an instruction operand is
// a ConstantInt/ConstantFP with Val 0 instead, so every scalar zero operand
// of a given type shares one uniqued value and one use-list.
type ConstantZero struct {
	valueBase
}

func (c *ConstantZero) String() string { return "zeroinitializer" }

// GlobalVariable is a module-level storage location, always pointer-typed
// (Type() is Pointer(elem)); Init is its zero-or-constant initializer.
type GlobalVariable struct {
	userBase
	Elem    Type
	IsConst bool
}

func (g *GlobalVariable) Init() Value { return g.operands[0] }

// ConstantPool hash-conses the scalar constants created while lowering and
// optimizing a Module, so that e.g. every occurrence of the literal 0
// shares one ConstantInt and one use-list.
type ConstantPool struct {
	module *Module
	ints   map[int32]*ConstantInt
	bools  map[bool]*ConstantInt
	fps    map[float32]*ConstantFP
	zeros  map[Type]*ConstantZero
}

func newConstantPool(m *Module) *ConstantPool {
	return &ConstantPool{
		module: m,
		ints:   make(map[int32]*ConstantInt),
		fps:    make(map[float32]*ConstantFP),
		zeros:  make(map[Type]*ConstantZero),
	}
}

// Int returns the uniqued i32 constant for v.
func (p *ConstantPool) Int(v int32) *ConstantInt {
	if c, ok := p.ints[v]; ok {
		return c
	}
	c := &ConstantInt{valueBase: valueBase{typ: p.module.types.Int32()}, Val: v}
	p.ints[v] = c
	return c
}

// Bool returns the uniqued i1 constant for v (0 or 1).
func (p *ConstantPool) Bool(v bool) *ConstantInt {
	if c, ok := p.bools[v]; ok {
		return c
	}
	iv := int32(0)
	if v {
		iv = 1
	}
	c := &ConstantInt{valueBase: valueBase{typ: p.module.types.Int1()}, Val: iv}
	if p.bools == nil {
		p.bools = make(map[bool]*ConstantInt)
	}
	p.bools[v] = c
	return c
}

// Float returns the uniqued f32 constant for v.
func (p *ConstantPool) Float(v float32) *ConstantFP {
	if c, ok := p.fps[v]; ok {
		return c
	}
	c := &ConstantFP{valueBase: valueBase{typ: p.module.types.Float()}, Val: v}
	p.fps[v] = c
	return c
}

// Zero returns the uniqued zero initializer of type t.
func (p *ConstantPool) Zero(t Type) *ConstantZero {
	if c, ok := p.zeros[t]; ok {
		return c
	}
	c := &ConstantZero{valueBase: valueBase{typ: t}}
	p.zeros[t] = c
	return c
}

// AsConstantInt type-asserts v to *ConstantInt, returning nil (not a
// panic) when v is some other Value; this mirrors ConstPropagation.cpp's
// cast_constantint helper, used by the folder to decide whether an
// operand is foldable.
func AsConstantInt(v Value) (*ConstantInt, bool) {
	c, ok := v.(*ConstantInt)
	return c, ok
}

// AsConstantFP type-asserts v to *ConstantFP, mirroring cast_constantfp.
func AsConstantFP(v Value) (*ConstantFP, bool) {
	c, ok := v.(*ConstantFP)
	return c, ok
}
