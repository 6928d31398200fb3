package ir

// Value is anything that can be an operand: constants, globals, function
// arguments, instructions, basic blocks (as branch targets), and functions
// (as call targets). Every Value tracks its own reverse use-list so that
// ReplaceAllUsesWith can rewrite every consumer in one pass — the one
// piece the llir/llvm-backed internal/codegen never implemented
// (internal/codegen/optimizer.go's replaceAllUsesWith is a stub, because
// llir/llvm exposes forward operand pointers only).
type Value interface {
	Type() Type
	Name() string
	SetName(string)

	// Uses returns every Use edge pointing at this Value, in insertion
	// order. Callers must not retain the slice past further mutation.
	Uses() []*Use
}

// Use is one edge of the def-use graph: User consumes Value as its Idx'th
// operand.
type Use struct {
	Value Value
	User  User
	Idx   int
}

// User is a Value that also consumes operands, i.e. every Instruction,
// GlobalVariable (its initializer) and conditional branch (its condition
// and targets).
type User interface {
	Value
	Operands() []Value
	SetOperand(idx int, v Value)
}

// valueBase is embedded by every concrete Value. It owns the reverse
// use-list; addUse/removeUse are called only from inside this package (the
// userBase operand methods, constructors, and BasicBlock.EraseInstruction),
// never directly by passes.
type valueBase struct {
	typ  Type
	name string
	uses []*Use
}

func (v *valueBase) Type() Type       { return v.typ }
func (v *valueBase) Name() string     { return v.name }
func (v *valueBase) SetName(n string) { v.name = n }
func (v *valueBase) Uses() []*Use     { return v.uses }

func (v *valueBase) addUse(u *Use) {
	v.uses = append(v.uses, u)
}

func (v *valueBase) removeUse(u *Use) {
	for i, existing := range v.uses {
		if existing == u {
			v.uses = append(v.uses[:i], v.uses[i+1:]...)
			return
		}
	}
}

// userBase is embedded by every concrete User (instructions and global
// variables). operands holds the forward operand list; useEdges holds the
// matching *Use objects registered on each operand's valueBase, kept in
// lockstep so SetOperand can unregister the old edge before registering
// the new one.
type userBase struct {
	valueBase
	operands []Value
	useEdges []*Use
}

func (u *userBase) Operands() []Value { return u.operands }

// initOperands sets the initial operand list and allocates one empty
// Use-edge slot per operand; setSelf then registers the edges. It must be
// called exactly once, by the constructor.
func (u *userBase) initOperands(ops []Value) {
	u.operands = ops
	u.useEdges = make([]*Use, len(ops))
}

// setSelf completes the circular initialization: constructors build the
// userBase before they have a *Use-able pointer to themselves, so this is
// called once construction is done.
func (u *userBase) setSelf(self User) {
	for i, op := range u.operands {
		use := &Use{Value: op, User: self, Idx: i}
		u.useEdges[i] = use
		if op != nil {
			valueOf(op).addUse(use)
		}
	}
}

// SetOperand rewrites operand idx, moving the Use edge from the old
// operand's use-list to the new one's.
func (u *userBase) SetOperand(idx int, v Value) {
	if idx < 0 || idx >= len(u.operands) {
		panic(&Fault{Op: "SetOperand", Msg: "operand index out of range"})
	}
	old := u.operands[idx]
	use := u.useEdges[idx]
	if old != nil && use != nil {
		valueOf(old).removeUse(use)
	}
	u.operands[idx] = v
	if v != nil {
		if use == nil {
			use = &Use{Idx: idx}
			u.useEdges[idx] = use
		}
		use.Value = v
		valueOf(v).addUse(use)
	}
}

// addOperand appends a new operand (used by phi instructions, whose
// operand count grows as incoming edges are discovered) and returns its
// index.
func (u *userBase) addOperand(self User, v Value) int {
	idx := len(u.operands)
	u.operands = append(u.operands, v)
	use := &Use{Value: v, User: self, Idx: idx}
	u.useEdges = append(u.useEdges, use)
	if v != nil {
		valueOf(v).addUse(use)
	}
	return idx
}

// removeOperandPair drops operands at idx and idx+1 (a phi's value/block
// pair), shifting later operands down and fixing up their Use.Idx and the
// use-list entries they point into. Mirrors ConstPropagation.cpp's
// remove_operand(i-1); remove_operand(i-1) double-removal.
func (u *userBase) removeOperandPair(self User, idx int) {
	for _, d := range [2]int{idx + 1, idx} {
		old := u.operands[d]
		use := u.useEdges[d]
		if old != nil && use != nil {
			valueOf(old).removeUse(use)
		}
		u.operands = append(u.operands[:d], u.operands[d+1:]...)
		u.useEdges = append(u.useEdges[:d], u.useEdges[d+1:]...)
	}
	for i := idx; i < len(u.useEdges); i++ {
		u.useEdges[i].Idx = i
	}
}

// valueOf extracts the *valueBase embedded in any Value so addUse/removeUse
// can be called generically. Every concrete Value in this package embeds
// valueBase (directly or via userBase), so the type switch is exhaustive
// by construction; anything else is a programmer error.
func valueOf(v Value) *valueBase {
	switch t := v.(type) {
	case *ConstantInt:
		return &t.valueBase
	case *ConstantFP:
		return &t.valueBase
	case *ConstantZero:
		return &t.valueBase
	case *GlobalVariable:
		return &t.valueBase
	case *Argument:
		return &t.valueBase
	case *Instruction:
		return &t.valueBase
	case *BasicBlock:
		return &t.valueBase
	case *Function:
		return &t.valueBase
	case *Undef:
		return &t.valueBase
	default:
		panic(&Fault{Op: "valueOf", Msg: "unknown Value implementation"})
	}
}

// ReplaceAllUsesWith rewrites every User that currently consumes old so
// that it consumes newVal instead, then clears old's use-list. This is the
// spec's central RAUW primitive; every pass (Mem2Reg's load replacement,
// inlining's call-site stitching, constant folding, DCE's phi collapse)
// is built on it. It panics with a Fault if the two types differ.
func ReplaceAllUsesWith(old, newVal Value) {
	if old.Type() != newVal.Type() {
		panic(&Fault{Op: "ReplaceAllUsesWith", Msg: "type mismatch: " + old.Type().String() + " vs " + newVal.Type().String()})
	}
	uses := append([]*Use(nil), valueOf(old).uses...)
	for _, use := range uses {
		use.User.SetOperand(use.Idx, newVal)
	}
}

// Undef is an explicit undefined value of a given type, printed as
// "undef". Mem2Reg does not create it: a phi gets no incoming pair at all
// for a predecessor that no definition reaches.
type Undef struct {
	valueBase
}

// NewUndef creates an explicit undef value of type t.
func NewUndef(t Type) *Undef {
	return &Undef{valueBase: valueBase{typ: t}}
}
