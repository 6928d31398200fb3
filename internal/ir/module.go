package ir

import "strconv"

// Module is a whole compiled translation unit: its uniqued type and
// constant pools, its global variables, and its functions (including the
// four runtime-builtin declarations every lowered program imports).
type Module struct {
	Name      string
	Functions []*Function
	Globals   []*GlobalVariable

	types  *TypePool
	consts *ConstantPool
}

// NewModule creates an empty module with fresh type/constant pools.
func NewModule(name string) *Module {
	m := &Module{Name: name}
	m.types = newTypePool()
	m.consts = newConstantPool(m)
	return m
}

// Types exposes the module's uniquing type pool.
func (m *Module) Types() *TypePool { return m.types }

// Constants exposes the module's uniquing constant pool.
func (m *Module) Constants() *ConstantPool { return m.consts }

// NewGlobalVariable declares a module-level variable of element type elem,
// initialized to init (typically a Zero/Int/FP constant).
func (m *Module) NewGlobalVariable(name string, elem Type, init Value, isConst bool) *GlobalVariable {
	g := &GlobalVariable{Elem: elem, IsConst: isConst}
	g.typ = m.types.Pointer(elem)
	g.name = name
	g.initOperands([]Value{init})
	g.setSelf(g)
	m.Globals = append(m.Globals, g)
	return g
}

// FindFunction looks up a function by name, returning nil if absent.
func (m *Module) FindFunction(name string) *Function {
	for _, f := range m.Functions {
		if f.name == name {
			return f
		}
	}
	return nil
}

// RemoveFunction drops fn from the module's function list (used by DCE's
// global sweep once fn's use-list is empty).
func (m *Module) RemoveFunction(fn *Function) {
	for i, f := range m.Functions {
		if f == fn {
			m.Functions = append(m.Functions[:i], m.Functions[i+1:]...)
			return
		}
	}
}

// RemoveGlobal drops g from the module's global list.
func (m *Module) RemoveGlobal(g *GlobalVariable) {
	for i, existing := range m.Globals {
		if existing == g {
			m.Globals = append(m.Globals[:i], m.Globals[i+1:]...)
			return
		}
	}
}

// SetPrintNames assigns a dense, deterministic number to every unnamed
// local value in the module, from one counter per function: arguments and
// instructions are named "N", blocks "bbN". Mirrors
// Module::set_print_name. Named values (user-declared locals that survived
// to print time, function/global names) keep their given name.
func (m *Module) SetPrintNames() {
	for _, fn := range m.Functions {
		counter := 0
		next := func() string {
			s := strconv.Itoa(counter)
			counter++
			return s
		}
		for _, arg := range fn.Args {
			if arg.name == "" {
				arg.name = next()
			}
		}
		for _, bb := range fn.Blocks {
			if bb.name == "" {
				bb.name = "bb" + next()
			}
			for _, ins := range bb.Instructions {
				if ins.typ == nil {
					continue
				}
				if _, isVoid := ins.typ.(*VoidType); isVoid {
					continue
				}
				if ins.name == "" {
					ins.name = next()
				}
			}
		}
	}
}
