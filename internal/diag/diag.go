// Package diag collects source diagnostics before lowering: structural
// AST checks that are cheap to run without a scope stack (duplicate
// names, malformed array lengths, bad identifiers), modeled on the
// teacher's internal/validator.Validator — an accumulating Validator type
// with an addError helper, rather than bailing out on the first problem.
// Programmer faults inside the IR itself use ir.Fault instead; this
// package is only for defects in the *input program*.
package diag

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zkdzuishuai/cminusfc/internal/ast"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// reservedNames are the runtime builtins every lowered module declares;
// a source program that redeclares one would silently shadow the ABI
// neg_idx_except/output/outputFloat/input rely on.
var reservedNames = map[string]bool{
	"input": true, "output": true, "outputFloat": true, "neg_idx_except": true,
}

// Validator accumulates every structural defect found in a Program,
// mirroring validator.Validator's "keep going, report everything" style
// instead of returning on the first error.
type Validator struct {
	errors []string
}

// New returns an empty Validator.
func New() *Validator { return &Validator{} }

func (v *Validator) addError(format string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

// ValidateProgram checks prog for structural defects the lowerer itself
// cannot detect without a full scope walk: duplicate top-level names,
// malformed array declarations, reserved-name collisions, duplicate
// parameter names. It returns every defect found, joined into one error,
// or nil if prog is well-formed.
func (v *Validator) ValidateProgram(prog *ast.Program) error {
	v.errors = nil
	names := map[string]bool{}

	for _, decl := range prog.Declarations {
		switch d := decl.(type) {
		case *ast.VarDeclaration:
			v.validateVarDeclaration(d, names)
		case *ast.FunDeclaration:
			v.validateFunDeclaration(d, names)
		default:
			v.addError("unknown top-level declaration %T", decl)
		}
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors:\n%s", strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *Validator) validateVarDeclaration(d *ast.VarDeclaration, names map[string]bool) {
	if d.ID == "" {
		v.addError("variable declaration: name cannot be empty")
		return
	}
	if !identifierPattern.MatchString(d.ID) {
		v.addError("variable %q: not a valid identifier", d.ID)
	}
	if reservedNames[d.ID] {
		v.addError("variable %q: shadows a runtime builtin name", d.ID)
	}
	if names[d.ID] {
		v.addError("duplicate top-level name: %s", d.ID)
	}
	names[d.ID] = true

	if d.Num != nil && d.Num.IVal <= 0 {
		v.addError("array %q: length must be positive, got %d", d.ID, d.Num.IVal)
	}
	if d.Type == ast.TypeVoid {
		v.addError("variable %q: cannot be declared void", d.ID)
	}
}

func (v *Validator) validateFunDeclaration(d *ast.FunDeclaration, names map[string]bool) {
	if d.ID == "" {
		v.addError("function declaration: name cannot be empty")
		return
	}
	if !identifierPattern.MatchString(d.ID) {
		v.addError("function %q: not a valid identifier", d.ID)
	}
	if reservedNames[d.ID] {
		v.addError("function %q: redeclares a runtime builtin", d.ID)
	}
	if names[d.ID] {
		v.addError("duplicate top-level name: %s", d.ID)
	}
	names[d.ID] = true

	if d.Body == nil {
		v.addError("function %q: body cannot be nil", d.ID)
		return
	}

	paramNames := map[string]bool{}
	for i, p := range d.Params {
		if p.ID == "" {
			v.addError("function %q: parameter %d has an empty name", d.ID, i)
			continue
		}
		if !identifierPattern.MatchString(p.ID) {
			v.addError("function %q: parameter %q is not a valid identifier", d.ID, p.ID)
		}
		if paramNames[p.ID] {
			v.addError("function %q: duplicate parameter name %q", d.ID, p.ID)
		}
		paramNames[p.ID] = true
	}

	v.validateCompoundStmt(d.Body)
}

func (v *Validator) validateCompoundStmt(cs *ast.CompoundStmt) {
	names := map[string]bool{}
	for _, local := range cs.LocalDeclarations {
		if local.ID == "" {
			v.addError("local declaration: name cannot be empty")
			continue
		}
		if !identifierPattern.MatchString(local.ID) {
			v.addError("local %q: not a valid identifier", local.ID)
		}
		if names[local.ID] {
			v.addError("duplicate local declaration: %s", local.ID)
		}
		names[local.ID] = true
		if local.Num != nil && local.Num.IVal <= 0 {
			v.addError("array %q: length must be positive, got %d", local.ID, local.Num.IVal)
		}
	}
	for _, stmt := range cs.Statements {
		v.validateStatement(stmt)
	}
}

func (v *Validator) validateStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.CompoundStmt:
		v.validateCompoundStmt(s)
	case *ast.SelectionStmt:
		if s.Expression == nil {
			v.addError("if statement: condition cannot be nil")
		}
		if s.IfStatement == nil {
			v.addError("if statement: then-branch cannot be nil")
		} else {
			v.validateStatement(s.IfStatement)
		}
		if s.ElseStatement != nil {
			v.validateStatement(s.ElseStatement)
		}
	case *ast.IterationStmt:
		if s.Expression == nil {
			v.addError("while statement: condition cannot be nil")
		}
		if s.Statement == nil {
			v.addError("while statement: body cannot be nil")
		} else {
			v.validateStatement(s.Statement)
		}
	case *ast.ExpressionStmt, *ast.ReturnStmt:
		// no structural invariant beyond what the parser already enforces
	default:
		v.addError("unknown statement node %T", stmt)
	}
}

// ValidateJSON decodes data as a Program and structurally validates it in
// one call, mirroring validator.ValidateJSON's decode-then-validate shape.
func ValidateJSON(data []byte) (*ast.Program, error) {
	prog, err := ast.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("diag: %w", err)
	}
	if err := New().ValidateProgram(prog); err != nil {
		return nil, err
	}
	return prog, nil
}
