package diag_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkdzuishuai/cminusfc/internal/ast"
	"github.com/zkdzuishuai/cminusfc/internal/diag"
)

func TestValidateProgramAcceptsWellFormedInput(t *testing.T) {
	prog := &ast.Program{
		Declarations: []ast.Declaration{
			&ast.VarDeclaration{Type: ast.TypeInt, ID: "g"},
			&ast.FunDeclaration{
				Type: ast.TypeInt, ID: "main",
				Body: &ast.CompoundStmt{
					Statements: []ast.Statement{
						&ast.ReturnStmt{Expression: &ast.Num{Type: ast.TypeInt, IVal: 0}},
					},
				},
			},
		},
	}
	require.NoError(t, diag.New().ValidateProgram(prog))
}

func TestValidateProgramRejectsDuplicateTopLevelNames(t *testing.T) {
	prog := &ast.Program{
		Declarations: []ast.Declaration{
			&ast.VarDeclaration{Type: ast.TypeInt, ID: "x"},
			&ast.VarDeclaration{Type: ast.TypeInt, ID: "x"},
		},
	}
	err := diag.New().ValidateProgram(prog)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate top-level name")
}

func TestValidateProgramRejectsReservedBuiltinName(t *testing.T) {
	prog := &ast.Program{
		Declarations: []ast.Declaration{
			&ast.FunDeclaration{Type: ast.TypeVoid, ID: "output", Body: &ast.CompoundStmt{}},
		},
	}
	err := diag.New().ValidateProgram(prog)
	require.Error(t, err)
	require.Contains(t, err.Error(), "runtime builtin")
}

func TestValidateProgramRejectsNonPositiveArrayLength(t *testing.T) {
	prog := &ast.Program{
		Declarations: []ast.Declaration{
			&ast.VarDeclaration{Type: ast.TypeInt, ID: "arr", Num: &ast.Num{Type: ast.TypeInt, IVal: 0}},
		},
	}
	err := diag.New().ValidateProgram(prog)
	require.Error(t, err)
	require.Contains(t, err.Error(), "length must be positive")
}

func TestValidateProgramRejectsDuplicateParamNames(t *testing.T) {
	prog := &ast.Program{
		Declarations: []ast.Declaration{
			&ast.FunDeclaration{
				Type: ast.TypeVoid, ID: "f",
				Params: []*ast.Param{{Type: ast.TypeInt, ID: "a"}, {Type: ast.TypeInt, ID: "a"}},
				Body:   &ast.CompoundStmt{},
			},
		},
	}
	err := diag.New().ValidateProgram(prog)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate parameter name")
}

func TestValidateJSONDecodesAndValidates(t *testing.T) {
	src := []byte(`{"declarations": [
		{"node": "fun_declaration", "type": "int", "id": "main", "params": [],
		 "body": {"statements": [{"node": "return_stmt", "expression": {"node": "num", "type": "int", "ival": 0}}]}}
	]}`)
	prog, err := diag.ValidateJSON(src)
	require.NoError(t, err)
	require.Len(t, prog.Declarations, 1)
}
