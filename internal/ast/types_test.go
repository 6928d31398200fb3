package ast

import "testing"

func TestDecodeProgram(t *testing.T) {
	src := []byte(`{
		"declarations": [
			{"node": "var_declaration", "type": "int", "id": "g"},
			{"node": "fun_declaration", "type": "int", "id": "main", "params": [],
			 "body": {
				"localDeclarations": [{"type": "int", "id": "x"}],
				"statements": [
					{"node": "expression_stmt", "expression":
						{"node": "assign",
						 "var": {"node": "var", "id": "x"},
						 "expression": {"node": "num", "type": "int", "ival": 3}}},
					{"node": "return_stmt", "expression": {"node": "var", "id": "x"}}
				]
			 }}
		]
	}`)

	prog, err := Decode(src)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(prog.Declarations) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(prog.Declarations))
	}
	gv, ok := prog.Declarations[0].(*VarDeclaration)
	if !ok || gv.ID != "g" {
		t.Fatalf("expected global var 'g', got %#v", prog.Declarations[0])
	}
	fn, ok := prog.Declarations[1].(*FunDeclaration)
	if !ok || fn.ID != "main" {
		t.Fatalf("expected fun 'main', got %#v", prog.Declarations[1])
	}
	if len(fn.Body.LocalDeclarations) != 1 || len(fn.Body.Statements) != 2 {
		t.Fatalf("unexpected body shape: %#v", fn.Body)
	}
	assignStmt, ok := fn.Body.Statements[0].(*ExpressionStmt)
	if !ok {
		t.Fatalf("expected expression_stmt, got %#v", fn.Body.Statements[0])
	}
	assign, ok := assignStmt.Expression.(*AssignExpression)
	if !ok || assign.Var.ID != "x" {
		t.Fatalf("expected assign to x, got %#v", assignStmt.Expression)
	}
}

func TestDecodeArrayDeclarationAndIndex(t *testing.T) {
	src := []byte(`{
		"declarations": [
			{"node": "fun_declaration", "type": "void", "id": "f",
			 "params": [{"type": "int", "id": "a", "isArray": true}],
			 "body": {
				"localDeclarations": [{"type": "int", "id": "arr", "num": {"type": "int", "ival": 10}}],
				"statements": [
					{"node": "return_stmt"}
				]
			 }}
		]
	}`)
	prog, err := Decode(src)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	fn := prog.Declarations[0].(*FunDeclaration)
	if !fn.Params[0].IsArray {
		t.Fatalf("expected param to be array")
	}
	local := fn.Body.LocalDeclarations[0]
	if local.Num == nil || local.Num.IVal != 10 {
		t.Fatalf("expected array length 10, got %#v", local.Num)
	}
}

func TestDecodeRejectsUnknownNode(t *testing.T) {
	_, err := Decode([]byte(`{"declarations": [{"node": "bogus"}]}`))
	if err == nil {
		t.Fatal("expected an error for an unknown declaration node")
	}
}
