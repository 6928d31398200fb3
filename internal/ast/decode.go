package ast

import (
	"encoding/json"
	"fmt"
)

// envelope is the wire shape every statement/expression/declaration node
// arrives in: a "node" discriminator plus the node's own fields, decoded
// lazily via json.RawMessage. Go's encoding/json can't unmarshal directly
// into an interface field, so Decode walks the tree by hand with one more
// level of indirection than a plain json.Unmarshal(data, &module) call.
type envelope struct {
	Node string          `json:"node"`
	Raw  json.RawMessage `json:"-"`
}

// Decode parses a JSON-encoded Program. Declarations, statements and
// expressions each carry a "node" discriminator (e.g. "fun_declaration",
// "return_stmt", "var"); function bodies, local declarations and params
// are untagged objects.
func Decode(data []byte) (*Program, error) {
	var raw struct {
		Declarations []json.RawMessage `json:"declarations"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ast: decode program: %w", err)
	}
	p := &Program{}
	for i, d := range raw.Declarations {
		decl, err := decodeDeclaration(d)
		if err != nil {
			return nil, fmt.Errorf("ast: declaration %d: %w", i, err)
		}
		p.Declarations = append(p.Declarations, decl)
	}
	return p, nil
}

func nodeKind(data []byte) (string, error) {
	var e struct {
		Node string `json:"node"`
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return "", err
	}
	if e.Node == "" {
		return "", fmt.Errorf("missing \"node\" discriminator")
	}
	return e.Node, nil
}

func decodeDeclaration(data []byte) (Declaration, error) {
	kind, err := nodeKind(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "var_declaration":
		var v VarDeclaration
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &v, nil
	case "fun_declaration":
		return decodeFunDeclaration(data)
	default:
		return nil, fmt.Errorf("unknown declaration node %q", kind)
	}
}

func decodeFunDeclaration(data []byte) (*FunDeclaration, error) {
	var raw struct {
		Type   ValueType       `json:"type"`
		ID     string          `json:"id"`
		Params []*Param        `json:"params"`
		Body   json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	body, err := decodeCompoundStmt(raw.Body)
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	return &FunDeclaration{Type: raw.Type, ID: raw.ID, Params: raw.Params, Body: body}, nil
}

func decodeCompoundStmt(data []byte) (*CompoundStmt, error) {
	var raw struct {
		LocalDeclarations []*VarDeclaration `json:"localDeclarations"`
		Statements        []json.RawMessage `json:"statements"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	cs := &CompoundStmt{LocalDeclarations: raw.LocalDeclarations}
	for i, s := range raw.Statements {
		stmt, err := decodeStatement(s)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		cs.Statements = append(cs.Statements, stmt)
	}
	return cs, nil
}

func decodeStatement(data []byte) (Statement, error) {
	kind, err := nodeKind(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "compound_stmt":
		return decodeCompoundStmt(data)
	case "expression_stmt":
		var raw struct {
			Expression json.RawMessage `json:"expression"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		var expr Expression
		if len(raw.Expression) > 0 {
			expr, err = decodeExpression(raw.Expression)
			if err != nil {
				return nil, err
			}
		}
		return &ExpressionStmt{Expression: expr}, nil
	case "selection_stmt":
		var raw struct {
			Expression    json.RawMessage `json:"expression"`
			IfStatement   json.RawMessage `json:"ifStatement"`
			ElseStatement json.RawMessage `json:"elseStatement"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		cond, err := decodeExpression(raw.Expression)
		if err != nil {
			return nil, fmt.Errorf("condition: %w", err)
		}
		thenStmt, err := decodeStatement(raw.IfStatement)
		if err != nil {
			return nil, fmt.Errorf("then: %w", err)
		}
		var elseStmt Statement
		if len(raw.ElseStatement) > 0 {
			elseStmt, err = decodeStatement(raw.ElseStatement)
			if err != nil {
				return nil, fmt.Errorf("else: %w", err)
			}
		}
		return &SelectionStmt{Expression: cond, IfStatement: thenStmt, ElseStatement: elseStmt}, nil
	case "iteration_stmt":
		var raw struct {
			Expression json.RawMessage `json:"expression"`
			Statement  json.RawMessage `json:"statement"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		cond, err := decodeExpression(raw.Expression)
		if err != nil {
			return nil, fmt.Errorf("condition: %w", err)
		}
		body, err := decodeStatement(raw.Statement)
		if err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
		return &IterationStmt{Expression: cond, Statement: body}, nil
	case "return_stmt":
		var raw struct {
			Expression json.RawMessage `json:"expression"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		var expr Expression
		if len(raw.Expression) > 0 {
			expr, err = decodeExpression(raw.Expression)
			if err != nil {
				return nil, err
			}
		}
		return &ReturnStmt{Expression: expr}, nil
	default:
		return nil, fmt.Errorf("unknown statement node %q", kind)
	}
}

func decodeExpression(data []byte) (Expression, error) {
	if len(data) == 0 {
		return nil, nil
	}
	kind, err := nodeKind(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "num":
		var n Num
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return &n, nil
	case "var":
		var raw struct {
			ID    string          `json:"id"`
			Index json.RawMessage `json:"index"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		v := &Var{ID: raw.ID}
		if len(raw.Index) > 0 {
			idx, err := decodeExpression(raw.Index)
			if err != nil {
				return nil, fmt.Errorf("index: %w", err)
			}
			v.Index = idx
		}
		return v, nil
	case "assign":
		var raw struct {
			Var        json.RawMessage `json:"var"`
			Expression json.RawMessage `json:"expression"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		varExpr, err := decodeExpression(raw.Var)
		if err != nil {
			return nil, fmt.Errorf("var: %w", err)
		}
		v, ok := varExpr.(*Var)
		if !ok {
			return nil, fmt.Errorf("assign target must be a var node")
		}
		rhs, err := decodeExpression(raw.Expression)
		if err != nil {
			return nil, fmt.Errorf("expression: %w", err)
		}
		return &AssignExpression{Var: v, Expression: rhs}, nil
	case "simple_expression":
		var raw struct {
			Left  json.RawMessage `json:"left"`
			Op    BinOp           `json:"op"`
			Right json.RawMessage `json:"right"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		left, err := decodeExpression(raw.Left)
		if err != nil {
			return nil, fmt.Errorf("left: %w", err)
		}
		var right Expression
		if len(raw.Right) > 0 {
			right, err = decodeExpression(raw.Right)
			if err != nil {
				return nil, fmt.Errorf("right: %w", err)
			}
		}
		return &SimpleExpression{Left: left, Op: raw.Op, Right: right}, nil
	case "additive_expression":
		var raw struct {
			Left json.RawMessage `json:"left"`
			Op   BinOp           `json:"op"`
			Term json.RawMessage `json:"term"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		var left Expression
		var err error
		if len(raw.Left) > 0 {
			left, err = decodeExpression(raw.Left)
			if err != nil {
				return nil, fmt.Errorf("left: %w", err)
			}
		}
		term, err := decodeExpression(raw.Term)
		if err != nil {
			return nil, fmt.Errorf("term: %w", err)
		}
		return &AdditiveExpression{Left: left, Op: raw.Op, Term: term}, nil
	case "term":
		var raw struct {
			Left   json.RawMessage `json:"left"`
			Op     BinOp           `json:"op"`
			Factor json.RawMessage `json:"factor"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		var left Expression
		var err error
		if len(raw.Left) > 0 {
			left, err = decodeExpression(raw.Left)
			if err != nil {
				return nil, fmt.Errorf("left: %w", err)
			}
		}
		factor, err := decodeExpression(raw.Factor)
		if err != nil {
			return nil, fmt.Errorf("factor: %w", err)
		}
		return &Term{Left: left, Op: raw.Op, Factor: factor}, nil
	case "call":
		var raw struct {
			ID   string            `json:"id"`
			Args []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		call := &Call{ID: raw.ID}
		for i, a := range raw.Args {
			arg, err := decodeExpression(a)
			if err != nil {
				return nil, fmt.Errorf("arg %d: %w", i, err)
			}
			call.Args = append(call.Args, arg)
		}
		return call, nil
	default:
		return nil, fmt.Errorf("unknown expression node %q", kind)
	}
}
