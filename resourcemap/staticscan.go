package resourcemap

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
)

// scanRequireCalls walks source's AST for require("literal") call sites and
// returns the literal module names in source order, without evaluating
// anything. ScanDir uses this to pre-populate a Resource's RequiredModules
// so a dependency graph can be inspected before any test file runs.
//
// The traversal itself is adapted from the recursive expression/statement
// walk goja_modules/module.go used to collect free identifiers ahead of
// symbol-table injection; here it collects require() targets instead.
func scanRequireCalls(source string) []string {
	prog, err := goja.Parse("", source)
	if err != nil {
		return nil
	}

	var found []string
	seen := map[string]bool{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			found = append(found, name)
		}
	}

	var walkExpr func(ast.Expression)
	var walkStmt func(ast.Statement)

	walkExprList := func(list []ast.Expression) {
		for _, e := range list {
			walkExpr(e)
		}
	}
	walkStmtList := func(list []ast.Statement) {
		for _, s := range list {
			walkStmt(s)
		}
	}

	walkExpr = func(e ast.Expression) {
		if e == nil {
			return
		}
		switch expr := e.(type) {
		case *ast.CallExpression:
			if ident, ok := expr.Callee.(*ast.Identifier); ok && ident.Name.String() == "require" {
				if len(expr.ArgumentList) == 1 {
					if lit, ok := expr.ArgumentList[0].(*ast.StringLiteral); ok {
						add(lit.Value.String())
					}
				}
			}
			walkExpr(expr.Callee)
			walkExprList(expr.ArgumentList)
		case *ast.AwaitExpression:
			walkExpr(expr.Argument)
		case *ast.ArrayLiteral:
			walkExprList(expr.Value)
		case *ast.AssignExpression:
			walkExpr(expr.Left)
			walkExpr(expr.Right)
		case *ast.BinaryExpression:
			walkExpr(expr.Left)
			walkExpr(expr.Right)
		case *ast.BracketExpression:
			walkExpr(expr.Left)
			walkExpr(expr.Member)
		case *ast.ConditionalExpression:
			walkExpr(expr.Test)
			walkExpr(expr.Consequent)
			walkExpr(expr.Alternate)
		case *ast.NewExpression:
			walkExpr(expr.Callee)
			walkExprList(expr.ArgumentList)
		case *ast.DotExpression:
			walkExpr(expr.Left)
		case *ast.ObjectLiteral:
			for _, prop := range expr.Value {
				if keyed, ok := prop.(*ast.PropertyKeyed); ok {
					walkExpr(keyed.Value)
				}
			}
		}
	}

	walkStmt = func(s ast.Statement) {
		if s == nil {
			return
		}
		switch stmt := s.(type) {
		case *ast.BlockStatement:
			walkStmtList(stmt.List)
		case *ast.ExpressionStatement:
			walkExpr(stmt.Expression)
		case *ast.IfStatement:
			walkExpr(stmt.Test)
			walkStmt(stmt.Consequent)
			if stmt.Alternate != nil {
				walkStmt(stmt.Alternate)
			}
		case *ast.ForStatement:
			walkExpr(stmt.Test)
			walkExpr(stmt.Update)
			walkStmt(stmt.Body)
		case *ast.ForInStatement:
			walkExpr(stmt.Source)
			walkStmt(stmt.Body)
		case *ast.ForOfStatement:
			walkExpr(stmt.Source)
			walkStmt(stmt.Body)
		case *ast.WhileStatement:
			walkExpr(stmt.Test)
			walkStmt(stmt.Body)
		case *ast.DoWhileStatement:
			walkExpr(stmt.Test)
			walkStmt(stmt.Body)
		case *ast.ReturnStatement:
			walkExpr(stmt.Argument)
		case *ast.ThrowStatement:
			walkExpr(stmt.Argument)
		case *ast.TryStatement:
			walkStmt(stmt.Body)
			if stmt.Catch != nil {
				walkStmt(stmt.Catch.Body)
			}
			if stmt.Finally != nil {
				walkStmt(stmt.Finally)
			}
		case *ast.VariableStatement:
			for _, bind := range stmt.List {
				walkExpr(bind.Initializer)
			}
		case *ast.LexicalDeclaration:
			for _, bind := range stmt.List {
				walkExpr(bind.Initializer)
			}
		case *ast.FunctionDeclaration:
			if stmt.Function != nil {
				walkStmt(stmt.Function.Body)
			}
		}
	}

	walkStmtList(prog.Body)
	return found
}
