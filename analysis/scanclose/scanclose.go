// Package scanclose provides a go/analysis based analyzer that reports
// regscan Scanners which are built but never closed.
//
// A Scanner counts as handled when its Close method is called or referenced
// (defer s.Close(), t.Cleanup(s.Close)), or when it leaves the function:
// returned, stored, sent, or passed to another call.
package scanclose

import (
	"errors"
	"flag"
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

// DefaultPackage is the import path whose Build functions are checked.
const DefaultPackage = "github.com/KromDaniel/regscan/pkg/regscan"

var regscanPackage string

func init() {
	Analyzer.Flags.StringVar(&regscanPackage, "package", DefaultPackage,
		"import path of the package providing Build and (*Database).Build")
}

// Analyzer reports Scanners that are neither closed nor handed off.
var Analyzer = &analysis.Analyzer{
	Name:     "scanclose",
	Doc:      "checks that regscan Scanners are closed",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
	Flags:    flag.FlagSet{},
}

var ErrNoInspector = errors.New("inspector analyzer result not found")

func run(pass *analysis.Pass) (any, error) {
	insp, ok := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	if !ok {
		return nil, ErrNoInspector
	}

	insp.Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node) {
		fn := n.(*ast.FuncDecl)
		if fn.Body == nil || ast.IsGenerated(fileOf(pass, fn)) {
			return
		}
		checkBody(pass, fn.Body)
	})
	return nil, nil
}

func fileOf(pass *analysis.Pass, n ast.Node) *ast.File {
	for _, f := range pass.Files {
		if f.FileStart <= n.Pos() && n.Pos() <= f.FileEnd {
			return f
		}
	}
	return &ast.File{}
}

// scanner is one local variable holding a built Scanner.
type scanner struct {
	ident   *ast.Ident
	handled bool
}

// checkBody finds Build results bound to local variables, then classifies
// every later reference to them. Nested function literals are part of body.
func checkBody(pass *analysis.Pass, body *ast.BlockStmt) {
	vars := make(map[types.Object]*scanner)
	var order []*scanner

	track := func(lhs ast.Expr, call *ast.CallExpr) {
		id, ok := lhs.(*ast.Ident)
		if !ok {
			// Stored in a field, element or through a pointer.
			return
		}
		if id.Name == "_" {
			pass.Reportf(call.Pos(), "scanner from %s is discarded without Close", calleeName(pass, call))
			return
		}
		obj := pass.TypesInfo.ObjectOf(id)
		if obj == nil {
			return
		}
		if _, seen := vars[obj]; !seen {
			s := &scanner{ident: id}
			vars[obj] = s
			order = append(order, s)
		}
	}

	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.AssignStmt:
			if call := buildCall(pass, n.Rhs); call != nil && len(n.Lhs) > 0 {
				track(n.Lhs[0], call)
			}
		case *ast.ValueSpec:
			if call := buildCall(pass, n.Values); call != nil && len(n.Names) > 0 {
				track(n.Names[0], call)
			}
		case *ast.ExprStmt:
			if call := buildCall(pass, []ast.Expr{n.X}); call != nil {
				pass.Reportf(call.Pos(), "scanner from %s is discarded without Close", calleeName(pass, call))
			}
		}
		return true
	})
	if len(vars) == 0 {
		return
	}

	var stack []ast.Node
	ast.Inspect(body, func(n ast.Node) bool {
		if n == nil {
			stack = stack[:len(stack)-1]
			return true
		}
		if id, ok := n.(*ast.Ident); ok {
			if s := vars[pass.TypesInfo.Uses[id]]; s != nil && handles(id, stack) {
				s.handled = true
			}
		}
		stack = append(stack, n)
		return true
	})

	for _, s := range order {
		if !s.handled {
			pass.Reportf(s.ident.Pos(), "scanner %s is never closed", s.ident.Name)
		}
	}
}

// handles reports whether the reference id, whose ancestors are stack,
// closes the scanner or lets it escape.
func handles(id *ast.Ident, stack []ast.Node) bool {
	if len(stack) == 0 {
		return false
	}
	switch parent := stack[len(stack)-1].(type) {
	case *ast.SelectorExpr:
		if parent.X == id {
			return parent.Sel.Name == "Close"
		}
	case *ast.AssignStmt:
		for _, lhs := range parent.Lhs {
			if lhs == id {
				// Rebinding the variable.
				return false
			}
		}
	case *ast.BinaryExpr:
		// Comparisons such as s != nil.
		return false
	}
	return true
}

// buildCall returns the single right-hand side call when it is a Build call.
func buildCall(pass *analysis.Pass, rhs []ast.Expr) *ast.CallExpr {
	if len(rhs) != 1 {
		return nil
	}
	call, ok := ast.Unparen(rhs[0]).(*ast.CallExpr)
	if !ok {
		return nil
	}
	fn, ok := typeutil.Callee(pass.TypesInfo, call).(*types.Func)
	if !ok || fn.Name() != "Build" || fn.Pkg() == nil || fn.Pkg().Path() != regscanPackage {
		return nil
	}
	return call
}

func calleeName(pass *analysis.Pass, call *ast.CallExpr) string {
	fn, ok := typeutil.Callee(pass.TypesInfo, call).(*types.Func)
	if !ok || fn.Pkg() == nil {
		return "Build"
	}
	if sig, ok := fn.Type().(*types.Signature); ok && sig.Recv() != nil {
		return "(*" + fn.Pkg().Name() + ".Database).Build"
	}
	return fn.Pkg().Name() + ".Build"
}
