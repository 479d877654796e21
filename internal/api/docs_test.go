package api

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"
)

// TestHandlersCarrySwaggerAnnotations keeps every exported handler in the
// generated API docs.
func TestHandlersCarrySwaggerAnnotations(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatal(err)
	}
	fset := token.NewFileSet()
	var checked int
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, parser.ParseComments)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || !isHandlerMethod(fn) {
				continue
			}
			checked++
			doc := fn.Doc.Text()
			for _, tag := range []string{"@Summary", "@Tags", "@Security", "@Router"} {
				if !strings.Contains(doc, tag) {
					t.Errorf("%s: %s has no %s annotation", name, fn.Name.Name, tag)
				}
			}
		}
	}
	if checked == 0 {
		t.Fatal("no handlers found")
	}
}

// isHandlerMethod reports whether fn is an exported
// func (h *Handler) X(w http.ResponseWriter, r *http.Request).
func isHandlerMethod(fn *ast.FuncDecl) bool {
	if fn.Recv == nil || len(fn.Recv.List) != 1 || !fn.Name.IsExported() {
		return false
	}
	star, ok := fn.Recv.List[0].Type.(*ast.StarExpr)
	if !ok {
		return false
	}
	if id, ok := star.X.(*ast.Ident); !ok || id.Name != "Handler" {
		return false
	}
	params := fn.Type.Params.List
	if len(params) != 2 {
		return false
	}
	w, ok := params[0].Type.(*ast.SelectorExpr)
	return ok && w.Sel.Name == "ResponseWriter"
}
