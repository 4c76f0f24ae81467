package gosource

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/toyz/docnote/pkg/annotations"
)

// indexFile records every type, field and method declared in file. Targets
// without documentation are recorded with an empty comment.
func (s *Source) indexFile(pkgPath string, file *ast.File) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				doc := ts.Doc
				if doc == nil && len(d.Specs) == 1 {
					doc = d.Doc
				}
				s.add(annotations.Class(pkgPath, ts.Name.Name), doc)
				s.indexMembers(pkgPath, ts)
			}

		case *ast.FuncDecl:
			if d.Recv == nil || len(d.Recv.List) == 0 {
				continue
			}
			if typeName := baseTypeName(d.Recv.List[0].Type); typeName != "" {
				s.add(annotations.Method(pkgPath, typeName, d.Name.Name), d.Doc)
			}
		}
	}
}

func (s *Source) indexMembers(pkgPath string, ts *ast.TypeSpec) {
	typeName := ts.Name.Name

	switch t := ts.Type.(type) {
	case *ast.StructType:
		for _, field := range t.Fields.List {
			if len(field.Names) == 0 {
				if name := baseTypeName(field.Type); name != "" {
					s.add(annotations.Property(pkgPath, typeName, name), field.Doc, field.Comment)
				}
				continue
			}
			for _, name := range field.Names {
				s.add(annotations.Property(pkgPath, typeName, name.Name), field.Doc, field.Comment)
			}
		}

	case *ast.InterfaceType:
		for _, method := range t.Methods.List {
			if _, ok := method.Type.(*ast.FuncType); !ok {
				continue
			}
			for _, name := range method.Names {
				s.add(annotations.Method(pkgPath, typeName, name.Name), method.Doc, method.Comment)
			}
		}
	}
}

// add stores the first non-empty comment group for target
func (s *Source) add(target annotations.Target, groups ...*ast.CommentGroup) {
	comment := ""
	for _, group := range groups {
		if group != nil && len(group.List) > 0 {
			comment = commentText(group)
			break
		}
	}

	if existing, ok := s.comments[target]; ok && comment == "" {
		comment = existing
	}
	s.comments[target] = comment
}

// commentText returns the comment group exactly as written, markers included
func commentText(group *ast.CommentGroup) string {
	lines := make([]string, len(group.List))
	for i, c := range group.List {
		lines[i] = c.Text
	}
	return strings.Join(lines, "\n")
}

// baseTypeName extracts "T" from T, *T, T[K], *T[K, V] and pkg.T
func baseTypeName(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.Ident:
			return e.Name
		case *ast.StarExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.SelectorExpr:
			return e.Sel.Name
		default:
			return ""
		}
	}
}
