package test

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
)

// skipDir reports whether a directory is outside the project's own sources.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
		name == "vendor" || name == "testdata"
}

// testFiles parses every _test.go file under the project root.
func testFiles(t *testing.T) (*token.FileSet, map[string]*ast.File) {
	t.Helper()
	chdir(t)

	fset := token.NewFileSet()
	files := make(map[string]*ast.File)

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, "_test.go") {
			return nil
		}
		f, err := parser.ParseFile(fset, path, nil, 0)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		files[path] = f
		return nil
	})
	if err != nil {
		t.Fatalf("walking project: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("No test files found - something is wrong with test discovery")
	}
	return fset, files
}

// testFuncs yields the Test* functions of a file.
func testFuncs(f *ast.File) []*ast.FuncDecl {
	var funcs []*ast.FuncDecl
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if ok && fn.Recv == nil && strings.HasPrefix(fn.Name.Name, "Test") && fn.Name.Name != "TestMain" {
			funcs = append(funcs, fn)
		}
	}
	return funcs
}

// TestNoSkippedTests ensures tests never call t.Skip, t.SkipNow or
// testing.Short. Missing test data is a failure, not a skip.
func TestNoSkippedTests(t *testing.T) {
	fset, files := testFiles(t)

	forbidden := map[string]bool{"Skip": true, "SkipNow": true, "Skipf": true, "Short": true}

	var violations []string
	for path, f := range files {
		ast.Inspect(f, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok || !forbidden[sel.Sel.Name] {
				return true
			}
			if id, ok := sel.X.(*ast.Ident); ok && (id.Name == "t" || id.Name == "testing") {
				violations = append(violations, fmt.Sprintf("%s:%d: %s.%s",
					path, fset.Position(sel.Pos()).Line, id.Name, sel.Sel.Name))
			}
			return true
		})
	}

	for _, v := range violations {
		t.Errorf("skipped test: %s", v)
	}
	if len(violations) > 0 {
		t.Error("Fix the cause of the skip or fail with t.Fatalf when a resource is missing")
	}
}

// TestNoEmptyTests ensures every test function calls something: an
// assertion, a helper or a subtest.
func TestNoEmptyTests(t *testing.T) {
	fset, files := testFiles(t)

	count := 0
	for path, f := range files {
		for _, fn := range testFuncs(f) {
			count++
			calls := 0
			ast.Inspect(fn.Body, func(n ast.Node) bool {
				if _, ok := n.(*ast.CallExpr); ok {
					calls++
				}
				return true
			})
			if calls == 0 {
				t.Errorf("%s:%d: %s has no calls", path, fset.Position(fn.Pos()).Line, fn.Name.Name)
			}
		}
	}

	t.Logf("Checked %d test functions in %d files", count, len(files))
}

// TestPackagesHaveTests ensures every library and command package carries
// its own tests.
func TestPackagesHaveTests(t *testing.T) {
	_, files := testFiles(t)

	tested := make(map[string]bool)
	for path := range files {
		tested[filepath.ToSlash(filepath.Dir(path))] = true
	}

	for _, dir := range []string{
		"pkg/entry", "pkg/parser", "pkg/query", "pkg/analyzer", "pkg/config",
		"pkg/output", "pkg/detector", "pkg/webhook", "internal/cli", "internal/cli/commands",
	} {
		if !tested[dir] {
			t.Errorf("package %s has no tests", dir)
		}
	}
}
