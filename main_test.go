package main

import (
	"go/parser"
	"go/token"
	"slices"
	"testing"
)

// TestImportGroupsSorted keeps every import group of the entry point in the
// order gofmt produces.
func TestImportGroupsSorted(t *testing.T) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "main.go", nil, parser.ImportsOnly)
	if err != nil {
		t.Fatal(err)
	}

	var (
		group []string
		line  int
	)
	check := func() {
		if !slices.IsSorted(group) {
			t.Errorf("import group not sorted: %q", group)
		}
		group = group[:0]
	}
	for _, spec := range f.Imports {
		l := fset.Position(spec.Pos()).Line
		if line != 0 && l != line+1 {
			check()
		}
		group = append(group, spec.Path.Value)
		line = l
	}
	check()
}
