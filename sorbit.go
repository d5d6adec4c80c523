package sorbit

import (
	"github.com/petiaccja/sorbit/gen"
	"github.com/petiaccja/sorbit/gosource"
	"github.com/petiaccja/sorbit/ir"
	"github.com/petiaccja/sorbit/layout"
)

// Result is the outcome of one compilation: the lowered programs in
// source order and the generated file content.
type Result struct {
	// Package is the package name of the input files and the output.
	Package  string
	Programs []*ir.Program
	Source   []byte
}

// Compile runs the whole pipeline over Go source files: extract
// annotated types, parse their layouts, lower to op programs, and
// generate the serialization routines.
func Compile(filenames ...string) (*Result, error) {
	f, err := gosource.Extract(filenames...)
	if err != nil {
		return nil, err
	}
	return build(f)
}

// CompileSource is Compile for a single in-memory file.
func CompileSource(filename string, src []byte) (*Result, error) {
	f, err := gosource.ExtractSource(filename, src)
	if err != nil {
		return nil, err
	}
	return build(f)
}

func build(f *gosource.File) (*Result, error) {
	lw := ir.NewLowerer()
	for _, rt := range f.Types {
		def, err := layout.Parse(rt)
		if err != nil {
			return nil, err
		}
		lw.Add(def)
	}

	progs := make([]*ir.Program, 0, len(f.Types))
	for _, rt := range f.Types {
		p, err := lw.Lower(rt.Name)
		if err != nil {
			return nil, err
		}
		progs = append(progs, p)
	}

	src, err := gen.Generate(f.Package, progs)
	if err != nil {
		return nil, err
	}
	return &Result{Package: f.Package, Programs: progs, Source: src}, nil
}
