package gosource

import (
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"

	"github.com/petiaccja/sorbit/errors"
	"github.com/petiaccja/sorbit/layout"
)

const (
	directivePrefix = "//sorbit:"
	tagKey          = "sorbit"
)

// File is the extraction result for one source file.
type File struct {
	// Package is the declared package name.
	Package string
	// Types lists the annotated definitions in source order, with enum
	// variants already attached to their enums.
	Types []*layout.RawType
}

// Extract parses Go source files and collects every type carrying a
// sorbit directive. Variants may appear in any file of the set.
func Extract(filenames ...string) (*File, error) {
	fset := token.NewFileSet()
	var files []*ast.File
	pkg := ""
	for _, name := range filenames {
		f, err := parser.ParseFile(fset, name, nil, parser.ParseComments)
		if err != nil {
			return nil, errors.New(errors.PhaseParse, errors.KindUnsupported).
				Cause(err).
				Detail("cannot parse %s", name).
				Build()
		}
		if pkg != "" && f.Name.Name != pkg {
			return nil, errors.New(errors.PhaseParse, errors.KindUnsupported).
				Path(name).
				Detail("file declares package %s, previous files declare %s", f.Name.Name, pkg).
				Build()
		}
		pkg = f.Name.Name
		files = append(files, f)
	}
	return extract(pkg, files)
}

// ExtractSource is Extract for in-memory source, used by tests and the
// interactive inspector.
func ExtractSource(filename string, src []byte) (*File, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, errors.New(errors.PhaseParse, errors.KindUnsupported).
			Cause(err).
			Detail("cannot parse %s", filename).
			Build()
	}
	return extract(f.Name.Name, []*ast.File{f})
}

type variant struct {
	enum string
	raw  layout.RawVariant
}

func extract(pkg string, files []*ast.File) (*File, error) {
	out := &File{Package: pkg}
	byName := map[string]*layout.RawType{}
	var variants []variant

	for _, f := range files {
		for _, decl := range f.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts := spec.(*ast.TypeSpec)
				directive := findDirective(gd.Doc, ts.Doc)
				if directive == "" {
					continue
				}

				kind, rest, _ := strings.Cut(directive, " ")
				name := ts.Name.Name
				switch kind {
				case "struct":
					fields, err := structFields(name, ts)
					if err != nil {
						return nil, err
					}
					rt := &layout.RawType{Name: name, Kind: layout.DefStruct, Options: rest, Fields: fields}
					byName[name] = rt
					out.Types = append(out.Types, rt)

				case "enum":
					if _, ok := ts.Type.(*ast.InterfaceType); !ok {
						return nil, errors.Unsupported(errors.PhaseParse, []string{name}, "enum directive requires an interface type")
					}
					rt := &layout.RawType{Name: name, Kind: layout.DefEnum, Options: rest}
					byName[name] = rt
					out.Types = append(out.Types, rt)

				case "variant":
					enum, opts, _ := strings.Cut(rest, " ")
					if enum == "" {
						return nil, errors.Unsupported(errors.PhaseParse, []string{name}, "variant directive must name its enum")
					}
					fields, err := structFields(name, ts)
					if err != nil {
						return nil, err
					}
					variants = append(variants, variant{
						enum: enum,
						raw:  layout.RawVariant{Name: name, Options: opts, Fields: fields},
					})

				default:
					return nil, errors.UnknownAttribute([]string{name}, "sorbit:"+kind)
				}
			}
		}
	}

	for _, v := range variants {
		rt, ok := byName[v.enum]
		if !ok || rt.Kind != layout.DefEnum {
			return nil, errors.New(errors.PhaseParse, errors.KindInvalidAttributeValue).
				Path(v.raw.Name).
				Detail("variant references %s, which is not an annotated enum", v.enum).
				Build()
		}
		rt.Variants = append(rt.Variants, v.raw)
	}
	return out, nil
}

// findDirective returns the option text of the last sorbit directive in
// the declaration's comments, without the directive prefix.
func findDirective(groups ...*ast.CommentGroup) string {
	found := ""
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			if strings.HasPrefix(c.Text, directivePrefix) {
				found = strings.TrimPrefix(c.Text, directivePrefix)
			}
		}
	}
	return strings.TrimSpace(found)
}

func structFields(typeName string, ts *ast.TypeSpec) ([]layout.RawField, error) {
	st, ok := ts.Type.(*ast.StructType)
	if !ok {
		return nil, errors.Unsupported(errors.PhaseParse, []string{typeName}, "directive requires a struct type")
	}

	var fields []layout.RawField
	for _, f := range st.Fields.List {
		if len(f.Names) == 0 {
			return nil, errors.Unsupported(errors.PhaseParse, []string{typeName}, "embedded fields are not supported")
		}
		ident, ok := f.Type.(*ast.Ident)
		if !ok {
			return nil, errors.Unsupported(errors.PhaseParse,
				[]string{typeName, f.Names[0].Name}, "field types must be named types in the same package")
		}

		tag := ""
		if f.Tag != nil {
			raw, err := strconv.Unquote(f.Tag.Value)
			if err != nil {
				return nil, errors.InvalidAttributeValue([]string{typeName, f.Names[0].Name}, "tag", f.Tag.Value, "a valid struct tag")
			}
			tag = reflect.StructTag(raw).Get(tagKey)
		}

		for _, name := range f.Names {
			fields = append(fields, layout.RawField{Name: name.Name, Type: ident.Name, Tag: tag})
		}
	}
	return fields, nil
}
