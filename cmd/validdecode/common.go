package main

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/reoring/validdecode/internal/config"
	"github.com/reoring/validdecode/internal/extract"
	"github.com/reoring/validdecode/internal/gen"
	"github.com/reoring/validdecode/internal/log"
	"github.com/reoring/validdecode/internal/shape"
)

// pkgFlags are the flags shared by every command that reads a package.
type pkgFlags struct {
	types   string
	output  string
	formats string
	config  string
	prefix  string
}

func (p *pkgFlags) register(f *flag.FlagSet) {
	f.StringVar(&p.types, "type", "", "comma-separated type names to generate for, instead of //validdecode:generate")
	f.StringVar(&p.output, "o", "", "output file name (default "+config.DefaultOutput+")")
	f.StringVar(&p.formats, "formats", "", "comma-separated formats to install hooks for: json, yaml")
	f.StringVar(&p.config, "config", "", "configuration file (default <dir>/"+config.FileName+")")
	f.StringVar(&p.prefix, "prefix", "", "prefix of generated identifiers (default "+shape.DefaultPrefix+")")
}

// resolve layers the flags over the configuration file of dir.
func (p *pkgFlags) resolve(dir string) (config.Config, error) {
	cfg, err := config.Load(dir, p.config)
	if err != nil {
		return config.Config{}, err
	}
	cfg = cfg.Merge(config.Config{
		Output:  p.output,
		Formats: splitList(p.formats),
		Types:   splitList(p.types),
		Prefix:  p.prefix,
	})
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// packageDir returns the single optional directory argument.
func packageDir(f *flag.FlagSet) (string, error) {
	switch f.NArg() {
	case 0:
		return ".", nil
	case 1:
		return f.Arg(0), nil
	default:
		return "", fmt.Errorf("expected at most one package directory, got %d", f.NArg())
	}
}

// rendered is the outcome of running the generator over one package.
type rendered struct {
	pkg    string
	decls  []shape.TypeDecl
	ops    []shape.DecodeOperation
	source []byte
}

// generate extracts the declarations of dir, wires their decode operations
// and renders the generated file.
func generate(dir string, cfg config.Config) (*rendered, error) {
	res, err := extract.Package(dir, extract.Options{
		Types:     cfg.Types,
		SkipFiles: []string{filepath.Base(cfg.Output)},
	})
	if err != nil {
		return nil, err
	}
	scope := shape.NewScope(cfg.Prefix, res.Declared)
	ops, err := shape.Pipeline(res.Decls, scope)
	if err != nil {
		return nil, err
	}
	formats, err := cfg.ParsedFormats()
	if err != nil {
		return nil, err
	}
	imports := make([]gen.Import, len(res.Imports))
	for i, imp := range res.Imports {
		imports[i] = gen.Import{Name: imp.Name, Path: imp.Path}
	}
	src, err := gen.RenderFile(gen.File{
		Package: res.Package,
		Formats: formats,
		Imports: imports,
		Ops:     ops,
	})
	if err != nil {
		return nil, err
	}
	return &rendered{pkg: res.Package, decls: res.Decls, ops: ops, source: src}, nil
}

// report logs every error aggregated in err, one entry each.
func report(msg string, err error) {
	for _, e := range multierr.Errors(err) {
		fields := []zap.Field{zap.Error(e)}
		var se *shape.Error
		if errors.As(e, &se) {
			fields = append(fields, zap.String("decl", se.Decl), zap.Stringer("kind", se.Kind))
		}
		log.Logger().Error(msg, fields...)
	}
}
