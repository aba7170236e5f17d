package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/reoring/validdecode/internal/config"
	"github.com/reoring/validdecode/internal/gen"
	"github.com/reoring/validdecode/internal/log"
	"github.com/reoring/validdecode/internal/shape"
)

type inspectCmd struct {
	pkgFlags
	shapes  string
	pkgName string
	ops     bool
	source  bool

	out io.Writer
}

func (*inspectCmd) Name() string { return "inspect" }

func (*inspectCmd) Usage() string {
	return "inspect [flags] [dir]\n\nPrints the declarations of dir, or of a shape file, as YAML.\n"
}

func (*inspectCmd) Synopsis() string {
	return "print extracted declarations or derived decode operations"
}

func (cmd *inspectCmd) SetFlags(f *flag.FlagSet) {
	cmd.register(f)
	f.StringVar(&cmd.shapes, "shapes", "", "read declarations from this YAML shape file instead of Go sources")
	f.StringVar(&cmd.pkgName, "package", "main", "package name of the rendered source when -shapes is set")
	f.BoolVar(&cmd.ops, "ops", false, "print the derived decode operations instead of the declarations")
	f.BoolVar(&cmd.source, "go", false, "print the rendered Go source")
}

func (cmd *inspectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	dir, err := packageDir(f)
	if err != nil {
		log.Logger().Error("inspect", zap.Error(err))
		return subcommands.ExitUsageError
	}
	if err := cmd.execute(dir); err != nil {
		report("inspect", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (cmd *inspectCmd) execute(dir string) error {
	var r *rendered
	var err error
	if cmd.shapes != "" {
		r, err = cmd.fromShapes()
	} else {
		var cfg config.Config
		if cfg, err = cmd.resolve(dir); err == nil {
			r, err = generate(dir, cfg)
		}
	}
	if err != nil {
		return err
	}

	var out []byte
	switch {
	case cmd.source:
		out = r.source
	case cmd.ops:
		out, err = shape.MarshalOperations(r.ops)
	default:
		out, err = shape.MarshalDecls(r.decls)
	}
	if err != nil {
		return err
	}
	_, err = cmd.out.Write(out)
	return err
}

// fromShapes runs the pipeline over the declarations of a shape file. The
// source is rendered only when requested, since shape files may carry
// parameters Go cannot express.
func (cmd *inspectCmd) fromShapes() (*rendered, error) {
	f, err := os.Open(cmd.shapes)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	decls, err := shape.LoadDecls(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.shapes, err)
	}
	ops, err := shape.Pipeline(decls, shape.NewScope(cmd.prefix, nil))
	if err != nil {
		return nil, err
	}
	r := &rendered{pkg: cmd.pkgName, decls: decls, ops: ops}
	if cmd.source {
		formats, err := gen.ParseFormats(cmd.formats)
		if err != nil {
			return nil, err
		}
		if r.source, err = gen.RenderFile(gen.File{Package: cmd.pkgName, Formats: formats, Ops: ops}); err != nil {
			return nil, err
		}
	}
	return r, nil
}
