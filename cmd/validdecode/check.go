package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/google/subcommands"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/reoring/validdecode/internal/gen"
	"github.com/reoring/validdecode/internal/log"
	"github.com/reoring/validdecode/internal/shape"
)

// errStale is returned when the generated file differs from what generate
// would write.
var errStale = errors.New("generated file is out of date; run validdecode generate")

type checkCmd struct {
	pkgFlags
}

func (*checkCmd) Name() string { return "check" }

func (*checkCmd) Usage() string {
	return "check [flags] [dir]\n\nFails when the generated file of dir is missing or out of date.\n"
}

func (*checkCmd) Synopsis() string {
	return "verify that generated decode hooks are up to date"
}

func (cmd *checkCmd) SetFlags(f *flag.FlagSet) {
	cmd.register(f)
}

func (cmd *checkCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	dir, err := packageDir(f)
	if err != nil {
		log.Logger().Error("check", zap.Error(err))
		return subcommands.ExitUsageError
	}
	if err := cmd.execute(dir); err != nil {
		report("check", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (cmd *checkCmd) execute(dir string) error {
	cfg, err := cmd.resolve(dir)
	if err != nil {
		return err
	}
	r, err := generate(dir, cfg)
	if err != nil {
		return err
	}
	path := cfg.OutputPath(dir)
	onDisk, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && len(r.ops) == 0:
		return nil
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%s: %w", path, errStale)
	case err != nil:
		return err
	}
	if bytes.Equal(onDisk, r.source) {
		log.Logger().Debug("up to date", zap.String("file", path))
		return nil
	}
	if err := compareVariants(gen.Fingerprints(onDisk), r.decls); err != nil {
		return err
	}
	return fmt.Errorf("%s: %w", path, errStale)
}

// compareVariants reports every union whose variant list changed since the
// file on disk was generated. Such a file no longer covers every variant.
func compareVariants(old map[string][]string, decls []shape.TypeDecl) error {
	var err error
	for _, d := range decls {
		if d.Shape.Kind != shape.KindUnion {
			continue
		}
		prev, ok := old[d.Name]
		if !ok {
			continue
		}
		cur := make([]string, len(d.Shape.Variants))
		for i, v := range d.Shape.Variants {
			cur[i] = v.Name
		}
		if slices.Equal(prev, cur) {
			continue
		}
		err = multierr.Append(err, shape.Errorf(shape.ExhaustivenessViolation, d.Name, d.Pos,
			"variants changed from [%s] to [%s]; regenerate", strings.Join(prev, ","), strings.Join(cur, ",")))
	}
	return err
}
