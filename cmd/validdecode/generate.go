package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/reoring/validdecode/internal/log"
)

type generateCmd struct {
	pkgFlags
}

func (*generateCmd) Name() string { return "generate" }

func (*generateCmd) Usage() string {
	return "generate [flags] [dir]\n\nWrites the validated decode hooks of the package in dir.\n"
}

func (*generateCmd) Synopsis() string {
	return "generate validated decode hooks for a package"
}

func (cmd *generateCmd) SetFlags(f *flag.FlagSet) {
	cmd.register(f)
}

func (cmd *generateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	dir, err := packageDir(f)
	if err != nil {
		log.Logger().Error("generate", zap.Error(err))
		return subcommands.ExitUsageError
	}
	if err := cmd.execute(dir); err != nil {
		report("generate", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (cmd *generateCmd) execute(dir string) error {
	cfg, err := cmd.resolve(dir)
	if err != nil {
		return err
	}
	r, err := generate(dir, cfg)
	if err != nil {
		return err
	}
	path := cfg.OutputPath(dir)
	if len(r.ops) == 0 {
		log.Logger().Warn("no declarations selected; nothing written",
			zap.String("package", r.pkg), zap.String("dir", dir))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, r.source, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Logger().Info("generated",
		zap.String("package", r.pkg),
		zap.String("file", path),
		zap.Int("decls", len(r.ops)),
	)
	return nil
}
