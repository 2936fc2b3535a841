package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/hirekit/hirekit/cmd/hirekit/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Migrate  commands.MigrateCmd  `cmd:"" help:"Run database migrations"`
		Backfill commands.BackfillCmd `cmd:"" help:"Recompute entity statuses from application stages"`
		Debug    bool                 `help:"Enable debug mode."`
		Version  kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
