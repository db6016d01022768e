package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/promptkit/cmd/promptkit/commands"
	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
	"git.home.luguber.info/inful/promptkit/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	var cli commands.CLI
	kctx := kong.Parse(&cli,
		kong.Name("promptkit"),
		kong.Description("Assemble documentation corpora into LLM prompt files and validate their references."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := kctx.Run(&commands.Global{Ctx: ctx, Out: os.Stdout}, &cli)
	stop()
	if err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
