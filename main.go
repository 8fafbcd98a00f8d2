package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ellavondegurechaff/waifubot/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Version = version
	cmd.Commit = commit
	cmd.Execute(ctx)
}
