// zenocode sends a prompt to a configured language-model backend and prints
// the reply, either whole or as it streams in.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

func main() {
	cli := CLI{}
	kong.Parse(&cli,
		kong.Name("zenocode"),
		kong.Description("Send a prompt to a language-model backend"),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Run(ctx, os.Stdout, os.Stderr)
	stop()

	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
