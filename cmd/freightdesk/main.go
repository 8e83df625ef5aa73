// Command freightdesk is the back office console.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"freightdesk/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.StdStreams(), os.Args[1:])
	stop()
	os.Exit(code)
}
