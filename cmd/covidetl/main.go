// Package main wires together the covidetl binary.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/baystatedata/covidetl/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
