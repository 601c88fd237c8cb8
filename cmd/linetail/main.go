package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/butter-bot-machines/linetail/pkg/cmd"
	"github.com/butter-bot-machines/linetail/pkg/tail"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.NewCLI().Run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, tail.ErrInterrupted) {
			return 130
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
