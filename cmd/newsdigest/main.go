package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/nhle/newsdigest/internal/report"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	opts, err := parseOptions(args)
	if err != nil {
		// go-flags prints its own errors.
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		return 2
	}
	if opts == nil {
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := report.New(os.Stdout)
	if err := dispatch(ctx, opts, rep); err != nil {
		if errors.Is(err, context.Canceled) {
			rep.Warn("Cancelado")
			return 130
		}
		rep.Error(err)
		return 1
	}
	return 0
}
