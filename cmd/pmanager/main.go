package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/pmanager/internal/cli"
	"github.com/dmitrijs2005/pmanager/internal/config"
	"github.com/dmitrijs2005/pmanager/internal/logging"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logging.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, log, os.Stdin, os.Stdout)
	if err != nil {
		log.Error(ctx, "cannot start", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error(ctx, "close", "error", err)
		}
	}()

	app.Run(ctx)
}
