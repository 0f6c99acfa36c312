package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/niksmo/home-catalog/config"
	"github.com/niksmo/home-catalog/internal/app"
)

const shutdownTimeout = 10 * time.Second

func main() {
	sigCtx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	cfg := config.Load()
	cfg.Print()

	app := app.New(sigCtx, cfg)
	app.Run(stop)

	<-sigCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	app.Close(ctx)
}
