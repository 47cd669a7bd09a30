// Command fakercon serves a scripted CRCON web API for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/hllstatus/internal/fakercon"
	"github.com/tinytelemetry/hllstatus/internal/logging"
)

func main() {
	var (
		addr     string
		apiKey   string
		simulate time.Duration
		delay    time.Duration
		failCmd  string
		failCode int
		logLevel string
	)

	flag.StringVar(&addr, "addr", "127.0.0.1:8010", "listen address")
	flag.StringVar(&apiKey, "api-key", "", "require this Bearer API key")
	flag.DurationVar(&simulate, "simulate", 5*time.Second, "advance the match clock at this interval (0 disables)")
	flag.DurationVar(&delay, "delay", 0, "delay every response by this long")
	flag.StringVar(&failCmd, "fail", "", "command to fail, e.g. get_gamestate")
	flag.IntVar(&failCode, "fail-status", 0, "HTTP status for -fail (0 returns a failed envelope)")
	flag.StringVar(&logLevel, "log-level", "info", "log level")
	flag.Parse()

	if err := run(addr, apiKey, simulate, delay, failCmd, failCode, logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, apiKey string, simulate, delay time.Duration, failCmd string, failCode int, logLevel string) error {
	logger, cleanup, err := logging.Setup(logging.Options{Level: logLevel, File: logging.Stderr, Name: "fakercon"})
	if err != nil {
		return err
	}
	defer cleanup()

	srv := fakercon.New(addr, fakercon.WithAPIKey(apiKey), fakercon.WithLogger(logger))
	if delay > 0 {
		srv.SetDelay(delay)
	}
	if failCmd != "" {
		f := fakercon.Failure{HTTPStatus: failCode, Message: "injected failure"}
		if failCode != 0 && http.StatusText(failCode) == "" {
			return fmt.Errorf("invalid -fail-status: %d", failCode)
		}
		srv.SetFailure(failCmd, f)
	}
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	if simulate > 0 {
		g.Go(func() error {
			srv.Simulate(gctx, simulate)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("fake crcon stopping")
		return nil
	})
	return g.Wait()
}
