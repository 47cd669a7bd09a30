package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/hllstatus/internal/fetch"
	"github.com/tinytelemetry/hllstatus/internal/grpchealth"
	"github.com/tinytelemetry/hllstatus/internal/httpserver"
	"github.com/tinytelemetry/hllstatus/internal/logging"
	"github.com/tinytelemetry/hllstatus/internal/poller"
	"github.com/tinytelemetry/hllstatus/internal/publish"
	"github.com/tinytelemetry/hllstatus/internal/rconapi"
	"github.com/tinytelemetry/hllstatus/internal/socketrpc"
)

const shutdownWindow = 10 * time.Second

// runServer polls the CRCON API headless and serves the latest view over
// HTTP, gRPC health and the TUI socket.
func runServer(cfg appConfig) error {
	logger, cleanupLogger, err := logging.Setup(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		Name:  "hllstatus",
	})
	if err != nil {
		return err
	}
	defer cleanupLogger()

	client, err := rconapi.New(cfg.RCONURL,
		rconapi.WithAPIKey(cfg.RCONAPIKey),
		rconapi.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout + time.Second}),
	)
	if err != nil {
		return fmt.Errorf("failed to create CRCON client: %w", err)
	}
	logger.Info("crcon client ready", "url", client.BaseURL(), "api_key_set", cfg.RCONAPIKey != "")

	logSink := publish.NewLogSink(logger)
	sinks := []publish.Sink{logSink}

	var apiServer *httpserver.Server
	if cfg.APIEnabled {
		apiServer = httpserver.NewServer(cfg.APIAddr, nil)
		sinks = append(sinks, apiServer)
	}

	sessionOpts := []poller.Option{
		poller.WithInterval(cfg.PollInterval),
		poller.WithOverlapPolicy(cfg.overlap),
		poller.WithLogger(logger),
	}

	var healthServer *grpchealth.Server
	if cfg.GRPCEnabled {
		healthServer, err = grpchealth.New(cfg.GRPCAddr, logger)
		if err != nil {
			return fmt.Errorf("failed to start gRPC health server: %w", err)
		}
		sessionOpts = append(sessionOpts, poller.WithObserver(healthServer))
	}

	fetcher := fetch.New(client, fetch.WithTimeout(cfg.FetchTimeout))
	session := poller.New(fetcher, publish.New(logSink, sinks...), sessionOpts...)

	if apiServer != nil {
		apiServer.SetHealthSource(session)
		if err := apiServer.Start(); err != nil {
			healthServer.Close()
			return fmt.Errorf("failed to start API server: %w", err)
		}
		cfg.APIAddr = apiServer.Addr()
		defer apiServer.Stop()
	}

	// Start socket RPC server for TUI IPC
	socketUp := false
	if cfg.SocketEnabled {
		sockServer := socketrpc.NewServer(cfg.SocketPath, client, logger)
		if err := sockServer.Start(); err != nil {
			logger.Warn("failed to start socket server", "path", cfg.SocketPath, "err", err)
		} else {
			socketUp = true
			defer sockServer.Stop()
		}
	}

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go forceExitOnSecondSignal(sigCh, cancel, cfg.SocketPath, logger)

	printStartupBanner(cfg, socketUp, healthServer)

	g, gctx := errgroup.WithContext(ctx)

	if healthServer != nil {
		g.Go(func() error {
			return healthServer.Serve(gctx)
		})
	}

	g.Go(func() error {
		if err := session.Start(gctx); err != nil {
			return fmt.Errorf("start poll session: %w", err)
		}
		<-gctx.Done()
		session.Stop()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited with error", "err", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}

// forceExitOnSecondSignal cancels on the first signal and exits the
// process if a second signal arrives or shutdown overruns its window.
func forceExitOnSecondSignal(sigCh <-chan os.Signal, cancel context.CancelFunc, socketPath string, logger *slog.Logger) {
	if _, ok := <-sigCh; !ok {
		return
	}
	fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
	logger.Info("shutdown requested")
	cancel()

	// Shutdown deadline starts now, not at boot.
	deadline := time.NewTimer(shutdownWindow)
	defer deadline.Stop()

	select {
	case <-sigCh:
		fmt.Println("\nForce shutdown.")
	case <-deadline.C:
		fmt.Println("Shutdown timed out, forcing exit.")
	}
	cleanupSocket(socketPath)
	os.Exit(1)
}

func cleanupSocket(path string) {
	if path != "" {
		os.Remove(path)
	}
}

func printStartupBanner(cfg appConfig, socketUp bool, healthServer *grpchealth.Server) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╦ ╦╦  ╦    ╔═╗╔╦╗╔═╗╔╦╗╦ ╦╔═╗
    ╠═╣║  ║    ╚═╗ ║ ╠═╣ ║ ║ ║╚═╗
    ╩ ╩╩═╝╩═╝  ╚═╝ ╩ ╩ ╩ ╩ ╚═╝╚═╝`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	// Upstream
	lines = append(lines, bold.Render("    Upstream"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  CRCON API      %s", check, cyan.Render(cfg.RCONURL)))
	if cfg.RCONAPIKey != "" {
		lines = append(lines, fmt.Sprintf("    %s  API Key        %s", check, dim.Render("set")))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  API Key        %s", dot, dim.Render("none")))
	}
	lines = append(lines, fmt.Sprintf("    %s  Poll Interval  %s", check, dim.Render(cfg.PollInterval.String())))
	lines = append(lines, fmt.Sprintf("    %s  Fetch Timeout  %s", check, dim.Render(cfg.FetchTimeout.String())))
	lines = append(lines, fmt.Sprintf("    %s  Overlap        %s", check, dim.Render(cfg.overlap.String())))
	lines = append(lines, "")

	// Gateway
	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")

	if cfg.APIEnabled {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", dot, dim.Render("disabled")))
	}

	if healthServer != nil {
		lines = append(lines, fmt.Sprintf("    %s  gRPC Health    %s", check, cyan.Render(healthServer.Addr())))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  gRPC Health    %s", dot, dim.Render("disabled")))
	}

	if socketUp {
		lines = append(lines, fmt.Sprintf("    %s  Unix Socket    %s", check, cyan.Render(shortenPath(cfg.SocketPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Unix Socket    %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}
	logDest := cfg.LogFile
	if logDest == "" {
		if p, err := logging.DefaultPath("hllstatus"); err == nil {
			logDest = p
		}
	}
	lines = append(lines, fmt.Sprintf("    %s  Log File       %s", check, dim.Render(shortenPath(logDest))))

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
