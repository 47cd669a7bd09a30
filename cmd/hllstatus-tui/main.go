package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/hllstatus/internal/fetch"
	"github.com/tinytelemetry/hllstatus/internal/logging"
	"github.com/tinytelemetry/hllstatus/internal/model"
	"github.com/tinytelemetry/hllstatus/internal/poller"
	"github.com/tinytelemetry/hllstatus/internal/publish"
	"github.com/tinytelemetry/hllstatus/internal/rconapi"
	"github.com/tinytelemetry/hllstatus/internal/socketrpc"
	"github.com/tinytelemetry/hllstatus/internal/tui"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var socketPath string
	var source string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/hllstatus/config.yml)")
	flag.StringVar(&source, "source", "", "status source: rcon (direct) or socket (via hllstatus daemon)")
	flag.StringVar(&socketPath, "socket", "", "override socket path to connect to hllstatus daemon")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("hllstatus-tui - HLL Server Status Client\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if source != "" {
		cfg.Source = strings.ToLower(source)
	}
	if socketPath != "" {
		cfg.SocketPath = socketPath
		if source == "" {
			cfg.Source = sourceSocket
		}
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openSource builds the StatusSource for cfg.Source and a label for the
// status bar. The returned func releases it.
func openSource(cfg cliConfig) (model.StatusSource, string, func(), error) {
	switch cfg.Source {
	case sourceSocket:
		client, err := socketrpc.Dial(cfg.SocketPath)
		if err != nil {
			return nil, "", nil, fmt.Errorf("cannot connect to hllstatus daemon at %s: %w\nIs the daemon running? Start it with: hllstatus", cfg.SocketPath, err)
		}
		return client, "Socket", func() { _ = client.Close() }, nil
	case sourceRCON:
		client, err := rconapi.New(cfg.RCONURL, rconapi.WithAPIKey(cfg.RCONAPIKey))
		if err != nil {
			return nil, "", nil, err
		}
		return client, "CRCON", func() {}, nil
	default:
		return nil, "", nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

func runTUI(cfg cliConfig) error {
	logger, cleanupLogger, err := logging.Setup(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		Name:  "hllstatus-tui",
	})
	if err != nil {
		return err
	}
	defer cleanupLogger()

	src, label, closeSource, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	mailbox := publish.NewMailbox()
	session := poller.New(
		fetch.New(src, fetch.WithTimeout(cfg.FetchTimeout)),
		publish.New(mailbox, mailbox),
		poller.WithInterval(cfg.PollInterval),
		poller.WithOverlapPolicy(cfg.overlap),
		poller.WithLogger(logger),
	)

	status := tui.NewStatusModel(session, mailbox, tui.Options{
		RefreshLimit: cfg.RefreshLimit,
		DataSource:   label,
	})
	app := tui.NewApp(tui.NewStatusPage(status))
	defer app.Shutdown()

	logger.Info("tui starting", "source", cfg.Source, "session_id", session.ID(), "interval", cfg.PollInterval)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
