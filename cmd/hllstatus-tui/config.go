package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/hllstatus/internal/logging"
	"github.com/tinytelemetry/hllstatus/internal/model"
	"github.com/tinytelemetry/hllstatus/internal/poller"
	"github.com/tinytelemetry/hllstatus/internal/socketrpc"
)

const (
	sourceRCON   = "rcon"
	sourceSocket = "socket"
)

// cliConfig holds only TUI-relevant configuration.
type cliConfig struct {
	Source        string        `mapstructure:"source"`
	RCONURL       string        `mapstructure:"rcon-url"`
	RCONAPIKey    string        `mapstructure:"rcon-api-key"`
	SocketPath    string        `mapstructure:"socket-path"`
	PollInterval  time.Duration `mapstructure:"poll-interval"`
	FetchTimeout  time.Duration `mapstructure:"fetch-timeout"`
	OverlapPolicy string        `mapstructure:"overlap-policy"`
	RefreshLimit  time.Duration `mapstructure:"refresh-limit"`
	LogLevel      string        `mapstructure:"log-level"`
	LogFile       string        `mapstructure:"log-file"`

	overlap poller.OverlapPolicy
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("HLLSTATUS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("source", model.DefaultSource)
	v.SetDefault("rcon-url", model.DefaultRCONURL)
	v.SetDefault("rcon-api-key", "")
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())
	v.SetDefault("poll-interval", model.DefaultPollInterval)
	v.SetDefault("fetch-timeout", time.Duration(0))
	v.SetDefault("overlap-policy", model.DefaultOverlapPolicy)
	v.SetDefault("refresh-limit", model.DefaultRefreshLimit)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-file", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "hllstatus", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	cfg.Source = strings.ToLower(strings.TrimSpace(cfg.Source))
	switch cfg.Source {
	case sourceRCON, sourceSocket:
	default:
		return cfg, fmt.Errorf("invalid source: %q (want rcon or socket)", cfg.Source)
	}
	if cfg.PollInterval <= 0 {
		return cfg, fmt.Errorf("invalid poll-interval: %s", cfg.PollInterval)
	}
	if cfg.FetchTimeout < 0 {
		return cfg, fmt.Errorf("invalid fetch-timeout: %s", cfg.FetchTimeout)
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = cfg.PollInterval
	}
	if cfg.RefreshLimit <= 0 {
		return cfg, fmt.Errorf("invalid refresh-limit: %s", cfg.RefreshLimit)
	}
	if cfg.overlap, err = poller.ParseOverlapPolicy(cfg.OverlapPolicy); err != nil {
		return cfg, fmt.Errorf("invalid overlap-policy: %w", err)
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return cfg, fmt.Errorf("invalid log-level: %w", err)
	}
	// The TUI owns the terminal, so logs must go to a file.
	if cfg.LogFile == logging.Stderr {
		return cfg, errors.New("invalid log-file: the TUI cannot log to stderr")
	}

	if strings.HasPrefix(cfg.SocketPath, "~/") {
		cfg.SocketPath = filepath.Join(home, cfg.SocketPath[2:])
	}

	return cfg, nil
}
