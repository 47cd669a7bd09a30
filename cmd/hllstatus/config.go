package main

import (
	"errors"
	"fmt"
	"net/url"
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
	defaultPollInterval  = model.DefaultPollInterval
	defaultOverlapPolicy = model.DefaultOverlapPolicy
	defaultRCONURL       = model.DefaultRCONURL
	defaultAPIAddr       = "127.0.0.1:3000"
	defaultGRPCAddr      = "127.0.0.1:3001"
	defaultLogLevel      = "info"
)

// appConfig is internal runtime configuration for the daemon.
type appConfig struct {
	RCONURL       string        `mapstructure:"rcon-url"`
	RCONAPIKey    string        `mapstructure:"rcon-api-key"`
	PollInterval  time.Duration `mapstructure:"poll-interval"`
	FetchTimeout  time.Duration `mapstructure:"fetch-timeout"`
	OverlapPolicy string        `mapstructure:"overlap-policy"`
	SocketEnabled bool          `mapstructure:"socket-enabled"`
	SocketPath    string        `mapstructure:"socket-path"`
	APIEnabled    bool          `mapstructure:"api-enabled"`
	APIAddr       string        `mapstructure:"api-addr"`
	GRPCEnabled   bool          `mapstructure:"grpc-enabled"`
	GRPCAddr      string        `mapstructure:"grpc-addr"`
	LogLevel      string        `mapstructure:"log-level"`
	LogFile       string        `mapstructure:"log-file"`
	ConfigPath    string        `mapstructure:"-"` // not from config file

	overlap poller.OverlapPolicy
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("HLLSTATUS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("rcon-url", defaultRCONURL)
	v.SetDefault("rcon-api-key", "")
	v.SetDefault("poll-interval", defaultPollInterval)
	v.SetDefault("fetch-timeout", time.Duration(0))
	v.SetDefault("overlap-policy", defaultOverlapPolicy)
	v.SetDefault("socket-enabled", true)
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())
	v.SetDefault("api-enabled", true)
	v.SetDefault("api-addr", defaultAPIAddr)
	v.SetDefault("grpc-enabled", false)
	v.SetDefault("grpc-addr", defaultGRPCAddr)
	v.SetDefault("log-level", defaultLogLevel)
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
	cfg.ConfigPath = v.ConfigFileUsed()
	if _, statErr := os.Stat(cfg.ConfigPath); statErr != nil {
		cfg.ConfigPath = ""
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	// Expand ~ in socket-path and log-file
	cfg.SocketPath = expandHome(home, cfg.SocketPath)
	cfg.LogFile = expandHome(home, cfg.LogFile)

	return cfg, nil
}

func (cfg *appConfig) validate() error {
	u, err := url.Parse(cfg.RCONURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid rcon-url: %q", cfg.RCONURL)
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("invalid poll-interval: %s", cfg.PollInterval)
	}
	if cfg.FetchTimeout < 0 {
		return fmt.Errorf("invalid fetch-timeout: %s", cfg.FetchTimeout)
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = cfg.PollInterval
	}
	policy, err := poller.ParseOverlapPolicy(cfg.OverlapPolicy)
	if err != nil {
		return fmt.Errorf("invalid overlap-policy: %w", err)
	}
	cfg.overlap = policy
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log-level: %w", err)
	}
	if cfg.SocketEnabled && cfg.SocketPath == "" {
		return errors.New("socket-path is required when socket-enabled is true")
	}
	if cfg.APIEnabled && cfg.APIAddr == "" {
		return errors.New("api-addr is required when api-enabled is true")
	}
	if cfg.GRPCEnabled && cfg.GRPCAddr == "" {
		return errors.New("grpc-addr is required when grpc-enabled is true")
	}
	return nil
}

func expandHome(home, path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
