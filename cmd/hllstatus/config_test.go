package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tinytelemetry/hllstatus/internal/poller"
)

func TestLoadConfig_Defaults(t *testing.T) {
	resetHLLStatusEnv(t)

	cfg, err := loadConfig(writeTempConfig(t, "log-level: info"))
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}

	if cfg.PollInterval != 15*time.Second {
		t.Fatalf("PollInterval = %s, want 15s", cfg.PollInterval)
	}
	if cfg.FetchTimeout != cfg.PollInterval {
		t.Fatalf("FetchTimeout = %s, want poll interval", cfg.FetchTimeout)
	}
	if cfg.overlap != poller.OverlapSkip {
		t.Fatalf("overlap = %s, want skip", cfg.overlap)
	}
	if cfg.RCONURL != defaultRCONURL {
		t.Fatalf("RCONURL = %q, want %q", cfg.RCONURL, defaultRCONURL)
	}
	if !cfg.APIEnabled || cfg.GRPCEnabled {
		t.Fatalf("api/grpc enabled = %v/%v, want true/false", cfg.APIEnabled, cfg.GRPCEnabled)
	}
	if cfg.ConfigPath == "" {
		t.Fatal("ConfigPath not recorded")
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	resetHLLStatusEnv(t)

	tests := []struct {
		name         string
		configYAML   string
		wantErr      bool
		errSubstring string
		assert       func(t *testing.T, cfg appConfig)
	}{
		{
			name: "custom cadence and policy",
			configYAML: `
rcon-url: https://crcon.example.com
rcon-api-key: secret
poll-interval: 5s
fetch-timeout: 3s
overlap-policy: allow
`,
			assert: func(t *testing.T, cfg appConfig) {
				t.Helper()
				if cfg.PollInterval != 5*time.Second || cfg.FetchTimeout != 3*time.Second {
					t.Fatalf("interval/timeout = %s/%s", cfg.PollInterval, cfg.FetchTimeout)
				}
				if cfg.overlap != poller.OverlapAllow {
					t.Fatalf("overlap = %s, want allow", cfg.overlap)
				}
				if cfg.RCONAPIKey != "secret" {
					t.Fatalf("api key = %q", cfg.RCONAPIKey)
				}
			},
		},
		{
			name:         "non-http rcon url rejected",
			configYAML:   `rcon-url: ftp://crcon.example.com`,
			wantErr:      true,
			errSubstring: "invalid rcon-url",
		},
		{
			name:         "zero poll interval rejected",
			configYAML:   `poll-interval: 0s`,
			wantErr:      true,
			errSubstring: "invalid poll-interval",
		},
		{
			name:         "negative fetch timeout rejected",
			configYAML:   `fetch-timeout: -1s`,
			wantErr:      true,
			errSubstring: "invalid fetch-timeout",
		},
		{
			name:         "unknown overlap policy rejected",
			configYAML:   `overlap-policy: queue`,
			wantErr:      true,
			errSubstring: "invalid overlap-policy",
		},
		{
			name:         "unknown log level rejected",
			configYAML:   `log-level: loud`,
			wantErr:      true,
			errSubstring: "invalid log-level",
		},
		{
			name: "grpc requires address",
			configYAML: `
grpc-enabled: true
grpc-addr: ""
`,
			wantErr:      true,
			errSubstring: "grpc-addr is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeTempConfig(t, tt.configYAML)
			cfg, err := loadConfig(configPath)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errSubstring != "" && !strings.Contains(err.Error(), tt.errSubstring) {
					t.Fatalf("error = %q, want substring %q", err.Error(), tt.errSubstring)
				}
				return
			}

			if err != nil {
				t.Fatalf("loadConfig returned error: %v", err)
			}
			if tt.assert != nil {
				tt.assert(t, cfg)
			}
		})
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	resetHLLStatusEnv(t)
	t.Setenv("HLLSTATUS_POLL_INTERVAL", "30s")
	t.Setenv("HLLSTATUS_OVERLAP_POLICY", "allow")

	cfg, err := loadConfig(writeTempConfig(t, "poll-interval: 5s"))
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("PollInterval = %s, want 30s from env", cfg.PollInterval)
	}
	if cfg.overlap != poller.OverlapAllow {
		t.Fatalf("overlap = %s, want allow from env", cfg.overlap)
	}
}

func TestLoadConfig_MissingFileTolerated(t *testing.T) {
	resetHLLStatusEnv(t)

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}
	if cfg.ConfigPath != "" {
		t.Fatalf("ConfigPath = %q, want empty for missing file", cfg.ConfigPath)
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func resetHLLStatusEnv(t *testing.T) {
	t.Helper()

	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, "HLLSTATUS_") {
			continue
		}
		// t.Setenv restores the original value on cleanup.
		t.Setenv(key, value)
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}
}
