package model

import "time"

// Shared defaults used by both the daemon and TUI binaries.
const (
	DefaultPollInterval  = 15 * time.Second
	DefaultOverlapPolicy = "skip"
	DefaultSource        = "rcon"
	DefaultRCONURL       = "http://127.0.0.1:8010"
	DefaultRefreshLimit  = 2 * time.Second
)
