package poller

import (
	"fmt"
	"strings"
)

// OverlapPolicy decides what happens when a tick fires while the previous
// fetch for the same domain is still pending.
type OverlapPolicy int

const (
	// OverlapSkip allows at most one in-flight fetch per domain; a tick
	// that finds the domain busy is dropped and counted.
	OverlapSkip OverlapPolicy = iota
	// OverlapAllow fires every tick unconditionally, letting requests
	// overlap. Stale completions are still never applied over newer ones.
	OverlapAllow
)

func (p OverlapPolicy) String() string {
	switch p {
	case OverlapSkip:
		return "skip"
	case OverlapAllow:
		return "allow"
	default:
		return fmt.Sprintf("OverlapPolicy(%d)", int(p))
	}
}

// ParseOverlapPolicy parses "skip" or "allow" (case-insensitive).
func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return OverlapSkip, nil
	case "allow":
		return OverlapAllow, nil
	default:
		return OverlapSkip, fmt.Errorf("poller: unknown overlap policy %q", s)
	}
}
