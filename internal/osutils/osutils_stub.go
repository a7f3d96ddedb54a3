//go:build !windows

package osutils

import "github.com/rs/zerolog/log"

// IsAdmin is a stub for non-Windows platforms
func IsAdmin() bool {
	return false
}

// EnsureFirewallRule is a stub for non-Windows platforms
func EnsureFirewallRule(port int) error {
	log.Info().Str("component", "firewall").Int("port", port).
		Msg("automatic rule management is only supported on Windows")
	return nil
}
