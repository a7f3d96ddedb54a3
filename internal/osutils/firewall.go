// Package osutils holds the platform-specific helpers used by the serve command.
package osutils

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// RuleName is the display name of the inbound firewall rule for the page server.
const RuleName = "TouchBridge Touchpad Page"

// firewallScript removes any stale rule and creates one for port.
func firewallScript(name string, port int) string {
	return fmt.Sprintf(
		"Remove-NetFirewallRule -DisplayName '%s' -ErrorAction SilentlyContinue; New-NetFirewallRule -DisplayName '%s' -Direction Inbound -LocalPort %d -Protocol TCP -Action Allow -Profile Any",
		name, name, port,
	)
}

// ruleMatches reports whether netsh output shows an allow rule for port.
func ruleMatches(output, name string, port int) bool {
	if !strings.Contains(output, name) || !strings.Contains(output, "Allow") {
		return false
	}
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(key) != "LocalPort" {
			continue
		}
		for _, p := range strings.Split(value, ",") {
			if strings.TrimSpace(p) == strconv.Itoa(port) {
				return true
			}
		}
	}
	return false
}

// OpenBrowser opens url in the default browser.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
