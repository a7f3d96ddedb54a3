//go:build windows

package osutils

import (
	"fmt"
	"os/exec"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows"
)

// IsAdmin checks if the current process has administrative privileges
func IsAdmin() bool {
	var token windows.Token
	h, _ := windows.GetCurrentProcess()
	err := windows.OpenProcessToken(h, windows.TOKEN_QUERY, &token)
	if err != nil {
		return false
	}
	defer token.Close()

	var sid *windows.SID
	err = windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	member, err := token.IsMember(sid)
	if err != nil {
		return false
	}
	return member
}

// EnsureFirewallRule makes sure phones on the LAN can reach the page server
// on port, elevating through UAC when the process is not an administrator.
func EnsureFirewallRule(port int) error {
	logger := log.With().Str("component", "firewall").Str("rule", RuleName).Int("port", port).Logger()

	output, err := exec.Command("netsh", "advfirewall", "firewall", "show", "rule", "name="+RuleName).CombinedOutput()
	if err == nil && ruleMatches(string(output), RuleName, port) {
		logger.Debug().Msg("rule already present")
		return nil
	}
	logger.Info().Msg("creating inbound rule")

	script := firewallScript(RuleName, port)

	if IsAdmin() {
		cmd := exec.Command("powershell", "-NoProfile", "-Command", script)
		if output, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("create firewall rule: %w (output: %s)", err, string(output))
		}
		logger.Info().Msg("rule created")
		return nil
	}

	verbPtr, _ := syscall.UTF16PtrFromString("runas")
	exePtr, _ := syscall.UTF16PtrFromString("powershell.exe")
	argPtr, _ := syscall.UTF16PtrFromString(fmt.Sprintf("-NoProfile -WindowStyle Hidden -Command \"%s\"", script))

	// SW_HIDE
	if err := windows.ShellExecute(0, verbPtr, exePtr, argPtr, nil, 0); err != nil {
		return fmt.Errorf("launch elevated powershell: %w", err)
	}
	logger.Warn().Msg("not elevated; UAC prompt requested")
	return nil
}
