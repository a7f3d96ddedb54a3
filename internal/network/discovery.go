// Package network provides the HTTP transport to the remote HID server and
// LAN discovery of such servers.
package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"touchbridge/internal/protocol"
)

const probeTimeout = 500 * time.Millisecond

// DiscoveredHost is a remote HID server found on the network
type DiscoveredHost struct {
	IP     string `json:"ip"`
	Port   int    `json:"port"`
	Status string `json:"status"`

	// TouchpadStatus is the server's raw touchpad state, when it reports one
	TouchpadStatus json.RawMessage `json:"touchpad_status,omitempty"`
}

// Addr returns the host:port of the server.
func (h DiscoveredHost) Addr() string {
	return net.JoinHostPort(h.IP, strconv.Itoa(h.Port))
}

// GetLocalIP returns the primary local IP address
func GetLocalIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}

// ScanLAN scans the local /24 subnet for servers answering the touchpad
// status query on port.
func ScanLAN(ctx context.Context, port int) ([]DiscoveredHost, error) {
	localIP, err := GetLocalIP()
	if err != nil {
		return nil, fmt.Errorf("failed to get local IP: %w", err)
	}

	parts := strings.Split(localIP, ".")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid IP address format: %s", localIP)
	}

	subnet := fmt.Sprintf("%s.%s.%s", parts[0], parts[1], parts[2])

	var hosts []DiscoveredHost
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 1; i <= 254; i++ {
		wg.Add(1)
		go func(hostNum int) {
			defer wg.Done()

			ip := fmt.Sprintf("%s.%d", subnet, hostNum)
			if ip == localIP {
				return
			}

			if host, ok := probeHost(ctx, ip, port); ok {
				mu.Lock()
				hosts = append(hosts, host)
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()
	return hosts, ctx.Err()
}

// probeHost asks ip:port for its touchpad status. Any answer carrying the
// status envelope identifies a server, even one that rejects the query.
func probeHost(ctx context.Context, ip string, port int) (DiscoveredHost, bool) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	body, _ := json.Marshal(protocol.StatusRequest{Action: protocol.ActionStatus})
	statusURL := fmt.Sprintf("http://%s/api/%s", net.JoinHostPort(ip, strconv.Itoa(port)), protocol.EndpointTouchpad)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, statusURL, bytes.NewReader(body))
	if err != nil {
		return DiscoveredHost{}, false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: probeTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return DiscoveredHost{}, false
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || !gjson.ValidBytes(raw) {
		return DiscoveredHost{}, false
	}
	status := gjson.GetBytes(raw, "status")
	if !status.Exists() {
		return DiscoveredHost{}, false
	}

	host := DiscoveredHost{IP: ip, Port: port, Status: status.String()}
	if ts := gjson.GetBytes(raw, "touchpad_status"); ts.Exists() {
		host.TouchpadStatus = json.RawMessage(ts.Raw)
	}
	return host, true
}

// GetLocalIPs returns all available local IPv4 addresses
func GetLocalIPs() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var ips []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue // interface down
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue // loopback interface
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			ip = ip.To4()
			if ip == nil {
				continue // not an ipv4 address
			}
			ips = append(ips, ip.String())
		}
	}
	return ips, nil
}
