package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type relay daemons advertise.
	ServiceType = "_wifirelay._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for daemon discovery
	DefaultScanTimeout = 5 * time.Second
)

// Daemon is a relay daemon found on the local network.
type Daemon struct {
	Instance     string
	Hostname     string
	IP           string
	Port         int
	Version      string
	DiscoveredAt time.Time
}

// Addr returns the daemon's control endpoint as host:port.
func (d *Daemon) Addr() string {
	return fmt.Sprintf("%s:%d", d.IP, d.Port)
}

// Scanner handles mDNS daemon discovery
type Scanner struct {
	// Timeout is the maximum time to wait for discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// Scan discovers all relay daemons on the local network.
func (s *Scanner) Scan(ctx context.Context) ([]*Daemon, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	daemons := make([]*Daemon, 0)
	done := make(chan struct{})

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		defer close(done)
		for entry := range entries {
			if d := parseServiceEntry(entry); d != nil {
				daemons = append(daemons, d)
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done

	return daemons, nil
}

// parseServiceEntry converts a zeroconf service entry to a Daemon.
// Returns nil for entries missing an address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Daemon {
	// Prefer IPv4
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	d := &Daemon{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		DiscoveredAt: time.Now(),
	}

	// TXT records are in "key=value" format
	for _, txt := range entry.Text {
		if len(txt) > 8 && txt[:8] == "version=" {
			d.Version = txt[8:]
		}
	}

	return d
}
