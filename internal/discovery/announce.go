package discovery

import (
	"fmt"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/wifirelay/internal/logging"
	"github.com/muurk/wifirelay/internal/version"
)

// Announcer advertises the daemon's control channel over mDNS so
// operator tooling can find it without knowing the device address.
type Announcer struct {
	server *zeroconf.Server
}

// Announce registers the control endpoint under the relay service type.
// instance is the advertised service name (typically the AP SSID).
func Announce(instance string, port int) (*Announcer, error) {
	txt := []string{
		"version=" + version.Version,
		"path=/v1/control",
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Announcing control channel",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)

	return &Announcer{server: server}, nil
}

// Shutdown withdraws the advertisement.
func (a *Announcer) Shutdown() {
	a.server.Shutdown()
}
