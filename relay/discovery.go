package relay

import (
	"fmt"
	"os"

	"github.com/grandcat/zeroconf"
)

// ServiceName is the mDNS service stations browse for on the local network.
const ServiceName = "_morsewire._tcp"

// RegisterDiscovery announces the relay on the local network so stations
// can find it without configuration. Shut the returned server down when the
// relay stops.
func RegisterDiscovery(instance string, port int) (*zeroconf.Server, error) {
	if instance == "" {
		host, _ := os.Hostname()
		instance = fmt.Sprintf("morsewire-%s", host)
	}
	return zeroconf.Register(
		instance,
		ServiceName,
		"local.",
		port,
		[]string{"txtv=0"},
		nil,
	)
}
