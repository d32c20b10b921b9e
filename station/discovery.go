package station

import (
	"context"
	"fmt"
	"net"

	"github.com/grandcat/zeroconf"
)

// DiscoverRelay browses the local network for a relay announcement and
// returns a wire endpoint URL for the first one found, or fails when the
// context expires first.
func DiscoverRelay(ctx context.Context, service string) (string, error) {
	if service == "" {
		service = "_morsewire._tcp"
	}
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("station: mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan string, 1)
	go func(results <-chan *zeroconf.ServiceEntry) {
		for entry := range results {
			var addr net.IP
			if len(entry.AddrIPv4) > 0 {
				addr = entry.AddrIPv4[0]
			} else if len(entry.AddrIPv6) > 0 {
				addr = entry.AddrIPv6[0]
			} else {
				continue
			}
			select {
			case found <- fmt.Sprintf("ws://%s/wire", net.JoinHostPort(addr.String(), fmt.Sprint(entry.Port))):
			default:
			}
		}
	}(entries)

	if err := resolver.Browse(ctx, service, "local.", entries); err != nil {
		return "", fmt.Errorf("station: mDNS browse: %w", err)
	}
	select {
	case url := <-found:
		return url, nil
	case <-ctx.Done():
		return "", fmt.Errorf("station: no relay discovered: %w", ctx.Err())
	}
}
