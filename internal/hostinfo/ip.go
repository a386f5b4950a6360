// Package hostinfo detects the host's primary IP address for interpolation
// into the generated stack configuration.
//
// The selection policy is deliberately simple: the first global unicast
// IPv4 address found while walking the interfaces wins. Multi-homed hosts
// get no tie-breaking beyond interface order, and IPv6 is not considered.
// Deployments that need a specific address set BERTH_HOST_IP instead.
package hostinfo

import (
	"fmt"
	"net"
)

// addrSource enumerates the host's interface addresses. Swapped out in
// tests; production uses net.InterfaceAddrs.
type addrSource func() ([]net.Addr, error)

// PrimaryIPv4 returns the first global unicast IPv4 address of the host
// as a dotted-quad string. Loopback, link-local, and IPv6 addresses are
// skipped. Returns an error when the host has no qualifying address.
func PrimaryIPv4() (string, error) {
	return primaryIPv4(net.InterfaceAddrs)
}

func primaryIPv4(source addrSource) (string, error) {
	addrs, err := source()
	if err != nil {
		return "", fmt.Errorf("enumerating interface addresses: %w", err)
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP
		if !ip.IsGlobalUnicast() {
			continue
		}
		// To4 is nil for pure IPv6 addresses.
		if v4 := ip.To4(); v4 != nil {
			return v4.String(), nil
		}
	}

	return "", fmt.Errorf("no global unicast IPv4 address found on any interface")
}
