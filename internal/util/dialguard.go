package util

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"syscall"
)

// ErrNonPublicAddress is returned when a guarded dial targets an address
// that is not routable on the public internet
var ErrNonPublicAddress = errors.New("non-public address")

var (
	sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")
	thisNetwork        = netip.MustParsePrefix("0.0.0.0/8")
)

// IsPublicAddr reports whether addr may be dialed on behalf of a remote caller
func IsPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	switch {
	case !addr.IsValid(),
		addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast(),
		addr.IsUnspecified(),
		sharedAddressSpace.Contains(addr),
		thisNetwork.Contains(addr):
		return false
	}
	return true
}

// PublicOnlyControl is a net.Dialer Control function refusing non-public addresses.
// It runs after name resolution, so it also covers DNS names and redirects.
func PublicOnlyControl(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", address, ErrNonPublicAddress)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil || !IsPublicAddr(addr) {
		return fmt.Errorf("dial %s: %w", address, ErrNonPublicAddress)
	}
	return nil
}
