//go:build !(linux || freebsd || openbsd || darwin || netbsd || dragonfly)

package main

import "net"

// tuneSocketBuffers is a no-op on platforms without golang.org/x/sys/unix
// socket-option support; the kernel default buffer sizes apply instead.
func tuneSocketBuffers(conn *net.UDPConn, bytes int) error {
	return nil
}
