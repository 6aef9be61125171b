//go:build linux || freebsd || openbsd || darwin || netbsd || dragonfly

package main

import (
	"net"

	"golang.org/x/sys/unix"
)

// tuneSocketBuffers raises the kernel's socket receive/send buffer sizes so
// a burst of window-sized UDP datagrams doesn't get dropped before
// OnDatagramArrived ever sees it; grounded on runZeroInc-sockstats's
// build-tagged use of golang.org/x/sys/unix for OS-level socket
// introspection (kernel_unix.go), generalized from reading kernel version
// to writing socket options.
func tuneSocketBuffers(conn *net.UDPConn, bytes int) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}

	var setErr error
	err = raw.Control(func(fd uintptr) {
		if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, bytes); e != nil {
			setErr = e
			return
		}
		if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, bytes); e != nil {
			setErr = e
			return
		}
	})
	if err != nil {
		return err
	}
	return setErr
}
