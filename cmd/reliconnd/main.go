// Command reliconnd runs one reliable byte-stream session over a UDP
// socket, bridging it to the process's own stdin/stdout: bytes written to
// stdin are streamed reliably to the peer, bytes received from the peer
// are written to stdout. Flag-driven entry point modeled on
// sample/tun_tcp_echo/main.go's "parse args, wire one endpoint, run" shape,
// adapted from a TUN-backed TCP stack to a real kernel UDP socket.
package main

import (
	"flag"
	"net"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/relaysystems/reliudp/transport/rtp"
	"github.com/relaysystems/reliudp/transport/rtp/rtpmetrics"
)

func main() {
	listenAddr := flag.String("listen", "", "local UDP address to bind (host:port); an ephemeral port is chosen if empty")
	connectAddr := flag.String("connect", "", "remote UDP address to stream to (host:port); if empty, the session binds to whichever peer sends the first datagram")
	configPath := flag.String("config", "", "path to a reliconnd.yml overriding built-in defaults")
	flag.Parse()

	cfg := LoadConfig(*configPath)
	logrus.SetLevel(cfg.LogLevel)
	log := logrus.WithField("component", "reliconnd")

	var conn *net.UDPConn
	var err error
	if *listenAddr != "" {
		var laddr *net.UDPAddr
		laddr, err = net.ResolveUDPAddr("udp", *listenAddr)
		if err != nil {
			log.WithError(err).Fatal("bad -listen address")
		}
		conn, err = net.ListenUDP("udp", laddr)
	} else {
		conn, err = pickEphemeralUDPConn(net.IPv4zero)
	}
	if err != nil {
		log.WithError(err).Fatal("failed to open UDP socket")
	}
	defer conn.Close()

	const socketBufferBytes = 1 << 20
	if err := tuneSocketBuffers(conn, socketBufferBytes); err != nil {
		log.WithError(err).Warn("failed to tune socket buffers, using kernel defaults")
	}

	log.WithField("local_addr", conn.LocalAddr()).Info("listening")

	var peer *net.UDPAddr
	if *connectAddr != "" {
		peer, err = net.ResolveUDPAddr("udp", *connectAddr)
		if err != nil {
			log.WithError(err).Fatal("bad -connect address")
		}
	}

	sub := newStdioUDPSubstrate(conn, peer, os.Stdout)

	reg := rtp.NewRegistry(log)

	if cfg.MetricsAddr != "" {
		collector := rtpmetrics.NewCollector(reg, "reliconnd", prometheus.Labels{
			"local_addr": conn.LocalAddr().String(),
		})
		prometheus.MustRegister(collector)
		reg.SetObserver(collector)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
		log.WithField("addr", cfg.MetricsAddr).Info("serving metrics")
	}

	sess, err := reg.NewSession(sub, rtp.Config{Window: cfg.Window, Timeout: cfg.Timeout})
	if err != nil {
		log.WithError(err).Fatal("failed to create session")
	}

	runLoop(reg, sess, sub, conn, os.Stdin, log)
}
