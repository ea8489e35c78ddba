package main

import (
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/bhandras/agbridge/internal/logger"
	"github.com/skip2/go-qrcode"
)

// localIPv4s lists the non-loopback IPv4 addresses of interfaces that are up.
func localIPv4s() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		logger.Warnf("Failed to list network interfaces: %v", err)
		return nil
	}

	var ips []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if ip4 := ipNet.IP.To4(); ip4 != nil && !ip4.IsLoopback() {
				ips = append(ips, ip4.String())
			}
		}
	}
	return ips
}

// printBanner writes the pairing code and the LAN URLs a phone can open. The
// first URL is also rendered as a terminal QR code.
func printBanner(w io.Writer, addr, pairingCode string) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		port = addr
	}

	rule := strings.Repeat("=", 50)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, " AG Bridge %s running on port %s\n", version, port)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, " PAIRING CODE: [ %s ]\n", pairingCode)
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintln(w, " Open on your phone:")

	ips := localIPv4s()
	for _, ip := range ips {
		fmt.Fprintf(w, " http://%s\n", net.JoinHostPort(ip, port))
	}
	fmt.Fprintln(w, rule)

	if len(ips) == 0 {
		return
	}
	qr, err := qrcode.New("http://"+net.JoinHostPort(ips[0], port), qrcode.Medium)
	if err != nil {
		logger.Debugf("Failed to render QR code: %v", err)
		return
	}
	fmt.Fprint(w, qr.ToSmallString(false))
}
