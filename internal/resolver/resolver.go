// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package resolver implements the external DNS collaborator of spec §6:
// given a hostname, resolve it to the first IP address a client would
// have connected to, per the original's "take the first address
// returned" semantics.
//
// Lookups go out over github.com/miekg/dns rather than net.Resolver so
// h2sr can exchange directly against the forwarders configured on the
// host (grounded on the Exchange-based forwarding in the teacher's DNS
// service), instead of trusting whatever resolver glibc/cgo picks.
package resolver

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"

	"grimm.is/h2sr/internal/errors"
)

// Resolver resolves hostnames to addresses by querying a fixed set of
// upstream DNS servers.
type Resolver struct {
	servers []string
	client  *dns.Client
}

// New builds a Resolver that queries servers in order, falling through
// to the next on failure. Each server is a "host:port" address (port
// defaults to 53 if omitted).
func New(servers []string, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	addrs := make([]string, len(servers))
	for i, s := range servers {
		addrs[i] = withDefaultPort(s, "53")
	}
	return &Resolver{
		servers: addrs,
		client:  &dns.Client{Timeout: timeout},
	}
}

// FromResolvConf builds a Resolver from the nameservers in
// /etc/resolv.conf, the conventional fallback when no explicit upstream
// list is configured.
func FromResolvConf(path string, timeout time.Duration) (*Resolver, error) {
	cfg, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindGateway, "resolver: read %s", path)
	}
	var servers []string
	for _, srv := range cfg.Servers {
		servers = append(servers, fmt.Sprintf("%s:%s", srv, cfg.Port))
	}
	return New(servers, timeout), nil
}

func withDefaultPort(addr, port string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return fmt.Sprintf("%s:%s", addr, port)
}

// Resolve returns the first address for host, querying A first and then
// AAAA (spec §4.5 step 2c requires only "an address", and the original
// takes whatever its resolver returns first; A-before-AAAA keeps
// behavior deterministic for dual-stack names).
func (r *Resolver) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	if len(r.servers) == 0 {
		return netip.Addr{}, errors.Errorf(errors.KindGateway, "resolver: no upstream DNS servers configured")
	}

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		addr, err := r.query(ctx, host, qtype)
		if err == nil {
			return addr, nil
		}
	}
	return netip.Addr{}, errors.Errorf(errors.KindGateway, "resolver: could not resolve %q", host)
}

func (r *Resolver) query(ctx context.Context, host string, qtype uint16) (netip.Addr, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		resp, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("resolver: %s answered rcode %s for %s", server, dns.RcodeToString[resp.Rcode], host)
			continue
		}
		for _, rr := range resp.Answer {
			switch rec := rr.(type) {
			case *dns.A:
				if addr, ok := netip.AddrFromSlice(rec.A.To4()); ok {
					return addr, nil
				}
			case *dns.AAAA:
				if addr, ok := netip.AddrFromSlice(rec.AAAA.To16()); ok {
					return addr, nil
				}
			}
		}
		lastErr = fmt.Errorf("resolver: %s returned no %s records for %s", server, dns.TypeToString[qtype], host)
	}
	return netip.Addr{}, lastErr
}
