// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package proxy implements the HTTP front-end of spec §5: it accepts
// HTTP CONNECT (for TLS/opaque traffic) and plain HTTP requests, routes
// each one through a policy.Policy, and tunnels or forwards the
// connection via a direct dial or the configured SOCKS5 upstream.
//
// CONNECT handling hijacks the client connection via http.Hijacker:
// write the 200 status line by hand, then copy bytes in both
// directions until either side closes.
package proxy

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/proxy"

	h2errors "grimm.is/h2sr/internal/errors"
	"grimm.is/h2sr/internal/logging"
	"grimm.is/h2sr/internal/metrics"
	"grimm.is/h2sr/internal/netutil"
	"grimm.is/h2sr/internal/policy"
	"grimm.is/h2sr/internal/resolver"
)

var errBlocked = errors.New("proxy: destination is blocked by policy")

// Server is h2sr's HTTP-to-SOCKS5 routing proxy front-end.
type Server struct {
	listen     string
	policy     *policy.Policy
	resolver   *resolver.Resolver
	metrics    *metrics.Collector
	logger     *logging.Logger
	dialer     net.Dialer
	socks5     proxy.Dialer
	httpServer *http.Server
}

// NewServer builds a Server listening on listen, routing through pol,
// resolving unmatched hostnames via res, and reaching destinations
// routed Socks5 through the SOCKS5 server at socks5Addr.
func NewServer(listen string, pol *policy.Policy, res *resolver.Resolver, socks5Addr string, m *metrics.Collector) (*Server, error) {
	socks5, err := proxy.SOCKS5("tcp", socks5Addr, nil, proxy.Direct)
	if err != nil {
		return nil, h2errors.Wrapf(err, h2errors.KindConfig, "proxy: building SOCKS5 dialer for %s", socks5Addr)
	}

	s := &Server{
		listen:   listen,
		policy:   pol,
		resolver: res,
		metrics:  m,
		logger:   logging.WithComponent("proxy"),
		socks5:   socks5,
	}

	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// ListenAndServe starts the proxy and blocks until ctx is canceled or an
// unrecoverable error occurs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.listen)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// ServeHTTP dispatches CONNECT tunnels and plain HTTP forwarding.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	connID := uuid.NewString()
	logger := s.logger.With("conn", connID, "authority", r.Host, "method", r.Method)

	if r.Method == http.MethodConnect {
		s.handleConnect(w, r, logger)
		return
	}
	s.handleForward(w, r, logger)
}

// handleConnect implements the CONNECT tunnel: route, dial the chosen
// upstream, hijack the client socket, confirm with "200 Connection
// Established", then copy bytes in both directions.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request, logger *logging.Logger) {
	upstream, decision, err := s.dial(r.Context(), r.Host)
	s.observe(decision, err, logger)

	if err != nil {
		if errors.Is(err, errBlocked) {
			http.Error(w, "Forbidden", http.StatusForbidden)
		} else {
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
		}
		return
	}
	defer upstream.Close()

	hj, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	clientConn, rw, err := hj.Hijack()
	if err != nil {
		logger.Error("hijack failed", "error", err)
		return
	}
	defer clientConn.Close()

	if _, err := rw.WriteString("HTTP/1.1 200 Connection Established\r\n\r\n"); err != nil {
		logger.Error("writing CONNECT response failed", "error", err)
		return
	}
	if err := rw.Flush(); err != nil {
		logger.Error("flushing CONNECT response failed", "error", err)
		return
	}

	tunnel(clientConn, rw.Reader, upstream)
}

// tunnel copies bytes in both directions until either side is done.
// clientBuf is the bufio.Reader left over from hijacking, which may
// already hold buffered bytes the client sent before the tunnel was
// established.
func tunnel(client net.Conn, clientBuf *bufio.Reader, upstream net.Conn) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		io.Copy(upstream, clientBuf)
		if tc, ok := upstream.(interface{ CloseWrite() error }); ok {
			tc.CloseWrite()
		}
	}()
	go func() {
		defer wg.Done()
		io.Copy(client, upstream)
		if tc, ok := client.(interface{ CloseWrite() error }); ok {
			tc.CloseWrite()
		}
	}()

	wg.Wait()
}

// handleForward implements plain (non-CONNECT) HTTP forwarding, routed
// through the same policy as CONNECT (spec §9 supplements the
// original's CONNECT-only routing with plain-HTTP routing too).
func (s *Server) handleForward(w http.ResponseWriter, r *http.Request, logger *logging.Logger) {
	rp := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL.Scheme = "http"
			req.URL.Host = req.Host
		},
		Transport: &forwardingTransport{server: s, logger: logger},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, errBlocked) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
		},
	}
	rp.ServeHTTP(w, r)
}

// forwardingTransport dials per-request through the same routing
// pipeline as CONNECT, so the decision for a plain HTTP request's
// destination is made identically.
type forwardingTransport struct {
	server *Server
	logger *logging.Logger
}

func (t *forwardingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	conn, decision, err := t.server.dial(req.Context(), withDefaultPort(req.URL.Host, "80"))
	t.server.observe(decision, err, t.logger)
	if err != nil {
		return nil, err
	}

	if err := req.Write(conn); err != nil {
		conn.Close()
		return nil, err
	}
	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		conn.Close()
		return nil, err
	}
	resp.Body = closeWithConn{ReadCloser: resp.Body, conn: conn}
	return resp, nil
}

type closeWithConn struct {
	io.ReadCloser
	conn net.Conn
}

func (c closeWithConn) Close() error {
	err := c.ReadCloser.Close()
	c.conn.Close()
	return err
}

// withDefaultPort appends defaultPort to authority if it carries no port
// of its own. Plain HTTP requests' Host headers are commonly bare
// hostnames; CONNECT targets always include a port per RFC 7231 §4.3.6
// and are passed through unchanged.
func withDefaultPort(authority, defaultPort string) string {
	host, port := netutil.SplitAuthority(authority)
	if port != "" {
		return authority
	}
	return net.JoinHostPort(host, defaultPort)
}

// dial routes authority through the policy (resolving through DNS if
// needed, per spec §4.5 step 2c) and dials the chosen upstream.
func (s *Server) dial(ctx context.Context, authority string) (net.Conn, policy.Decision, error) {
	result := s.policy.Route(authority)
	decision := result.Decision

	if decision == policy.Undecided {
		addr, err := s.resolver.Resolve(ctx, result.Host)
		if err != nil {
			s.metrics.ObserveResolveFailure()
			return nil, policy.Undecided, h2errors.Wrapf(err, h2errors.KindGateway, "proxy: resolving %q", result.Host)
		}
		decision = s.policy.RouteIP(addr)
	}

	switch decision {
	case policy.Block:
		return nil, policy.Block, errBlocked
	case policy.Direct:
		conn, err := s.dialer.DialContext(ctx, "tcp", authority)
		if err != nil {
			s.metrics.ObserveDialError("direct")
			return nil, policy.Direct, h2errors.Wrapf(err, h2errors.KindGateway, "proxy: direct dial %s", authority)
		}
		return conn, policy.Direct, nil
	default: // policy.Socks5
		conn, err := s.socks5.Dial("tcp", authority)
		if err != nil {
			s.metrics.ObserveDialError("socks5")
			return nil, policy.Socks5, h2errors.Wrapf(err, h2errors.KindGateway, "proxy: socks5 dial %s", authority)
		}
		return conn, policy.Socks5, nil
	}
}

func (s *Server) observe(decision policy.Decision, err error, logger *logging.Logger) {
	s.metrics.ObserveDecision(decision.String())
	if err != nil {
		logger.Warn("routing failed", "decision", decision.String(), "error", err)
		return
	}
	logger.Info("routed", "decision", decision.String())
}
